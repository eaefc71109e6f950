// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/z5labs/apigate/auth"
	"github.com/z5labs/apigate/errpage"
	"github.com/z5labs/apigate/swagger"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/z5labs/sdk-go/try"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// UnboundError is reported for a declared operation which has no handler.
type UnboundError struct {
	Method string
	Path   string
}

func (e UnboundError) Error() string {
	return fmt.Sprintf("gateway: %s %s has no bound handler", e.Method, e.Path)
}

func (g *Gateway) operation(op swagger.Operation, routePath string) http.Handler {
	md := g.doc.Metadata(op)
	pattern := foldPattern(routePath)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unfoldParams(r, pattern)
		ctx := swagger.WithMetadata(r.Context(), md)
		r = r.WithContext(ctx)
		rw := &responseWriter{ResponseWriter: w}

		err := g.serve(ctx, rw, r, op, routePath)
		if err == nil {
			return
		}
		if rw.wroteHeader {
			g.log.ErrorContext(
				ctx,
				"failed after response was started",
				slog.String("method", md.Method),
				slog.String("path", md.Path),
				slog.Any("error", err),
			)
			return
		}
		g.fail(rw, r, md, err)
	})
}

func (g *Gateway) serve(ctx context.Context, w http.ResponseWriter, r *http.Request, op swagger.Operation, routePath string) error {
	r, err := g.validator.Validate(ctx, op, r)
	if err != nil {
		return err
	}

	err = g.authenticate(ctx, r, op)
	if err != nil {
		return err
	}

	entry, bound := g.table.Lookup(op.Method, routePath)
	if !bound || entry.Handler == nil {
		return UnboundError{Method: op.Method, Path: op.Path}
	}
	return g.handle(ctx, w, r, entry.Handler)
}

func (g *Gateway) authenticate(ctx context.Context, r *http.Request, op swagger.Operation) error {
	spanCtx, span := g.tracer.Start(ctx, "gateway.authenticate")
	defer span.End()

	sc := auth.ContextFor(spanCtx, g.doc, op)
	outcome, err := g.resolver.Resolve(spanCtx, sc, r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.String("apigate.auth.outcome", outcome.Kind()))
	g.authOutcomes.Add(spanCtx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome.Kind()),
	))

	status, proceed := auth.Decide(outcome)
	if proceed {
		return nil
	}
	return errpage.Error(status, outcomeMessage(outcome))
}

func outcomeMessage(o auth.Outcome) string {
	switch o := o.(type) {
	case auth.NotImplemented:
		return fmt.Sprintf("Authentication type %q is not implemented.", o.SchemeType)
	case auth.UnsupportedSchemeType:
		return fmt.Sprintf("Authentication type %q is not supported by the Swagger 2 specification.", o.SchemeType)
	default:
		return "Not Authorized"
	}
}

func (g *Gateway) handle(ctx context.Context, w http.ResponseWriter, r *http.Request, h http.Handler) (err error) {
	spanCtx, span := g.tracer.Start(ctx, "gateway.handle")
	defer span.End()
	defer func() {
		if err == nil {
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}()
	defer settlePanic(&err)
	defer try.Recover(&err)

	r = r.WithContext(spanCtx)
	if gh, ok := h.(Handler); ok {
		return gh.Handle(w, r)
	}
	h.ServeHTTP(w, r)
	return nil
}

// PanicValueError is a recovered panic whose value is not an error.
type PanicValueError struct {
	Value any
}

func (e PanicValueError) Error() string {
	return fmt.Sprintf("recovered from panic: %v", e.Value)
}

// settlePanic replaces a [try.PanicError] holding a non error value,
// which can not be unwrapped, with a [PanicValueError].
func settlePanic(err *error) {
	*err, _ = settle(*err)
}

func settle(err error) (error, bool) {
	switch e := err.(type) {
	case try.PanicError:
		if _, ok := e.Value.(error); !ok {
			return PanicValueError{Value: e.Value}, true
		}
	case interface{ Unwrap() []error }:
		errs := e.Unwrap()
		settled := make([]error, len(errs))
		changed := false
		for i, err := range errs {
			var ok bool
			settled[i], ok = settle(err)
			changed = changed || ok
		}
		if changed {
			return errors.Join(settled...), true
		}
	}
	return err, false
}

// fail renders err as an error page. Server side failures are given an
// incident id which is both logged and shown to the client.
func (g *Gateway) fail(w http.ResponseWriter, r *http.Request, md swagger.Metadata, err error) {
	ctx := r.Context()

	presenter := g.general
	var unbound UnboundError
	if errors.As(err, &unbound) {
		presenter = g.unbound
	}

	herr := *errpage.AsHTTPError(err)
	herr.Status = presenter.Status(&herr)
	if herr.Status >= http.StatusInternalServerError && herr.IncidentID == "" {
		herr.IncidentID = uuid.NewString()
	}

	attrs := []slog.Attr{
		slog.Int("status", herr.Status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.Any("error", err),
	}
	if md.OperationID != "" {
		attrs = append(attrs,
			slog.String("handler_group", md.HandlerGroup),
			slog.String("operation_id", md.OperationID),
		)
	}
	if herr.IncidentID != "" {
		attrs = append(attrs, slog.String("incident_id", herr.IncidentID))
	}
	level := slog.LevelWarn
	if herr.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	g.log.LogAttrs(ctx, level, "request failed", attrs...)

	g.renderedErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("template", presenter.Name()),
		attribute.Int("status", herr.Status),
	))

	err = presenter.Serve(w, &herr, md)
	if err == nil {
		return
	}
	g.log.ErrorContext(ctx, "failed to render error page", slog.Any("error", err))
}
