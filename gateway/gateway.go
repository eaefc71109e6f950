// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gateway serves the operations of an API definition.
//
// Every request to a declared operation passes through the same stages,
// in order: parse, validate, authenticate, route, handle and, if any
// stage fails, the error fallback.
package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/z5labs/apigate"
	"github.com/z5labs/apigate/auth"
	"github.com/z5labs/apigate/errpage"
	"github.com/z5labs/apigate/health"
	"github.com/z5labs/apigate/route"
	"github.com/z5labs/apigate/swagger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/z5labs/apigate/gateway"

// Options are configurable parameters of a [Gateway].
type Options struct {
	validator    Validator
	templateDir  string
	useBasePath  bool
	filesRoute   string
	openAPIRoute string
	staticRoute  string
	staticDir    string
	favicon      string
	readiness    []health.Check
}

// Option sets a value on [Options].
type Option interface {
	ApplyOption(*Options)
}

type optionFunc func(*Options)

func (f optionFunc) ApplyOption(o *Options) {
	f(o)
}

// WithValidator replaces the default [RequiredValidator].
func WithValidator(v Validator) Option {
	return optionFunc(func(o *Options) {
		o.validator = v
	})
}

// WithTemplates sets where error page templates are read from.
func WithTemplates(dir string) Option {
	return optionFunc(func(o *Options) {
		o.templateDir = dir
	})
}

// WithBasePath serves operations under the document basePath. It must
// agree with the option the route table was bound with.
func WithBasePath(enabled bool) Option {
	return optionFunc(func(o *Options) {
		o.useBasePath = enabled
	})
}

// WithDefinitionRoute publishes the definition, as JSON, at route.
func WithDefinitionRoute(route string) Option {
	return optionFunc(func(o *Options) {
		o.filesRoute = route
	})
}

// WithOpenAPIRoute publishes an OpenAPI 3.0 rendition of the definition at route.
func WithOpenAPIRoute(route string) Option {
	return optionFunc(func(o *Options) {
		o.openAPIRoute = route
	})
}

// WithStatic serves the files in dir under route.
func WithStatic(route, dir string) Option {
	return optionFunc(func(o *Options) {
		o.staticRoute = route
		o.staticDir = dir
	})
}

// WithFavicon serves the file at path as /favicon.ico.
func WithFavicon(path string) Option {
	return optionFunc(func(o *Options) {
		o.favicon = path
	})
}

// WithReadiness adds checks which must all pass for the gateway to
// report ready.
func WithReadiness(checks ...health.Check) Option {
	return optionFunc(func(o *Options) {
		o.readiness = append(o.readiness, checks...)
	})
}

// Gateway is an [http.Handler] serving a bound route table.
type Gateway struct {
	log    *slog.Logger
	tracer trace.Tracer

	doc       *swagger.Document
	table     *route.Table
	resolver  *auth.Resolver
	validator Validator

	general *errpage.Presenter
	unbound *errpage.Presenter

	authOutcomes   metric.Int64Counter
	renderedErrors metric.Int64Counter

	ready *health.Flag
	mux   *chi.Mux
}

// New initializes a [Gateway]. It registers a route for every operation
// declared by doc, whether or not table holds a handler for it.
func New(doc *swagger.Document, table *route.Table, resolver *auth.Resolver, opts ...Option) (*Gateway, error) {
	o := &Options{
		validator: RequiredValidator{},
	}
	for _, opt := range opts {
		opt.ApplyOption(o)
	}

	meter := otel.Meter(instrumentationName)
	authOutcomes, err := meter.Int64Counter(
		"apigate.auth.outcomes",
		metric.WithDescription("Number of authentication decisions by outcome."),
	)
	if err != nil {
		return nil, err
	}
	renderedErrors, err := meter.Int64Counter(
		"apigate.errors.rendered",
		metric.WithDescription("Number of error pages rendered by template and status."),
	)
	if err != nil {
		return nil, err
	}

	templates := errpage.Templates(o.templateDir)
	g := &Gateway{
		log:            apigate.Logger(instrumentationName),
		tracer:         otel.Tracer(instrumentationName),
		doc:            doc,
		table:          table,
		resolver:       resolver,
		validator:      o.validator,
		general:        errpage.GeneralFailure(templates),
		unbound:        errpage.UnboundOperation(templates),
		authOutcomes:   authOutcomes,
		renderedErrors: renderedErrors,
		ready:          &health.Flag{},
		mux:            chi.NewMux(),
	}

	g.mux.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.StripSlashes,
		foldCase,
	)
	g.mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		g.fail(w, r, swagger.Metadata{}, errpage.Error(http.StatusNotFound, ""))
	})
	g.mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		g.fail(w, r, swagger.Metadata{}, errpage.Error(http.StatusMethodNotAllowed, ""))
	})

	g.registerOperations(o)
	err = g.registerDocs(o)
	if err != nil {
		return nil, err
	}
	g.registerStatic(o)
	g.registerHealth(o)

	g.ready.Up()
	return g, nil
}

// ServeHTTP implements the [http.Handler] interface.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mux.ServeHTTP(w, r)
}

// MarkUnready makes the readiness probe fail, e.g. while shutting down.
func (g *Gateway) MarkUnready(reason string) {
	g.ready.Down(reason)
}

// DuplicateRouteError is returned when an auxiliary route collides with
// a declared operation.
type DuplicateRouteError struct {
	Route string
}

func (e DuplicateRouteError) Error() string {
	return "gateway: route " + e.Route + " is already served by a declared operation"
}

func (g *Gateway) registerOperations(o *Options) {
	for _, op := range g.doc.Operations {
		p := op.Path
		if o.useBasePath {
			p = swagger.JoinPath(g.doc.BasePath, op.Path)
		}
		g.mux.Method(op.Method, foldPattern(p), otelhttp.WithRouteTag(p, g.operation(op, p)))
	}
}

func (g *Gateway) registerDocs(o *Options) error {
	if o.filesRoute != "" {
		b, err := g.doc.JSON()
		if err != nil {
			return err
		}
		err = g.getRoute(normalizeRoute(o.filesRoute), jsonHandler(g.log, b))
		if err != nil {
			return err
		}
	}

	if o.openAPIRoute != "" {
		spec, err := swagger.OpenAPI3(g.doc, o.useBasePath)
		if err != nil {
			return err
		}
		b, err := json.Marshal(spec)
		if err != nil {
			return err
		}
		err = g.getRoute(normalizeRoute(o.openAPIRoute), jsonHandler(g.log, b))
		if err != nil {
			return err
		}
	}
	return nil
}

func (g *Gateway) registerStatic(o *Options) {
	if o.staticRoute != "" && o.staticDir != "" {
		prefix := normalizeRoute(o.staticRoute)
		files := stripPrefixFold(prefix, http.FileServerFS(os.DirFS(o.staticDir)))
		g.mux.Get(foldPattern(strings.TrimSuffix(prefix, "/"))+"/*", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/") {
				g.fail(w, r, swagger.Metadata{}, errpage.Error(http.StatusNotFound, ""))
				return
			}
			files.ServeHTTP(w, r)
		})
	}

	if o.favicon != "" {
		g.mux.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
			_, err := os.Stat(o.favicon)
			if err != nil {
				g.fail(w, r, swagger.Metadata{}, errpage.Error(http.StatusNotFound, ""))
				return
			}
			http.ServeFile(w, r, o.favicon)
		})
	}
}

func (g *Gateway) registerHealth(o *Options) {
	var alive health.Flag
	alive.Up()

	ready := make([]health.Check, 0, len(o.readiness)+1)
	ready = append(ready, health.Named("gateway", g.ready))
	ready = append(ready, o.readiness...)

	g.mux.Method(http.MethodGet, "/health/liveness", health.Handler(&alive, g.log))
	g.mux.Method(http.MethodGet, "/health/readiness", health.Handler(health.All(ready...), g.log))
}

func (g *Gateway) getRoute(p string, h http.Handler) error {
	if _, declared := g.doc.Operation(http.MethodGet, p); declared {
		return DuplicateRouteError{Route: p}
	}
	g.mux.Method(http.MethodGet, foldPattern(p), h)
	return nil
}

// normalizeRoute drops a trailing slash since trailing slashes are
// stripped before routing.
func normalizeRoute(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

func jsonHandler(log *slog.Logger, b []byte) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, err := w.Write(b)
		if err == nil {
			return
		}
		log.ErrorContext(r.Context(), "failed to write response", slog.Any("error", err))
	})
}
