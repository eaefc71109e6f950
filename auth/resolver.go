// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package auth decides whether a request satisfies the security
// requirements its operation declares.
//
// Only the first scheme of the first security requirement is ever
// considered. Additional schemes of that requirement and alternative
// requirements are ignored.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/z5labs/apigate"
	"github.com/z5labs/apigate/swagger"
)

// SecurityContext holds the scheme names a request is expected to
// satisfy, in declaration order.
type SecurityContext struct {
	AppliedSchemeNames []string
}

// ContextFor derives the [SecurityContext] of requests to op. Operation
// security overrides document security. A first requirement which names
// no schemes can not be resolved and is treated as requiring none.
func ContextFor(ctx context.Context, doc *swagger.Document, op swagger.Operation) SecurityContext {
	reqs := op.Security
	if reqs == nil {
		reqs = doc.Security
	}
	if len(reqs) == 0 {
		return SecurityContext{}
	}

	names := reqs[0].Names()
	if len(names) == 0 {
		log := apigate.Logger("github.com/z5labs/apigate/auth")
		log.WarnContext(
			ctx,
			"could not determine security scheme for operation",
			slog.String("method", op.Method),
			slog.String("path", op.Path),
		)
		return SecurityContext{}
	}
	return SecurityContext{AppliedSchemeNames: names}
}

// Resolver authenticates requests against the security schemes of an
// API definition.
type Resolver struct {
	log      *slog.Logger
	schemes  map[string]Scheme
	verifier CredentialVerifier
}

// NewResolver initializes a [Resolver]. Scheme definitions are typed
// once here rather than on every request.
func NewResolver(defs map[string]swagger.SecurityScheme, verifier CredentialVerifier) *Resolver {
	log := apigate.Logger("github.com/z5labs/apigate/auth")

	schemes := make(map[string]Scheme, len(defs))
	for name, def := range defs {
		s := SchemeOf(def)
		schemes[name] = s

		switch s := s.(type) {
		case UnsupportedScheme:
			attrs := []any{
				slog.String("scheme", name),
				slog.String("type", s.DeclaredType),
			}
			if s.Cause != nil {
				attrs = append(attrs, slog.Any("error", s.Cause))
			}
			log.Warn("requests to operations using security scheme will fail", attrs...)
		case APIKeyScheme:
			if s.In == LocationQuery || s.In == LocationHeader {
				continue
			}
			log.Warn(
				"requests to operations using security scheme will be unauthorized",
				slog.String("scheme", name),
				slog.Any("error", UnknownLocationError{In: string(s.In)}),
			)
		}
	}

	return &Resolver{
		log:      log,
		schemes:  schemes,
		verifier: verifier,
	}
}

// Resolve authenticates r. The returned error is only ever non-nil when
// the credential could not be verified at all, in which case the
// outcome must be ignored.
func (res *Resolver) Resolve(ctx context.Context, sc SecurityContext, r *http.Request) (Outcome, error) {
	if len(sc.AppliedSchemeNames) == 0 {
		return NoAuthenticationRequired{}, nil
	}

	name := sc.AppliedSchemeNames[0]
	scheme, ok := res.schemes[name]
	if !ok {
		return NoAuthenticationRequired{}, nil
	}

	switch s := scheme.(type) {
	case APIKeyScheme:
		return res.resolveAPIKey(ctx, name, s, r)
	case BasicScheme, OAuth2Scheme:
		return NotImplemented{SchemeType: s.Type()}, nil
	case UnsupportedScheme:
		return UnsupportedSchemeType{SchemeType: s.Type()}, nil
	default:
		return UnsupportedSchemeType{SchemeType: s.Type()}, nil
	}
}

func (res *Resolver) resolveAPIKey(ctx context.Context, name string, s APIKeyScheme, r *http.Request) (Outcome, error) {
	key, ok := apiKey(r, s)
	if !ok {
		return Unauthorized{Reason: "ambiguous api key"}, nil
	}
	if key == "" {
		return Unauthorized{Reason: "missing api key"}, nil
	}

	valid, err := res.verifier.VerifyAPIKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if !valid {
		return Unauthorized{Reason: "invalid api key"}, nil
	}
	return Authenticated{Scheme: name}, nil
}

// apiKey reads the credential of s from r. It reports false when the
// credential is sent more than once.
func apiKey(r *http.Request, s APIKeyScheme) (string, bool) {
	var vs []string
	switch s.In {
	case LocationQuery:
		vs = r.URL.Query()[s.Name]
	case LocationHeader:
		vs = headerValues(r.Header, strings.ToLower(s.Name))
	}
	switch len(vs) {
	case 0:
		return "", true
	case 1:
		return vs[0], true
	default:
		return "", false
	}
}

// headerValues looks name up case insensitively, including keys which
// were set without canonicalization.
func headerValues(h http.Header, name string) []string {
	var vs []string
	for k, v := range h {
		if strings.EqualFold(k, name) {
			vs = append(vs, v...)
		}
	}
	return vs
}
