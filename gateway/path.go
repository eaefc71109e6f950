// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Routes are matched case insensitively. Patterns are registered with
// their literal segments folded to lower case and [foldCase] folds the
// path a request is routed by. Folding only touches ASCII letters so a
// folded path has the same byte layout as the path it came from.

type requestPathCtxKey struct{}

// foldCase is a middleware which makes the mux route by the lower case
// form of the request path. The unfolded path is kept so path parameter
// values can be recovered with [unfoldParams].
func foldCase(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		if rctx == nil {
			next.ServeHTTP(w, r)
			return
		}

		path := rctx.RoutePath
		if path == "" {
			path = r.URL.RawPath
		}
		if path == "" {
			path = r.URL.Path
		}
		rctx.RoutePath = foldASCII(path)

		ctx := context.WithValue(r.Context(), requestPathCtxKey{}, path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func foldASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// foldPattern lower cases everything of a route pattern but its
// parameter names.
func foldPattern(pattern string) string {
	b := []byte(pattern)
	depth := 0
	for i, c := range b {
		switch {
		case c == '{':
			depth++
		case c == '}':
			depth--
		case depth == 0 && 'A' <= c && c <= 'Z':
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// unfoldParams replaces the folded values of the path parameters of
// pattern with the values as they were sent. Segments holding more than
// one parameter keep their folded values.
func unfoldParams(r *http.Request, pattern string) {
	rctx := chi.RouteContext(r.Context())
	path, ok := r.Context().Value(requestPathCtxKey{}).(string)
	if rctx == nil || !ok {
		return
	}

	patternSegs := strings.Split(pattern, "/")
	pathSegs := strings.Split(strings.TrimSuffix(path, "/"), "/")
	if len(patternSegs) != len(pathSegs) {
		return
	}

	for i, seg := range patternSegs {
		open := strings.IndexByte(seg, '{')
		end := strings.LastIndexByte(seg, '}')
		if open < 0 || end < open || strings.Count(seg, "{") > 1 {
			continue
		}
		name := seg[open+1 : end]
		if colon := strings.IndexByte(name, ':'); colon >= 0 {
			name = name[:colon]
		}
		suffix := len(seg) - end - 1

		sent := pathSegs[i]
		if len(sent) < open+suffix {
			continue
		}
		setParam(rctx, name, sent[open:len(sent)-suffix])
	}
}

func setParam(rctx *chi.Context, name, value string) {
	for i := len(rctx.URLParams.Keys) - 1; i >= 0; i-- {
		if rctx.URLParams.Keys[i] == name {
			rctx.URLParams.Values[i] = value
			return
		}
	}
}

// stripPrefixFold is [http.StripPrefix] with a case insensitive prefix.
func stripPrefixFold(prefix string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if len(p) < len(prefix) || !strings.EqualFold(p[:len(prefix)], prefix) {
			http.NotFound(w, r)
			return
		}

		u := *r.URL
		u.Path = p[len(prefix):]
		u.RawPath = ""

		r2 := new(http.Request)
		*r2 = *r
		r2.URL = &u
		h.ServeHTTP(w, r2)
	})
}
