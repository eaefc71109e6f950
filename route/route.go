// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package route binds the operations of an API definition to handlers.
package route

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/z5labs/apigate/registry"
	"github.com/z5labs/apigate/swagger"
)

// Entry is an operation together with the handler it is bound to.
type Entry struct {
	Operation swagger.Operation

	// Path is the route the operation is served at. It differs from
	// Operation.Path when the document basePath is applied.
	Path    string
	Handler http.Handler
}

type routeKey struct {
	method string
	path   string
}

// Table is the read only result of [Bind].
type Table struct {
	entries []Entry
	index   map[routeKey]int
}

// Entries returns the bound entries in definition order.
func (t *Table) Entries() []Entry {
	entries := make([]Entry, len(t.entries))
	copy(entries, t.entries)
	return entries
}

// Lookup returns the entry bound for method and route path.
func (t *Table) Lookup(method, path string) (Entry, bool) {
	i, ok := t.index[routeKey{method: strings.ToUpper(method), path: path}]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// Len returns the number of bound entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// UnboundOperationError describes an operation which has no handler.
type UnboundOperationError struct {
	Method       string
	Path         string
	HandlerGroup string
	OperationID  string
}

func (e UnboundOperationError) Error() string {
	return fmt.Sprintf(
		"no handler for %s %s: %s=%q operationId=%q",
		e.Method,
		e.Path,
		swagger.RouterControllerExtension,
		e.HandlerGroup,
		e.OperationID,
	)
}

// BindError aggregates every operation which could not be bound.
type BindError struct {
	Unbound []UnboundOperationError
}

func (e BindError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "route: %d operation(s) could not be bound to a handler", len(e.Unbound))
	for _, u := range e.Unbound {
		sb.WriteString("\n\t")
		sb.WriteString(u.Error())
	}
	return sb.String()
}

// Unwrap allows [errors.As] to match individual [UnboundOperationError]s.
func (e BindError) Unwrap() []error {
	errs := make([]error, 0, len(e.Unbound))
	for _, u := range e.Unbound {
		errs = append(errs, u)
	}
	return errs
}

// DuplicateRouteError is returned when two operations resolve to the
// same method and route path, which can only happen once a basePath
// is applied.
type DuplicateRouteError struct {
	Method string
	Path   string
}

func (e DuplicateRouteError) Error() string {
	return fmt.Sprintf("route: %s %s is declared more than once", e.Method, e.Path)
}

// BindOptions are configurable parameters of [Bind].
type BindOptions struct {
	useBasePath bool
}

// BindOption sets a value on [BindOptions].
type BindOption interface {
	ApplyBindOption(*BindOptions)
}

type bindOptionFunc func(*BindOptions)

func (f bindOptionFunc) ApplyBindOption(bo *BindOptions) {
	f(bo)
}

// WithBasePath prefixes every route path with the document basePath.
func WithBasePath(enabled bool) BindOption {
	return bindOptionFunc(func(bo *BindOptions) {
		bo.useBasePath = enabled
	})
}

// Bind resolves a handler for every operation of doc. Either every
// operation is bound or no table is returned.
func Bind(doc *swagger.Document, reg registry.Registry, opts ...BindOption) (*Table, error) {
	bo := &BindOptions{}
	for _, opt := range opts {
		opt.ApplyBindOption(bo)
	}

	t := &Table{
		entries: make([]Entry, 0, len(doc.Operations)),
		index:   make(map[routeKey]int, len(doc.Operations)),
	}

	var unbound []UnboundOperationError
	for _, op := range doc.Operations {
		h, ok := reg.Lookup(op.HandlerGroup, op.OperationID)
		if !ok {
			unbound = append(unbound, UnboundOperationError{
				Method:       op.Method,
				Path:         op.Path,
				HandlerGroup: op.HandlerGroup,
				OperationID:  op.OperationID,
			})
			continue
		}

		p := op.Path
		if bo.useBasePath {
			p = swagger.JoinPath(doc.BasePath, op.Path)
		}

		key := routeKey{method: op.Method, path: p}
		if _, exists := t.index[key]; exists {
			return nil, DuplicateRouteError{Method: op.Method, Path: p}
		}
		t.index[key] = len(t.entries)
		t.entries = append(t.entries, Entry{
			Operation: op,
			Path:      p,
			Handler:   h,
		})
	}
	if len(unbound) > 0 {
		return nil, BindError{Unbound: unbound}
	}
	return t, nil
}
