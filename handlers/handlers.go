// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package handlers implements the operations of the bundled API definition.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/z5labs/apigate/gateway"
	"github.com/z5labs/apigate/registry"
)

// Clock returns the current time.
type Clock func() time.Time

// Options are configurable parameters of the handler tree.
type Options struct {
	clock Clock
}

// Option sets a value on [Options].
type Option interface {
	ApplyOption(*Options)
}

type optionFunc func(*Options)

func (f optionFunc) ApplyOption(o *Options) {
	f(o)
}

// WithClock overrides the clock timestamps are read from.
func WithClock(c Clock) Option {
	return optionFunc(func(o *Options) {
		o.clock = c
	})
}

// Tree returns the handler modules, organized the way they would be on disk.
func Tree(opts ...Option) registry.Dir {
	o := &Options{
		clock: time.Now,
	}
	for _, opt := range opts {
		opt.ApplyOption(o)
	}

	return registry.Dir{
		Name: "controllers",
		Modules: []registry.Module{
			{
				Name: "IndexController.go",
				Operations: map[string]http.Handler{
					"indexGet": gateway.HandlerFunc(indexGet(o.clock)),
				},
			},
			{
				Name: "EchoController.go",
				Operations: map[string]http.Handler{
					"echoPost": gateway.HandlerFunc(echoPost(o.clock)),
				},
			},
		},
	}
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	return json.NewEncoder(w).Encode(v)
}
