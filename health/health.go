// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package health reports whether the gateway is alive and ready to serve.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
)

// Check inspects a single dependency and returns a non-nil error
// describing why it can not currently be used.
type Check interface {
	Check(context.Context) error
}

// CheckFunc is a func type of the [Check] interface.
type CheckFunc func(context.Context) error

// Check implements the [Check] interface.
func (f CheckFunc) Check(ctx context.Context) error {
	return f(ctx)
}

// DownError is reported by a [Flag] which is not up.
type DownError struct {
	Reason string
}

func (e DownError) Error() string {
	return "health: down: " + e.Reason
}

// Flag is a [Check] toggled by its owner. It is safe for concurrent
// use and its zero value is down with the reason "starting".
type Flag struct {
	mu     sync.RWMutex
	up     bool
	reason string
}

// Up makes the flag pass its check.
func (f *Flag) Up() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.up = true
	f.reason = ""
}

// Down makes the flag fail its check with the given reason.
func (f *Flag) Down(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.up = false
	f.reason = reason
}

// Check implements the [Check] interface.
func (f *Flag) Check(ctx context.Context) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.up {
		return nil
	}
	if f.reason == "" {
		return DownError{Reason: "starting"}
	}
	return DownError{Reason: f.reason}
}

// CheckError attributes a failed check to the dependency it inspected.
type CheckError struct {
	Name  string
	Cause error
}

func (e CheckError) Error() string {
	return "health: " + e.Name + ": " + e.Cause.Error()
}

func (e CheckError) Unwrap() error {
	return e.Cause
}

// Named labels any failure of c with name.
func Named(name string, c Check) Check {
	return CheckFunc(func(ctx context.Context) error {
		err := c.Check(ctx)
		if err == nil {
			return nil
		}
		return CheckError{Name: name, Cause: err}
	})
}

// Pinger is implemented by connection pools, e.g. a pgxpool.Pool.
type Pinger interface {
	Ping(context.Context) error
}

// Ping checks that p can be reached.
func Ping(name string, p Pinger) Check {
	return Named(name, CheckFunc(p.Ping))
}

// All runs every check, even after one has failed, and joins their errors.
func All(checks ...Check) Check {
	return CheckFunc(func(ctx context.Context) error {
		errs := make([]error, 0, len(checks))
		for _, c := range checks {
			errs = append(errs, c.Check(ctx))
		}
		return errors.Join(errs...)
	})
}

// Report is the JSON body written by [Handler].
type Report struct {
	Status  string   `json:"status"`
	Failing []string `json:"failing,omitempty"`
}

// Handler responds 200 while c passes and 503 otherwise. Only the names
// of failing checks are written; their causes are logged.
func Handler(c Check, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := Report{Status: "ok"}
		status := http.StatusOK

		err := c.Check(r.Context())
		if err != nil {
			log.WarnContext(r.Context(), "health check failed", slog.Any("error", err))
			report = Report{Status: "unavailable", Failing: failing(err)}
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(report)
	})
}

func failing(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var names []string
		for _, e := range joined.Unwrap() {
			names = append(names, failing(e)...)
		}
		return names
	}
	var cerr CheckError
	if errors.As(err, &cerr) {
		return []string{cerr.Name}
	}
	return []string{"unnamed"}
}
