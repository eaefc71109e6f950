// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httpserver runs an [http.Server] as a [bedrock.App].
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sourcegraph/conc/pool"
)

// AppOptions are configurable parameters of an [App].
type AppOptions struct {
	errorLogHandler   slog.Handler
	readTimeout       time.Duration
	readHeaderTimeout time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
	maxHeaderBytes    int
}

// AppOption sets a value on [AppOptions].
type AppOption interface {
	ApplyAppOption(*AppOptions)
}

type appOptionFunc func(*AppOptions)

func (f appOptionFunc) ApplyAppOption(ao *AppOptions) {
	f(ao)
}

// ErrorLog sets the handler the server reports connection errors to.
func ErrorLog(h slog.Handler) AppOption {
	return appOptionFunc(func(ao *AppOptions) {
		ao.errorLogHandler = h
	})
}

// Timeouts overrides the server timeouts. A zero duration keeps the default.
func Timeouts(read, readHeader, write, idle time.Duration) AppOption {
	return appOptionFunc(func(ao *AppOptions) {
		ao.readTimeout = or(read, ao.readTimeout)
		ao.readHeaderTimeout = or(readHeader, ao.readHeaderTimeout)
		ao.writeTimeout = or(write, ao.writeTimeout)
		ao.idleTimeout = or(idle, ao.idleTimeout)
	})
}

// MaxHeaderBytes overrides the request header size limit. Zero keeps the default.
func MaxHeaderBytes(n int) AppOption {
	return appOptionFunc(func(ao *AppOptions) {
		ao.maxHeaderBytes = or(n, ao.maxHeaderBytes)
	})
}

func or[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// App serves HTTP on a listener until its context is cancelled.
type App struct {
	ls     net.Listener
	server *http.Server
}

// NewApp initializes a [App].
func NewApp(ls net.Listener, h http.Handler, opts ...AppOption) *App {
	ao := &AppOptions{
		errorLogHandler:   slog.DiscardHandler,
		readTimeout:       5 * time.Second,
		readHeaderTimeout: 2 * time.Second,
		writeTimeout:      10 * time.Second,
		idleTimeout:       120 * time.Second,
		maxHeaderBytes:    1 << 20,
	}
	for _, opt := range opts {
		opt.ApplyAppOption(ao)
	}

	return &App{
		ls: ls,
		server: &http.Server{
			Handler:           h,
			ReadTimeout:       ao.readTimeout,
			ReadHeaderTimeout: ao.readHeaderTimeout,
			WriteTimeout:      ao.writeTimeout,
			IdleTimeout:       ao.idleTimeout,
			MaxHeaderBytes:    ao.maxHeaderBytes,
			ErrorLog:          slog.NewLogLogger(ao.errorLogHandler, slog.LevelError),
		},
	}
}

// Addr returns the address the app is listening on.
func (a *App) Addr() net.Addr {
	return a.ls.Addr()
}

// Shutdown gracefully stops the server. It is safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// Run implements the [bedrock.App] interface.
func (a *App) Run(ctx context.Context) error {
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		return a.server.Serve(a.ls)
	})
	p.Go(func(ctx context.Context) error {
		<-ctx.Done()

		return a.server.Shutdown(context.Background())
	})

	err := p.Wait()
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
