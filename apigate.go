// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package apigate serves HTTP APIs whose routes are dictated by a
// Swagger 2.0 definition document.
package apigate

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/z5labs/bedrock"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// Logger returns a [slog.Logger] whose records are emitted through
// the global OTel logger provider.
func Logger(name string) *slog.Logger {
	return otelslog.NewLogger(name)
}

// LogHandler returns the [slog.Handler] backing [Logger].
func LogHandler(name string) slog.Handler {
	return otelslog.NewHandler(name)
}

// Stage names the step of starting apigate which failed.
type Stage string

const (
	BuildStage Stage = "build"
	RunStage   Stage = "run"
)

// StageError is reported by a [Runner] when its app fails to build or run.
// A build failure, such as an operation which could not be bound to a
// handler, means the app never listened.
type StageError struct {
	Stage Stage
	Cause error
}

func (e StageError) Error() string {
	return fmt.Sprintf("apigate: failed to %s: %s", e.Stage, e.Cause)
}

func (e StageError) Unwrap() error {
	return e.Cause
}

type runnerOptions struct {
	report func(context.Context, StageError)
}

// RunnerOption configures a [Runner].
type RunnerOption func(*runnerOptions)

// ReportTo logs failures with log instead of the default stdout JSON logger.
func ReportTo(log *slog.Logger) RunnerOption {
	return func(ro *runnerOptions) {
		ro.report = logReport(log)
	}
}

// OnFailure replaces the failure reporting of a [Runner] entirely.
func OnFailure(f func(context.Context, StageError)) RunnerOption {
	return func(ro *runnerOptions) {
		ro.report = f
	}
}

func logReport(log *slog.Logger) func(context.Context, StageError) {
	return func(ctx context.Context, err StageError) {
		log.ErrorContext(
			ctx,
			"apigate stopped",
			slog.String("stage", string(err.Stage)),
			slog.Any("error", err.Cause),
		)
	}
}

// Runner builds a [bedrock.App] from a config and runs it.
type Runner[T any] struct {
	builder bedrock.AppBuilder[T]
	report  func(context.Context, StageError)
}

// NewRunner initializes a [Runner].
func NewRunner[T any](builder bedrock.AppBuilder[T], opts ...RunnerOption) Runner[T] {
	ro := &runnerOptions{
		report: logReport(slog.New(slog.NewJSONHandler(os.Stdout, nil))),
	}
	for _, opt := range opts {
		opt(ro)
	}
	return Runner[T]{
		builder: builder,
		report:  ro.report,
	}
}

// Run builds the app and runs it until it returns. Any failure is
// reported before being returned as a [StageError].
func (r Runner[T]) Run(ctx context.Context, cfg T) error {
	app, err := r.builder.Build(ctx, cfg)
	if err != nil {
		return r.fail(ctx, BuildStage, err)
	}

	err = app.Run(ctx)
	if err != nil {
		return r.fail(ctx, RunStage, err)
	}
	return nil
}

func (r Runner[T]) fail(ctx context.Context, stage Stage, cause error) error {
	err := StageError{Stage: stage, Cause: cause}
	r.report(ctx, err)
	return err
}
