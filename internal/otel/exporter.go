// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"context"

	"github.com/z5labs/apigate/config"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// exporters knows how to construct the exporter of one signal for each
// supported destination. OTLP exporters own their connection and close
// it when shut down.
type exporters[T any] struct {
	stdout func() (T, error)
	grpc   func(ctx context.Context, target string, opts ...grpc.DialOption) (T, error)
	http   func(ctx context.Context, endpoint string) (T, error)
}

// build reports enabled as false when the signal should be dropped.
func (e exporters[T]) build(ctx context.Context, cfg config.Exporter) (exp T, enabled bool, err error) {
	switch cfg.Type {
	case config.NoneExporter, "":
		return exp, false, nil
	case config.StdoutExporter:
		exp, err = e.stdout()
	case config.OTLPExporter:
		exp, err = e.otlp(ctx, cfg.OTLP)
	default:
		err = UnknownExporterTypeError{Type: cfg.Type}
	}
	return exp, err == nil, err
}

func (e exporters[T]) otlp(ctx context.Context, cfg config.OTLP) (T, error) {
	switch cfg.Type {
	case config.OTLPGRPC:
		// TODO: support TLS once the otlp config carries certificates
		return e.grpc(ctx, cfg.Target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	case config.OTLPHTTP:
		return e.http(ctx, cfg.Target)
	default:
		var zero T
		return zero, UnknownOTLPConnTypeError{Type: cfg.Type}
	}
}

var spanExporters = exporters[trace.SpanExporter]{
	stdout: func() (trace.SpanExporter, error) {
		return stdouttrace.New()
	},
	grpc: func(ctx context.Context, target string, opts ...grpc.DialOption) (trace.SpanExporter, error) {
		return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(target), otlptracegrpc.WithDialOption(opts...))
	},
	http: func(ctx context.Context, endpoint string) (trace.SpanExporter, error) {
		return otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint))
	},
}

var metricExporters = exporters[metric.Exporter]{
	stdout: func() (metric.Exporter, error) {
		return stdoutmetric.New()
	},
	grpc: func(ctx context.Context, target string, opts ...grpc.DialOption) (metric.Exporter, error) {
		return otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(target), otlpmetricgrpc.WithDialOption(opts...))
	},
	http: func(ctx context.Context, endpoint string) (metric.Exporter, error) {
		return otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(endpoint))
	},
}

var logExporters = exporters[log.Exporter]{
	stdout: func() (log.Exporter, error) {
		return stdoutlog.New()
	},
	grpc: func(ctx context.Context, target string, opts ...grpc.DialOption) (log.Exporter, error) {
		return otlploggrpc.New(ctx, otlploggrpc.WithEndpoint(target), otlploggrpc.WithDialOption(opts...))
	},
	http: func(ctx context.Context, endpoint string) (log.Exporter, error) {
		return otlploghttp.New(ctx, otlploghttp.WithEndpoint(endpoint))
	},
}
