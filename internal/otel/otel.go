// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otel initializes the global OpenTelemetry providers from config.
package otel

import (
	"context"
	"fmt"
	"time"

	"github.com/z5labs/apigate/config"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

// Initialize builds the trace, metric and log providers described by cfg
// and installs them as the OTel globals. Shutting them down is left to
// the caller.
func Initialize(ctx context.Context, cfg config.OTel) error {
	r, err := detectResource(ctx, cfg.Resource)
	if err != nil {
		return err
	}

	tp, err := newTracerProvider(ctx, cfg.Trace, r)
	if err != nil {
		return err
	}

	mp, err := newMeterProvider(ctx, cfg.Metric, r)
	if err != nil {
		return err
	}

	lp, err := newLoggerProvider(ctx, cfg.Log, r)
	if err != nil {
		return err
	}

	err = runtime.Start(
		runtime.WithMeterProvider(mp),
		runtime.WithMinimumReadMemStatsInterval(time.Second),
	)
	if err != nil {
		return err
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.Baggage{},
		propagation.TraceContext{},
	))
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	global.SetLoggerProvider(lp)
	return nil
}

// UnknownExporterTypeError is returned for an unsupported exporter type.
type UnknownExporterTypeError struct {
	Type config.ExporterType
}

func (e UnknownExporterTypeError) Error() string {
	return fmt.Sprintf("unknown exporter type: %q", e.Type)
}

// UnknownOTLPConnTypeError is returned when an exporter is configured
// with an OTLP transport other than grpc or http.
type UnknownOTLPConnTypeError struct {
	Type config.OTLPConnType
}

func (e UnknownOTLPConnTypeError) Error() string {
	return fmt.Sprintf("unknown otlp conn type: %q", e.Type)
}

// UnknownLogProcessorTypeError is returned for an unsupported log processor.
type UnknownLogProcessorTypeError struct {
	Type config.LogProcessorType
}

func (e UnknownLogProcessorTypeError) Error() string {
	return fmt.Sprintf("unknown log processor type: %q", e.Type)
}

func newTracerProvider(ctx context.Context, cfg config.Trace, r *resource.Resource) (*trace.TracerProvider, error) {
	exp, enabled, err := spanExporters.build(ctx, cfg.Exporter)
	if err != nil {
		return nil, err
	}

	opts := []trace.TracerProviderOption{
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(cfg.SamplingRatio))),
		trace.WithResource(r),
	}
	if enabled {
		var batchOpts []trace.BatchSpanProcessorOption
		if cfg.Batch.ExportInterval > 0 {
			batchOpts = append(batchOpts, trace.WithBatchTimeout(cfg.Batch.ExportInterval))
		}
		if cfg.Batch.MaxSize > 0 {
			batchOpts = append(batchOpts, trace.WithMaxExportBatchSize(cfg.Batch.MaxSize))
		}
		opts = append(opts, trace.WithBatcher(exp, batchOpts...))
	}
	return trace.NewTracerProvider(opts...), nil
}

func newMeterProvider(ctx context.Context, cfg config.Metric, r *resource.Resource) (*metric.MeterProvider, error) {
	exp, enabled, err := metricExporters.build(ctx, cfg.Exporter)
	if err != nil {
		return nil, err
	}

	opts := []metric.Option{
		metric.WithResource(r),
	}
	if enabled {
		readerOpts := []metric.PeriodicReaderOption{
			metric.WithProducer(runtime.NewProducer()),
		}
		if cfg.ExportInterval > 0 {
			readerOpts = append(readerOpts, metric.WithInterval(cfg.ExportInterval))
		}
		opts = append(opts, metric.WithReader(metric.NewPeriodicReader(exp, readerOpts...)))
	}
	return metric.NewMeterProvider(opts...), nil
}

func newLoggerProvider(ctx context.Context, cfg config.Log, r *resource.Resource) (*log.LoggerProvider, error) {
	switch cfg.Processor {
	case config.SimpleLogProcessor, config.BatchLogProcessor, "":
	default:
		return nil, UnknownLogProcessorTypeError{Type: cfg.Processor}
	}

	levels, err := parseLevels(cfg.Levels)
	if err != nil {
		return nil, err
	}

	exp, enabled, err := logExporters.build(ctx, cfg.Exporter)
	if err != nil {
		return nil, err
	}

	opts := []log.LoggerProviderOption{
		log.WithResource(r),
	}
	if !enabled {
		return log.NewLoggerProvider(opts...), nil
	}

	var p log.Processor = log.NewSimpleProcessor(exp)
	if cfg.Processor == config.BatchLogProcessor {
		var batchOpts []log.BatchProcessorOption
		if cfg.Batch.ExportInterval > 0 {
			batchOpts = append(batchOpts, log.WithExportInterval(cfg.Batch.ExportInterval))
		}
		if cfg.Batch.MaxSize > 0 {
			batchOpts = append(batchOpts, log.WithExportMaxBatchSize(cfg.Batch.MaxSize))
		}
		p = log.NewBatchProcessor(exp, batchOpts...)
	}
	if len(levels) > 0 {
		p = levelProcessor{Processor: p, levels: levels}
	}

	opts = append(opts, log.WithProcessor(p))
	return log.NewLoggerProvider(opts...), nil
}
