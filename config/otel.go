// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config defines the configuration types shared by apigate components.
package config

import (
	"time"
)

// Resource describes the service identity attached to all telemetry.
type Resource struct {
	ServiceName    string `config:"service_name"`
	ServiceVersion string `config:"service_version"`
	Environment    string `config:"environment"`
}

// ExporterType selects where a telemetry signal is sent.
type ExporterType string

const (
	// NoneExporter drops the signal.
	NoneExporter   ExporterType = "none"
	StdoutExporter ExporterType = "stdout"
	OTLPExporter   ExporterType = "otlp"
)

// OTLPConnType selects the OTLP transport.
type OTLPConnType string

const (
	OTLPHTTP OTLPConnType = "http"
	OTLPGRPC OTLPConnType = "grpc"
)

// OTLP points an exporter at an OTLP collector.
type OTLP struct {
	Type   OTLPConnType `config:"type"`
	Target string       `config:"target"`
}

// Exporter configures the exporter of a single signal.
type Exporter struct {
	Type ExporterType `config:"type"`
	OTLP OTLP         `config:"otlp"`
}

// Batch configures batched exporting of telemetry.
type Batch struct {
	ExportInterval time.Duration `config:"export_interval"`
	MaxSize        int           `config:"max_size"`
}

// Trace configures the tracing pipeline. Spans are always batched.
type Trace struct {
	Batch Batch `config:"batch"`

	// SamplingRatio applies to root spans only; child spans follow
	// their parent's decision.
	SamplingRatio float64  `config:"sampling_ratio"`
	Exporter      Exporter `config:"exporter"`
}

// Metric configures the metrics pipeline. Metrics are always read
// periodically and include Go runtime metrics.
type Metric struct {
	ExportInterval time.Duration `config:"export_interval"`
	Exporter       Exporter      `config:"exporter"`
}

// LogProcessorType selects how log records are handed to the exporter.
type LogProcessorType string

const (
	SimpleLogProcessor LogProcessorType = "simple"
	BatchLogProcessor  LogProcessorType = "batch"
)

// Log configures the logging pipeline.
//
// Levels maps logger names to a minimum level ("debug", "info", "warn",
// "error", optionally with an offset such as "info+2"). Names match by
// longest prefix, so "github.com/z5labs/apigate" covers every apigate logger.
type Log struct {
	Processor LogProcessorType  `config:"processor"`
	Batch     Batch             `config:"batch"`
	Exporter  Exporter          `config:"exporter"`
	Levels    map[string]string `config:"levels"`
}

// OTel is the complete telemetry configuration.
type OTel struct {
	Resource Resource `config:"resource"`
	Trace    Trace    `config:"trace"`
	Metric   Metric   `config:"metric"`
	Log      Log      `config:"log"`
}
