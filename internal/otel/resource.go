// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"context"
	"os"
	"path/filepath"

	"github.com/z5labs/apigate/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

const deploymentEnvironmentKey = attribute.Key("deployment.environment.name")

// detectResource describes this process. Unset service names fall back
// to the executable name, the same as the SDK default.
func detectResource(ctx context.Context, cfg config.Resource) (*resource.Resource, error) {
	detectors := []resource.Detector{
		resource.StringDetector(semconv.SchemaURL, semconv.TelemetrySDKNameKey, constant("opentelemetry")),
		resource.StringDetector(semconv.SchemaURL, semconv.TelemetrySDKLanguageKey, constant("go")),
		resource.StringDetector(semconv.SchemaURL, semconv.TelemetrySDKVersionKey, constant(sdk.Version())),
		resource.StringDetector(semconv.SchemaURL, semconv.HostNameKey, os.Hostname),
		resource.StringDetector(semconv.SchemaURL, semconv.ServiceNameKey, serviceName(cfg.ServiceName)),
	}
	detectors = append(detectors, optional(semconv.ServiceVersionKey, cfg.ServiceVersion)...)
	detectors = append(detectors, optional(deploymentEnvironmentKey, cfg.Environment)...)

	return resource.Detect(ctx, detectors...)
}

func constant(v string) func() (string, error) {
	return func() (string, error) {
		return v, nil
	}
}

func serviceName(name string) func() (string, error) {
	return func() (string, error) {
		if name != "" {
			return name, nil
		}
		executable, err := os.Executable()
		if err != nil {
			return "unknown_service:go", nil
		}
		return "unknown_service:" + filepath.Base(executable), nil
	}
}

func optional(key attribute.Key, v string) []resource.Detector {
	if v == "" {
		return nil
	}
	return []resource.Detector{resource.StringDetector(semconv.SchemaURL, key, constant(v))}
}
