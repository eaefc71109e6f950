// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// InvalidLogLevelError is returned when a configured log level can not be parsed.
type InvalidLogLevelError struct {
	Logger string
	Level  string
	Cause  error
}

func (e InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q for logger %q: %v", e.Level, e.Logger, e.Cause)
}

func (e InvalidLogLevelError) Unwrap() error {
	return e.Cause
}

// levelRule applies a minimum severity to every logger whose name
// starts with prefix.
type levelRule struct {
	prefix string
	min    log.Severity
}

// parseLevels returns the rules ordered longest prefix first.
func parseLevels(levels map[string]string) ([]levelRule, error) {
	rules := make([]levelRule, 0, len(levels))
	for name, s := range levels {
		var level slog.Level
		err := level.UnmarshalText([]byte(s))
		if err != nil {
			return nil, InvalidLogLevelError{Logger: name, Level: s, Cause: err}
		}
		rules = append(rules, levelRule{prefix: name, min: severityOf(level)})
	}
	slices.SortFunc(rules, func(a, b levelRule) int {
		if n := len(b.prefix) - len(a.prefix); n != 0 {
			return n
		}
		return strings.Compare(a.prefix, b.prefix)
	})
	return rules, nil
}

// severityOf maps a slog level to the severity the otelslog bridge
// records it with.
func severityOf(l slog.Level) log.Severity {
	return log.Severity(l + 9)
}

// levelProcessor drops records below the minimum severity of the most
// specific rule matching their logger. Loggers without a rule are not filtered.
type levelProcessor struct {
	sdklog.Processor

	levels []levelRule
}

func (p levelProcessor) OnEmit(ctx context.Context, record *sdklog.Record) error {
	if !p.allowed(record.InstrumentationScope().Name, record.Severity()) {
		return nil
	}
	return p.Processor.OnEmit(ctx, record)
}

func (p levelProcessor) allowed(logger string, sev log.Severity) bool {
	for _, rule := range p.levels {
		if strings.HasPrefix(logger, rule.prefix) {
			return sev >= rule.min
		}
	}
	return true
}
