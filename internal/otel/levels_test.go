// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/sdk/instrumentation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/log/logtest"
)

type recordingProcessor struct {
	loggers []string
}

func (p *recordingProcessor) OnEmit(_ context.Context, record *sdklog.Record) error {
	p.loggers = append(p.loggers, record.InstrumentationScope().Name)
	return nil
}

func (p *recordingProcessor) Shutdown(context.Context) error { return nil }

func (p *recordingProcessor) ForceFlush(context.Context) error { return nil }

func newRecord(logger string, sev log.Severity) sdklog.Record {
	factory := logtest.RecordFactory{
		Severity:             sev,
		InstrumentationScope: &instrumentation.Scope{Name: logger},
	}
	return factory.NewRecord()
}

func TestParseLevels(t *testing.T) {
	t.Run("will order rules longest prefix first", func(t *testing.T) {
		rules, err := parseLevels(map[string]string{
			"github.com/z5labs":                 "warn",
			"github.com/z5labs/apigate/gateway": "debug",
			"github.com/z5labs/apigate":         "info+2",
		})
		require.NoError(t, err)
		require.Len(t, rules, 3)

		require.Equal(t, "github.com/z5labs/apigate/gateway", rules[0].prefix)
		require.Equal(t, log.SeverityDebug, rules[0].min)
		require.Equal(t, "github.com/z5labs/apigate", rules[1].prefix)
		require.Equal(t, log.SeverityInfo3, rules[1].min)
		require.Equal(t, "github.com/z5labs", rules[2].prefix)
		require.Equal(t, log.SeverityWarn, rules[2].min)
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if a level is not a slog level", func(t *testing.T) {
			_, err := parseLevels(map[string]string{"a": "verbose"})

			var lerr InvalidLogLevelError
			require.ErrorAs(t, err, &lerr)
			require.Equal(t, "verbose", lerr.Level)
			require.Error(t, lerr.Unwrap())
		})
	})
}

func TestLevelProcessor_OnEmit(t *testing.T) {
	rules, err := parseLevels(map[string]string{
		"github.com/z5labs/apigate":         "warn",
		"github.com/z5labs/apigate/gateway": "debug",
	})
	require.NoError(t, err)

	testCases := []struct {
		Name     string
		Logger   string
		Severity log.Severity
		Emitted  bool
	}{
		{
			Name:     "if the record is below the minimum of its logger",
			Logger:   "github.com/z5labs/apigate/app",
			Severity: log.SeverityInfo,
			Emitted:  false,
		},
		{
			Name:     "if the record meets the minimum of its logger",
			Logger:   "github.com/z5labs/apigate/app",
			Severity: log.SeverityWarn,
			Emitted:  true,
		},
		{
			Name:     "if a more specific rule lowers the minimum",
			Logger:   "github.com/z5labs/apigate/gateway",
			Severity: log.SeverityDebug,
			Emitted:  true,
		},
		{
			Name:     "if no rule matches the logger",
			Logger:   "net/http",
			Severity: log.SeverityTrace,
			Emitted:  true,
		},
	}

	t.Run("will filter records", func(t *testing.T) {
		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				rec := &recordingProcessor{}
				p := levelProcessor{Processor: rec, levels: rules}

				record := newRecord(testCase.Logger, testCase.Severity)
				err := p.OnEmit(context.Background(), &record)
				require.NoError(t, err)

				if testCase.Emitted {
					require.Equal(t, []string{testCase.Logger}, rec.loggers)
					return
				}
				require.Empty(t, rec.loggers)
			})
		}
	})
}
