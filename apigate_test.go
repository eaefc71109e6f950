// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package apigate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/z5labs/bedrock"
)

type appFunc func(context.Context) error

func (f appFunc) Run(ctx context.Context) error {
	return f(ctx)
}

func TestRunner_Run(t *testing.T) {
	t.Run("will report a stage error", func(t *testing.T) {
		testCases := []struct {
			Name    string
			Stage   Stage
			Builder func(error) bedrock.AppBuilder[string]
		}{
			{
				Name:  "if the app fails to build",
				Stage: BuildStage,
				Builder: func(cause error) bedrock.AppBuilder[string] {
					return bedrock.AppBuilderFunc[string](func(ctx context.Context, cfg string) (bedrock.App, error) {
						return nil, cause
					})
				},
			},
			{
				Name:  "if the app fails to run",
				Stage: RunStage,
				Builder: func(cause error) bedrock.AppBuilder[string] {
					return bedrock.AppBuilderFunc[string](func(ctx context.Context, cfg string) (bedrock.App, error) {
						return appFunc(func(ctx context.Context) error {
							return cause
						}), nil
					})
				},
			},
		}

		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				cause := errors.New("boom")

				var reported StageError
				r := NewRunner(testCase.Builder(cause), OnFailure(func(ctx context.Context, err StageError) {
					reported = err
				}))

				err := r.Run(context.Background(), "")

				var serr StageError
				if !assert.ErrorAs(t, err, &serr) {
					return
				}
				if !assert.Equal(t, testCase.Stage, serr.Stage) {
					return
				}
				if !assert.ErrorIs(t, err, cause) {
					return
				}
				if !assert.Equal(t, serr, reported) {
					return
				}
			})
		}
	})

	t.Run("will log the failing stage", func(t *testing.T) {
		t.Run("if a logger is given", func(t *testing.T) {
			var buf bytes.Buffer
			log := slog.New(slog.NewJSONHandler(&buf, nil))

			builder := bedrock.AppBuilderFunc[string](func(ctx context.Context, cfg string) (bedrock.App, error) {
				return nil, errors.New("unbound operation")
			})

			err := NewRunner(builder, ReportTo(log)).Run(context.Background(), "")
			require.Error(t, err)

			var record map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
			if !assert.Equal(t, "build", record["stage"]) {
				return
			}
			if !assert.Equal(t, "unbound operation", record["error"]) {
				return
			}
		})
	})

	t.Run("will not report anything", func(t *testing.T) {
		t.Run("if the app runs successfully", func(t *testing.T) {
			var gotCfg string
			builder := bedrock.AppBuilderFunc[string](func(ctx context.Context, cfg string) (bedrock.App, error) {
				gotCfg = cfg
				return appFunc(func(ctx context.Context) error {
					return nil
				}), nil
			})

			called := false
			r := NewRunner(builder, OnFailure(func(context.Context, StageError) {
				called = true
			}))

			err := r.Run(context.Background(), "cfg")
			if !assert.NoError(t, err) {
				return
			}
			if !assert.False(t, called) {
				return
			}
			if !assert.Equal(t, "cfg", gotCfg) {
				return
			}
		})
	})
}
