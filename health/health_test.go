// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package health

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

func TestFlag_Check(t *testing.T) {
	t.Run("will be down", func(t *testing.T) {
		t.Run("if it was never raised", func(t *testing.T) {
			var f Flag

			var derr DownError
			if !assert.ErrorAs(t, f.Check(t.Context()), &derr) {
				return
			}
			if !assert.Equal(t, "starting", derr.Reason) {
				return
			}
		})

		t.Run("if it was lowered after being raised", func(t *testing.T) {
			var f Flag
			f.Up()
			f.Down("draining")

			var derr DownError
			if !assert.ErrorAs(t, f.Check(t.Context()), &derr) {
				return
			}
			if !assert.Equal(t, "draining", derr.Reason) {
				return
			}
		})
	})

	t.Run("will be up", func(t *testing.T) {
		t.Run("if it was raised", func(t *testing.T) {
			var f Flag
			f.Up()

			assert.NoError(t, f.Check(t.Context()))
		})
	})
}

func TestAll(t *testing.T) {
	t.Run("will report every failing check", func(t *testing.T) {
		t.Run("if more than one dependency is unavailable", func(t *testing.T) {
			var up Flag
			up.Up()

			pingErr := errors.New("connection refused")
			db := Ping("postgres", pingFunc(func(ctx context.Context) error {
				return pingErr
			}))

			var gw Flag
			err := All(&up, db, Named("gateway", &gw)).Check(t.Context())
			if !assert.ErrorIs(t, err, pingErr) {
				return
			}

			var derr DownError
			if !assert.ErrorAs(t, err, &derr) {
				return
			}
			if !assert.Equal(t, []string{"postgres", "gateway"}, failing(err)) {
				return
			}
		})
	})

	t.Run("will pass", func(t *testing.T) {
		t.Run("if every check passes", func(t *testing.T) {
			var up Flag
			up.Up()

			db := Ping("postgres", pingFunc(func(ctx context.Context) error {
				return nil
			}))

			assert.NoError(t, All(&up, db).Check(t.Context()))
		})

		t.Run("if there are no checks", func(t *testing.T) {
			assert.NoError(t, All().Check(t.Context()))
		})
	})
}

func TestHandler(t *testing.T) {
	log := slog.New(slog.DiscardHandler)

	testCases := []struct {
		Name   string
		Check  Check
		Status int
		Report Report
	}{
		{
			Name: "if the check passes",
			Check: CheckFunc(func(ctx context.Context) error {
				return nil
			}),
			Status: http.StatusOK,
			Report: Report{Status: "ok"},
		},
		{
			Name:   "if a named check fails",
			Check:  Named("object-store", CheckFunc(func(ctx context.Context) error { return errors.New("timeout") })),
			Status: http.StatusServiceUnavailable,
			Report: Report{Status: "unavailable", Failing: []string{"object-store"}},
		},
		{
			Name: "if an unnamed check fails",
			Check: CheckFunc(func(ctx context.Context) error {
				return errors.New("boom")
			}),
			Status: http.StatusServiceUnavailable,
			Report: Report{Status: "unavailable", Failing: []string{"unnamed"}},
		},
	}

	t.Run("will write a report", func(t *testing.T) {
		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				w := httptest.NewRecorder()
				r := httptest.NewRequest(http.MethodGet, "/health/readiness", nil)

				Handler(testCase.Check, log).ServeHTTP(w, r)

				if !assert.Equal(t, testCase.Status, w.Code) {
					return
				}
				if !assert.Equal(t, "application/json", w.Header().Get("Content-Type")) {
					return
				}

				var report Report
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
				assert.Equal(t, testCase.Report, report)
			})
		}
	})
}
