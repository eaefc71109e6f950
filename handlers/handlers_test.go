// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/z5labs/apigate/errpage"
	"github.com/z5labs/apigate/gateway"
	"github.com/z5labs/apigate/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Unix(1700000000, 0)

func lookup(t *testing.T, group, operationID string) gateway.Handler {
	reg, err := registry.Build(Tree(WithClock(func() time.Time { return fixedTime })))
	require.NoError(t, err)

	h, ok := reg.Lookup(group, operationID)
	require.True(t, ok)

	gh, ok := h.(gateway.Handler)
	require.True(t, ok)
	return gh
}

func TestTree(t *testing.T) {
	t.Run("will register every handler group", func(t *testing.T) {
		t.Run("if the tree is built into a registry", func(t *testing.T) {
			reg, err := registry.Build(Tree())
			if !assert.NoError(t, err) {
				return
			}

			_, ok := reg.Lookup("IndexController", "indexGet")
			if !assert.True(t, ok) {
				return
			}
			_, ok = reg.Lookup("EchoController", "echoPost")
			if !assert.True(t, ok) {
				return
			}
		})
	})
}

func TestIndexGet(t *testing.T) {
	t.Run("will respond with a ping and timestamp", func(t *testing.T) {
		t.Run("if it is called", func(t *testing.T) {
			h := lookup(t, "IndexController", "indexGet")

			w := httptest.NewRecorder()
			err := h.Handle(w, httptest.NewRequest(http.MethodGet, "/", nil))
			if !assert.NoError(t, err) {
				return
			}

			resp := w.Result()
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}
			if !assert.Equal(t, "application/json", resp.Header.Get("Content-Type")) {
				return
			}

			b, err := io.ReadAll(resp.Body)
			if !assert.NoError(t, err) {
				return
			}
			if !assert.JSONEq(t, `{"ping":"OK","timestamp":1700000000}`, string(b)) {
				return
			}
		})
	})
}

func TestEchoPost(t *testing.T) {
	t.Run("will echo the message", func(t *testing.T) {
		testCases := []struct {
			Name     string
			Body     string
			Expected string
		}{
			{
				Name:     "if no timestamp is requested",
				Body:     `{"echoMessage":"hi"}`,
				Expected: `{"echoMessage":"hi"}`,
			},
			{
				Name:     "if the timestamp is explicitly not requested",
				Body:     `{"echoMessage":"hi","outputTimestamp":false}`,
				Expected: `{"echoMessage":"hi"}`,
			},
			{
				Name:     "if a timestamp is requested",
				Body:     `{"echoMessage":"hi","outputTimestamp":true}`,
				Expected: `{"echoMessage":"hi","timestamp":1700000000}`,
			},
			{
				Name:     "if the message is not a string",
				Body:     `{"echoMessage":{"nested":[1,2]}}`,
				Expected: `{"echoMessage":{"nested":[1,2]}}`,
			},
		}

		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				h := lookup(t, "EchoController", "echoPost")

				w := httptest.NewRecorder()
				r := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(testCase.Body))
				err := h.Handle(w, r)
				if !assert.NoError(t, err) {
					return
				}

				b, err := io.ReadAll(w.Result().Body)
				if !assert.NoError(t, err) {
					return
				}
				if !assert.JSONEq(t, testCase.Expected, string(b)) {
					return
				}
			})
		}
	})

	t.Run("will return a 400 HTTPError", func(t *testing.T) {
		t.Run("if the body is not json", func(t *testing.T) {
			h := lookup(t, "EchoController", "echoPost")

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`nope`))
			err := h.Handle(w, r)
			if !assert.Equal(t, http.StatusBadRequest, errpage.StatusOf(err)) {
				return
			}
			if !assert.Empty(t, w.Body.String()) {
				return
			}
		})
	})
}
