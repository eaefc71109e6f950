// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestFoldPattern(t *testing.T) {
	t.Run("will keep parameter names", func(t *testing.T) {
		t.Run("if the pattern mixes literals and parameters", func(t *testing.T) {
			got := foldPattern("/V1/Users/{userId}/Files/{fileName:[A-Z]+}")
			if !assert.Equal(t, "/v1/users/{userId}/files/{fileName:[A-Z]+}", got) {
				return
			}
		})
	})
}

func TestUnfoldParams(t *testing.T) {
	t.Run("will restore the sent case of a parameter", func(t *testing.T) {
		testCases := []struct {
			Name    string
			Pattern string
			Path    string
			Key     string
			Folded  string
			Want    string
		}{
			{
				Name:    "if the parameter fills its segment",
				Pattern: "/users/{userId}",
				Path:    "/USERS/AbC",
				Key:     "userId",
				Folded:  "abc",
				Want:    "AbC",
			},
			{
				Name:    "if the parameter has a literal prefix and suffix",
				Pattern: "/files/img-{name}.png",
				Path:    "/Files/img-MyPic.png",
				Key:     "name",
				Folded:  "mypic",
				Want:    "MyPic",
			},
			{
				Name:    "if the path has a trailing slash",
				Pattern: "/users/{userId}",
				Path:    "/users/AbC/",
				Key:     "userId",
				Folded:  "abc",
				Want:    "AbC",
			},
		}

		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				rctx := chi.NewRouteContext()
				rctx.URLParams.Add(testCase.Key, testCase.Folded)

				r := httptest.NewRequest(http.MethodGet, testCase.Path, nil)
				ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
				ctx = context.WithValue(ctx, requestPathCtxKey{}, testCase.Path)
				r = r.WithContext(ctx)

				unfoldParams(r, testCase.Pattern)
				if !assert.Equal(t, testCase.Want, rctx.URLParam(testCase.Key)) {
					return
				}
			})
		}
	})

	t.Run("will keep the folded value", func(t *testing.T) {
		t.Run("if the segment holds more than one parameter", func(t *testing.T) {
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("a", "x")
			rctx.URLParams.Add("b", "y")

			r := httptest.NewRequest(http.MethodGet, "/X-Y", nil)
			ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, requestPathCtxKey{}, "/X-Y")
			r = r.WithContext(ctx)

			unfoldParams(r, "/{a}-{b}")
			if !assert.Equal(t, "x", rctx.URLParam("a")) {
				return
			}
			if !assert.Equal(t, "y", rctx.URLParam("b")) {
				return
			}
		})
	})
}
