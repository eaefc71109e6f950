// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/z5labs/apigate/errpage"
	"github.com/z5labs/apigate/swagger"

	"github.com/go-chi/chi/v5"
	"github.com/z5labs/sdk-go/try"
)

// Validator checks a request against the operation it was matched to.
// It may return a replacement request, e.g. with a re-readable body.
type Validator interface {
	Validate(context.Context, swagger.Operation, *http.Request) (*http.Request, error)
}

// ValidatorFunc is a func type of the [Validator] interface.
type ValidatorFunc func(context.Context, swagger.Operation, *http.Request) (*http.Request, error)

// Validate implements the [Validator] interface.
func (f ValidatorFunc) Validate(ctx context.Context, op swagger.Operation, r *http.Request) (*http.Request, error) {
	return f(ctx, op, r)
}

// ValidationError lists every problem found with a request.
type ValidationError struct {
	Problems []string
}

func (e ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// RequiredValidator only checks that required parameters are present.
// For a JSON body it also checks the required top level properties of
// the body schema. Types and formats are not checked.
type RequiredValidator struct {
	// MaxBodyBytes bounds how much of a body is read. Zero means 1MiB.
	MaxBodyBytes int64
}

const defaultMaxBodyBytes = 1 << 20

// Validate implements the [Validator] interface.
func (v RequiredValidator) Validate(ctx context.Context, op swagger.Operation, r *http.Request) (*http.Request, error) {
	var problems []string
	for _, p := range op.Parameters {
		switch p.In {
		case "body":
			var bodyProblems []string
			var err error
			r, bodyProblems, err = v.validateBody(p, r)
			if err != nil {
				return nil, err
			}
			problems = append(problems, bodyProblems...)
		case "query":
			if p.Required && !r.URL.Query().Has(p.Name) {
				problems = append(problems, fmt.Sprintf("missing required query parameter %q", p.Name))
			}
		case "header":
			if p.Required && r.Header.Get(p.Name) == "" {
				problems = append(problems, fmt.Sprintf("missing required header %q", p.Name))
			}
		case "path":
			if p.Required && chi.URLParam(r, p.Name) == "" {
				problems = append(problems, fmt.Sprintf("missing required path parameter %q", p.Name))
			}
		case "formData":
			if p.Required && !hasFormValue(r, p.Name) {
				problems = append(problems, fmt.Sprintf("missing required form field %q", p.Name))
			}
		}
	}
	if len(problems) == 0 {
		return r, nil
	}

	verr := ValidationError{Problems: problems}
	return nil, &errpage.HTTPError{
		Status:  http.StatusBadRequest,
		Message: verr.Error(),
		Cause:   verr,
	}
}

func (v RequiredValidator) validateBody(p swagger.Parameter, r *http.Request) (_ *http.Request, _ []string, err error) {
	limit := v.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}

	var b []byte
	if r.Body != nil {
		rc := r.Body
		defer try.Close(&err, rc)

		b, err = io.ReadAll(io.LimitReader(rc, limit+1))
		if err != nil {
			return nil, nil, errpage.Wrap(http.StatusBadRequest, err)
		}
		if int64(len(b)) > limit {
			return nil, nil, errpage.Error(http.StatusRequestEntityTooLarge, "request body is too large")
		}
	}

	r = r.Clone(r.Context())
	r.Body = io.NopCloser(bytes.NewReader(b))

	if len(bytes.TrimSpace(b)) == 0 {
		if p.Required {
			return r, []string{"missing required request body"}, nil
		}
		return r, nil, nil
	}
	if p.Schema == nil || len(p.Schema.Required) == 0 {
		return r, nil, nil
	}

	var obj map[string]json.RawMessage
	err = json.Unmarshal(b, &obj)
	if err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return r, []string{"request body must be a JSON object"}, nil
		}
		return r, []string{"request body is not valid JSON"}, nil
	}
	if obj == nil {
		return r, []string{"request body must be a JSON object"}, nil
	}

	var problems []string
	for _, name := range p.Schema.Required {
		raw, ok := obj[name]
		if !ok || string(raw) == "null" {
			problems = append(problems, fmt.Sprintf("missing required property %q", name))
		}
	}
	return r, problems, nil
}

func hasFormValue(r *http.Request, name string) bool {
	err := r.ParseMultipartForm(defaultMaxBodyBytes)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return false
	}
	return r.PostForm.Has(name) || (r.MultipartForm != nil && len(r.MultipartForm.File[name]) > 0)
}
