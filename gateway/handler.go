// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gateway

import (
	"net/http"

	"github.com/z5labs/apigate/errpage"
)

// Handler is an operation handler which reports failures to the
// gateway instead of writing them itself. Any [http.Handler] can be
// bound to an operation but only a Handler has its errors rendered.
type Handler interface {
	http.Handler

	Handle(http.ResponseWriter, *http.Request) error
}

// HandlerFunc is a func type of the [Handler] interface.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// Handle implements the [Handler] interface.
func (f HandlerFunc) Handle(w http.ResponseWriter, r *http.Request) error {
	return f(w, r)
}

// ServeHTTP implements the [http.Handler] interface for use outside of
// a [Gateway]. Errors are reported as a bare status.
func (f HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := f(w, r)
	if err == nil {
		return
	}
	status := errpage.StatusOf(err)
	http.Error(w, http.StatusText(status), status)
}

// responseWriter remembers whether a response has been started so the
// error fallback never writes over a partial response.
type responseWriter struct {
	http.ResponseWriter

	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
