// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package errpage renders request failures as HTML pages.
package errpage

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/z5labs/apigate/swagger"
)

const (
	GeneralErrorTemplate        = "GeneralError.html"
	NotImplementedErrorTemplate = "NotImplementedError.html"
)

//go:embed templates/*.html
var templates embed.FS

// DefaultTemplates returns the built in templates.
func DefaultTemplates() fs.FS {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Templates returns the templates in dir, or the built in templates
// if dir is empty.
func Templates(dir string) fs.FS {
	if dir == "" {
		return DefaultTemplates()
	}
	return os.DirFS(dir)
}

// HTTPError is a failure which carries the status it should be
// reported with. Cause is logged but never rendered.
type HTTPError struct {
	Status     int
	Message    string
	IncidentID string
	Cause      error
}

// Error creates a [HTTPError] with the given status and message.
func Error(status int, message string) *HTTPError {
	return &HTTPError{Status: status, Message: message}
}

// Wrap creates a [HTTPError] with the given status whose cause is err.
func Wrap(status int, err error) *HTTPError {
	return &HTTPError{Status: status, Cause: err}
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(StatusOf(e))
	}
	if e.Cause == nil {
		return fmt.Sprintf("%d: %s", StatusOf(e), msg)
	}
	return fmt.Sprintf("%d: %s: %v", StatusOf(e), msg, e.Cause)
}

func (e *HTTPError) Unwrap() error {
	return e.Cause
}

// StatusOf returns the status carried by err or 500 if it carries none.
func StatusOf(err error) int {
	var herr *HTTPError
	if errors.As(err, &herr) && herr.Status >= 400 && herr.Status <= 599 {
		return herr.Status
	}
	return http.StatusInternalServerError
}

// AsHTTPError returns err as a [HTTPError], wrapping it if needed.
func AsHTTPError(err error) *HTTPError {
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr
	}
	return Wrap(StatusOf(err), err)
}

// Page is the data a template is executed with.
type Page struct {
	Status     int
	StatusText string
	Message    string
	IncidentID string
	API        swagger.Metadata
}

// Presenter renders one category of failure.
type Presenter struct {
	name   string
	fsys   fs.FS
	status int
}

// UnboundOperation initializes the [Presenter] for declared operations
// which have no handler. It always reports 501.
func UnboundOperation(fsys fs.FS) *Presenter {
	return &Presenter{
		name:   NotImplementedErrorTemplate,
		fsys:   fsys,
		status: http.StatusNotImplemented,
	}
}

// GeneralFailure initializes the [Presenter] for every other failure.
// It reports the status carried by the error.
func GeneralFailure(fsys fs.FS) *Presenter {
	return &Presenter{
		name: GeneralErrorTemplate,
		fsys: fsys,
	}
}

// Name returns the template the presenter renders.
func (p *Presenter) Name() string {
	return p.name
}

// Status returns the status err is presented with.
func (p *Presenter) Status(err *HTTPError) int {
	if p.status != 0 {
		return p.status
	}
	return StatusOf(err)
}

// Render writes the page for err. The template is read on every call so
// edits to a configured template dir apply without a restart.
func (p *Presenter) Render(w io.Writer, err *HTTPError, md swagger.Metadata) error {
	tmpl, terr := template.ParseFS(p.fsys, p.name)
	if terr != nil {
		return terr
	}

	status := p.Status(err)
	page := Page{
		Status:     status,
		StatusText: http.StatusText(status),
		Message:    err.Message,
		IncidentID: err.IncidentID,
		API:        md,
	}
	if page.Message == "" {
		page.Message = page.StatusText
	}
	return tmpl.Execute(w, page)
}

// Serve renders err and writes it as the complete response. If the
// page can not be rendered a plain text body is written instead and
// the render error is returned.
func (p *Presenter) Serve(w http.ResponseWriter, err *HTTPError, md swagger.Metadata) error {
	status := p.Status(err)

	var buf bytes.Buffer
	rerr := p.Render(&buf, err, md)
	if rerr != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, http.StatusText(status))
		return rerr
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, werr := buf.WriteTo(w)
	return werr
}
