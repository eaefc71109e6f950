// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package auth

import "net/http"

// Outcome is the result of authenticating a single request. The set of
// implementations is closed to this package.
type Outcome interface {
	// Kind is a stable, low cardinality name of the outcome.
	Kind() string

	outcome()
}

// Authenticated means the request carried a valid credential.
type Authenticated struct {
	Scheme string
}

func (Authenticated) Kind() string { return "authenticated" }
func (Authenticated) outcome()     {}

// NoAuthenticationRequired means no scheme applies to the request.
type NoAuthenticationRequired struct{}

func (NoAuthenticationRequired) Kind() string { return "no_authentication_required" }
func (NoAuthenticationRequired) outcome()     {}

// Unauthorized means the credential was missing or invalid.
type Unauthorized struct {
	Reason string
}

func (Unauthorized) Kind() string { return "unauthorized" }
func (Unauthorized) outcome()     {}

// NotImplemented means the scheme type is valid Swagger 2.0 but
// can not be verified by this server.
type NotImplemented struct {
	SchemeType string
}

func (NotImplemented) Kind() string { return "not_implemented" }
func (NotImplemented) outcome()     {}

// UnsupportedSchemeType means the scheme type is not one Swagger 2.0 defines.
type UnsupportedSchemeType struct {
	SchemeType string
}

func (UnsupportedSchemeType) Kind() string { return "unsupported_scheme_type" }
func (UnsupportedSchemeType) outcome()     {}

// Decide maps an outcome to whether the request may proceed and, if it
// may not, the status it must be terminated with.
func Decide(o Outcome) (status int, proceed bool) {
	switch o.(type) {
	case Authenticated, NoAuthenticationRequired:
		return 0, true
	case Unauthorized:
		return http.StatusUnauthorized, false
	case NotImplemented, UnsupportedSchemeType:
		return http.StatusNotImplemented, false
	default:
		return http.StatusInternalServerError, false
	}
}
