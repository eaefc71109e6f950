// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package auth

import (
	"fmt"

	"github.com/z5labs/apigate/swagger"
)

// Location is where an api key is carried in a request.
type Location string

const (
	LocationQuery  Location = "query"
	LocationHeader Location = "header"
)

// Scheme is a typed security scheme definition. The set of
// implementations is closed to this package.
type Scheme interface {
	// Type is the scheme type as declared in the API definition.
	Type() string

	scheme()
}

// APIKeyScheme authenticates with a key carried in a query
// parameter or a header. Any other location never yields a credential.
type APIKeyScheme struct {
	Name string
	In   Location
}

func (APIKeyScheme) Type() string { return "apiKey" }
func (APIKeyScheme) scheme()      {}

// BasicScheme is HTTP basic authentication.
type BasicScheme struct{}

func (BasicScheme) Type() string { return "basic" }
func (BasicScheme) scheme()      {}

// OAuth2Scheme is OAuth 2.0 authentication.
type OAuth2Scheme struct{}

func (OAuth2Scheme) Type() string { return "oauth2" }
func (OAuth2Scheme) scheme()      {}

// UnsupportedScheme is any scheme definition this package can not
// dispatch on.
type UnsupportedScheme struct {
	DeclaredType string

	// Cause explains why an otherwise known type is unsupported.
	Cause error
}

func (s UnsupportedScheme) Type() string { return s.DeclaredType }
func (UnsupportedScheme) scheme()        {}

// UnknownLocationError describes an [APIKeyScheme] whose location is
// neither query nor header. No credential can ever be read from it.
type UnknownLocationError struct {
	In string
}

func (e UnknownLocationError) Error() string {
	return fmt.Sprintf("unknown api key location: %q", e.In)
}

// SchemeOf types the given definition.
func SchemeOf(def swagger.SecurityScheme) Scheme {
	switch def.Type {
	case "apiKey":
		return APIKeyScheme{Name: def.Name, In: Location(def.In)}
	case "basic":
		return BasicScheme{}
	case "oauth2":
		return OAuth2Scheme{}
	default:
		return UnsupportedScheme{DeclaredType: def.Type}
	}
}
