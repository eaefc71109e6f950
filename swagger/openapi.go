// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package swagger

import (
	"net/http"
	"strings"

	"github.com/swaggest/openapi-go/openapi3"
	"github.com/z5labs/sdk-go/ptr"
)

// OpenAPI3 renders d as an OpenAPI 3.0 document. Only the parts which
// the gateway understands are carried over.
func OpenAPI3(d *Document, useBasePath bool) (*openapi3.Spec, error) {
	spec := &openapi3.Spec{
		Openapi: "3.0.3",
		Info: openapi3.Info{
			Title:   d.Info.Title,
			Version: d.Info.Version,
		},
	}
	if d.Info.Description != "" {
		spec.Info.Description = ptr.Ref(d.Info.Description)
	}

	for name, scheme := range d.SecurityDefinitions {
		ss, ok := securitySchemeToOpenAPI3(scheme)
		if !ok {
			continue
		}
		spec.ComponentsEns().SecuritySchemesEns().WithMapOfSecuritySchemeOrRefValuesItem(
			name,
			openapi3.SecuritySchemeOrRef{
				SecurityScheme: &ss,
			},
		)
	}

	for _, op := range d.Operations {
		path := op.Path
		if useBasePath {
			path = JoinPath(d.BasePath, op.Path)
		}

		err := spec.AddOperation(op.Method, path, operationToOpenAPI3(d, op))
		if err != nil {
			return nil, err
		}
	}
	return spec, nil
}

// JoinPath prefixes path with basePath.
func JoinPath(basePath, path string) string {
	basePath = strings.TrimSuffix(basePath, "/")
	if basePath == "" {
		return path
	}
	if path == "/" {
		return basePath
	}
	return basePath + "/" + strings.TrimPrefix(path, "/")
}

func operationToOpenAPI3(d *Document, op Operation) openapi3.Operation {
	oop := openapi3.Operation{
		Tags: op.Tags,
		Responses: openapi3.Responses{
			MapOfResponseOrRefValues: map[string]openapi3.ResponseOrRef{
				"default": {
					Response: &openapi3.Response{
						Description: http.StatusText(http.StatusOK),
					},
				},
			},
		},
	}
	if op.OperationID != "" {
		oop.ID = ptr.Ref(op.OperationID)
	}
	if op.Summary != "" {
		oop.Summary = ptr.Ref(op.Summary)
	}

	security := op.Security
	if security == nil {
		security = d.Security
	}
	for _, req := range security {
		m := make(map[string][]string, len(req))
		for _, ss := range req {
			scopes := ss.Scopes
			if scopes == nil {
				scopes = []string{}
			}
			m[ss.Name] = scopes
		}
		oop.Security = append(oop.Security, m)
	}

	for _, p := range op.Parameters {
		if p.In == "body" {
			oop.RequestBody = requestBodyToOpenAPI3(p)
			continue
		}

		in, ok := parameterLocation(p.In)
		if !ok {
			continue
		}

		param := &openapi3.Parameter{
			Name:     p.Name,
			In:       in,
			Required: ptr.Ref(p.Required),
		}
		if p.Description != "" {
			param.Description = ptr.Ref(p.Description)
		}
		if p.Type != "" {
			param.Schema = &openapi3.SchemaOrRef{
				Schema: &openapi3.Schema{
					Type: ptr.Ref(openapi3.SchemaType(p.Type)),
				},
			}
		}
		oop.Parameters = append(oop.Parameters, openapi3.ParameterOrRef{
			Parameter: param,
		})
	}
	return oop
}

func requestBodyToOpenAPI3(p Parameter) *openapi3.RequestBodyOrRef {
	schema := &openapi3.Schema{
		Type: ptr.Ref(openapi3.SchemaTypeObject),
	}
	if p.Schema != nil {
		schema.Required = p.Schema.Required
		if p.Schema.Type != "" {
			schema.Type = ptr.Ref(openapi3.SchemaType(p.Schema.Type))
		}
	}

	return &openapi3.RequestBodyOrRef{
		RequestBody: &openapi3.RequestBody{
			Required: ptr.Ref(p.Required),
			Content: map[string]openapi3.MediaType{
				"application/json": {
					Schema: &openapi3.SchemaOrRef{
						Schema: schema,
					},
				},
			},
		},
	}
}

func parameterLocation(in string) (openapi3.ParameterIn, bool) {
	switch in {
	case "query":
		return openapi3.ParameterInQuery, true
	case "header":
		return openapi3.ParameterInHeader, true
	case "path":
		return openapi3.ParameterInPath, true
	default:
		return "", false
	}
}

func securitySchemeToOpenAPI3(s SecurityScheme) (openapi3.SecurityScheme, bool) {
	switch s.Type {
	case "apiKey":
		return openapi3.SecurityScheme{
			APIKeySecurityScheme: &openapi3.APIKeySecurityScheme{
				Name: s.Name,
				In:   openapi3.APIKeySecuritySchemeIn(s.In),
			},
		}, true
	case "basic":
		return openapi3.SecurityScheme{
			HTTPSecurityScheme: &openapi3.HTTPSecurityScheme{
				Scheme: "basic",
			},
		}, true
	case "oauth2":
		return openapi3.SecurityScheme{
			OAuth2SecurityScheme: &openapi3.OAuth2SecurityScheme{},
		}, true
	default:
		return openapi3.SecurityScheme{}, false
	}
}
