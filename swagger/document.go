// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package swagger loads Swagger 2.0 (OpenAPI 2.0) API definitions.
//
// Only the parts of a definition which drive routing, authentication and
// parameter presence checks are modeled. Everything else is preserved in
// the raw document so it can still be published as is.
package swagger

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gopkg.in/yaml.v3"
)

// RouterControllerExtension is the vendor extension naming the handler
// group an operation is implemented by.
const RouterControllerExtension = "x-swagger-router-controller"

// methodOrder is the order operations are listed in within a path item.
var methodOrder = []string{
	http.MethodGet,
	http.MethodPut,
	http.MethodPost,
	http.MethodDelete,
	http.MethodOptions,
	http.MethodHead,
	http.MethodPatch,
}

// Info is the document level metadata.
type Info struct {
	Title       string `yaml:"title"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
}

// SecurityScheme is a single entry of the securityDefinitions map.
type SecurityScheme struct {
	Type        string `yaml:"type"`
	In          string `yaml:"in"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// SchemeScopes names a security scheme and the scopes it requires.
type SchemeScopes struct {
	Name   string
	Scopes []string
}

// SecurityRequirement is one alternative of a security list. Its
// schemes are kept in declaration order.
type SecurityRequirement []SchemeScopes

// Names returns the scheme names of the requirement in declaration order.
func (sr SecurityRequirement) Names() []string {
	names := make([]string, 0, len(sr))
	for _, ss := range sr {
		names = append(names, ss.Name)
	}
	return names
}

// Schema is the subset of a JSON schema needed for presence checks.
type Schema struct {
	Ref        string             `yaml:"$ref"`
	Type       string             `yaml:"type"`
	Required   []string           `yaml:"required"`
	Properties map[string]*Schema `yaml:"properties"`
}

// Parameter describes a single operation parameter.
type Parameter struct {
	Name        string  `yaml:"name"`
	In          string  `yaml:"in"`
	Description string  `yaml:"description"`
	Required    bool    `yaml:"required"`
	Type        string  `yaml:"type"`
	Schema      *Schema `yaml:"schema"`
}

// Operation is a single method of a path item.
type Operation struct {
	Path         string
	Method       string
	HandlerGroup string
	OperationID  string
	Summary      string
	Tags         []string
	Parameters   []Parameter

	// Security is nil when the operation inherits the document
	// security. An empty non-nil slice disables security.
	Security []SecurityRequirement
}

// Document is a parsed API definition. It must not be mutated once loaded.
type Document struct {
	Swagger             string
	Info                Info
	Host                string
	BasePath            string
	Operations          []Operation
	SecurityDefinitions map[string]SecurityScheme
	Security            []SecurityRequirement
	Definitions         map[string]*Schema

	raw []byte
}

// Raw returns the bytes the document was parsed from.
func (d *Document) Raw() []byte {
	return d.raw
}

// Operation returns the operation declared for the given method and path template.
func (d *Document) Operation(method, path string) (Operation, bool) {
	for _, op := range d.Operations {
		if op.Method == method && op.Path == path {
			return op, true
		}
	}
	return Operation{}, false
}

// UnsupportedVersionError is returned when the document is not Swagger 2.0.
type UnsupportedVersionError struct {
	Version string
}

func (e UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported swagger version: %q", e.Version)
}

// ErrNotAMapping is returned when a document, or one of its sections
// which must be an object, is something else.
var ErrNotAMapping = errors.New("swagger: expected a mapping")

// Parse decodes a YAML or JSON Swagger 2.0 document.
func Parse(b []byte) (*Document, error) {
	var node yaml.Node
	err := yaml.Unmarshal(b, &node)
	if err != nil {
		return nil, fmt.Errorf("swagger: failed to decode document: %w", err)
	}
	if node.Kind != yaml.DocumentNode || len(node.Content) == 0 {
		return nil, ErrNotAMapping
	}

	root := node.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, ErrNotAMapping
	}

	doc := &Document{
		SecurityDefinitions: make(map[string]SecurityScheme),
		Definitions:         make(map[string]*Schema),
		raw:                 b,
	}
	if n := lookup(root, "swagger"); n != nil {
		doc.Swagger = n.Value
	}
	if doc.Swagger != "2.0" {
		return nil, UnsupportedVersionError{Version: doc.Swagger}
	}
	if n := lookup(root, "host"); n != nil {
		doc.Host = n.Value
	}
	if n := lookup(root, "basePath"); n != nil {
		doc.BasePath = n.Value
	}

	err = decodeIfPresent(root, "info", &doc.Info)
	if err != nil {
		return nil, err
	}
	err = decodeIfPresent(root, "securityDefinitions", &doc.SecurityDefinitions)
	if err != nil {
		return nil, err
	}
	err = decodeIfPresent(root, "definitions", &doc.Definitions)
	if err != nil {
		return nil, err
	}

	doc.Security, err = parseSecurity(lookup(root, "security"))
	if err != nil {
		return nil, fmt.Errorf("swagger: invalid document security: %w", err)
	}

	paths := lookup(root, "paths")
	if paths == nil {
		return doc, nil
	}
	if paths.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("swagger: paths: %w", ErrNotAMapping)
	}
	for i := 0; i+1 < len(paths.Content); i += 2 {
		path := paths.Content[i].Value
		ops, err := parsePathItem(doc, path, paths.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("swagger: path %s: %w", path, err)
		}
		doc.Operations = append(doc.Operations, ops...)
	}
	return doc, nil
}

func parsePathItem(doc *Document, path string, item *yaml.Node) ([]Operation, error) {
	if item.Kind != yaml.MappingNode {
		return nil, ErrNotAMapping
	}

	var group string
	if n := lookup(item, RouterControllerExtension); n != nil {
		group = n.Value
	}

	var shared []Parameter
	err := decodeIfPresent(item, "parameters", &shared)
	if err != nil {
		return nil, err
	}
	for i := range shared {
		shared[i].Schema = doc.resolve(shared[i].Schema)
	}

	var ops []Operation
	for _, method := range methodOrder {
		n := lookup(item, strings.ToLower(method))
		if n == nil {
			continue
		}
		if n.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%s: %w", method, ErrNotAMapping)
		}

		op, err := parseOperation(doc, n)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		op.Path = path
		op.Method = method
		if op.HandlerGroup == "" {
			op.HandlerGroup = group
		}
		op.Parameters = mergeParameters(shared, op.Parameters)
		ops = append(ops, op)
	}
	return ops, nil
}

func parseOperation(doc *Document, n *yaml.Node) (Operation, error) {
	var raw struct {
		OperationID  string      `yaml:"operationId"`
		Summary      string      `yaml:"summary"`
		Tags         []string    `yaml:"tags"`
		Parameters   []Parameter `yaml:"parameters"`
		HandlerGroup string      `yaml:"x-swagger-router-controller"`
	}
	err := n.Decode(&raw)
	if err != nil {
		return Operation{}, err
	}

	sec, err := parseSecurity(lookup(n, "security"))
	if err != nil {
		return Operation{}, err
	}

	for i := range raw.Parameters {
		raw.Parameters[i].Schema = doc.resolve(raw.Parameters[i].Schema)
	}

	return Operation{
		HandlerGroup: raw.HandlerGroup,
		OperationID:  raw.OperationID,
		Summary:      raw.Summary,
		Tags:         raw.Tags,
		Parameters:   raw.Parameters,
		Security:     sec,
	}, nil
}

// parseSecurity keeps the key order of each requirement object, which a
// plain map decode would lose. A nil node yields nil and an empty list
// yields an empty non-nil slice.
func parseSecurity(n *yaml.Node) ([]SecurityRequirement, error) {
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, errors.New("security must be a list")
	}

	reqs := make([]SecurityRequirement, 0, len(n.Content))
	for _, item := range n.Content {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("security requirement: %w", ErrNotAMapping)
		}

		req := make(SecurityRequirement, 0, len(item.Content)/2)
		for i := 0; i+1 < len(item.Content); i += 2 {
			var scopes []string
			err := item.Content[i+1].Decode(&scopes)
			if err != nil {
				return nil, err
			}
			req = append(req, SchemeScopes{
				Name:   item.Content[i].Value,
				Scopes: scopes,
			})
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// resolve follows a local definitions reference one level deep.
func (d *Document) resolve(s *Schema) *Schema {
	if s == nil || s.Ref == "" {
		return s
	}
	name, ok := strings.CutPrefix(s.Ref, "#/definitions/")
	if !ok {
		return s
	}
	def, ok := d.Definitions[name]
	if !ok {
		return s
	}
	return def
}

// mergeParameters applies operation parameters over path level ones.
// A parameter is identified by its name and location.
func mergeParameters(shared, own []Parameter) []Parameter {
	if len(shared) == 0 {
		return own
	}

	params := make([]Parameter, 0, len(shared)+len(own))
	for _, sp := range shared {
		overridden := false
		for _, op := range own {
			if op.Name == sp.Name && op.In == sp.In {
				overridden = true
				break
			}
		}
		if !overridden {
			params = append(params, sp)
		}
	}
	return append(params, own...)
}

func lookup(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func decodeIfPresent(n *yaml.Node, key string, v any) error {
	child := lookup(n, key)
	if child == nil {
		return nil
	}
	err := child.Decode(v)
	if err != nil {
		return fmt.Errorf("swagger: %s: %w", key, err)
	}
	return nil
}
