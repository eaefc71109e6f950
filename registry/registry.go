// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package registry indexes handler modules by name.
package registry

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
)

// Module is a named set of operation handlers. Its registry key is
// derived from Name by [Key].
type Module struct {
	Name       string
	Operations map[string]http.Handler
}

// Dir groups modules and nested dirs. It only exists to organize modules;
// dir names never become part of a registry key.
type Dir struct {
	Name    string
	Modules []Module
	Dirs    []Dir
}

// Group maps an operationId to its handler.
type Group map[string]http.Handler

// Registry maps a handler group name to its operations. It is read only
// once built.
type Registry map[string]Group

// Lookup returns the handler registered for operationID within group.
func (r Registry) Lookup(group, operationID string) (http.Handler, bool) {
	g, ok := r[group]
	if !ok {
		return nil, false
	}
	h, ok := g[operationID]
	if !ok || h == nil {
		return nil, false
	}
	return h, true
}

// Key derives the registry key of a module name: its base name with
// any extension stripped.
func Key(name string) string {
	base := path.Base(name)
	return strings.TrimSuffix(base, path.Ext(base))
}

// ErrEmptyTree is returned when a tree contains no modules at all.
var ErrEmptyTree = errors.New("registry: no handler modules found")

// DuplicateModuleError is returned when two modules derive the same key.
type DuplicateModuleError struct {
	Key    string
	First  string
	Second string
}

func (e DuplicateModuleError) Error() string {
	return fmt.Sprintf("registry: module %s and module %s both register handler group %q", e.First, e.Second, e.Key)
}

// InvalidModuleNameError is returned when a module name derives an empty key.
type InvalidModuleNameError struct {
	Path string
}

func (e InvalidModuleNameError) Error() string {
	return fmt.Sprintf("registry: module %q does not derive a handler group name", e.Path)
}

// Build walks root depth first, the modules of a dir before its sub
// dirs, and indexes every module by its key.
func Build(root Dir) (Registry, error) {
	b := &builder{
		reg:   make(Registry),
		paths: make(map[string]string),
	}
	err := b.walk(root.Name, root)
	if err != nil {
		return nil, err
	}
	if len(b.reg) == 0 {
		return nil, ErrEmptyTree
	}
	return b.reg, nil
}

type builder struct {
	reg   Registry
	paths map[string]string
}

func (b *builder) walk(dir string, d Dir) error {
	for _, m := range d.Modules {
		p := path.Join(dir, m.Name)

		key := Key(m.Name)
		if key == "" || key == "." || key == "/" {
			return InvalidModuleNameError{Path: p}
		}
		if first, exists := b.paths[key]; exists {
			return DuplicateModuleError{
				Key:    key,
				First:  first,
				Second: p,
			}
		}
		b.paths[key] = p

		group := make(Group, len(m.Operations))
		for id, h := range m.Operations {
			group[id] = h
		}
		b.reg[key] = group
	}

	for _, sub := range d.Dirs {
		err := b.walk(path.Join(dir, sub.Name), sub)
		if err != nil {
			return err
		}
	}
	return nil
}
