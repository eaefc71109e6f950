// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/z5labs/apigate"
	"github.com/z5labs/apigate/config"
	"github.com/z5labs/apigate/route"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintRoutes(t *testing.T) {
	t.Run("will print every bound operation", func(t *testing.T) {
		t.Run("if the bundled definition is used", func(t *testing.T) {
			var cfg apigate.Config
			cfg.API.Definition.Source = config.FileDefinitionSource
			cfg.API.Definition.Path = "../../api/swagger.yaml"
			cfg.Auth.Verifier = config.PostgresVerifier

			var buf bytes.Buffer
			err := printRoutes(context.Background(), &buf, cfg)
			if !assert.NoError(t, err) {
				return
			}

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if !assert.Len(t, lines, 3) {
				return
			}
			if !assert.Contains(t, buf.String(), "IndexController.indexGet") {
				return
			}
			if !assert.Contains(t, buf.String(), "EchoController.echoPost") {
				return
			}
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if an operation has no handler", func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "swagger.yaml")
			err := os.WriteFile(p, []byte(`
swagger: "2.0"
info:
  title: Test
  version: 1.0.0
paths:
  /users:
    x-swagger-router-controller: UserController
    get:
      operationId: listUsers
`), 0o600)
			require.NoError(t, err)

			var cfg apigate.Config
			cfg.API.Definition.Path = p

			var buf bytes.Buffer
			err = printRoutes(context.Background(), &buf, cfg)

			var berr route.BindError
			if !assert.ErrorAs(t, err, &berr) {
				return
			}
			if !assert.Empty(t, buf.String()) {
				return
			}
		})
	})
}

func TestConfigSource(t *testing.T) {
	t.Run("will override the defaults", func(t *testing.T) {
		t.Run("if a config file is given", func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "config.yaml")
			err := os.WriteFile(p, []byte("http:\n  port: 9090\n"), 0o600)
			require.NoError(t, err)

			src, err := configSource(p)
			if !assert.NoError(t, err) {
				return
			}

			cfg, err := apigate.ReadConfig(src)
			if !assert.NoError(t, err) {
				return
			}
			if !assert.Equal(t, uint(9090), cfg.HTTP.Port) {
				return
			}
			if !assert.Equal(t, "./api/swagger.yaml", cfg.API.Definition.Path) {
				return
			}
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the config file does not exist", func(t *testing.T) {
			_, err := configSource(filepath.Join(t.TempDir(), "missing.yaml"))
			if !assert.ErrorIs(t, err, os.ErrNotExist) {
				return
			}
		})
	})
}
