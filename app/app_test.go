// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/z5labs/apigate"
	"github.com/z5labs/apigate/config"
	"github.com/z5labs/apigate/gateway"
	"github.com/z5labs/apigate/handlers"
	"github.com/z5labs/apigate/registry"
	"github.com/z5labs/apigate/route"
	"github.com/z5labs/apigate/swagger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/z5labs/bedrock"
	"github.com/z5labs/bedrock/appbuilder"
	"github.com/z5labs/bedrock/lifecycle"
)

const bundledDefinition = "../api/swagger.yaml"

func testConfig(definitionPath string) apigate.Config {
	var cfg apigate.Config
	cfg.API.Definition.Source = config.FileDefinitionSource
	cfg.API.Definition.Path = definitionPath
	cfg.Auth.Verifier = config.StaticVerifier
	cfg.Auth.APIKey = "abc123"
	return cfg
}

func writeDefinition(t *testing.T, def string) string {
	p := filepath.Join(t.TempDir(), "swagger.yaml")
	err := os.WriteFile(p, []byte(def), 0o600)
	require.NoError(t, err)
	return p
}

func TestBind(t *testing.T) {
	t.Run("will bind every operation", func(t *testing.T) {
		t.Run("if the bundled definition is used with the bundled handlers", func(t *testing.T) {
			b, err := Bind(context.Background(), testConfig(bundledDefinition), handlers.Tree())
			if !assert.NoError(t, err) {
				return
			}
			if !assert.Equal(t, len(b.Document.Operations), b.Table.Len()) {
				return
			}

			_, ok := b.Table.Lookup(http.MethodPost, "/echo")
			if !assert.True(t, ok) {
				return
			}
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the definition does not exist", func(t *testing.T) {
			cfg := testConfig(filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := Bind(context.Background(), cfg, handlers.Tree())
			if !assert.ErrorIs(t, err, os.ErrNotExist) {
				return
			}
		})

		t.Run("if the definition source is unknown", func(t *testing.T) {
			cfg := testConfig(bundledDefinition)
			cfg.API.Definition.Source = "ftp"

			_, err := Bind(context.Background(), cfg, handlers.Tree())

			var serr UnknownDefinitionSourceError
			if !assert.ErrorAs(t, err, &serr) {
				return
			}
			if !assert.Equal(t, config.DefinitionSourceType("ftp"), serr.Source) {
				return
			}
		})

		t.Run("if the verifier is unknown", func(t *testing.T) {
			cfg := testConfig(bundledDefinition)
			cfg.Auth.Verifier = "ldap"

			_, err := Bind(context.Background(), cfg, handlers.Tree())

			var verr UnknownVerifierError
			if !assert.ErrorAs(t, err, &verr) {
				return
			}
		})

		t.Run("if the postgres verifier has no dsn", func(t *testing.T) {
			cfg := testConfig(bundledDefinition)
			cfg.Auth.Verifier = config.PostgresVerifier

			_, err := Bind(context.Background(), cfg, handlers.Tree())
			if !assert.ErrorIs(t, err, ErrMissingDSN) {
				return
			}
		})

		t.Run("if the handler tree is empty", func(t *testing.T) {
			_, err := Bind(context.Background(), testConfig(bundledDefinition), registry.Dir{})
			if !assert.ErrorIs(t, err, registry.ErrEmptyTree) {
				return
			}
		})

		t.Run("if an operation has no handler", func(t *testing.T) {
			p := writeDefinition(t, `
swagger: "2.0"
info:
  title: Test
  version: 1.0.0
paths:
  /:
    x-swagger-router-controller: IndexController
    get:
      operationId: indexGet
  /orders:
    x-swagger-router-controller: OrderController
    get:
      operationId: listOrders
`)

			_, err := Bind(context.Background(), testConfig(p), handlers.Tree())

			var uerr route.UnboundOperationError
			if !assert.ErrorAs(t, err, &uerr) {
				return
			}
			if !assert.Equal(t, "OrderController", uerr.HandlerGroup) {
				return
			}
		})

		t.Run("if the definition is not swagger 2.0", func(t *testing.T) {
			p := writeDefinition(t, `openapi: 3.0.0`)

			_, err := Bind(context.Background(), testConfig(p), handlers.Tree())

			var verr swagger.UnsupportedVersionError
			if !assert.ErrorAs(t, err, &verr) {
				return
			}
		})
	})
}

func TestBuild(t *testing.T) {
	builder := appbuilder.LifecycleContext(
		bedrock.AppBuilderFunc[apigate.Config](Build),
		&lifecycle.Context{},
	)

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if there is no lifecycle in the context", func(t *testing.T) {
			_, err := Build(context.Background(), testConfig(bundledDefinition))
			if !assert.ErrorIs(t, err, ErrMissingLifecycle) {
				return
			}
		})

		t.Run("if the docs route collides with an operation", func(t *testing.T) {
			cfg := testConfig(bundledDefinition)
			cfg.Docs.FilesRoute = "/"

			_, err := builder.Build(context.Background(), cfg)

			var derr gateway.DuplicateRouteError
			if !assert.ErrorAs(t, err, &derr) {
				return
			}
		})
	})

	t.Run("will stop serving", func(t *testing.T) {
		t.Run("if the context is cancelled", func(t *testing.T) {
			cfg := testConfig(bundledDefinition)
			cfg.Docs.FilesRoute = "/api-docs/"
			cfg.Docs.OpenAPIRoute = "/openapi.json"

			a, err := builder.Build(context.Background(), cfg)
			if !assert.NoError(t, err) {
				return
			}

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			err = a.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				assert.NoError(t, err)
			}
		})
	})
}
