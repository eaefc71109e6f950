// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app wires configuration, the API definition and the handler
// tree into a runnable gateway.
//
// Startup is strictly ordered: the definition is loaded, the handler
// registry is built and every declared operation is bound before the
// listener is opened. Any failure aborts startup without serving.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"syscall"

	"github.com/z5labs/apigate"
	"github.com/z5labs/apigate/auth"
	"github.com/z5labs/apigate/config"
	"github.com/z5labs/apigate/gateway"
	"github.com/z5labs/apigate/handlers"
	"github.com/z5labs/apigate/health"
	"github.com/z5labs/apigate/internal/httpserver"
	"github.com/z5labs/apigate/registry"
	"github.com/z5labs/apigate/route"
	"github.com/z5labs/apigate/swagger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/z5labs/bedrock"
	bedrockapp "github.com/z5labs/bedrock/app"
	"github.com/z5labs/bedrock/appbuilder"
	bedrockcfg "github.com/z5labs/bedrock/config"
	"github.com/z5labs/bedrock/lifecycle"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

const loggerName = "github.com/z5labs/apigate/app"

// UnknownDefinitionSourceError is returned for an unsupported definition source.
type UnknownDefinitionSourceError struct {
	Source config.DefinitionSourceType
}

func (e UnknownDefinitionSourceError) Error() string {
	return fmt.Sprintf("app: unknown definition source: %q", e.Source)
}

// UnknownVerifierError is returned for an unsupported api key verifier.
type UnknownVerifierError struct {
	Verifier config.VerifierType
}

func (e UnknownVerifierError) Error() string {
	return fmt.Sprintf("app: unknown api key verifier: %q", e.Verifier)
}

// ErrMissingDSN is returned when the postgres verifier is selected without a DSN.
var ErrMissingDSN = errors.New("app: postgres verifier requires a dsn")

// ErrMissingLifecycle is returned when a builder is run without a [lifecycle.Context].
var ErrMissingLifecycle = errors.New("app: lifecycle must be present in context")

// Binding is the startup result the gateway is built from.
type Binding struct {
	Document *swagger.Document
	Table    *route.Table
	Resolver *auth.Resolver

	// Readiness holds the checks of external dependencies.
	Readiness []health.Check
}

// Bind loads the definition and binds every declared operation to the
// handlers in tree. Resources opened while binding are released by the
// post run hooks of the [lifecycle.Context] in ctx.
func Bind(ctx context.Context, cfg apigate.Config, tree registry.Dir) (*Binding, error) {
	var (
		doc       *swagger.Document
		verifier  auth.CredentialVerifier
		readiness []health.Check
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		doc, err = LoadDefinition(egCtx, cfg.API.Definition)
		return err
	})
	eg.Go(func() error {
		var err error
		verifier, readiness, err = NewVerifier(egCtx, cfg.Auth)
		return err
	})
	err := eg.Wait()
	if err != nil {
		return nil, err
	}

	reg, err := registry.Build(tree)
	if err != nil {
		return nil, err
	}

	table, err := route.Bind(doc, reg, route.WithBasePath(cfg.API.UseBasePath))
	if err != nil {
		return nil, err
	}

	return &Binding{
		Document:  doc,
		Table:     table,
		Resolver:  auth.NewResolver(doc.SecurityDefinitions, verifier),
		Readiness: readiness,
	}, nil
}

// LoadDefinition reads the API definition from its configured source.
func LoadDefinition(ctx context.Context, cfg config.Definition) (*swagger.Document, error) {
	switch cfg.Source {
	case config.FileDefinitionSource, "":
		return swagger.Load(ctx, swagger.FileSource(cfg.Path))
	case config.ObjectDefinitionSource:
		client, err := swagger.NewMinIOClient(
			cfg.Object.Endpoint,
			cfg.Object.AccessKeyID,
			cfg.Object.SecretAccessKey,
			cfg.Object.Secure,
		)
		if err != nil {
			return nil, err
		}
		return swagger.Load(ctx, swagger.NewObjectSource(client, cfg.Object.Bucket, cfg.Object.Key))
	default:
		return nil, UnknownDefinitionSourceError{Source: cfg.Source}
	}
}

// NewVerifier initializes the configured api key verifier along with
// readiness checks for anything it depends on.
func NewVerifier(ctx context.Context, cfg config.Auth) (auth.CredentialVerifier, []health.Check, error) {
	switch cfg.Verifier {
	case config.StaticVerifier, "":
		return auth.NewStaticKeyVerifier(cfg.APIKey), nil, nil
	case config.PostgresVerifier:
		return newPostgresVerifier(ctx, cfg.Postgres)
	default:
		return nil, nil, UnknownVerifierError{Verifier: cfg.Verifier}
	}
}

func newPostgresVerifier(ctx context.Context, cfg config.Postgres) (auth.CredentialVerifier, []health.Check, error) {
	if cfg.DSN == "" {
		return nil, nil, ErrMissingDSN
	}

	lc, ok := lifecycle.FromContext(ctx)
	if !ok {
		return nil, nil, ErrMissingLifecycle
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	lc.OnPostRun(lifecycle.HookFunc(func(ctx context.Context) error {
		pool.Close()
		return nil
	}))

	v, err := auth.NewPostgresKeyVerifier(pool, cfg.Table)
	if err != nil {
		return nil, nil, err
	}
	return v, []health.Check{health.Ping("postgres", pool)}, nil
}

// Build initializes the gateway described by cfg and returns it as a
// [bedrock.App] which serves until interrupted.
func Build(ctx context.Context, cfg apigate.Config) (bedrock.App, error) {
	lc, ok := lifecycle.FromContext(ctx)
	if !ok {
		return nil, ErrMissingLifecycle
	}

	b, err := Bind(ctx, cfg, handlers.Tree())
	if err != nil {
		return nil, err
	}

	gw, err := gateway.New(
		b.Document,
		b.Table,
		b.Resolver,
		gateway.WithBasePath(cfg.API.UseBasePath),
		gateway.WithTemplates(cfg.Errors.TemplateDir),
		gateway.WithDefinitionRoute(cfg.Docs.FilesRoute),
		gateway.WithOpenAPIRoute(cfg.Docs.OpenAPIRoute),
		gateway.WithStatic(cfg.Static.Route, cfg.Static.Dir),
		gateway.WithFavicon(cfg.Static.Favicon),
		gateway.WithReadiness(b.Readiness...),
	)
	if err != nil {
		return nil, err
	}

	ls, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HTTP.Port))
	if err != nil {
		return nil, err
	}

	srv := httpserver.NewApp(
		ls,
		otelhttp.NewHandler(
			gw,
			"apigate",
			otelhttp.WithMessageEvents(otelhttp.ReadEvents, otelhttp.WriteEvents),
		),
		httpserver.ErrorLog(apigate.LogHandler(loggerName)),
		httpserver.Timeouts(
			cfg.HTTP.ReadTimeout,
			cfg.HTTP.ReadHeaderTimeout,
			cfg.HTTP.WriteTimeout,
			cfg.HTTP.IdleTimeout,
		),
		httpserver.MaxHeaderBytes(cfg.HTTP.MaxHeaderBytes),
	)
	lc.OnPostRun(lifecycle.HookFunc(func(ctx context.Context) error {
		gw.MarkUnready("shutting down")
		return srv.Shutdown(ctx)
	}))

	apigate.Logger(loggerName).InfoContext(
		ctx,
		"serving api",
		slog.String("title", b.Document.Info.Title),
		slog.String("version", b.Document.Info.Version),
		slog.String("url", fmt.Sprintf("http://%s:%d", cfg.HTTP.Hostname, cfg.HTTP.Port)),
		slog.Int("operations", b.Table.Len()),
	)

	var base bedrock.App = srv
	base = bedrockapp.Recover(base)
	base = bedrockapp.InterruptOn(base, os.Kill, os.Interrupt, syscall.SIGTERM)
	return base, nil
}

// Builder returns the complete [bedrock.AppBuilder] for the gateway:
// config is read from a [bedrockcfg.Source], OTel is initialized and
// lifecycle hooks run once the gateway stops.
func Builder() bedrock.AppBuilder[bedrockcfg.Source] {
	return appbuilder.FromConfig(
		appbuilder.LifecycleContext(
			appbuilder.OTel(
				appbuilder.Recover(
					bedrock.AppBuilderFunc[apigate.Config](Build),
				),
			),
			&lifecycle.Context{},
		),
	)
}
