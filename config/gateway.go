// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import "time"

// HTTP configures the listening server. Zero durations and sizes fall
// back to the server defaults.
type HTTP struct {
	Port uint `config:"port"`

	// Hostname is only used when reporting where the API is served.
	Hostname string `config:"hostname"`

	ReadTimeout       time.Duration `config:"read_timeout"`
	ReadHeaderTimeout time.Duration `config:"read_header_timeout"`
	WriteTimeout      time.Duration `config:"write_timeout"`
	IdleTimeout       time.Duration `config:"idle_timeout"`
	MaxHeaderBytes    int           `config:"max_header_bytes"`
}

// DefinitionSourceType selects where the API definition is read from.
type DefinitionSourceType string

const (
	FileDefinitionSource   DefinitionSourceType = "file"
	ObjectDefinitionSource DefinitionSourceType = "object"
)

// ObjectStore locates an API definition stored in an S3 compatible bucket.
type ObjectStore struct {
	Endpoint        string `config:"endpoint"`
	Bucket          string `config:"bucket"`
	Key             string `config:"key"`
	AccessKeyID     string `config:"access_key_id"`
	SecretAccessKey string `config:"secret_access_key"`
	Secure          bool   `config:"secure"`
}

// Definition configures loading of the Swagger 2.0 document.
type Definition struct {
	Source DefinitionSourceType `config:"source"`
	Path   string               `config:"path"`
	Object ObjectStore          `config:"object"`
}

// API configures how the definition is turned into routes.
type API struct {
	Definition Definition `config:"definition"`

	// UseBasePath prefixes every route with the document basePath.
	UseBasePath bool `config:"use_base_path"`
}

// VerifierType selects the api key verification strategy.
type VerifierType string

const (
	StaticVerifier   VerifierType = "static"
	PostgresVerifier VerifierType = "postgres"
)

// Postgres configures the api key store.
type Postgres struct {
	DSN   string `config:"dsn"`
	Table string `config:"table"`
}

// Auth configures credential verification for apiKey security schemes.
type Auth struct {
	Verifier VerifierType `config:"verifier"`
	APIKey   string       `config:"api_key"`
	Postgres Postgres     `config:"postgres"`
}

// Docs configures publishing of the API definition. An empty route
// disables the corresponding endpoint.
type Docs struct {
	FilesRoute   string `config:"files_route"`
	OpenAPIRoute string `config:"openapi_route"`
}

// Static configures serving of files which are not part of the API definition.
type Static struct {
	Route   string `config:"route"`
	Dir     string `config:"dir"`
	Favicon string `config:"favicon"`
}

// Errors configures the error page templates. When TemplateDir is
// empty the built in templates are used.
type Errors struct {
	TemplateDir string `config:"template_dir"`
}
