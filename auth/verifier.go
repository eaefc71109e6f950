// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
)

// CredentialVerifier decides whether an api key is valid.
type CredentialVerifier interface {
	VerifyAPIKey(ctx context.Context, key string) (bool, error)
}

// CredentialVerifierFunc is a func type of the [CredentialVerifier] interface.
type CredentialVerifierFunc func(context.Context, string) (bool, error)

// VerifyAPIKey implements the [CredentialVerifier] interface.
func (f CredentialVerifierFunc) VerifyAPIKey(ctx context.Context, key string) (bool, error) {
	return f(ctx, key)
}

// StaticKeyVerifier accepts exactly one shared secret.
type StaticKeyVerifier struct {
	key []byte
}

// NewStaticKeyVerifier initializes a [StaticKeyVerifier]. An empty
// secret accepts nothing.
func NewStaticKeyVerifier(key string) StaticKeyVerifier {
	return StaticKeyVerifier{key: []byte(key)}
}

// VerifyAPIKey implements the [CredentialVerifier] interface.
func (v StaticKeyVerifier) VerifyAPIKey(ctx context.Context, key string) (bool, error) {
	if len(v.key) == 0 {
		return false, nil
	}
	return subtle.ConstantTimeCompare(v.key, []byte(key)) == 1, nil
}

// Querier is the subset of a pgx connection or pool used for key lookups.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresKeyVerifier accepts keys whose SHA-256 hex digest is stored,
// and not revoked, in a table of the form:
//
//	CREATE TABLE api_keys (
//		key_hash   TEXT PRIMARY KEY,
//		revoked_at TIMESTAMPTZ
//	);
type PostgresKeyVerifier struct {
	db    Querier
	query string
}

// ErrEmptyTableName is returned when no api key table is configured.
var ErrEmptyTableName = errors.New("auth: api key table name must not be empty")

// NewPostgresKeyVerifier initializes a [PostgresKeyVerifier]. The table
// may be schema qualified, e.g. "auth.api_keys".
func NewPostgresKeyVerifier(db Querier, table string) (*PostgresKeyVerifier, error) {
	if table == "" {
		return nil, ErrEmptyTableName
	}

	ident := pgx.Identifier(strings.Split(table, "."))
	query := fmt.Sprintf(
		"SELECT EXISTS (SELECT 1 FROM %s WHERE key_hash = $1 AND revoked_at IS NULL)",
		ident.Sanitize(),
	)
	return &PostgresKeyVerifier{
		db:    db,
		query: query,
	}, nil
}

// VerifyAPIKey implements the [CredentialVerifier] interface.
func (v *PostgresKeyVerifier) VerifyAPIKey(ctx context.Context, key string) (bool, error) {
	spanCtx, span := otel.Tracer("github.com/z5labs/apigate/auth").Start(ctx, "PostgresKeyVerifier.VerifyAPIKey")
	defer span.End()

	var found bool
	err := v.db.QueryRow(spanCtx, v.query, HashAPIKey(key)).Scan(&found)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("auth: failed to look up api key: %w", err)
	}
	return found, nil
}

// HashAPIKey returns the hex encoded SHA-256 digest stored for key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
