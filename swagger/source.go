// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package swagger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/z5labs/sdk-go/try"
)

// Source provides the raw bytes of an API definition.
type Source interface {
	Open(context.Context) (io.ReadCloser, error)
}

// Load reads the whole definition from src and parses it.
func Load(ctx context.Context, src Source) (doc *Document, err error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer try.Close(&err, rc)

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, ErrEmptyDefinition
	}
	return Parse(b)
}

// ErrEmptyDefinition is returned when a [Source] provides no bytes at all.
var ErrEmptyDefinition = errors.New("swagger: empty definition")

// FileSource reads the definition from the local filesystem.
type FileSource string

// Open implements the [Source] interface.
func (fs FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(string(fs))
	if err != nil {
		return nil, fmt.Errorf("swagger: failed to open definition: %w", err)
	}
	return f, nil
}

// ObjectGetter retrieves an object from a bucket.
type ObjectGetter interface {
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// ObjectSource reads the definition from an S3 compatible object store.
type ObjectSource struct {
	getter ObjectGetter
	bucket string
	key    string
}

// NewObjectSource initializes a [ObjectSource].
func NewObjectSource(getter ObjectGetter, bucket, key string) *ObjectSource {
	return &ObjectSource{
		getter: getter,
		bucket: bucket,
		key:    key,
	}
}

// Open implements the [Source] interface.
func (s *ObjectSource) Open(ctx context.Context) (io.ReadCloser, error) {
	rc, err := s.getter.GetObject(ctx, s.bucket, s.key)
	if err != nil {
		return nil, fmt.Errorf("swagger: failed to get definition s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return rc, nil
}

// MinIOClient adapts a MinIO client to the [ObjectGetter] interface.
type MinIOClient struct {
	mc *minio.Client
}

// NewMinIOClient creates a new MinIO client.
func NewMinIOClient(endpoint, accessKey, secretKey string, secure bool) (*MinIOClient, error) {
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}
	return &MinIOClient{mc: mc}, nil
}

// GetObject implements the [ObjectGetter] interface.
func (c *MinIOClient) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	return c.mc.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
}
