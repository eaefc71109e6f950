// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package swagger

import "context"

// Metadata describes the declared operation a request was matched to.
// The zero value means the request did not match any operation.
type Metadata struct {
	Title        string
	Version      string
	Method       string
	Path         string
	HandlerGroup string
	OperationID  string
}

// Metadata returns the request metadata of op within d.
func (d *Document) Metadata(op Operation) Metadata {
	return Metadata{
		Title:        d.Info.Title,
		Version:      d.Info.Version,
		Method:       op.Method,
		Path:         op.Path,
		HandlerGroup: op.HandlerGroup,
		OperationID:  op.OperationID,
	}
}

type metadataCtxKey struct{}

// WithMetadata returns a copy of ctx carrying md.
func WithMetadata(ctx context.Context, md Metadata) context.Context {
	return context.WithValue(ctx, metadataCtxKey{}, md)
}

// MetadataFromContext returns the [Metadata] attached by [WithMetadata], if any.
func MetadataFromContext(ctx context.Context) (Metadata, bool) {
	md, ok := ctx.Value(metadataCtxKey{}).(Metadata)
	return md, ok
}
