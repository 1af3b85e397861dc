// Package storage holds uploaded blob content. The entity tree only
// keeps metadata; binary payloads live behind a Backend keyed by
// entity ID.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudflow/cloudflow/internal/config"
)

// Backend is the interface for blob storage backends.
type Backend interface {
	// Get retrieves a blob by key. The returned size is the blob's
	// total length.
	Get(ctx context.Context, key string) (io.ReadCloser, int64, error)

	// Put stores a blob under key, replacing any previous content.
	Put(ctx context.Context, key string, body io.Reader, size int64) error

	// Delete removes a blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Type returns the backend identifier ("local", "s3").
	Type() string

	// Close releases any resources held by the backend.
	Close() error
}

// New creates the configured blob backend.
func New(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.StorageBackend {
	case "local":
		return NewLocal(cfg.LocalStoragePath)
	case "s3":
		return NewS3(ctx, S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}
