package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudflow/cloudflow/internal/metrics"
)

// Local stores blobs as files under a root directory. Keys are entity
// IDs, so there is no nesting and no path traversal surface beyond the
// sanity check in blobPath.
type Local struct {
	root string
}

// NewLocal creates a local filesystem backend rooted at root.
func NewLocal(root string) (*Local, error) {
	if root == "" {
		return nil, fmt.Errorf("local storage path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", root, err)
	}
	return &Local{root: root}, nil
}

func (l *Local) blobPath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, "/\\") || key == "." || key == ".." {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(l.root, key), nil
}

func (l *Local) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	path, err := l.blobPath(key)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open blob %s: %w", key, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat blob %s: %w", key, err)
	}
	metrics.RecordBlobBytes("download", info.Size())
	return f, info.Size(), nil
}

func (l *Local) Put(ctx context.Context, key string, body io.Reader, size int64) error {
	path, err := l.blobPath(key)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create blob %s: %w", key, err)
	}
	written, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize blob %s: %w", key, err)
	}
	metrics.RecordBlobBytes("upload", written)
	return nil
}

func (l *Local) Delete(ctx context.Context, key string) error {
	path, err := l.blobPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

func (l *Local) Type() string { return "local" }

func (l *Local) Close() error { return nil }
