package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/cloudflow/cloudflow/internal/logging"
	"github.com/cloudflow/cloudflow/pkg/models"
)

const (
	snapshotFile = "entities.json"
	sortFile     = "sortconfig.json"
)

// FileStore persists the snapshot as JSON files in a directory.
// Writes are atomic (temp file then rename). A missing or corrupt
// snapshot file silently falls back to the defaults supplied at
// construction; lenient recovery is the documented policy.
type FileStore struct {
	dir      string
	defaults []models.Entity

	mu sync.Mutex
}

// NewFileStore creates a file-backed store rooted at dir.
func NewFileStore(dir string, defaults []models.Entity) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir, defaults: defaults}, nil
}

func (f *FileStore) Load(ctx context.Context) ([]models.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(f.dir, snapshotFile))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.Warn("snapshot unreadable, using defaults", zap.Error(err))
		}
		return append([]models.Entity(nil), f.defaults...), nil
	}

	var snapshot []models.Entity
	if err := json.Unmarshal(data, &snapshot); err != nil {
		logging.Warn("snapshot corrupt, using defaults", zap.Error(err))
		return append([]models.Entity(nil), f.defaults...), nil
	}
	return snapshot, nil
}

func (f *FileStore) Replace(ctx context.Context, snapshot []models.Entity) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return f.writeAtomic(snapshotFile, data)
}

func (f *FileStore) LoadSortConfig(ctx context.Context) (models.SortConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(f.dir, sortFile))
	if err != nil {
		return models.DefaultSortConfig(), nil
	}
	var cfg models.SortConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		logging.Warn("sort config corrupt, using default", zap.Error(err))
		return models.DefaultSortConfig(), nil
	}
	return cfg, nil
}

func (f *FileStore) SaveSortConfig(ctx context.Context, cfg models.SortConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal sort config: %w", err)
	}
	return f.writeAtomic(sortFile, data)
}

func (f *FileStore) Close() error { return nil }

func (f *FileStore) writeAtomic(name string, data []byte) error {
	path := filepath.Join(f.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
