// Package store persists the entity snapshot and the sort preference.
// The store is a dumb holder: it enforces no tree invariants, it only
// loads and replaces whole snapshots.
package store

import (
	"context"
	"sync"

	"github.com/cloudflow/cloudflow/pkg/models"
)

// Store is the persistence boundary for the drive engine. Load returns
// the last persisted snapshot, falling back to a default set when
// nothing was persisted yet or the persisted form is unreadable;
// corruption is recovered, never surfaced. Replace swaps the persisted
// snapshot wholesale, write-through on every call.
type Store interface {
	Load(ctx context.Context) ([]models.Entity, error)
	Replace(ctx context.Context, snapshot []models.Entity) error
	LoadSortConfig(ctx context.Context) (models.SortConfig, error)
	SaveSortConfig(ctx context.Context, cfg models.SortConfig) error
	Close() error
}

// Memory is an in-process store used by tests and as a no-persistence
// fallback.
type Memory struct {
	mu       sync.RWMutex
	snapshot []models.Entity
	sortCfg  models.SortConfig
	hasSort  bool
}

// NewMemory creates a memory store seeded with defaults.
func NewMemory(defaults []models.Entity) *Memory {
	return &Memory{snapshot: append([]models.Entity(nil), defaults...)}
}

func (m *Memory) Load(ctx context.Context) ([]models.Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Entity(nil), m.snapshot...), nil
}

func (m *Memory) Replace(ctx context.Context, snapshot []models.Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = append([]models.Entity(nil), snapshot...)
	return nil
}

func (m *Memory) LoadSortConfig(ctx context.Context) (models.SortConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.hasSort {
		return models.DefaultSortConfig(), nil
	}
	return m.sortCfg, nil
}

func (m *Memory) SaveSortConfig(ctx context.Context, cfg models.SortConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sortCfg = cfg
	m.hasSort = true
	return nil
}

func (m *Memory) Close() error { return nil }
