package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/cloudflow/cloudflow/internal/logging"
	"github.com/cloudflow/cloudflow/internal/metrics"
	"github.com/cloudflow/cloudflow/pkg/models"
)

// Postgres persists the snapshot as a single jsonb row, replaced
// wholesale on every mutation. It keeps the same lenient-recovery
// policy as the file store: an unreadable row falls back to defaults.
type Postgres struct {
	db       *sql.DB
	defaults []models.Entity
}

// NewPostgres opens the database and ensures the schema exists.
func NewPostgres(databaseURL string, defaults []models.Entity) (*Postgres, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &Postgres{db: db, defaults: defaults}
	if err := p.migrate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) migrate() error {
	_, err := p.db.Exec(`
		CREATE TABLE IF NOT EXISTS drive_snapshot (
			id INT PRIMARY KEY CHECK (id = 1),
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS drive_sort_config (
			id INT PRIMARY KEY CHECK (id = 1),
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (p *Postgres) Load(ctx context.Context) ([]models.Entity, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("load_snapshot", time.Since(start)) }()

	var data []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT data FROM drive_snapshot WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return append([]models.Entity(nil), p.defaults...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snapshot []models.Entity
	if err := json.Unmarshal(data, &snapshot); err != nil {
		logging.Warn("persisted snapshot corrupt, using defaults", zap.Error(err))
		return append([]models.Entity(nil), p.defaults...), nil
	}
	return snapshot, nil
}

func (p *Postgres) Replace(ctx context.Context, snapshot []models.Entity) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("replace_snapshot", time.Since(start)) }()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO drive_snapshot (id, data, updated_at) VALUES (1, $1, now())
		 ON CONFLICT (id) DO UPDATE SET data = $1, updated_at = now()`, data)
	if err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func (p *Postgres) LoadSortConfig(ctx context.Context) (models.SortConfig, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("load_sort_config", time.Since(start)) }()

	var data []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT data FROM drive_sort_config WHERE id = 1`).Scan(&data)
	if err != nil {
		return models.DefaultSortConfig(), nil
	}
	var cfg models.SortConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return models.DefaultSortConfig(), nil
	}
	return cfg, nil
}

func (p *Postgres) SaveSortConfig(ctx context.Context, cfg models.SortConfig) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("save_sort_config", time.Since(start)) }()

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal sort config: %w", err)
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO drive_sort_config (id, data, updated_at) VALUES (1, $1, now())
		 ON CONFLICT (id) DO UPDATE SET data = $1, updated_at = now()`, data)
	if err != nil {
		return fmt.Errorf("save sort config: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
