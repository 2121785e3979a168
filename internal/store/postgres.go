// internal/store/postgres.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"carlog-service/internal/domain/vehicle"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps the snapshot as one JSONB row, upserted whole on every
// save. The single-row shape matches the snapshot contract: load whole, save
// whole, no per-entry statements.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Init creates the snapshot table if it does not exist.
func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS carlog_snapshot (
			id         INT PRIMARY KEY,
			version    INT NOT NULL,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create snapshot table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (*vehicle.Snapshot, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM carlog_snapshot WHERE id = 1`).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return vehicle.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot from PostgreSQL: %w", err)
	}

	var snap vehicle.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot from PostgreSQL: %w", err)
	}
	if snap.Cars == nil {
		snap.Cars = make(map[string]*vehicle.Record)
	}
	return &snap, nil
}

func (s *PostgresStore) Save(ctx context.Context, snap *vehicle.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO carlog_snapshot (id, version, data, updated_at)
		VALUES (1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE
		SET version = EXCLUDED.version, data = EXCLUDED.data, updated_at = now()`,
		snapshotVersion, raw)
	if err != nil {
		return fmt.Errorf("failed to save snapshot to PostgreSQL: %w", err)
	}
	return nil
}
