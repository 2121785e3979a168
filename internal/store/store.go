// internal/store/store.go
package store

import (
	"context"
	"fmt"

	"carlog-service/internal/config"
	"carlog-service/internal/db"
	"carlog-service/internal/domain/vehicle"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists the whole snapshot. Load returns an empty snapshot when no
// data exists yet; Save replaces whatever was stored before.
type Store interface {
	Load(ctx context.Context) (*vehicle.Snapshot, error)
	Save(ctx context.Context, snap *vehicle.Snapshot) error
}

// New builds the snapshot store selected by cfg.StorageBackend.
func New(ctx context.Context, cfg config.AppConfig) (Store, error) {
	switch cfg.StorageBackend {
	case config.StorageFile, "":
		return NewFileStore(cfg.SnapshotPath), nil
	case config.StorageRedis:
		client, err := db.NewRedisClient(db.RedisConfig{
			Addresses: []string{cfg.RedisAddr},
			Password:  cfg.RedisPass,
			DB:        0,
			PoolSize:  10,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		return NewRedisStore(client), nil
	case config.StoragePostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
		}
		pg := NewPostgresStore(pool)
		if err := pg.Init(ctx); err != nil {
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
