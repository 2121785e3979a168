// internal/store/redis.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"carlog-service/internal/domain/vehicle"

	"github.com/redis/go-redis/v9"
)

const snapshotKey = "carlog:snapshot"

// RedisStore keeps the snapshot as a single JSON value under a fixed key.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context) (*vehicle.Snapshot, error) {
	raw, err := s.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return vehicle.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot from Redis: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot from Redis: %w", err)
	}
	if env.Data == nil {
		return vehicle.NewSnapshot(), nil
	}
	if env.Data.Cars == nil {
		env.Data.Cars = make(map[string]*vehicle.Record)
	}
	return env.Data, nil
}

func (s *RedisStore) Save(ctx context.Context, snap *vehicle.Snapshot) error {
	raw, err := json.Marshal(envelope{Version: snapshotVersion, Data: snap})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot to Redis: %w", err)
	}
	return nil
}
