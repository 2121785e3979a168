// internal/service/registry/cache.go
package registry

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// MemoryCache is the in-process fallback cache used with the file storage
// backend.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     Expiry
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(ctx context.Context, plate string) (*Expiry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[plate]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(c.entries, plate)
		return nil, false
	}
	value := entry.value
	return &value, true
}

func (c *MemoryCache) Set(ctx context.Context, plate string, e *Expiry, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[plate] = memoryEntry{value: *e, expiresAt: time.Now().Add(ttl)}
}

// RedisCache shares lookup results across instances. Cache trouble is logged
// and treated as a miss so the registry path never depends on Redis health.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

const redisKeyPrefix = "carlog:rdw:"

func NewRedisCache(client *redis.Client, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, plate string) (*Expiry, bool) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+plate).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("registry cache read failed", zap.String("plate", plate), zap.Error(err))
		}
		return nil, false
	}
	var e Expiry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.logger.Warn("registry cache entry unreadable", zap.String("plate", plate), zap.Error(err))
		return nil, false
	}
	return &e, true
}

func (c *RedisCache) Set(ctx context.Context, plate string, e *Expiry, ttl time.Duration) {
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+plate, raw, ttl).Err(); err != nil {
		c.logger.Warn("registry cache write failed", zap.String("plate", plate), zap.Error(err))
	}
}
