package universe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores finished snapshots by world key.
type Cache interface {
	Get(ctx context.Context, key string) (*Snapshot, bool, error)
	Set(ctx context.Context, key string, snapshot *Snapshot) error
}

const redisKeyPrefix = "prospero:world:"

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "world_cache", "backend", "redis"),
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Snapshot, bool, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached world: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		// A stale or corrupt entry is treated as a miss and overwritten later.
		c.logger.Warn("Discarding undecodable cached world", "key", key, "error", err)
		return nil, false, nil
	}
	return &snapshot, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, snapshot *Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode world: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache world: %w", err)
	}
	c.logger.Debug("Cached world", "key", key, "bytes", len(data))
	return nil
}

// MemoryCache keeps the most recent snapshots in process.
type MemoryCache struct {
	mu      sync.Mutex
	limit   int
	order   []string
	entries map[string]*Snapshot
}

func NewMemoryCache(limit int) *MemoryCache {
	if limit < 1 {
		limit = 1
	}
	return &MemoryCache{
		limit:   limit,
		entries: make(map[string]*Snapshot),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*Snapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot, ok := c.entries[key]
	return snapshot, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, snapshot *Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = snapshot

	for len(c.order) > c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	return nil
}
