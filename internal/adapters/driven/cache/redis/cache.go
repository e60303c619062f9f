// Package redis provides a Redis-backed cache backend so cached answers
// and embeddings survive process restarts and are shared across instances.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sift-labs/tableqa/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.CacheBackend = (*Cache)(nil)

// Default configuration values.
const (
	DefaultAddr      = "localhost:6379"
	DefaultKeyPrefix = "tableqa:"
)

// Config holds configuration for the Redis cache backend.
type Config struct {
	// Addr is the Redis address (default: localhost:6379).
	Addr string

	// Password authenticates when the deployment requires it.
	Password string

	// DB selects the logical database.
	DB int

	// KeyPrefix namespaces all keys (default: "tableqa:").
	KeyPrefix string
}

// Cache is a Redis-backed cache backend. Hit and miss counters are local
// to this process.
type Cache struct {
	client *redis.Client
	prefix string
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates a Redis cache backend. The connection is validated
// lazily; use Ping to check reachability.
func NewCache(cfg Config) *Cache {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Cache{client: client, prefix: cfg.KeyPrefix}
}

// NewCacheWithClient wraps an existing client; used by tests.
func NewCacheWithClient(client *redis.Client, keyPrefix string) *Cache {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &Cache{client: client, prefix: keyPrefix}
}

// Get returns the value for key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	c.hits.Add(1)
	return value, true, nil
}

// Set stores the value. A non-positive ttl stores it without expiry.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes one key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear removes every key under the prefix, scanning in batches so large
// caches do not block the server.
func (c *Cache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 500).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == 500 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del batch: %w", err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis del batch: %w", err)
		}
	}
	c.hits.Store(0)
	c.misses.Store(0)
	return nil
}

// Stats reports the backend's statistics. Entries is the count of keys
// under the prefix; Available reflects a live ping.
func (c *Cache) Stats(ctx context.Context) driven.CacheStats {
	stats := driven.CacheStats{
		Backend: "redis",
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}

	if err := c.client.Ping(ctx).Err(); err != nil {
		return stats
	}
	stats.Available = true

	var entries int64
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		entries++
	}
	if iter.Err() == nil {
		stats.Entries = entries
	}
	return stats
}

// Ping validates the Redis server is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close closes the client connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}
