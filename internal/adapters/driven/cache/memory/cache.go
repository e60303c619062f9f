// Package memory provides a bounded in-process cache backend. It is the
// fallback when no Redis deployment is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sift-labs/tableqa/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.CacheBackend = (*Cache)(nil)

// DefaultMaxEntries bounds the cache when no limit is configured.
const DefaultMaxEntries = 1000

// entry is one cached value with its lifecycle timestamps.
type entry struct {
	value     []byte
	createdAt time.Time
	expiresAt time.Time
}

// Cache is a bounded in-memory cache. When full, the oldest-created entry
// is evicted first. Safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	maxEntries int
	hits       int64
	misses     int64

	// now is replaceable in tests.
	now func() time.Time
}

// NewCache creates a cache holding at most maxEntries values. A
// non-positive limit falls back to DefaultMaxEntries.
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		entries:    make(map[string]entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the value for key, expiring it lazily.
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		delete(c.entries, key)
		c.misses++
		return nil, false, nil
	}

	c.hits++
	return e.value, true, nil
}

// Set stores the value, evicting the oldest-created entry when the cache
// is full. A non-positive ttl stores the value without expiry.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}

	e := entry{
		value:     append([]byte(nil), value...),
		createdAt: now,
	}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	c.entries[key] = e
	return nil
}

// Delete removes one key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Clear removes every entry and resets the counters.
func (c *Cache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	c.hits = 0
	c.misses = 0
	return nil
}

// Stats reports the cache's statistics.
func (c *Cache) Stats(_ context.Context) driven.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return driven.CacheStats{
		Backend:    "memory",
		Entries:    int64(len(c.entries)),
		MaxEntries: int64(c.maxEntries),
		Hits:       c.hits,
		Misses:     c.misses,
		Available:  true,
	}
}

// Ping always succeeds.
func (c *Cache) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (c *Cache) Close() error {
	return nil
}

// evictOldest removes the entry with the earliest creation time. Caller
// holds the lock.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, e := range c.entries {
		if oldestKey == "" || e.createdAt.Before(oldest) {
			oldestKey = key
			oldest = e.createdAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
