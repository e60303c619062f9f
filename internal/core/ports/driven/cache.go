package driven

import (
	"context"
	"time"
)

// CacheBackend stores derived values keyed by content hash with per-key
// expiry. The cache is strictly an optimization: callers must treat any
// backend failure as a miss and never let it fail the surrounding query.
type CacheBackend interface {
	// Get returns the value for key, or ok=false when the key is absent
	// or expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores a value with the given time to live. A completed Set is
	// visible entirely or not at all to subsequent Gets.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a single key.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Stats reports hit/miss counts, entry count, and backend identity.
	Stats(ctx context.Context) CacheStats

	// Ping validates the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CacheStats describes a cache backend's state.
type CacheStats struct {
	// Backend names the implementation ("memory" or "redis").
	Backend string `json:"backend"`

	// Entries is the number of live entries.
	Entries int64 `json:"entries"`

	// MaxEntries is the capacity bound, zero when unbounded.
	MaxEntries int64 `json:"max_entries,omitempty"`

	// Hits and Misses count Get outcomes since startup.
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`

	// Available reports whether the backend is currently reachable.
	Available bool `json:"available"`
}

// HitRate returns the fraction of Gets served from cache.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
