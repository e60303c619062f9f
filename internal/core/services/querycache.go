package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/sift-labs/tableqa/internal/core/domain"
	"github.com/sift-labs/tableqa/internal/core/ports/driven"
	"github.com/sift-labs/tableqa/internal/logger"
)

// DefaultCacheTTL is how long memoized answers and embeddings live.
const DefaultCacheTTL = time.Hour

// QueryCache memoizes whole-query answers and embeddings keyed by content
// hash. Every backend failure is treated as a cache miss or no-op: the
// cache must never fail a query, only slow it down.
type QueryCache struct {
	backend driven.CacheBackend
	ttl     time.Duration
}

// NewQueryCache wraps a cache backend. A non-positive ttl falls back to
// DefaultCacheTTL.
func NewQueryCache(backend driven.CacheBackend, ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &QueryCache{backend: backend, ttl: ttl}
}

// contentKey derives a deterministic cache key from the semantic inputs of
// an operation.
func contentKey(kind, value string) string {
	sum := md5.Sum([]byte(value))
	return kind + ":" + hex.EncodeToString(sum[:])
}

// GetAnswer returns a memoized answer for the question/filter pair.
func (c *QueryCache) GetAnswer(ctx context.Context, question, fileFilter string) (*domain.Answer, bool) {
	if c == nil || c.backend == nil {
		return nil, false
	}

	key := contentKey("query", question+":"+fileFilter)
	raw, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		logger.Warn("query cache get failed: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var answer domain.Answer
	if err := json.Unmarshal(raw, &answer); err != nil {
		logger.Warn("query cache entry corrupt: %v", err)
		return nil, false
	}
	answer.Cached = true
	return &answer, true
}

// SetAnswer memoizes an answer. Failures are logged and ignored.
func (c *QueryCache) SetAnswer(ctx context.Context, question, fileFilter string, answer *domain.Answer) {
	if c == nil || c.backend == nil || answer == nil {
		return
	}

	raw, err := json.Marshal(answer)
	if err != nil {
		logger.Warn("query cache marshal failed: %v", err)
		return
	}

	key := contentKey("query", question+":"+fileFilter)
	if err := c.backend.Set(ctx, key, raw, c.ttl); err != nil {
		logger.Warn("query cache set failed: %v", err)
	}
}

// GetEmbedding returns a memoized embedding for the text.
func (c *QueryCache) GetEmbedding(ctx context.Context, text string) ([]float32, bool) {
	if c == nil || c.backend == nil {
		return nil, false
	}

	raw, ok, err := c.backend.Get(ctx, contentKey("embedding", text))
	if err != nil {
		logger.Warn("embedding cache get failed: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var vector []float32
	if err := json.Unmarshal(raw, &vector); err != nil {
		logger.Warn("embedding cache entry corrupt: %v", err)
		return nil, false
	}
	return vector, true
}

// SetEmbedding memoizes an embedding. Failures are logged and ignored.
func (c *QueryCache) SetEmbedding(ctx context.Context, text string, vector []float32) {
	if c == nil || c.backend == nil || len(vector) == 0 {
		return
	}

	raw, err := json.Marshal(vector)
	if err != nil {
		return
	}
	if err := c.backend.Set(ctx, contentKey("embedding", text), raw, c.ttl); err != nil {
		logger.Warn("embedding cache set failed: %v", err)
	}
}

// Stats reports the backing store's statistics.
func (c *QueryCache) Stats(ctx context.Context) driven.CacheStats {
	if c == nil || c.backend == nil {
		return driven.CacheStats{Backend: "none"}
	}
	return c.backend.Stats(ctx)
}

// Clear empties the backing store. Failures are non-fatal.
func (c *QueryCache) Clear(ctx context.Context) error {
	if c == nil || c.backend == nil {
		return nil
	}
	return c.backend.Clear(ctx)
}
