// Package memory provides an in-memory vector index using exact cosine
// similarity. Intended for tests and small single-process setups.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/sift-labs/tableqa/internal/core/domain"
	"github.com/sift-labs/tableqa/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is an in-memory vector index. Safe for concurrent use.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	points     map[string]domain.VectorPoint
}

// NewIndex creates an empty in-memory vector index.
func NewIndex() *Index {
	return &Index{points: make(map[string]domain.VectorPoint)}
}

// EnsureCollection fixes the index dimensionality on first call.
func (x *Index) EnsureCollection(_ context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("invalid dimensions %d: %w", dimensions, domain.ErrInvalidInput)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.dimensions != 0 && x.dimensions != dimensions {
		return fmt.Errorf("index has dimensions %d, requested %d: %w", x.dimensions, dimensions, domain.ErrInvalidInput)
	}
	x.dimensions = dimensions
	return nil
}

// Upsert inserts or replaces points by ID.
func (x *Index) Upsert(_ context.Context, points []domain.VectorPoint) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, p := range points {
		if x.dimensions != 0 && len(p.Vector) != x.dimensions {
			return 0, fmt.Errorf("point %s has %d dimensions, index has %d: %w",
				p.ID, len(p.Vector), x.dimensions, domain.ErrInvalidInput)
		}
		x.points[p.ID] = p
	}
	return len(points), nil
}

// Search scans every stored point and returns the limit nearest by cosine
// similarity.
func (x *Index) Search(_ context.Context, query []float32, limit int, filter *domain.ChunkFilter) ([]domain.ScoredChunk, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var hits []domain.ScoredChunk
	for _, p := range x.points {
		if filter != nil && filter.SourceFilename != "" && p.Payload.SourceFilename != filter.SourceFilename {
			continue
		}
		hits = append(hits, domain.ScoredChunk{
			Score:   cosine(query, p.Vector),
			Payload: p.Payload,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// DeleteBySource removes every point belonging to the given document.
func (x *Index) DeleteBySource(_ context.Context, sourceFilename string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for id, p := range x.points {
		if p.Payload.SourceFilename == sourceFilename {
			delete(x.points, id)
		}
	}
	return nil
}

// Clear removes all stored points.
func (x *Index) Clear(_ context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.points = make(map[string]domain.VectorPoint)
	return nil
}

// Count returns the number of stored points.
func (x *Index) Count(_ context.Context) (int64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return int64(len(x.points)), nil
}

// Ping always succeeds.
func (x *Index) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (x *Index) Close() error {
	return nil
}

// cosine computes cosine similarity; zero vectors score 0.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
