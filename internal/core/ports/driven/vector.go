package driven

import (
	"context"

	"github.com/sift-labs/tableqa/internal/core/domain"
)

// VectorIndex stores chunk embeddings and serves cosine similarity search.
type VectorIndex interface {
	// EnsureCollection creates the backing collection for the given vector
	// dimensionality if it does not already exist.
	EnsureCollection(ctx context.Context, dimensions int) error

	// Upsert inserts or updates points and returns how many were written.
	Upsert(ctx context.Context, points []domain.VectorPoint) (int, error)

	// Search returns up to limit chunks ranked by descending similarity to
	// the query vector. A nil filter searches every stored point. Zero hits
	// is valid empty state, not an error.
	Search(ctx context.Context, query []float32, limit int, filter *domain.ChunkFilter) ([]domain.ScoredChunk, error)

	// DeleteBySource removes every point belonging to the given document.
	DeleteBySource(ctx context.Context, sourceFilename string) error

	// Clear removes all stored points.
	Clear(ctx context.Context) error

	// Count returns the number of stored points.
	Count(ctx context.Context) (int64, error)

	// Ping validates the index is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
