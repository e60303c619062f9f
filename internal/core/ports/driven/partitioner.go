package driven

import (
	"context"

	"github.com/sift-labs/tableqa/internal/core/domain"
)

// Partitioner parses a document into typed layout elements.
// Implemented outside the core by a document-partitioning service; the
// core only consumes the element sequence.
type Partitioner interface {
	// Partition parses the file at path using the given strategy and
	// returns its elements in reading order.
	//
	// When the strategy cannot run in this environment the error wraps
	// domain.ErrStrategyUnavailable so the caller can fall back to
	// domain.StrategyFast.
	Partition(ctx context.Context, path string, strategy domain.Strategy) ([]domain.DocumentElement, error)

	// Ping validates the partitioning service is reachable.
	Ping(ctx context.Context) error
}
