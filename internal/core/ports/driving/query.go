package driving

import (
	"context"

	"github.com/sift-labs/tableqa/internal/core/domain"
	"github.com/sift-labs/tableqa/internal/core/ports/driven"
)

// AskOptions configures a hybrid query.
type AskOptions struct {
	// FileFilter, when non-empty, restricts table lookup to one document
	// instead of the smart-retrieval scope.
	FileFilter string

	// Debug includes the fully rendered prompt in the answer.
	Debug bool

	// BypassCache skips the query cache for this call.
	BypassCache bool
}

// QueryService answers natural-language questions from the stored context.
type QueryService interface {
	// Ask runs the full hybrid query: vector retrieval, smart-scoped table
	// lookup, prompt assembly, and generation.
	Ask(ctx context.Context, question string, opts AskOptions) (*domain.Answer, error)

	// SearchVectors returns the text chunks most similar to the question.
	SearchVectors(ctx context.Context, question string, limit int) ([]domain.ScoredChunk, error)

	// SearchTables returns stored tables, optionally scoped to one document.
	SearchTables(ctx context.Context, fileFilter string, limit int) ([]domain.TableRecord, error)

	// CacheStats reports the query cache's state.
	CacheStats(ctx context.Context) driven.CacheStats

	// ClearCache empties the query cache.
	ClearCache(ctx context.Context) error
}
