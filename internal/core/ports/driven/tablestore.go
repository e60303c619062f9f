package driven

import (
	"context"

	"github.com/sift-labs/tableqa/internal/core/domain"
)

// TableStore persists structured table records for exact lookups.
// Records cross this boundary as domain.TableRecord only: whatever primary
// key the backend assigns stays inside the adapter.
type TableStore interface {
	// InsertTables stores the given records and returns how many were
	// written. Records must already carry their SourceFilename.
	InsertTables(ctx context.Context, records []domain.TableRecord) (int, error)

	// FindTables returns up to limit records matching the filter, in
	// insertion order. A zero filter matches everything. Zero matches is
	// valid empty state, not an error.
	FindTables(ctx context.Context, filter domain.TableFilter, limit int) ([]domain.TableRecord, error)

	// DeleteTables removes records matching the filter and returns the
	// number removed.
	DeleteTables(ctx context.Context, filter domain.TableFilter) (int64, error)

	// SourceFilenames returns the distinct source filenames with at least
	// one stored table, sorted.
	SourceFilenames(ctx context.Context) ([]string, error)

	// Count returns the total number of stored records.
	Count(ctx context.Context) (int64, error)

	// Ping validates the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
