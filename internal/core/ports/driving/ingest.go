package driving

import (
	"context"

	"github.com/sift-labs/tableqa/internal/core/domain"
)

// IngestService processes PDF documents into the two stores: structured
// tables into the table store, narrative text into the vector index.
type IngestService interface {
	// IngestFile processes a single PDF.
	// Returns domain.ErrFileNotFound or domain.ErrNotPDF for input errors.
	IngestFile(ctx context.Context, path string, strategy domain.Strategy) (*domain.IngestResult, error)

	// IngestDirectory processes every PDF in a directory, skipping files
	// that fail and reporting per-file results.
	IngestDirectory(ctx context.Context, dir string, strategy domain.Strategy) ([]domain.IngestResult, error)

	// DeleteDocument removes a document's tables and vectors.
	DeleteDocument(ctx context.Context, sourceFilename string) error

	// ClearAll removes every stored table and vector.
	ClearAll(ctx context.Context) error

	// ListDocuments returns the distinct source filenames currently stored.
	ListDocuments(ctx context.Context) ([]string, error)
}
