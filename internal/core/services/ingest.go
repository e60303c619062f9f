package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/sift-labs/tableqa/internal/core/domain"
	"github.com/sift-labs/tableqa/internal/core/ports/driven"
	"github.com/sift-labs/tableqa/internal/core/ports/driving"
	"github.com/sift-labs/tableqa/internal/logger"
	"github.com/sift-labs/tableqa/internal/normalisers/table"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService turns PDF files into stored tables and searchable vectors.
type IngestService struct {
	partitioner driven.Partitioner
	embedder    driven.EmbeddingService
	vectors     driven.VectorIndex
	tables      driven.TableStore
	classifier  *Classifier
}

// NewIngestService creates an ingest service.
func NewIngestService(
	partitioner driven.Partitioner,
	embedder driven.EmbeddingService,
	vectors driven.VectorIndex,
	tables driven.TableStore,
	classifier *Classifier,
) *IngestService {
	if classifier == nil {
		classifier = NewClassifier(DefaultTableLikeness(), domain.ContentHTML)
	}
	return &IngestService{
		partitioner: partitioner,
		embedder:    embedder,
		vectors:     vectors,
		tables:      tables,
		classifier:  classifier,
	}
}

// IngestFile processes one PDF end to end: partition, classify, persist
// tables, embed narrative text plus the tables' searchable text, upsert.
func (s *IngestService) IngestFile(ctx context.Context, path string, strategy domain.Strategy) (*domain.IngestResult, error) {
	logger.Section("Document Ingestion")

	if strategy == "" {
		strategy = domain.StrategyAuto
	}
	if !strategy.Valid() {
		return nil, fmt.Errorf("unknown strategy %q: %w", strategy, domain.ErrInvalidInput)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, domain.ErrFileNotFound)
	}
	if info.IsDir() || !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return nil, fmt.Errorf("%q: %w", path, domain.ErrNotPDF)
	}

	sourceFilename := filepath.Base(path)
	logger.Info("partitioning %s (strategy %s)", sourceFilename, strategy)

	elements, used, err := s.partition(ctx, path, strategy)
	if err != nil {
		return nil, fmt.Errorf("partition %q: %w", sourceFilename, err)
	}
	logger.Debug("partitioned into %d elements", len(elements))

	records, texts := s.classifier.Classify(elements)
	for i := range records {
		records[i].SourceFilename = sourceFilename
	}

	// A table contributes twice: the exact record for lookups, and a
	// flattened searchable form for similarity search.
	for _, record := range records {
		if searchable, ok := table.SearchableText(record.Content); ok {
			texts = append(texts, searchable)
		}
	}

	storedTables := 0
	if len(records) > 0 {
		storedTables, err = s.tables.InsertTables(ctx, records)
		if err != nil {
			return nil, fmt.Errorf("store tables for %q: %w", sourceFilename, err)
		}
		logger.Info("stored %d tables from %s", storedTables, sourceFilename)
	}

	storedChunks, err := s.embedAndUpsert(ctx, sourceFilename, texts)
	if err != nil {
		return nil, err
	}
	logger.Info("indexed %d text chunks from %s", storedChunks, sourceFilename)

	return &domain.IngestResult{
		SourceFilename: sourceFilename,
		Tables:         storedTables,
		Chunks:         storedChunks,
		Strategy:       used,
	}, nil
}

// IngestDirectory processes every PDF directly under dir. Individual file
// failures are logged and skipped so one corrupt document does not abort
// the batch.
func (s *IngestService) IngestDirectory(ctx context.Context, dir string, strategy domain.Strategy) ([]domain.IngestResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %q: %w", dir, err)
	}

	var results []domain.IngestResult
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		result, err := s.IngestFile(ctx, filepath.Join(dir, entry.Name()), strategy)
		if err != nil {
			logger.Error("skipping %s: %v", entry.Name(), err)
			continue
		}
		results = append(results, *result)
	}

	if len(results) == 0 {
		logger.Info("no PDF files ingested from %s", dir)
	}
	return results, nil
}

// DeleteDocument removes one document's tables and vectors.
func (s *IngestService) DeleteDocument(ctx context.Context, sourceFilename string) error {
	sourceFilename = strings.TrimSpace(sourceFilename)
	if sourceFilename == "" {
		return fmt.Errorf("empty source filename: %w", domain.ErrInvalidInput)
	}

	removed, err := s.tables.DeleteTables(ctx, domain.TableFilter{SourceFilename: sourceFilename})
	if err != nil {
		return fmt.Errorf("delete tables for %q: %w", sourceFilename, err)
	}
	if err := s.vectors.DeleteBySource(ctx, sourceFilename); err != nil {
		return fmt.Errorf("delete vectors for %q: %w", sourceFilename, err)
	}

	logger.Info("deleted %s (%d tables)", sourceFilename, removed)
	return nil
}

// ClearAll empties both stores.
func (s *IngestService) ClearAll(ctx context.Context) error {
	if _, err := s.tables.DeleteTables(ctx, domain.TableFilter{}); err != nil {
		return fmt.Errorf("clear table store: %w", err)
	}
	if err := s.vectors.Clear(ctx); err != nil {
		return fmt.Errorf("clear vector index: %w", err)
	}
	logger.Info("cleared all stored documents")
	return nil
}

// ListDocuments returns the distinct stored source filenames, sorted.
func (s *IngestService) ListDocuments(ctx context.Context) ([]string, error) {
	names, err := s.tables.SourceFilenames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// partition runs the partitioner, degrading hi_res to fast when the
// environment cannot run the high-resolution pipeline. It returns the
// strategy that actually produced the elements.
func (s *IngestService) partition(ctx context.Context, path string, strategy domain.Strategy) ([]domain.DocumentElement, domain.Strategy, error) {
	elements, err := s.partitioner.Partition(ctx, path, strategy)
	if err == nil {
		return elements, strategy, nil
	}
	if strategy != domain.StrategyHiRes || !errors.Is(err, domain.ErrStrategyUnavailable) {
		return nil, strategy, err
	}

	logger.Error("hi_res partitioning unavailable, falling back to fast: %v", err)
	elements, err = s.partitioner.Partition(ctx, path, domain.StrategyFast)
	if err != nil {
		return nil, domain.StrategyFast, err
	}
	return elements, domain.StrategyFast, nil
}

// embedAndUpsert batch-embeds the texts and writes them as points carrying
// their chunk payloads. Empty input is a no-op.
func (s *IngestService) embedAndUpsert(ctx context.Context, sourceFilename string, texts []string) (int, error) {
	if len(texts) == 0 {
		return 0, nil
	}

	if err := s.vectors.EnsureCollection(ctx, s.embedder.Dimensions()); err != nil {
		return 0, fmt.Errorf("ensure collection: %w", err)
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed %d chunks: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("embedding count mismatch: %d texts, %d vectors", len(texts), len(vectors))
	}

	points := make([]domain.VectorPoint, len(texts))
	for i, text := range texts {
		points[i] = domain.VectorPoint{
			ID:     uuid.NewString(),
			Vector: vectors[i],
			Payload: domain.TextChunk{
				Text:           text,
				SourceFilename: sourceFilename,
				ChunkIndex:     i,
			},
		}
	}

	return s.vectors.Upsert(ctx, points)
}
