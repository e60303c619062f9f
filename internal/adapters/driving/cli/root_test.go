package cli

import (
	"bytes"
	"context"

	"github.com/sift-labs/tableqa/internal/core/domain"
	"github.com/sift-labs/tableqa/internal/core/ports/driven"
	"github.com/sift-labs/tableqa/internal/core/ports/driving"
)

// fakeIngestService is a configurable driving.IngestService for command tests.
type fakeIngestService struct {
	ingestResult *domain.IngestResult
	ingestErr    error
	deletedName  string
	cleared      bool
	documents    []string
	listErr      error
}

func (f *fakeIngestService) IngestFile(_ context.Context, path string, strategy domain.Strategy) (*domain.IngestResult, error) {
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	if f.ingestResult != nil {
		return f.ingestResult, nil
	}
	return &domain.IngestResult{SourceFilename: path, Strategy: strategy}, nil
}

func (f *fakeIngestService) IngestDirectory(_ context.Context, _ string, _ domain.Strategy) ([]domain.IngestResult, error) {
	return nil, nil
}

func (f *fakeIngestService) DeleteDocument(_ context.Context, name string) error {
	f.deletedName = name
	return nil
}

func (f *fakeIngestService) ClearAll(_ context.Context) error {
	f.cleared = true
	return nil
}

func (f *fakeIngestService) ListDocuments(_ context.Context) ([]string, error) {
	return f.documents, f.listErr
}

// fakeQueryService is a configurable driving.QueryService for command tests.
type fakeQueryService struct {
	answer  *domain.Answer
	askErr  error
	askOpts driving.AskOptions

	hits   []domain.ScoredChunk
	tables []domain.TableRecord

	stats        driven.CacheStats
	cacheCleared bool

	lastCtx context.Context
}

func (f *fakeQueryService) Ask(_ context.Context, _ string, opts driving.AskOptions) (*domain.Answer, error) {
	f.askOpts = opts
	if f.askErr != nil {
		return nil, f.askErr
	}
	if f.answer != nil {
		return f.answer, nil
	}
	return &domain.Answer{Text: "mock answer"}, nil
}

func (f *fakeQueryService) SearchVectors(ctx context.Context, _ string, _ int) ([]domain.ScoredChunk, error) {
	f.lastCtx = ctx
	return f.hits, nil
}

func (f *fakeQueryService) SearchTables(ctx context.Context, _ string, _ int) ([]domain.TableRecord, error) {
	f.lastCtx = ctx
	return f.tables, nil
}

func (f *fakeQueryService) CacheStats(ctx context.Context) driven.CacheStats {
	f.lastCtx = ctx
	return f.stats
}

func (f *fakeQueryService) ClearCache(ctx context.Context) error {
	f.lastCtx = ctx
	f.cacheCleared = true
	return nil
}

var (
	_ driving.IngestService = (*fakeIngestService)(nil)
	_ driving.QueryService  = (*fakeQueryService)(nil)
)

// setupTestServices installs fresh fakes and returns them with a cleanup
// that restores the unconfigured state.
func setupTestServices() (*fakeIngestService, *fakeQueryService, func()) {
	ingest := &fakeIngestService{}
	query := &fakeQueryService{}
	ingestService = ingest
	queryService = query
	return ingest, query, func() {
		ingestService = nil
		queryService = nil
	}
}

// executeCommand runs the root command with args and captures its output.
func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
