package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sift-labs/tableqa/internal/core/domain"
	"github.com/sift-labs/tableqa/internal/core/ports/driving"
)

// --- Test helpers ---

func queryHits() []domain.ScoredChunk {
	return []domain.ScoredChunk{
		{Score: 0.91, Payload: domain.TextChunk{Text: "Revenue grew in the fourth quarter.", SourceFilename: "report.pdf"}},
		{Score: 0.82, Payload: domain.TextChunk{Text: "Operating costs were flat.", SourceFilename: "report.pdf"}},
		{Score: 0.64, Payload: domain.TextChunk{Text: "The appendix lists methodology.", SourceFilename: "notes.pdf"}},
	}
}

func queryTables() []domain.TableRecord {
	return []domain.TableRecord{
		{TableID: "table_0", Content: "<table><tr><td>Q4</td><td>$1,000</td></tr></table>", ContentType: domain.ContentHTML, SourceFilename: "report.pdf"},
		{TableID: "table_1", Content: "<table><tr><td>Q3</td><td>$900</td></tr></table>", ContentType: domain.ContentHTML, SourceFilename: "report.pdf"},
		{TableID: "table_0", Content: "<table><tr><td>Staff</td><td>12</td></tr></table>", ContentType: domain.ContentHTML, SourceFilename: "notes.pdf"},
	}
}

func newTestQueryService(vectors *mockVectorIndex, tables *mockTableStore, llm *mockLLM, cache *QueryCache) (*QueryService, *mockEmbedder) {
	embedder := &mockEmbedder{embedding: []float32{0.1, 0.2, 0.3}}
	return NewQueryService(embedder, vectors, tables, llm, cache, DefaultRetrievalConfig()), embedder
}

// --- Tests ---

func TestQueryService_Ask_EmptyQuestion(t *testing.T) {
	service, _ := newTestQueryService(&mockVectorIndex{}, &mockTableStore{}, &mockLLM{}, nil)

	_, err := service.Ask(context.Background(), "   ", driving.AskOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQueryService_Ask_FullFlow(t *testing.T) {
	vectors := &mockVectorIndex{hits: queryHits()}
	tables := &mockTableStore{records: queryTables()}
	llm := &mockLLM{reply: "Revenue was $1,000 in Q4."}
	service, _ := newTestQueryService(vectors, tables, llm, nil)

	answer, err := service.Ask(context.Background(), "What was Q4 revenue?", driving.AskOptions{})

	require.NoError(t, err)
	assert.Equal(t, "Revenue was $1,000 in Q4.", answer.Text)
	assert.False(t, answer.Cached)
	assert.Empty(t, answer.Prompt)

	// The rank-1 hit's document scopes the table lookup.
	require.Len(t, tables.findFilters, 1)
	assert.Equal(t, "report.pdf", tables.findFilters[0].SourceFilename)
	assert.Equal(t, 5, tables.findLimits[0])

	// Sources cover both stages: 3 text hits plus report.pdf's 2 tables.
	assert.Len(t, answer.Sources, 5)
	assert.Equal(t, "text", answer.Sources[0].Type)
	assert.Equal(t, "table", answer.Sources[3].Type)
}

func TestQueryService_Ask_ExplicitFilterOverridesScope(t *testing.T) {
	vectors := &mockVectorIndex{hits: queryHits()}
	tables := &mockTableStore{records: queryTables()}
	service, _ := newTestQueryService(vectors, tables, &mockLLM{reply: "ok"}, nil)

	_, err := service.Ask(context.Background(), "staff count?", driving.AskOptions{FileFilter: "notes.pdf"})

	require.NoError(t, err)
	require.Len(t, tables.findFilters, 1)
	assert.Equal(t, "notes.pdf", tables.findFilters[0].SourceFilename)
}

func TestQueryService_Ask_NoVectorMatch_Unfiltered(t *testing.T) {
	tables := &mockTableStore{records: queryTables()}
	service, _ := newTestQueryService(&mockVectorIndex{}, tables, &mockLLM{reply: "ok"}, nil)

	_, err := service.Ask(context.Background(), "anything tabular?", driving.AskOptions{})

	require.NoError(t, err)
	require.Len(t, tables.findFilters, 1)
	assert.Empty(t, tables.findFilters[0].SourceFilename)
}

func TestQueryService_Ask_NoVectorMatch_NonePolicy(t *testing.T) {
	tables := &mockTableStore{records: queryTables()}
	cfg := DefaultRetrievalConfig()
	cfg.OnNoMatch = NoMatchNone
	embedder := &mockEmbedder{embedding: []float32{0.5}}
	service := NewQueryService(embedder, &mockVectorIndex{}, tables, &mockLLM{reply: "ok"}, nil, cfg)

	answer, err := service.Ask(context.Background(), "anything tabular?", driving.AskOptions{})

	require.NoError(t, err)
	assert.Empty(t, tables.findFilters)
	assert.Empty(t, answer.Sources)
}

func TestQueryService_Ask_GenerationFailureDegrades(t *testing.T) {
	vectors := &mockVectorIndex{hits: queryHits()}
	llm := &mockLLM{chatErr: errors.New("model overloaded")}
	service, _ := newTestQueryService(vectors, &mockTableStore{}, llm, nil)

	answer, err := service.Ask(context.Background(), "What was Q4 revenue?", driving.AskOptions{})

	require.NoError(t, err)
	assert.Equal(t, DegradedAnswer, answer.Text)
	assert.NotEmpty(t, answer.Sources)
}

func TestQueryService_Ask_VectorBackendError(t *testing.T) {
	vectors := &mockVectorIndex{searchErr: errors.New("connection refused")}
	service, _ := newTestQueryService(vectors, &mockTableStore{}, &mockLLM{}, nil)

	_, err := service.Ask(context.Background(), "What was Q4 revenue?", driving.AskOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
}

func TestQueryService_Ask_CacheRoundTrip(t *testing.T) {
	vectors := &mockVectorIndex{hits: queryHits()}
	tables := &mockTableStore{records: queryTables()}
	llm := &mockLLM{reply: "Revenue was $1,000 in Q4."}
	cache := NewQueryCache(newMockCacheBackend(), 0)
	service, _ := newTestQueryService(vectors, tables, llm, cache)
	ctx := context.Background()

	first, err := service.Ask(ctx, "What was Q4 revenue?", driving.AskOptions{})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := service.Ask(ctx, "What was Q4 revenue?", driving.AskOptions{})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1, llm.calls)
}

func TestQueryService_Ask_BypassCacheRecomputes(t *testing.T) {
	vectors := &mockVectorIndex{hits: queryHits()}
	llm := &mockLLM{reply: "answer"}
	cache := NewQueryCache(newMockCacheBackend(), 0)
	service, _ := newTestQueryService(vectors, &mockTableStore{}, llm, cache)
	ctx := context.Background()

	_, err := service.Ask(ctx, "q", driving.AskOptions{})
	require.NoError(t, err)
	_, err = service.Ask(ctx, "q", driving.AskOptions{BypassCache: true})
	require.NoError(t, err)

	assert.Equal(t, 2, llm.calls)
}

func TestQueryService_Ask_DebugExposesPromptWithoutCaching(t *testing.T) {
	vectors := &mockVectorIndex{hits: queryHits()}
	tables := &mockTableStore{records: queryTables()}
	llm := &mockLLM{reply: "answer"}
	backend := newMockCacheBackend()
	service, _ := newTestQueryService(vectors, tables, llm, NewQueryCache(backend, 0))

	answer, err := service.Ask(context.Background(), "What was Q4 revenue?", driving.AskOptions{Debug: true})

	require.NoError(t, err)
	assert.Contains(t, answer.Prompt, "CRITICAL INSTRUCTIONS")
	assert.Contains(t, answer.Prompt, "What was Q4 revenue?")
	assert.Empty(t, backend.entries)
}

func TestQueryService_Ask_LLMReceivesDeterministicOptions(t *testing.T) {
	vectors := &mockVectorIndex{hits: queryHits()}
	llm := &mockLLM{reply: "answer"}
	service, _ := newTestQueryService(vectors, &mockTableStore{}, llm, nil)

	_, err := service.Ask(context.Background(), "q", driving.AskOptions{})

	require.NoError(t, err)
	require.Len(t, llm.messages, 2)
	assert.Equal(t, "system", llm.messages[0].Role)
	assert.Equal(t, SystemMessage, llm.messages[0].Content)
	assert.Equal(t, "user", llm.messages[1].Role)
	assert.Zero(t, llm.opts.Temperature)
	assert.Equal(t, 1.0, llm.opts.TopP)
}

func TestQueryService_SearchVectors_MemoizesEmbedding(t *testing.T) {
	vectors := &mockVectorIndex{hits: queryHits()}
	cache := NewQueryCache(newMockCacheBackend(), 0)
	service, embedder := newTestQueryService(vectors, &mockTableStore{}, &mockLLM{}, cache)
	ctx := context.Background()

	_, err := service.SearchVectors(ctx, "same question", 3)
	require.NoError(t, err)
	_, err = service.SearchVectors(ctx, "same question", 3)
	require.NoError(t, err)

	assert.Equal(t, 1, embedder.embedCalls)
}

func TestQueryService_SearchVectors_DeduplicatesAndRanks(t *testing.T) {
	hits := []domain.ScoredChunk{
		{Score: 0.9, Payload: domain.TextChunk{Text: "duplicate"}},
		{Score: 0.8, Payload: domain.TextChunk{Text: "duplicate"}},
		{Score: 0.7, Payload: domain.TextChunk{Text: "unique"}},
	}
	service, _ := newTestQueryService(&mockVectorIndex{hits: hits}, &mockTableStore{}, &mockLLM{}, nil)

	results, err := service.SearchVectors(context.Background(), "q", 3)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "duplicate", results[0].Payload.Text)
	assert.Equal(t, "unique", results[1].Payload.Text)
}

func TestQueryService_SearchVectors_KeepsNegativeScoresByDefault(t *testing.T) {
	hits := []domain.ScoredChunk{
		{Score: -0.12, Payload: domain.TextChunk{Text: "tangential paragraph", SourceFilename: "odd.pdf"}},
		{Score: -0.34, Payload: domain.TextChunk{Text: "unrelated footnote", SourceFilename: "odd.pdf"}},
	}
	service, _ := newTestQueryService(&mockVectorIndex{hits: hits}, &mockTableStore{}, &mockLLM{}, nil)

	results, err := service.SearchVectors(context.Background(), "q", 3)

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestQueryService_Ask_NegativeRankOneStillScopesTables(t *testing.T) {
	hits := []domain.ScoredChunk{
		{Score: -0.05, Payload: domain.TextChunk{Text: "weak match", SourceFilename: "odd.pdf"}},
	}
	tables := &mockTableStore{records: queryTables()}
	service, _ := newTestQueryService(&mockVectorIndex{hits: hits}, tables, &mockLLM{reply: "ok"}, nil)

	_, err := service.Ask(context.Background(), "anything?", driving.AskOptions{})

	require.NoError(t, err)
	require.Len(t, tables.findFilters, 1)
	assert.Equal(t, "odd.pdf", tables.findFilters[0].SourceFilename)
}

func TestQueryService_SearchVectors_AppliesConfiguredThreshold(t *testing.T) {
	hits := []domain.ScoredChunk{
		{Score: 0.9, Payload: domain.TextChunk{Text: "strong match"}},
		{Score: 0.3, Payload: domain.TextChunk{Text: "weak match"}},
	}
	cfg := DefaultRetrievalConfig()
	cfg.ScoreThreshold = 0.5
	embedder := &mockEmbedder{embedding: []float32{0.5}}
	service := NewQueryService(embedder, &mockVectorIndex{hits: hits}, &mockTableStore{}, &mockLLM{}, nil, cfg)

	results, err := service.SearchVectors(context.Background(), "q", 3)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "strong match", results[0].Payload.Text)
}

func TestQueryService_SearchTables_ScopedLookup(t *testing.T) {
	tables := &mockTableStore{records: queryTables()}
	service, _ := newTestQueryService(&mockVectorIndex{}, tables, &mockLLM{}, nil)

	records, err := service.SearchTables(context.Background(), "report.pdf", 5)

	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, record := range records {
		assert.Equal(t, "report.pdf", record.SourceFilename)
	}
}

func TestQueryService_SearchTables_EmptyIsNotError(t *testing.T) {
	service, _ := newTestQueryService(&mockVectorIndex{}, &mockTableStore{}, &mockLLM{}, nil)

	records, err := service.SearchTables(context.Background(), "missing.pdf", 5)

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 200))
	long := strings.Repeat("x", 300)
	assert.Equal(t, strings.Repeat("x", 200)+"...", truncate(long, 200))
}
