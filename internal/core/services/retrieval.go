package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sift-labs/tableqa/internal/core/domain"
	"github.com/sift-labs/tableqa/internal/core/ports/driven"
	"github.com/sift-labs/tableqa/internal/core/ports/driving"
	"github.com/sift-labs/tableqa/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// NoMatchPolicy decides what table lookup does when vector search
// identifies no source document.
type NoMatchPolicy string

// No-match policies. Unfiltered matches the original behaviour of
// returning tables from any document; None returns no tables at all.
const (
	NoMatchUnfiltered NoMatchPolicy = "unfiltered"
	NoMatchNone       NoMatchPolicy = "none"
)

// Temperature presets for generation.
const (
	TemperatureDeterministic = 0.0
	TemperatureBalanced      = 0.3
	TemperatureCreative      = 0.8
)

// snippetLen bounds the source previews attached to an answer.
const snippetLen = 200

// RetrievalConfig tunes the two-stage retrieval policy and generation.
type RetrievalConfig struct {
	// MaxVectorResults is k for the similarity search stage.
	MaxVectorResults int

	// MaxTableResults caps the scoped table lookup.
	MaxTableResults int

	// ScoreThreshold drops vector hits below this similarity. Zero
	// disables the filter, so even negative-similarity hits stay in the
	// top-k and can scope the table stage.
	ScoreThreshold float64

	// OnNoMatch is the table fallback policy when no document was
	// identified by vector search.
	OnNoMatch NoMatchPolicy

	// Temperature and TopP are passed to the generative model.
	// The defaults (0, 1) make answers reproducible.
	Temperature float64
	TopP        float64
}

// DefaultRetrievalConfig returns the tuned retrieval defaults.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		MaxVectorResults: 3,
		MaxTableResults:  5,
		ScoreThreshold:   0.0,
		OnNoMatch:        NoMatchUnfiltered,
		Temperature:      TemperatureDeterministic,
		TopP:             1.0,
	}
}

// QueryService answers questions by combining vector retrieval over
// narrative text with table lookups scoped to the most relevant document.
// All collaborators are injected; the service holds no mutable state, so
// concurrent queries are safe.
type QueryService struct {
	embedder driven.EmbeddingService
	vectors  driven.VectorIndex
	tables   driven.TableStore
	llm      driven.LLMService
	cache    *QueryCache
	cfg      RetrievalConfig
}

// NewQueryService creates a query service. The cache may be nil, in which
// case every query is computed fresh.
func NewQueryService(
	embedder driven.EmbeddingService,
	vectors driven.VectorIndex,
	tables driven.TableStore,
	llm driven.LLMService,
	cache *QueryCache,
	cfg RetrievalConfig,
) *QueryService {
	if cfg.MaxVectorResults <= 0 {
		cfg.MaxVectorResults = 3
	}
	if cfg.MaxTableResults <= 0 {
		cfg.MaxTableResults = 5
	}
	if cfg.OnNoMatch == "" {
		cfg.OnNoMatch = NoMatchUnfiltered
	}
	if cfg.TopP == 0 {
		cfg.TopP = 1.0
	}
	return &QueryService{
		embedder: embedder,
		vectors:  vectors,
		tables:   tables,
		llm:      llm,
		cache:    cache,
		cfg:      cfg,
	}
}

// Ask runs the full hybrid query.
func (s *QueryService) Ask(ctx context.Context, question string, opts driving.AskOptions) (*domain.Answer, error) {
	logger.Section("Hybrid Query")

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("empty question: %w", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	// Debug queries always recompute so the rendered prompt is current.
	if !opts.Debug && !opts.BypassCache {
		if answer, ok := s.cache.GetAnswer(ctx, question, opts.FileFilter); ok {
			logger.Info("query cache hit: %.50q", question)
			return answer, nil
		}
	}

	start := time.Now()

	// Stage 1: semantic retrieval over narrative text.
	textContext, err := s.SearchVectors(ctx, question, s.cfg.MaxVectorResults)
	if err != nil {
		return nil, err
	}

	// Stage 2: table lookup scoped by the rank-1 vector hit. An explicit
	// caller filter wins over the smart scope.
	scope := opts.FileFilter
	if scope == "" {
		scope = topSourceFilename(textContext)
	}

	var tableContext []domain.TableRecord
	if scope == "" && s.cfg.OnNoMatch == NoMatchNone {
		logger.Info("no source document identified, policy %q returns no tables", s.cfg.OnNoMatch)
	} else {
		tableContext, err = s.SearchTables(ctx, scope, s.cfg.MaxTableResults)
		if err != nil {
			return nil, err
		}
	}

	formattedText := FormatTextContext(textContext)
	formattedTables := FormatTableContext(tableContext)
	prompt := BuildPrompt(question, formattedText, formattedTables)

	answer := &domain.Answer{
		Sources: collectSources(textContext, tableContext),
	}
	if opts.Debug {
		answer.Prompt = prompt
	}

	logger.Debug("synthesizing answer (model %s, temperature %.1f)", s.llm.ModelName(), s.cfg.Temperature)
	reply, err := s.llm.Chat(ctx, []driven.ChatMessage{
		{Role: "system", Content: SystemMessage},
		{Role: "user", Content: prompt},
	}, driven.ChatOptions{
		Temperature: s.cfg.Temperature,
		TopP:        s.cfg.TopP,
	})
	if err != nil {
		// Generation failure degrades to a well-formed answer string
		// instead of propagating: callers expect a textual answer.
		logger.Error("generation failed: %v", err)
		answer.Text = DegradedAnswer
		answer.Took = time.Since(start)
		return answer, nil
	}

	answer.Text = strings.TrimSpace(reply)
	answer.Took = time.Since(start)

	if !opts.Debug {
		s.cache.SetAnswer(ctx, question, opts.FileFilter, answer)
	}
	return answer, nil
}

// SearchVectors embeds the question and returns the most similar chunks,
// deduplicated and ranked by descending similarity.
func (s *QueryService) SearchVectors(ctx context.Context, question string, limit int) ([]domain.ScoredChunk, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.vectors == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if limit <= 0 {
		limit = s.cfg.MaxVectorResults
	}

	logger.Debug("searching vectors for: %.60q", question)

	vector, ok := s.cache.GetEmbedding(ctx, question)
	if !ok {
		var err error
		vector, err = s.embedder.Embed(ctx, question)
		if err != nil {
			return nil, fmt.Errorf("embed question: %w", err)
		}
		s.cache.SetEmbedding(ctx, question, vector)
	}

	hits, err := s.vectors.Search(ctx, vector, limit, nil)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w: %v", domain.ErrBackendUnavailable, err)
	}

	hits = Deduplicate(hits, ChunkText)
	if s.cfg.ScoreThreshold != 0 {
		hits = OptimizeResults(hits, limit, s.cfg.ScoreThreshold)
	}

	logger.Debug("found %d relevant text chunks", len(hits))
	return hits, nil
}

// SearchTables returns stored tables, scoped to fileFilter when non-empty.
// Zero results is valid empty state.
func (s *QueryService) SearchTables(ctx context.Context, fileFilter string, limit int) ([]domain.TableRecord, error) {
	if s.tables == nil {
		return nil, domain.ErrTableStoreUnavailable
	}
	if limit <= 0 {
		limit = s.cfg.MaxTableResults
	}

	filter := domain.TableFilter{SourceFilename: fileFilter}
	records, err := s.tables.FindTables(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("table search: %w: %v", domain.ErrBackendUnavailable, err)
	}

	logger.Debug("found %d relevant tables (filter %q)", len(records), fileFilter)
	return records, nil
}

// CacheStats reports the query cache's statistics.
func (s *QueryService) CacheStats(ctx context.Context) driven.CacheStats {
	return s.cache.Stats(ctx)
}

// ClearCache empties the query cache.
func (s *QueryService) ClearCache(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

// topSourceFilename implements the smart-retrieval scoping policy: only
// the single best vector match determines document scope, never a vote
// across the result list.
func topSourceFilename(hits []domain.ScoredChunk) string {
	if len(hits) == 0 {
		logger.Info("vector search found no relevant text chunks")
		return ""
	}
	source := hits[0].Payload.SourceFilename
	if source == "" {
		logger.Info("vector search found chunks, but no source filename metadata")
		return ""
	}
	logger.Info("vector search identified %q as the most relevant document", source)
	return source
}

// collectSources builds the answer's source previews.
func collectSources(chunks []domain.ScoredChunk, tables []domain.TableRecord) []domain.Source {
	sources := make([]domain.Source, 0, len(chunks)+len(tables))
	for _, chunk := range chunks {
		sources = append(sources, domain.Source{
			Type:     "text",
			Filename: chunk.Payload.SourceFilename,
			Snippet:  truncate(chunk.Payload.Text, snippetLen),
		})
	}
	for _, record := range tables {
		sources = append(sources, domain.Source{
			Type:     "table",
			Filename: record.SourceFilename,
			Snippet:  truncate(record.Content, snippetLen),
		})
	}
	return sources
}

// truncate shortens s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut + "..."
}
