package services

import (
	"context"
	"sync"
	"time"

	"github.com/sift-labs/tableqa/internal/core/domain"
	"github.com/sift-labs/tableqa/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockPartitioner implements driven.Partitioner for testing.
type mockPartitioner struct {
	elements []domain.DocumentElement
	err      error

	// hiResErr, when set, fails only hi_res calls so fallback paths can
	// be exercised.
	hiResErr error

	calls []domain.Strategy
}

func (m *mockPartitioner) Partition(_ context.Context, _ string, strategy domain.Strategy) ([]domain.DocumentElement, error) {
	m.calls = append(m.calls, strategy)
	if m.hiResErr != nil && strategy == domain.StrategyHiRes {
		return nil, m.hiResErr
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.elements, nil
}

func (m *mockPartitioner) Ping(_ context.Context) error {
	return nil
}

// mockEmbedder implements driven.EmbeddingService for testing.
type mockEmbedder struct {
	embedding []float32
	embedErr  error
	dims      int

	embedCalls int
	batchTexts []string
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.embedCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batchTexts = append([]string(nil), texts...)
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = m.embedding
	}
	return result, nil
}

func (m *mockEmbedder) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 384
}

func (m *mockEmbedder) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbedder) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbedder) Close() error {
	return nil
}

// mockVectorIndex implements driven.VectorIndex for testing.
type mockVectorIndex struct {
	hits      []domain.ScoredChunk
	searchErr error
	upsertErr error

	upserted      []domain.VectorPoint
	deletedSource string
	cleared       bool
	ensuredDims   int
}

func (m *mockVectorIndex) EnsureCollection(_ context.Context, dimensions int) error {
	m.ensuredDims = dimensions
	return nil
}

func (m *mockVectorIndex) Upsert(_ context.Context, points []domain.VectorPoint) (int, error) {
	if m.upsertErr != nil {
		return 0, m.upsertErr
	}
	m.upserted = append(m.upserted, points...)
	return len(points), nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, limit int, _ *domain.ChunkFilter) ([]domain.ScoredChunk, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if limit > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:limit], nil
}

func (m *mockVectorIndex) DeleteBySource(_ context.Context, sourceFilename string) error {
	m.deletedSource = sourceFilename
	return nil
}

func (m *mockVectorIndex) Clear(_ context.Context) error {
	m.cleared = true
	return nil
}

func (m *mockVectorIndex) Count(_ context.Context) (int64, error) {
	return int64(len(m.upserted)), nil
}

func (m *mockVectorIndex) Ping(_ context.Context) error {
	return nil
}

func (m *mockVectorIndex) Close() error {
	return nil
}

// mockTableStore implements driven.TableStore for testing.
type mockTableStore struct {
	records []domain.TableRecord
	findErr error

	inserted      []domain.TableRecord
	deleteFilters []domain.TableFilter
	findFilters   []domain.TableFilter
	findLimits    []int
}

func (m *mockTableStore) InsertTables(_ context.Context, records []domain.TableRecord) (int, error) {
	m.inserted = append(m.inserted, records...)
	return len(records), nil
}

func (m *mockTableStore) FindTables(_ context.Context, filter domain.TableFilter, limit int) ([]domain.TableRecord, error) {
	m.findFilters = append(m.findFilters, filter)
	m.findLimits = append(m.findLimits, limit)
	if m.findErr != nil {
		return nil, m.findErr
	}
	var matched []domain.TableRecord
	for _, record := range m.records {
		if filter.SourceFilename != "" && record.SourceFilename != filter.SourceFilename {
			continue
		}
		matched = append(matched, record)
		if len(matched) == limit {
			break
		}
	}
	return matched, nil
}

func (m *mockTableStore) DeleteTables(_ context.Context, filter domain.TableFilter) (int64, error) {
	m.deleteFilters = append(m.deleteFilters, filter)
	var remaining []domain.TableRecord
	var removed int64
	for _, record := range m.records {
		if filter.SourceFilename == "" || record.SourceFilename == filter.SourceFilename {
			removed++
			continue
		}
		remaining = append(remaining, record)
	}
	m.records = remaining
	return removed, nil
}

func (m *mockTableStore) SourceFilenames(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var names []string
	for _, record := range m.records {
		if !seen[record.SourceFilename] {
			seen[record.SourceFilename] = true
			names = append(names, record.SourceFilename)
		}
	}
	return names, nil
}

func (m *mockTableStore) Count(_ context.Context) (int64, error) {
	return int64(len(m.records)), nil
}

func (m *mockTableStore) Ping(_ context.Context) error {
	return nil
}

func (m *mockTableStore) Close() error {
	return nil
}

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	reply   string
	chatErr error

	messages []driven.ChatMessage
	opts     driven.ChatOptions
	calls    int
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.calls++
	m.messages = append([]driven.ChatMessage(nil), messages...)
	m.opts = opts
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.reply, nil
}

func (m *mockLLM) ModelName() string {
	return "mock-llm"
}

func (m *mockLLM) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLM) Close() error {
	return nil
}

// mockCacheBackend implements driven.CacheBackend for testing.
type mockCacheBackend struct {
	mu      sync.Mutex
	entries map[string][]byte

	getErr error
	setErr error

	hits   int64
	misses int64
}

func newMockCacheBackend() *mockCacheBackend {
	return &mockCacheBackend{entries: map[string][]byte{}}
}

func (m *mockCacheBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	value, ok := m.entries[key]
	if ok {
		m.hits++
	} else {
		m.misses++
	}
	return value, ok, nil
}

func (m *mockCacheBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[key] = append([]byte(nil), value...)
	return nil
}

func (m *mockCacheBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *mockCacheBackend) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = map[string][]byte{}
	return nil
}

func (m *mockCacheBackend) Stats(_ context.Context) driven.CacheStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return driven.CacheStats{
		Backend:   "mock",
		Entries:   int64(len(m.entries)),
		Hits:      m.hits,
		Misses:    m.misses,
		Available: true,
	}
}

func (m *mockCacheBackend) Ping(_ context.Context) error {
	return nil
}

func (m *mockCacheBackend) Close() error {
	return nil
}
