// Package qdrant provides a vector index adapter backed by Qdrant's REST
// API. It assumes cosine distance and keeps one collection per deployment.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sift-labs/tableqa/internal/core/domain"
	"github.com/sift-labs/tableqa/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:6333"
	DefaultCollection = "document_chunks"
	DefaultTimeout    = 30 * time.Second
)

// Config holds configuration for the Qdrant vector index.
type Config struct {
	// BaseURL is the Qdrant REST endpoint (default: http://localhost:6333).
	BaseURL string

	// APIKey authenticates requests when the deployment requires it.
	APIKey string

	// Collection is the collection name (default: document_chunks).
	Collection string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Index is a Qdrant-backed vector index.
type Index struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	collection string
}

// NewIndex creates a Qdrant vector index client.
func NewIndex(cfg Config) *Index {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Index{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
	}
}

// point is the Qdrant point format for upserts.
type point struct {
	ID      string           `json:"id"`
	Vector  []float32        `json:"vector"`
	Payload domain.TextChunk `json:"payload"`
}

// match is a Qdrant exact-match condition.
type match struct {
	Key   string `json:"key"`
	Match struct {
		Value string `json:"value"`
	} `json:"match"`
}

// filterBody is a Qdrant must-filter.
type filterBody struct {
	Must []match `json:"must,omitempty"`
}

// sourceFilter builds an exact-match filter on source_filename.
func sourceFilter(sourceFilename string) *filterBody {
	var m match
	m.Key = "source_filename"
	m.Match.Value = sourceFilename
	return &filterBody{Must: []match{m}}
}

// EnsureCollection creates the collection with cosine distance if missing.
func (x *Index) EnsureCollection(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("invalid dimensions %d: %w", dimensions, domain.ErrInvalidInput)
	}

	// Existing collections are left untouched: re-creating with a different
	// dimensionality must be an explicit Clear first.
	status, err := x.do(ctx, http.MethodGet, "/collections/"+x.collection, nil, nil)
	if err == nil && status == http.StatusOK {
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimensions,
			"distance": "Cosine",
		},
	}
	if _, err := x.do(ctx, http.MethodPut, "/collections/"+x.collection, body, nil); err != nil {
		return fmt.Errorf("create collection %s: %w", x.collection, err)
	}
	return nil
}

// Upsert writes the points and waits for them to be indexed.
func (x *Index) Upsert(ctx context.Context, points []domain.VectorPoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	payload := make([]point, len(points))
	for i, p := range points {
		payload[i] = point{ID: p.ID, Vector: p.Vector, Payload: p.Payload}
	}

	body := map[string]any{"points": payload}
	if _, err := x.do(ctx, http.MethodPut, "/collections/"+x.collection+"/points?wait=true", body, nil); err != nil {
		return 0, fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	return len(points), nil
}

// Search returns up to limit chunks ranked by descending similarity.
func (x *Index) Search(ctx context.Context, query []float32, limit int, filter *domain.ChunkFilter) ([]domain.ScoredChunk, error) {
	req := map[string]any{
		"vector":       query,
		"limit":        limit,
		"with_payload": true,
	}
	if filter != nil && filter.SourceFilename != "" {
		req["filter"] = sourceFilter(filter.SourceFilename)
	}

	var resp struct {
		Result []struct {
			Score   float64          `json:"score"`
			Payload domain.TextChunk `json:"payload"`
		} `json:"result"`
	}
	if _, err := x.do(ctx, http.MethodPost, "/collections/"+x.collection+"/points/search", req, &resp); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]domain.ScoredChunk, len(resp.Result))
	for i, r := range resp.Result {
		hits[i] = domain.ScoredChunk{Score: r.Score, Payload: r.Payload}
	}
	return hits, nil
}

// DeleteBySource removes every point belonging to the given document.
func (x *Index) DeleteBySource(ctx context.Context, sourceFilename string) error {
	body := map[string]any{"filter": sourceFilter(sourceFilename)}
	if _, err := x.do(ctx, http.MethodPost, "/collections/"+x.collection+"/points/delete?wait=true", body, nil); err != nil {
		return fmt.Errorf("delete points for %q: %w", sourceFilename, err)
	}
	return nil
}

// Clear removes all stored points by matching the empty filter.
func (x *Index) Clear(ctx context.Context) error {
	body := map[string]any{"filter": filterBody{}}
	if _, err := x.do(ctx, http.MethodPost, "/collections/"+x.collection+"/points/delete?wait=true", body, nil); err != nil {
		return fmt.Errorf("clear collection: %w", err)
	}
	return nil
}

// Count returns the exact number of stored points.
func (x *Index) Count(ctx context.Context) (int64, error) {
	var resp struct {
		Result struct {
			Count int64 `json:"count"`
		} `json:"result"`
	}
	body := map[string]any{"exact": true}
	if _, err := x.do(ctx, http.MethodPost, "/collections/"+x.collection+"/points/count", body, &resp); err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return resp.Result.Count, nil
}

// Ping validates the Qdrant endpoint is reachable.
func (x *Index) Ping(ctx context.Context) error {
	status, err := x.do(ctx, http.MethodGet, "/collections", nil, nil)
	if err != nil {
		return fmt.Errorf("qdrant: ping failed: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("qdrant: ping returned status %d", status)
	}
	return nil
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

// do sends one JSON request and decodes the response into out when non-nil.
// A non-2xx status is an error except for GETs, whose status is returned
// for the caller to inspect.
func (x *Index) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, x.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 && method != http.MethodGet {
		return resp.StatusCode, fmt.Errorf("qdrant %s %s: status %d: %s", method, path, resp.StatusCode, string(raw))
	}

	if out != nil && resp.StatusCode < 300 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
