// Package unstructured provides a document partitioner backed by an
// Unstructured partition API endpoint (hosted or self-deployed). The file
// is uploaded as multipart form data and comes back as a typed element
// sequence.
package unstructured

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sift-labs/tableqa/internal/core/domain"
	"github.com/sift-labs/tableqa/internal/core/ports/driven"
)

// Ensure Partitioner implements the interface.
var _ driven.Partitioner = (*Partitioner)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 5 * time.Minute

	partitionPath = "/general/v0/general"
)

// Config holds configuration for the Unstructured partitioner.
type Config struct {
	// BaseURL is the partition API endpoint (default: http://localhost:8000).
	BaseURL string

	// APIKey authenticates against the hosted API; empty for self-hosted.
	APIKey string

	// Timeout is the request timeout. Partitioning large PDFs with hi_res
	// layout detection is slow, so the default is generous (5m).
	Timeout time.Duration
}

// Partitioner parses documents via the Unstructured partition API.
type Partitioner struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// element is the API's element format; only the fields the domain model
// carries are decoded.
type element struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Metadata struct {
		TextAsHTML  string `json:"text_as_html"`
		PageNumber  int    `json:"page_number"`
		Filename    string `json:"filename"`
		ParentID    string `json:"parent_id"`
		Coordinates struct {
			Points [][]float64 `json:"points"`
		} `json:"coordinates"`
	} `json:"metadata"`
}

// NewPartitioner creates an Unstructured API partitioner.
func NewPartitioner(cfg Config) *Partitioner {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Partitioner{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

// Partition uploads the file and returns its elements in reading order.
func (p *Partitioner) Partition(ctx context.Context, path string, strategy domain.Strategy) ([]domain.DocumentElement, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy file: %w", err)
	}
	if err := writer.WriteField("strategy", string(strategy)); err != nil {
		return nil, fmt.Errorf("write strategy field: %w", err)
	}
	// Tables come back with text_as_html populated only when asked for.
	if err := writer.WriteField("extract_image_block_types", "[]"); err != nil {
		return nil, fmt.Errorf("write field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+partitionPath, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("unstructured-api-key", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if strategyUnavailable(resp.StatusCode, body) {
			return nil, fmt.Errorf("strategy %s rejected by partition API: %w", strategy, domain.ErrStrategyUnavailable)
		}
		return nil, fmt.Errorf("partition API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiElements []element
	if err := json.Unmarshal(body, &apiElements); err != nil {
		return nil, fmt.Errorf("decode elements: %w", err)
	}

	elements := make([]domain.DocumentElement, len(apiElements))
	for i, el := range apiElements {
		elements[i] = domain.DocumentElement{
			Type: domain.ElementType(el.Type),
			Text: el.Text,
			HTML: el.Metadata.TextAsHTML,
			Metadata: domain.ElementMetadata{
				PageNumber:  el.Metadata.PageNumber,
				Filename:    el.Metadata.Filename,
				Coordinates: el.Metadata.Coordinates.Points,
				ParentID:    el.Metadata.ParentID,
			},
		}
	}
	return elements, nil
}

// Ping validates the partition API is reachable via its healthcheck.
func (p *Partitioner) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/healthcheck", http.NoBody)
	if err != nil {
		return fmt.Errorf("unstructured: failed to create ping request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("unstructured: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unstructured: API returned status %d", resp.StatusCode)
	}
	return nil
}

// strategyUnavailable recognises the API rejecting a strategy the
// deployment cannot run (hi_res without its model assets installed).
func strategyUnavailable(status int, body []byte) bool {
	if status != http.StatusBadRequest && status != http.StatusUnprocessableEntity {
		return false
	}
	return strings.Contains(strings.ToLower(string(body)), "strategy")
}
