package services

import (
	"sort"
	"strings"

	"github.com/sift-labs/tableqa/internal/core/domain"
	"github.com/sift-labs/tableqa/internal/logger"
)

// Modality weights applied when a single ranked list across both
// retrieval paths is required.
const (
	vectorWeight = 1.0
	tableWeight  = 0.8
)

// ScoredTable pairs a table record with a relevance score assigned by the
// serving layer, for cross-modality merging.
type ScoredTable struct {
	Score  float64            `json:"score"`
	Record domain.TableRecord `json:"record"`
}

// MergedResult is one entry of a combined vector+table ranking.
type MergedResult struct {
	// Kind is "vector" or "table".
	Kind string `json:"kind"`

	// Score is the weighted score used for ranking.
	Score float64 `json:"score"`

	// Chunk is set when Kind is "vector".
	Chunk *domain.ScoredChunk `json:"chunk,omitempty"`

	// Table is set when Kind is "table".
	Table *ScoredTable `json:"table,omitempty"`
}

// OptimizeResults filters out hits below the score threshold, sorts the
// remainder by descending score, and truncates to maxResults.
func OptimizeResults(results []domain.ScoredChunk, maxResults int, scoreThreshold float64) []domain.ScoredChunk {
	filtered := make([]domain.ScoredChunk, 0, len(results))
	for _, r := range results {
		if r.Score >= scoreThreshold {
			filtered = append(filtered, r)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Score > filtered[j].Score
	})

	if maxResults > 0 && len(filtered) > maxResults {
		filtered = filtered[:maxResults]
	}

	logger.Debug("optimized %d results to %d (threshold %.2f)", len(results), len(filtered), scoreThreshold)
	return filtered
}

// Deduplicate keeps the first occurrence per distinct trimmed key value,
// preserving order. Results whose key is empty are dropped.
func Deduplicate(results []domain.ScoredChunk, key func(domain.ScoredChunk) string) []domain.ScoredChunk {
	seen := make(map[string]struct{}, len(results))
	unique := make([]domain.ScoredChunk, 0, len(results))

	for _, r := range results {
		value := strings.TrimSpace(key(r))
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		unique = append(unique, r)
	}

	if removed := len(results) - len(unique); removed > 0 {
		logger.Debug("removed %d duplicate results", removed)
	}
	return unique
}

// ChunkText keys deduplication by the chunk's text content.
func ChunkText(r domain.ScoredChunk) string {
	return r.Payload.Text
}

// Merge combines vector and table results into a single ranking, weighting
// vector hits at 1.0 and table hits at 0.8, sorted by descending weighted
// score.
func Merge(vectorResults []domain.ScoredChunk, tableResults []ScoredTable) []MergedResult {
	merged := make([]MergedResult, 0, len(vectorResults)+len(tableResults))

	for i := range vectorResults {
		merged = append(merged, MergedResult{
			Kind:  "vector",
			Score: vectorResults[i].Score * vectorWeight,
			Chunk: &vectorResults[i],
		})
	}
	for i := range tableResults {
		merged = append(merged, MergedResult{
			Kind:  "table",
			Score: tableResults[i].Score * tableWeight,
			Table: &tableResults[i],
		})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	logger.Debug("merged %d vector + %d table results", len(vectorResults), len(tableResults))
	return merged
}
