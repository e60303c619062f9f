package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sift-labs/tableqa/internal/core/domain"
)

func scored(text string, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{Score: score, Payload: domain.TextChunk{Text: text}}
}

func TestOptimizeResults_SortsAndTruncates(t *testing.T) {
	results := []domain.ScoredChunk{
		scored("low", 0.2),
		scored("high", 0.9),
		scored("mid", 0.5),
	}

	got := OptimizeResults(results, 2, 0.0)

	require.Len(t, got, 2)
	assert.Equal(t, "high", got[0].Payload.Text)
	assert.Equal(t, "mid", got[1].Payload.Text)
}

func TestOptimizeResults_Threshold(t *testing.T) {
	results := []domain.ScoredChunk{
		scored("keep", 0.7),
		scored("drop", 0.3),
	}

	got := OptimizeResults(results, 10, 0.5)

	require.Len(t, got, 1)
	assert.Equal(t, "keep", got[0].Payload.Text)
}

func TestOptimizeResults_StableForEqualScores(t *testing.T) {
	results := []domain.ScoredChunk{
		scored("first", 0.5),
		scored("second", 0.5),
	}

	got := OptimizeResults(results, 10, 0.0)

	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Payload.Text)
	assert.Equal(t, "second", got[1].Payload.Text)
}

func TestDeduplicate(t *testing.T) {
	results := []domain.ScoredChunk{
		scored("same text", 0.9),
		scored("  same text  ", 0.8),
		scored("other text", 0.7),
		scored("", 0.6),
	}

	got := Deduplicate(results, ChunkText)

	require.Len(t, got, 2)
	assert.Equal(t, 0.9, got[0].Score)
	assert.Equal(t, "other text", got[1].Payload.Text)
}

func TestMerge_WeightsModalities(t *testing.T) {
	vectorResults := []domain.ScoredChunk{scored("chunk", 0.8)}
	tableResults := []ScoredTable{{Score: 1.0, Record: domain.TableRecord{TableID: "table_0"}}}

	got := Merge(vectorResults, tableResults)

	require.Len(t, got, 2)
	// 0.8 vector beats 1.0*0.8 table only on stable order; both weigh 0.8.
	assert.InDelta(t, 0.8, got[0].Score, 1e-9)
	assert.InDelta(t, 0.8, got[1].Score, 1e-9)
	assert.Equal(t, "vector", got[0].Kind)
	assert.Equal(t, "table", got[1].Kind)
}

func TestMerge_RanksAcrossModalities(t *testing.T) {
	vectorResults := []domain.ScoredChunk{scored("weak chunk", 0.5)}
	tableResults := []ScoredTable{{Score: 0.9, Record: domain.TableRecord{TableID: "table_0"}}}

	got := Merge(vectorResults, tableResults)

	require.Len(t, got, 2)
	assert.Equal(t, "table", got[0].Kind)
	assert.InDelta(t, 0.72, got[0].Score, 1e-9)
	assert.Equal(t, "vector", got[1].Kind)
}
