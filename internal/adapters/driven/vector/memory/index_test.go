package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sift-labs/tableqa/internal/core/domain"
)

func pointAt(id string, vector []float32, source, text string) domain.VectorPoint {
	return domain.VectorPoint{
		ID:     id,
		Vector: vector,
		Payload: domain.TextChunk{
			Text:           text,
			SourceFilename: source,
		},
	}
}

func seededIndex(t *testing.T) *Index {
	t.Helper()
	index := NewIndex()
	ctx := context.Background()
	require.NoError(t, index.EnsureCollection(ctx, 2))

	_, err := index.Upsert(ctx, []domain.VectorPoint{
		pointAt("a", []float32{1, 0}, "report.pdf", "revenue figures"),
		pointAt("b", []float32{0.9, 0.1}, "report.pdf", "cost figures"),
		pointAt("c", []float32{0, 1}, "notes.pdf", "methodology"),
	})
	require.NoError(t, err)
	return index
}

func TestIndex_SearchRanksByCosine(t *testing.T) {
	index := seededIndex(t)

	hits, err := index.Search(context.Background(), []float32{1, 0}, 3, nil)

	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "revenue figures", hits[0].Payload.Text)
	assert.Equal(t, "cost figures", hits[1].Payload.Text)
	assert.Equal(t, "methodology", hits[2].Payload.Text)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.InDelta(t, 0.0, hits[2].Score, 1e-9)
}

func TestIndex_SearchHonoursLimitAndFilter(t *testing.T) {
	index := seededIndex(t)
	ctx := context.Background()

	hits, err := index.Search(ctx, []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hits, err = index.Search(ctx, []float32{1, 0}, 3, &domain.ChunkFilter{SourceFilename: "notes.pdf"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "methodology", hits[0].Payload.Text)
}

func TestIndex_UpsertReplacesByID(t *testing.T) {
	index := seededIndex(t)
	ctx := context.Background()

	_, err := index.Upsert(ctx, []domain.VectorPoint{
		pointAt("a", []float32{0, 1}, "report.pdf", "replaced"),
	})
	require.NoError(t, err)

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	hits, err := index.Search(ctx, []float32{0, 1}, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "replaced", hits[0].Payload.Text)
}

func TestIndex_DeleteBySource(t *testing.T) {
	index := seededIndex(t)
	ctx := context.Background()

	require.NoError(t, index.DeleteBySource(ctx, "report.pdf"))

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	hits, err := index.Search(ctx, []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "notes.pdf", hits[0].Payload.SourceFilename)
}

func TestIndex_Clear(t *testing.T) {
	index := seededIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Clear(ctx))

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIndex_DimensionMismatch(t *testing.T) {
	index := NewIndex()
	ctx := context.Background()
	require.NoError(t, index.EnsureCollection(ctx, 2))

	assert.ErrorIs(t, index.EnsureCollection(ctx, 3), domain.ErrInvalidInput)

	_, err := index.Upsert(ctx, []domain.VectorPoint{pointAt("x", []float32{1, 2, 3}, "a.pdf", "t")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndex_SearchEmptyIndex(t *testing.T) {
	index := NewIndex()

	hits, err := index.Search(context.Background(), []float32{1, 0}, 3, nil)

	require.NoError(t, err)
	assert.Empty(t, hits)
}
