package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docqa/agent/internal/domain"
)

func chunk(text string) domain.Chunk {
	return domain.Chunk{Text: text, Metadata: domain.ChunkMetadata{Filename: "f", Source: "local"}}
}

func TestSearchRanksByCosineSimilarity(t *testing.T) {
	ctx := context.Background()
	s := New(2)
	require.NoError(t, s.Init(ctx))

	require.NoError(t, s.Upsert(ctx,
		[]domain.Chunk{chunk("north"), chunk("east"), chunk("northeast")},
		[][]float32{{0, 1}, {1, 0}, {0.7071, 0.7071}}))

	results, err := s.Search(ctx, []float32{0, 1}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "north", results[0].Chunk.Text)
	assert.Equal(t, "northeast", results[1].Chunk.Text)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchEmptyStoreReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	s := New(2)
	require.NoError(t, s.Init(ctx))

	results, err := s.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUpsertRejectsDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := New(3)
	require.NoError(t, s.Init(ctx))
	err := s.Upsert(ctx, []domain.Chunk{chunk("x")}, [][]float32{{1, 0}})
	assert.Error(t, err)
}

func TestUpsertRejectsLengthMismatch(t *testing.T) {
	ctx := context.Background()
	s := New(2)
	require.NoError(t, s.Init(ctx))
	err := s.Upsert(ctx, []domain.Chunk{chunk("x"), chunk("y")}, [][]float32{{1, 0}})
	assert.Error(t, err)
}

func TestCountAndClear(t *testing.T) {
	ctx := context.Background()
	s := New(2)
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{chunk("x")}, [][]float32{{1, 0}}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.Clear(ctx))
	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestInitRejectsInvalidDimension(t *testing.T) {
	s := New(0)
	assert.Error(t, s.Init(context.Background()))
}
