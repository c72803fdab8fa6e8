package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfqa/internal/domain"
)

func rec(id, text string, vec ...float32) domain.StoredRecord {
	return domain.StoredRecord{ID: id, Text: text, Embedding: vec}
}

func TestInsertRejectsDimensionMismatch(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Init(context.Background(), 3))

	err := s.Insert(context.Background(), []domain.StoredRecord{rec("a", "a", 1, 0)})
	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
}

func TestInitRejectsChangedDimension(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Init(context.Background(), 3))
	err := s.Init(context.Background(), 4)
	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
}

func TestNearestOrdersByDescendingSimilarity(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, 2))
	require.NoError(t, s.Insert(ctx, []domain.StoredRecord{
		rec("orthogonal", "orthogonal", 0, 1),
		rec("exact", "exact", 1, 0),
		rec("diagonal", "diagonal", 1, 1),
	}))

	results, err := s.Nearest(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "exact", results[0].Text)
	assert.Equal(t, "diagonal", results[1].Text)
	assert.Equal(t, "orthogonal", results[2].Text)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestNearestCapsAtK(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, 2))
	require.NoError(t, s.Insert(ctx, []domain.StoredRecord{
		rec("a", "a", 1, 0), rec("b", "b", 0.9, 0.1), rec("c", "c", 0.8, 0.2),
	}))

	results, err := s.Nearest(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestNearestTiesAreDeterministic(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, 2))
	require.NoError(t, s.Insert(ctx, []domain.StoredRecord{
		rec("first", "first", 1, 0),
		rec("second", "second", 1, 0),
	}))

	for i := 0; i < 5; i++ {
		results, err := s.Nearest(ctx, []float32{1, 0}, 2)
		require.NoError(t, err)
		assert.Equal(t, "first", results[0].Text)
		assert.Equal(t, "second", results[1].Text)
	}
}

func TestClearEmptiesStore(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, 2))
	require.NoError(t, s.Insert(ctx, []domain.StoredRecord{rec("a", "a", 1, 0)}))
	require.NoError(t, s.Clear(ctx))

	results, err := s.Nearest(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
