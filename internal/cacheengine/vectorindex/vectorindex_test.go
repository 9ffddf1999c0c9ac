package vectorindex_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueberrycongee/semcache/internal/cacheengine/vectorindex"
)

func TestEmptyIndexReturnsEmptyWithoutError(t *testing.T) {
	idx := vectorindex.NewFlatIndex(3, nil)
	ids, err := idx.Get(context.Background(), []float32{1, 0, 0}, 1, 0.5)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPutAndGetExactMatch(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewFlatIndex(3, nil)
	require.NoError(t, idx.Put(ctx, 1, []float32{0, 1, 0}))

	ids, err := idx.Get(ctx, []float32{0, 1, 0}, 1, 0.9)
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, ids)
}

func TestThresholdFiltersLowSimilarity(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewFlatIndex(3, nil)
	require.NoError(t, idx.Put(ctx, 1, []float32{1, 0, 0}))

	ids, err := idx.Get(ctx, []float32{0, 1, 0}, 1, 0.5)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestGetOrdersByDescendingSimilarity(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewFlatIndex(3, nil)
	require.NoError(t, idx.Put(ctx, 1, []float32{0, 0.99, 0.1}))
	require.NoError(t, idx.Put(ctx, 2, []float32{0, 1, 0}))

	ids, err := idx.Get(ctx, []float32{0, 1, 0}, 2, 0.0)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, uint64(2), ids[0], "closer vector must rank first")
}

func TestDeleteRemovesEntry(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewFlatIndex(3, nil)
	require.NoError(t, idx.Put(ctx, 1, []float32{0, 1, 0}))
	require.NoError(t, idx.Delete(ctx, 1))

	ids, err := idx.Get(ctx, []float32{0, 1, 0}, 1, 0.5)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDeleteMissingIDIsNotAnError(t *testing.T) {
	idx := vectorindex.NewFlatIndex(3, nil)
	assert.NoError(t, idx.Delete(context.Background(), 999))
}

func TestMemoryUsageBytesFormula(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewFlatIndex(4, nil)
	require.NoError(t, idx.Put(ctx, 1, []float32{1, 0, 0, 0}))
	require.NoError(t, idx.Put(ctx, 2, []float32{0, 1, 0, 0}))

	// ceil(1.2 * 2 * 4 * 4) = ceil(38.4) = 39
	assert.Equal(t, uint64(39), idx.MemoryUsageBytes())
}

func TestDimensionMismatchIsRejected(t *testing.T) {
	idx := vectorindex.NewFlatIndex(3, nil)
	err := idx.Put(context.Background(), 1, []float32{1, 0})
	require.Error(t, err)
	var dimErr *vectorindex.ErrDimensionMismatch
	assert.ErrorAs(t, err, &dimErr)
}
