package cacheengine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueberrycongee/semcache/internal/cacheengine"
	"github.com/blueberrycongee/semcache/internal/cacheengine/vectorindex"
)

func newTestCache(t *testing.T, policy cacheengine.EvictionPolicy, threshold float64) *cacheengine.Cache[string] {
	t.Helper()
	idx := vectorindex.NewFlatIndex(3, nil)
	return cacheengine.New[string](3, threshold, policy, idx)
}

func mustInsert(t *testing.T, c *cacheengine.Cache[string], ctx context.Context, embedding []float32, response string) uint64 {
	t.Helper()
	id, err := c.Insert(ctx, embedding, response)
	require.NoError(t, err)
	return id
}

func TestHitAfterExactPut(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, cacheengine.NewEntryLimit(4), 0.9)

	mustInsert(t, c, ctx, []float32{0, 1, 0}, "R1")

	got, ok, err := c.GetIfPresent(ctx, []float32{0, 1, 0})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "R1", got)
}

func TestSemanticHitUnderThreshold(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, cacheengine.NewEntryLimit(4), 0.9)

	mustInsert(t, c, ctx, []float32{0, 1, 0}, "R1")

	got, ok, err := c.GetIfPresent(ctx, []float32{0, 0.99, 0})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "R1", got)
}

func TestMissBelowThreshold(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, cacheengine.NewEntryLimit(4), 0.9)

	mustInsert(t, c, ctx, []float32{0, 1, 0}, "R1")

	_, ok, err := c.GetIfPresent(ctx, []float32{1, 0, 0})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRankingPrefersHigherSimilarity(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, cacheengine.NewEntryLimit(4), 0.9)

	mustInsert(t, c, ctx, []float32{0, 0.99, 0.1}, "A")
	mustInsert(t, c, ctx, []float32{0, 1, 0}, "B")

	got, ok, err := c.GetIfPresent(ctx, []float32{0, 1, 0})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "B", got)
}

func TestEntryLimitEviction(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, cacheengine.NewEntryLimit(2), 0.9)

	mustInsert(t, c, ctx, []float32{1, 0, 0}, "one")
	mustInsert(t, c, ctx, []float32{0, 1, 0}, "two")
	mustInsert(t, c, ctx, []float32{0, 0, 1}, "three")

	// EntryLimit(2) evaluated with >= stabilizes the store at N-1 after
	// the first overflow: exactly one survivor, the most recent.
	assert.Equal(t, 1, c.Len())

	_, ok, err := c.GetIfPresent(ctx, []float32{0, 0, 1})
	require.NoError(t, err)
	assert.True(t, ok, "most recently inserted entry must survive eviction")

	_, ok, err = c.GetIfPresent(ctx, []float32{1, 0, 0})
	require.NoError(t, err)
	assert.False(t, ok, "earliest entry must be evicted")
}

func TestTryUpdateReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, cacheengine.NewEntryLimit(4), 0.9)

	embedding := []float32{0, 1, 0}
	mustInsert(t, c, ctx, embedding, "old")

	ok, err := c.TryUpdate(ctx, embedding, "new")
	require.NoError(t, err)
	require.True(t, ok)

	got, found, err := c.GetIfPresent(ctx, embedding)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "new", got)
	assert.Equal(t, 1, c.Len())
}

func TestTryUpdateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, cacheengine.NewEntryLimit(4), 0.9)

	embedding := []float32{0, 1, 0}
	mustInsert(t, c, ctx, embedding, "v1")

	ok1, err := c.TryUpdate(ctx, embedding, "v2")
	require.NoError(t, err)
	ok2, err := c.TryUpdate(ctx, embedding, "v2")
	require.NoError(t, err)

	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, 1, c.Len())
}

func TestTryUpdateMissingReturnsFalse(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, cacheengine.NewEntryLimit(4), 0.9)

	ok, err := c.TryUpdate(ctx, []float32{0, 1, 0}, "never inserted")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEmptyIndexSearchReturnsMissWithoutPanic(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, cacheengine.NewEntryLimit(4), 0.9)

	_, ok, err := c.GetIfPresent(ctx, []float32{1, 2, 3})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestByteLimitEvictionConsidersIndexOverhead(t *testing.T) {
	ctx := context.Background()
	// Each entry costs 64+10 = 74 response bytes. Two entries are 148
	// response bytes, under the limit on their own, but the index adds
	// ceil(1.2*2*3*4) = 29, giving 177 >= 150, so the oldest is evicted.
	// One entry left costs 74 + 15 = 89 < 150.
	c := newTestCache(t, cacheengine.NewByteLimit(150), 0.9)

	mustInsert(t, c, ctx, []float32{1, 0, 0}, "aaaaaaaaaa")
	mustInsert(t, c, ctx, []float32{0, 1, 0}, "bbbbbbbbbb")

	assert.Equal(t, 1, c.Len())
}

func TestSearchCandidatesReturnsMultipleResults(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, cacheengine.NewEntryLimit(10), 0.0)

	mustInsert(t, c, ctx, []float32{1, 0, 0}, "a")
	mustInsert(t, c, ctx, []float32{0, 1, 0}, "b")

	ids, responses, err := c.SearchCandidates(ctx, []float32{1, 1, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.ElementsMatch(t, []string{"a", "b"}, responses)
}
