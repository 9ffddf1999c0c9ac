package responsestore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueberrycongee/semcache/internal/cacheengine/responsestore"
)

func TestPutAndGetRoundTrip(t *testing.T) {
	s := responsestore.New[string](nil)
	s.Put(1, "hello")

	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, "hello", got)
}

func TestGetMissingReturnsFalse(t *testing.T) {
	s := responsestore.New[string](nil)
	_, ok := s.Get(42)
	assert.False(t, ok)
}

func TestByteTotalTracksInsertsAndReplaces(t *testing.T) {
	s := responsestore.New[[]byte](nil)
	s.Put(1, []byte("abc"))
	first := s.MemoryUsageBytes()
	assert.Greater(t, first, uint64(0))

	s.Put(1, []byte("a"))
	second := s.MemoryUsageBytes()
	assert.Less(t, second, first, "shrinking a replaced payload must shrink the byte total")
}

func TestPopLRUEvictsLeastRecentlyUsed(t *testing.T) {
	s := responsestore.New[string](nil)
	s.Put(1, "one")
	s.Put(2, "two")
	s.Put(3, "three")

	// Touch id 1 so it becomes most-recently-used, leaving 2 as the LRU
	// victim ahead of 1 and 3.
	_, _ = s.Get(1)

	id, ok := s.PopLRU()
	require.True(t, ok)
	assert.Equal(t, uint64(2), id)
}

func TestPopLRUOnEmptyStoreReturnsFalse(t *testing.T) {
	s := responsestore.New[string](nil)
	_, ok := s.PopLRU()
	assert.False(t, ok)
}

func TestLenReflectsInsertsAndPops(t *testing.T) {
	s := responsestore.New[string](nil)
	s.Put(1, "a")
	s.Put(2, "b")
	assert.Equal(t, 2, s.Len())

	_, _ = s.PopLRU()
	assert.Equal(t, 1, s.Len())
}

func TestByteTotalIsZeroAfterDrainingAllEntries(t *testing.T) {
	s := responsestore.New[[]byte](nil)
	s.Put(1, []byte("abc"))
	s.Put(2, []byte("defgh"))

	for {
		if _, ok := s.PopLRU(); !ok {
			break
		}
	}
	assert.Equal(t, uint64(0), s.MemoryUsageBytes())
}
