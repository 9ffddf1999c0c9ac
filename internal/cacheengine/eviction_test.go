package cacheengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blueberrycongee/semcache/internal/cacheengine"
)

func TestEntryLimitIsFullUsesGreaterOrEqual(t *testing.T) {
	p := cacheengine.NewEntryLimit(3)
	assert.False(t, p.IsFull(2, 0))
	assert.True(t, p.IsFull(3, 0))
	assert.True(t, p.IsFull(4, 0))
}

func TestByteLimitIsFullUsesGreaterOrEqual(t *testing.T) {
	p := cacheengine.NewByteLimit(1000)
	assert.False(t, p.IsFull(0, 999))
	assert.True(t, p.IsFull(0, 1000))
	assert.True(t, p.IsFull(0, 1001))
}
