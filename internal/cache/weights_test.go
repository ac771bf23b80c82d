package cache

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, size int) *WeightCache {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	c, err := NewWeightCache(nil, size, time.Hour, logger)
	require.NoError(t, err)
	return c
}

func TestWeightCacheGetSet(t *testing.T) {
	c := newTestCache(t, 8)
	ctx := context.Background()

	_, ok := c.Get(ctx, "familyGlaucoma", "yes")
	assert.False(t, ok)

	c.Set(ctx, "familyGlaucoma", "yes", 2)

	score, ok := c.Get(ctx, "familyGlaucoma", "yes")
	require.True(t, ok)
	assert.Equal(t, 2, score)
}

func TestWeightCacheKeysAreDistinctPerOption(t *testing.T) {
	c := newTestCache(t, 8)
	ctx := context.Background()

	c.Set(ctx, "race", "black", 2)
	c.Set(ctx, "race", "hispanic", 1)

	score, ok := c.Get(ctx, "race", "black")
	require.True(t, ok)
	assert.Equal(t, 2, score)

	score, ok = c.Get(ctx, "race", "hispanic")
	require.True(t, ok)
	assert.Equal(t, 1, score)
}

func TestWeightCacheEviction(t *testing.T) {
	c := newTestCache(t, 2)
	ctx := context.Background()

	c.Set(ctx, "q1", "yes", 1)
	c.Set(ctx, "q2", "yes", 2)
	c.Set(ctx, "q3", "yes", 3)

	assert.Equal(t, 2, c.Len())

	_, ok := c.Get(ctx, "q1", "yes")
	assert.False(t, ok, "oldest entry should be evicted")
}

func TestWeightCachePurge(t *testing.T) {
	c := newTestCache(t, 8)
	ctx := context.Background()

	c.Set(ctx, "q1", "yes", 1)
	c.Purge()

	assert.Equal(t, 0, c.Len())
	_, ok := c.Get(ctx, "q1", "yes")
	assert.False(t, ok)
}
