package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(10, time.Minute)

	c.Set(ctx, "cats_all_relevance", []byte(`[1]`))
	got, ok := c.Get(ctx, "cats_all_relevance")
	require.True(t, ok)
	assert.Equal(t, []byte(`[1]`), got)

	_, ok = c.Get(ctx, "dogs_all_relevance")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, 1, stats.CurrentSize)
}

func TestMemory_EvictsOldestBeyondSize(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(3, 0)

	for i := 0; i < 5; i++ {
		c.Set(ctx, fmt.Sprintf("q%d", i), []byte{byte(i)})
	}

	assert.Equal(t, 3, c.Stats().CurrentSize)
	assert.Equal(t, int64(2), c.Stats().Evictions)
	_, ok := c.Get(ctx, "q0")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "q4")
	assert.True(t, ok)
}

func TestMemory_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0, 0)

	c.Set(ctx, "k", []byte("v"))
	c.Delete(ctx, "k")
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemory_Expires(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(10, 20*time.Millisecond)

	c.Set(ctx, "k", []byte("v"))
	assert.Eventually(t, func() bool {
		_, ok := c.Get(ctx, "k")
		return !ok
	}, time.Second, 10*time.Millisecond)
}
