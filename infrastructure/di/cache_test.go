package di

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()
	defer c.Close()

	require.NoError(t, c.Set(ctx, "workflows:u1:1:20", "page", 60))
	require.NoError(t, c.Set(ctx, "workflows:u1:2:20", "page2", 60))
	require.NoError(t, c.Set(ctx, "workflows:u2:1:20", "other", 60))

	v, ok := c.Get(ctx, "workflows:u1:1:20")
	require.True(t, ok)
	assert.Equal(t, "page", v)

	require.NoError(t, c.DeletePrefix(ctx, "workflows:u1:"))
	_, ok = c.Get(ctx, "workflows:u1:1:20")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "workflows:u1:2:20")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "workflows:u2:1:20")
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "workflows:u2:1:20"))
	assert.Zero(t, c.Len())
}

func TestInMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	time.Sleep(time.Millisecond)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	c.removeExpired(time.Now())
	assert.Zero(t, c.Len())

	c.Close()
	c.Close()
}
