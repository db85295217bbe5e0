package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTLCache()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), time.Minute))
	b, ok, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), b)

	now = now.Add(2 * time.Minute)
	_, ok, err = c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTLCacheZeroTTLNeverExpires(t *testing.T) {
	now := time.Now()
	c := NewTTLCache()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), 0))
	now = now.Add(24 * time.Hour)
	_, ok, _ := c.GetBytes(ctx, "k")
	assert.True(t, ok)
}

func TestTTLCacheMiss(t *testing.T) {
	_, ok, err := NewTTLCache().GetBytes(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheImplementsBytesCache(t *testing.T) {
	var _ BytesCache = NewRedisCache(RedisConfig{Addr: "localhost:0"})
	var _ BytesCache = NewTTLCache()
}
