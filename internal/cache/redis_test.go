package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crushapp/crush-server/internal/cache"
	"github.com/crushapp/crush-server/internal/config"
)

func setupCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	c := cache.NewRedisCache(cfg)
	t.Cleanup(func() { c.Client.Close() })
	require.NoError(t, c.Ping(context.Background()))
	return c, mr
}

func TestLikeCountRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	_, ok, err := c.GetLikeCount(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetLikeCount(ctx, 7, 3))
	n, ok, err := c.GetLikeCount(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3), n)

	c.BumpLikeCount(ctx, 7, 1)
	n, ok, err = c.GetLikeCount(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(4), n)
}

// TestBumpLikeCountColdCache: bumping an absent counter must not mint one.
// A counter born at the delta would hide the real DB total behind a
// single-digit value until expiry.
func TestBumpLikeCountColdCache(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	c.BumpLikeCount(ctx, 7, 1)

	_, ok, err := c.GetLikeCount(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok, "cold cache must stay cold so the next read hits the DB")
}

// TestLikeCountTTLRefresh: a read refreshes the TTL so active users keep a
// warm counter.
func TestLikeCountTTLRefresh(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	require.NoError(t, c.SetLikeCount(ctx, 7, 3))

	mr.FastForward(30 * time.Minute)
	_, ok, err := c.GetLikeCount(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)

	// Without the refresh the key would be 15 minutes from expiry here.
	mr.FastForward(45 * time.Minute)
	_, ok, err = c.GetLikeCount(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Hour)
	_, ok, err = c.GetLikeCount(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestGeocodeCellSharing: coordinates in the same ~5km cell share one cached
// entry; a clearly different coordinate does not.
func TestGeocodeCellSharing(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	require.NoError(t, c.SetGeocode(ctx, 37.7749, -122.4194, "San Francisco, California"))

	name, ok, err := c.GetGeocode(ctx, 37.7751, -122.4189)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "San Francisco, California", name)

	_, ok, err = c.GetGeocode(ctx, 37.9, -122.4194)
	require.NoError(t, err)
	assert.False(t, ok)
}
