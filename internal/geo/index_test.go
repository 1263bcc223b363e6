package geo_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crushapp/crush-server/internal/geo"
)

func setupIndex(t *testing.T) *geo.Index {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return geo.NewIndex(client)
}

// Base point in central San Francisco; offsets below are in degrees of
// longitude (~0.88 km each 0.01 at this latitude).
const (
	baseLon = -122.4194
	baseLat = 37.7749
)

func TestNearbySortedAndSelfExcluded(t *testing.T) {
	ctx := context.Background()
	idx := setupIndex(t)

	require.NoError(t, idx.Upsert(ctx, 1, baseLon, baseLat))
	require.NoError(t, idx.Upsert(ctx, 2, baseLon+0.015, baseLat))   // ~1.3 km
	require.NoError(t, idx.Upsert(ctx, 3, baseLon+0.06, baseLat))    // ~5.3 km
	require.NoError(t, idx.Upsert(ctx, 4, baseLon+2.0, baseLat+2.0)) // far away

	neighbors, err := idx.Nearby(ctx, 1, 10, 100)
	require.NoError(t, err)

	require.Len(t, neighbors, 2)
	assert.Equal(t, uint64(2), neighbors[0].UserID)
	assert.Equal(t, uint64(3), neighbors[1].UserID)
	assert.Less(t, neighbors[0].DistanceKm, neighbors[1].DistanceKm)
	assert.Greater(t, neighbors[0].DistanceKm, 0.0)
}

func TestNearbyLimit(t *testing.T) {
	ctx := context.Background()
	idx := setupIndex(t)

	require.NoError(t, idx.Upsert(ctx, 1, baseLon, baseLat))
	for i := uint64(2); i <= 6; i++ {
		require.NoError(t, idx.Upsert(ctx, i, baseLon+float64(i)*0.01, baseLat))
	}

	neighbors, err := idx.Nearby(ctx, 1, 50, 3)
	require.NoError(t, err)
	assert.Len(t, neighbors, 3)
}

// TestNearbyWithoutLocation: a user with no recorded point gets an empty
// result, not an error.
func TestNearbyWithoutLocation(t *testing.T) {
	ctx := context.Background()
	idx := setupIndex(t)

	require.NoError(t, idx.Upsert(ctx, 2, baseLon, baseLat))

	neighbors, err := idx.Nearby(ctx, 1, 10, 100)
	require.NoError(t, err)
	assert.Empty(t, neighbors)
}

func TestUpsertOverwritesAndRemove(t *testing.T) {
	ctx := context.Background()
	idx := setupIndex(t)

	require.NoError(t, idx.Upsert(ctx, 1, baseLon, baseLat))
	require.NoError(t, idx.Upsert(ctx, 1, baseLon+1.0, baseLat+1.0))

	lon, _, ok, err := idx.Position(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, baseLon+1.0, lon, 0.001)

	require.NoError(t, idx.Remove(ctx, 1))
	_, _, ok, err = idx.Position(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing an absent member is not an error.
	require.NoError(t, idx.Remove(ctx, 1))
}

func TestDistanceKm(t *testing.T) {
	// San Francisco to Oakland is roughly 13 km.
	d := geo.DistanceKm(37.7749, -122.4194, 37.8044, -122.2712)
	assert.InDelta(t, 13.4, d, 1.0)

	assert.Equal(t, 0.0, geo.DistanceKm(37.7749, -122.4194, 37.7749, -122.4194))
}
