package geo

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	svcErr "github.com/crushapp/crush-server/internal/errors"
)

const (
	locationKey  = "user_locations"
	memberPrefix = "user:"
)

// Neighbor is one user within a radius query, annotated with the distance
// the store computed. Distances are km, great-circle.
type Neighbor struct {
	UserID     uint64
	DistanceKm float64
	Longitude  float64
	Latitude   float64
}

// Index is the geospatial store mapping user id to current coordinate,
// backed by a single Redis GEO set. Entries are written only by the user
// they key on, so there is no cross-user write contention.
type Index struct {
	client *redis.Client
}

func NewIndex(client *redis.Client) *Index {
	return &Index{client: client}
}

func member(userID uint64) string {
	return memberPrefix + strconv.FormatUint(userID, 10)
}

// Upsert records the user's current coordinate. Last write wins; idempotent.
func (i *Index) Upsert(ctx context.Context, userID uint64, lon, lat float64) error {
	err := i.client.GeoAdd(ctx, locationKey, &redis.GeoLocation{
		Name:      member(userID),
		Longitude: lon,
		Latitude:  lat,
	}).Err()
	if err != nil {
		return svcErr.StoreUnavailable(fmt.Errorf("geo upsert: %w", err))
	}
	return nil
}

// Remove deletes the user's coordinate. No error if absent.
func (i *Index) Remove(ctx context.Context, userID uint64) error {
	if err := i.client.ZRem(ctx, locationKey, member(userID)).Err(); err != nil {
		return svcErr.StoreUnavailable(fmt.Errorf("geo remove: %w", err))
	}
	return nil
}

// Position returns the user's recorded coordinate, or ok=false when the
// user has no point.
func (i *Index) Position(ctx context.Context, userID uint64) (lon, lat float64, ok bool, err error) {
	pos, err := i.client.GeoPos(ctx, locationKey, member(userID)).Result()
	if err != nil {
		return 0, 0, false, svcErr.StoreUnavailable(fmt.Errorf("geo pos: %w", err))
	}
	if len(pos) == 0 || pos[0] == nil {
		return 0, 0, false, nil
	}
	return pos[0].Longitude, pos[0].Latitude, true, nil
}

// Nearby returns neighbors within radiusKm of userID's own recorded point,
// sorted ascending by distance and truncated to limit. The querying user is
// excluded. A user with no recorded location gets an empty result, not an
// error.
func (i *Index) Nearby(ctx context.Context, userID uint64, radiusKm float64, limit int) ([]Neighbor, error) {
	self := member(userID)

	// Resolve the center first: a user with no recorded point gets an empty
	// feed, and radius-by-member on a missing member is a Redis error.
	if _, _, ok, err := i.Position(ctx, userID); err != nil {
		return nil, err
	} else if !ok {
		return nil, nil
	}

	locs, err := i.client.GeoRadiusByMember(ctx, locationKey, self, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
		Count:     limit + 1, // the member itself is always in range
	}).Result()
	if err != nil {
		return nil, svcErr.StoreUnavailable(fmt.Errorf("geo radius: %w", err))
	}

	neighbors := make([]Neighbor, 0, len(locs))
	for _, loc := range locs {
		if loc.Name == self {
			continue
		}
		id, err := strconv.ParseUint(strings.TrimPrefix(loc.Name, memberPrefix), 10, 64)
		if err != nil {
			continue
		}
		neighbors = append(neighbors, Neighbor{
			UserID:     id,
			DistanceKm: loc.Dist,
			Longitude:  loc.Longitude,
			Latitude:   loc.Latitude,
		})
		if len(neighbors) == limit {
			break
		}
	}
	return neighbors, nil
}

// DistanceKm computes the great-circle distance between two coordinates.
// Used for the moved-far-enough geocoding trigger, not for feed filtering
// (feeds use the store's distances).
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371

	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
