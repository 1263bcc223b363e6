package location

import (
	"context"

	"github.com/crushapp/crush-server/internal/app"
	svcErr "github.com/crushapp/crush-server/internal/errors"
	"github.com/crushapp/crush-server/internal/geo"
	"github.com/crushapp/crush-server/internal/repository"
)

const (
	defaultNearbyRadiusKm = 10.0
	maxNearbyRadiusKm     = 100.0
	nearbyLimit           = 100
)

// NearbyUser is one entry in the proximity listing.
type NearbyUser struct {
	UserID     uint64  `json:"userId"`
	DistanceKm float64 `json:"distanceKm"`
}

// NearbyResponse lists users around the caller, closest first.
type NearbyResponse struct {
	Users []NearbyUser `json:"users"`
}

// Service maintains the geospatial index and the derived place names.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
}

func NewLocationService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
	}
}

// Save accepts a location fix and returns before the index write completes.
// Fixes arrive on every app foreground, so the write path must never block
// the client on Redis or the geocoder.
func (s *Service) Save(ctx context.Context, userID uint64, lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return svcErr.InvalidArgument("latitude must be in [-90, 90] and longitude in [-180, 180]")
	}

	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !exists {
		return svcErr.NotFound("user not found")
	}

	s.appCtx.Pool.Submit(func() {
		s.applyFix(context.Background(), userID, lat, lon)
	})
	return nil
}

// applyFix writes the coordinate and refreshes the profile's place name when
// this is the first fix or the user moved beyond the geocoding threshold.
// Reverse geocoding is rate limited upstream, so it only runs on real moves.
func (s *Service) applyFix(ctx context.Context, userID uint64, lat, lon float64) {
	oldLon, oldLat, hadFix, err := s.appCtx.Locations.Position(ctx, userID)
	if err != nil {
		s.appCtx.Logger.Warn("previous position lookup failed", "user", userID, "err", err)
		hadFix = false
	}

	if err := s.appCtx.Locations.Upsert(ctx, userID, lon, lat); err != nil {
		s.appCtx.Logger.Error("location write failed", "user", userID, "err", err)
		return
	}

	needsGeocode := !hadFix
	if hadFix {
		moved := geo.DistanceKm(oldLat, oldLon, lat, lon)
		needsGeocode = moved >= s.appCtx.Cfg.Geocode.ThresholdKm
	}
	if !needsGeocode {
		return
	}

	name, err := s.appCtx.Geocoder.LocationName(ctx, lat, lon)
	if err != nil {
		s.appCtx.Logger.Warn("reverse geocode failed", "user", userID, "err", err)
		return
	}
	if name == "" {
		return
	}
	if err := s.users.UpdateLocationName(ctx, userID, name); err != nil {
		s.appCtx.Logger.Warn("location name update failed", "user", userID, "err", err)
		return
	}
	s.appCtx.Logger.Debug("location name updated", "user", userID, "name", name)
}

// Nearby lists users within radiusKm of the caller's recorded position.
func (s *Service) Nearby(ctx context.Context, userID uint64, radiusKm float64) (*NearbyResponse, error) {
	if radiusKm <= 0 {
		radiusKm = defaultNearbyRadiusKm
	}
	if radiusKm > maxNearbyRadiusKm {
		return nil, svcErr.InvalidArgument("radiusKm must not exceed 100")
	}

	neighbors, err := s.appCtx.Locations.Nearby(ctx, userID, radiusKm, nearbyLimit)
	if err != nil {
		return nil, err
	}

	users := make([]NearbyUser, 0, len(neighbors))
	for _, n := range neighbors {
		users = append(users, NearbyUser{UserID: n.UserID, DistanceKm: n.DistanceKm})
	}
	return &NearbyResponse{Users: users}, nil
}

// Delete removes the caller's coordinate from the index. Their feed goes
// empty until the next fix arrives.
func (s *Service) Delete(ctx context.Context, userID uint64) error {
	return s.appCtx.Locations.Remove(ctx, userID)
}
