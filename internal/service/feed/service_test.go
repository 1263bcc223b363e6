package feed_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/crushapp/crush-server/internal/app"
	"github.com/crushapp/crush-server/internal/async"
	"github.com/crushapp/crush-server/internal/cache"
	"github.com/crushapp/crush-server/internal/config"
	"github.com/crushapp/crush-server/internal/db"
	svcErr "github.com/crushapp/crush-server/internal/errors"
	"github.com/crushapp/crush-server/internal/geo"
	"github.com/crushapp/crush-server/internal/repository"
	"github.com/crushapp/crush-server/internal/service/feed"
)

type noopChat struct{}

func (noopChat) CreateRoom(_ context.Context, requestedID string, _, _, _ uint64) (string, error) {
	return requestedID, nil
}

type noopNotifier struct{}

func (noopNotifier) NotifyLike(context.Context, uint64, uint64, string) error  { return nil }
func (noopNotifier) NotifyMatch(context.Context, uint64, uint64, string) error { return nil }

type noopGeocoder struct{}

func (noopGeocoder) LocationName(context.Context, float64, float64) (string, error) {
	return "", nil
}

// Base point for all seeded locations. 0.01° of longitude at this latitude
// is roughly 0.88 km.
const (
	baseLon = -122.4194
	baseLat = 37.7749
)

func setupService(t *testing.T) (*feed.Service, *app.AppContext) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(&db.User{}, &db.Swipe{}, &db.Like{}, &db.Block{}, &db.Match{}))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	redisCache := cache.NewRedisCache(cfg)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pool := async.NewPool(1, 4, logger)
	t.Cleanup(pool.Stop)

	appCtx := app.New(cfg, gdb, redisCache, geo.NewIndex(redisCache.Client), pool,
		noopChat{}, noopNotifier{}, noopGeocoder{}, logger)
	return feed.NewFeedService(appCtx), appCtx
}

func seedUser(t *testing.T, appCtx *app.AppContext, u db.User, lonOffset float64) {
	t.Helper()
	require.NoError(t, appCtx.DB.Create(&u).Error)
	require.NoError(t, appCtx.Locations.Upsert(context.Background(), u.ID, baseLon+lonOffset, baseLat))
}

// seedScenario builds the canonical feed situation: requester 1 (male, 25,
// prefers female) plus candidates covering every exclusion reason.
func seedScenario(t *testing.T, appCtx *app.AppContext) {
	t.Helper()
	ctx := context.Background()

	seedUser(t, appCtx, db.User{ID: 1, Nickname: "alex", Age: 25, Gender: "male", PreferredGenders: "female", OnboardingComplete: true}, 0)

	// Eligible: right age, right gender, ~4.4 km away.
	seedUser(t, appCtx, db.User{ID: 2, Nickname: "bella", Age: 25, Gender: "female", PreferredGenders: "male", OnboardingComplete: true, LocationName: "San Francisco, California"}, 0.05)

	// Age outside the 20-30 filter.
	seedUser(t, appCtx, db.User{ID: 3, Nickname: "cara", Age: 40, Gender: "female", PreferredGenders: "male", OnboardingComplete: true}, 0.05)

	// Too far for a 20 km filter (~44 km).
	seedUser(t, appCtx, db.User{ID: 4, Nickname: "dina", Age: 25, Gender: "female", PreferredGenders: "male", OnboardingComplete: true}, 0.5)

	// Wrong gender for the requester's preference.
	seedUser(t, appCtx, db.User{ID: 5, Nickname: "evan", Age: 25, Gender: "male", PreferredGenders: "female", OnboardingComplete: true}, 0.05)

	// Candidate whose own preference excludes the requester.
	seedUser(t, appCtx, db.User{ID: 6, Nickname: "faye", Age: 25, Gender: "female", PreferredGenders: "female", OnboardingComplete: true}, 0.05)

	// Deleted and not-yet-onboarded profiles.
	seedUser(t, appCtx, db.User{ID: 7, Nickname: "gone", Age: 25, Gender: "female", PreferredGenders: "male", OnboardingComplete: true, Deleted: true}, 0.05)
	seedUser(t, appCtx, db.User{ID: 8, Nickname: "new", Age: 25, Gender: "female", PreferredGenders: "male", OnboardingComplete: false}, 0.05)

	// Already decided on.
	seedUser(t, appCtx, db.User{ID: 9, Nickname: "iris", Age: 25, Gender: "female", PreferredGenders: "male", OnboardingComplete: true}, 0.05)
	_, err := repository.NewSwipeRepository(appCtx.DB).Create(ctx, 1, 9, db.SwipePass)
	require.NoError(t, err)

	// Blocked, one edge per direction.
	seedUser(t, appCtx, db.User{ID: 10, Nickname: "june", Age: 25, Gender: "female", PreferredGenders: "male", OnboardingComplete: true}, 0.05)
	require.NoError(t, repository.NewBlockRepository(appCtx.DB).Create(ctx, 1, 10))
	seedUser(t, appCtx, db.User{ID: 11, Nickname: "kim", Age: 25, Gender: "female", PreferredGenders: "male", OnboardingComplete: true}, 0.05)
	require.NoError(t, repository.NewBlockRepository(appCtx.DB).Create(ctx, 11, 1))
}

// TestFeedAppliesAllFilters is the end-to-end eligibility check: of ten
// nearby users only bella survives the filter, exclusion, and preference
// passes.
func TestFeedAppliesAllFilters(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	seedScenario(t, appCtx)

	resp, err := svc.BuildFeed(ctx, 1, feed.Filter{
		MinAge: 20, MaxAge: 30, MinDistanceKm: 1, MaxDistanceKm: 20,
	}, false)
	require.NoError(t, err)

	require.Len(t, resp.Profiles, 1)
	card := resp.Profiles[0]
	assert.Equal(t, uint64(2), card.UserID)
	assert.Equal(t, "bella", card.Nickname)
	assert.Equal(t, "San Francisco, California", card.LocationName)
	assert.InDelta(t, 4.4, card.DistanceKm, 0.5)
	assert.Equal(t, 1, resp.TotalCount)
	assert.False(t, resp.HasMore)
}

// TestFeedMinDistance: candidates closer than the minimum are filtered out.
func TestFeedMinDistance(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	seedScenario(t, appCtx)

	resp, err := svc.BuildFeed(ctx, 1, feed.Filter{
		MinAge: 20, MaxAge: 30, MinDistanceKm: 10, MaxDistanceKm: 50,
	}, false)
	require.NoError(t, err)

	// bella (~4.4 km) is now too close; dina (~44 km) is the only candidate.
	require.Len(t, resp.Profiles, 1)
	assert.Equal(t, uint64(4), resp.Profiles[0].UserID)
}

// TestFeedEmptyWithoutLocation: no recorded position means an empty feed,
// not an error.
func TestFeedEmptyWithoutLocation(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	user := db.User{ID: 1, Nickname: "alex", Age: 25, Gender: "male", OnboardingComplete: true}
	require.NoError(t, appCtx.DB.Create(&user).Error)

	resp, err := svc.BuildFeed(ctx, 1, feed.Filter{}, false)
	require.NoError(t, err)
	assert.Empty(t, resp.Profiles)
	assert.Zero(t, resp.TotalCount)
	assert.False(t, resp.HasMore)
}

func TestFeedUnknownUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.BuildFeed(ctx, 42, feed.Filter{}, false)
	assert.True(t, errors.Is(err, svcErr.ErrNotFound))
}

func TestFeedInvalidFilter(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	seedUser(t, appCtx, db.User{ID: 1, Nickname: "alex", Age: 25, Gender: "male", OnboardingComplete: true}, 0)

	cases := []feed.Filter{
		{MinAge: 17, MaxAge: 30},
		{MinAge: 30, MaxAge: 20},
		{MinAge: 20, MaxAge: 101},
		{MinDistanceKm: 0.5, MaxDistanceKm: 10},
		{MinDistanceKm: 30, MaxDistanceKm: 10},
		{MinDistanceKm: 1, MaxDistanceKm: 80},
	}
	for _, filter := range cases {
		_, err := svc.BuildFeed(ctx, 1, filter, false)
		assert.True(t, errors.Is(err, svcErr.ErrInvalidFilter), "filter %+v", filter)
	}
}

// TestFeedBatchSizes: the initial batch is larger than a refill, and HasMore
// reports leftover candidates.
func TestFeedBatchSizes(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	seedUser(t, appCtx, db.User{ID: 1, Nickname: "alex", Age: 25, Gender: "male", PreferredGenders: "female", OnboardingComplete: true}, 0)
	for i := uint64(2); i <= 21; i++ { // 20 eligible candidates
		seedUser(t, appCtx, db.User{
			ID: i, Nickname: fmt.Sprintf("user%d", i), Age: 25, Gender: "female",
			PreferredGenders: "male", OnboardingComplete: true,
		}, 0.03+float64(i)*0.001)
	}

	initial, err := svc.BuildFeed(ctx, 1, feed.Filter{}, false)
	require.NoError(t, err)
	assert.Len(t, initial.Profiles, appCtx.Cfg.Feed.InitialBatchSize)
	assert.Equal(t, appCtx.Cfg.Feed.InitialBatchSize, initial.TotalCount)
	assert.True(t, initial.HasMore)

	refill, err := svc.BuildFeed(ctx, 1, feed.Filter{}, true)
	require.NoError(t, err)
	assert.Len(t, refill.Profiles, appCtx.Cfg.Feed.RefillBatchSize)
	assert.Equal(t, appCtx.Cfg.Feed.RefillBatchSize, refill.TotalCount)
	assert.True(t, refill.HasMore)
}

// TestFeedOpenPreferences: an empty preference list means no gender
// restriction on that side.
func TestFeedOpenPreferences(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	seedUser(t, appCtx, db.User{ID: 1, Nickname: "alex", Age: 25, Gender: "male", PreferredGenders: "", OnboardingComplete: true}, 0)
	seedUser(t, appCtx, db.User{ID: 2, Nickname: "bella", Age: 25, Gender: "female", PreferredGenders: "", OnboardingComplete: true}, 0.05)
	seedUser(t, appCtx, db.User{ID: 3, Nickname: "evan", Age: 25, Gender: "male", PreferredGenders: "", OnboardingComplete: true}, 0.05)

	resp, err := svc.BuildFeed(ctx, 1, feed.Filter{}, false)
	require.NoError(t, err)

	ids := make([]uint64, 0, len(resp.Profiles))
	for _, card := range resp.Profiles {
		ids = append(ids, card.UserID)
	}
	assert.ElementsMatch(t, []uint64{2, 3}, ids)
}
