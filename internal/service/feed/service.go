package feed

import (
	"context"
	"math"
	"math/rand"

	"github.com/crushapp/crush-server/internal/app"
	"github.com/crushapp/crush-server/internal/db"
	svcErr "github.com/crushapp/crush-server/internal/errors"
	"github.com/crushapp/crush-server/internal/repository"
)

// Filter bounds for candidate age and distance.
const (
	minFilterAge        = 18
	maxFilterAge        = 100
	minFilterDistanceKm = 1.0
	maxFilterDistanceKm = 50.0
)

// Filter is the requester's candidate criteria. Zero values are filled with
// the widest allowed range before validation.
type Filter struct {
	MinAge        int     `json:"minAge" form:"minAge"`
	MaxAge        int     `json:"maxAge" form:"maxAge"`
	MinDistanceKm float64 `json:"minDistanceKm" form:"minDistanceKm"`
	MaxDistanceKm float64 `json:"maxDistanceKm" form:"maxDistanceKm"`
}

// normalize fills unset fields with the widest range, then validates.
func (f *Filter) normalize() error {
	if f.MinAge == 0 {
		f.MinAge = minFilterAge
	}
	if f.MaxAge == 0 {
		f.MaxAge = maxFilterAge
	}
	if f.MinDistanceKm == 0 {
		f.MinDistanceKm = minFilterDistanceKm
	}
	if f.MaxDistanceKm == 0 {
		f.MaxDistanceKm = maxFilterDistanceKm
	}

	if f.MinAge < minFilterAge || f.MaxAge > maxFilterAge || f.MinAge > f.MaxAge {
		return svcErr.InvalidFilter("age range must satisfy 18 <= min <= max <= 100")
	}
	if f.MinDistanceKm < minFilterDistanceKm || f.MaxDistanceKm > maxFilterDistanceKm ||
		f.MinDistanceKm > f.MaxDistanceKm {
		return svcErr.InvalidFilter("distance range must satisfy 1 <= min <= max <= 50 km")
	}
	return nil
}

// Card is one candidate profile in the feed.
type Card struct {
	UserID       uint64  `json:"userId"`
	Nickname     string  `json:"nickname"`
	Age          int     `json:"age"`
	Gender       string  `json:"gender"`
	PrimaryPhoto string  `json:"primaryPhoto,omitempty"`
	LocationName string  `json:"locationName,omitempty"`
	DistanceKm   float64 `json:"distanceKm"`
}

// Response is one feed batch. TotalCount is the number of cards in this
// batch; HasMore reports whether more eligible candidates remained after
// truncation to the batch size.
type Response struct {
	Profiles   []Card `json:"profiles"`
	TotalCount int    `json:"totalCount"`
	HasMore    bool   `json:"hasMore"`
}

// Service assembles swipe feeds: geo radius query, exclusion of already
// decided and blocked users, preference filtering, shuffle, truncate.
type Service struct {
	appCtx  *app.AppContext
	users   *repository.UserRepository
	swipes  *repository.SwipeRepository
	blocks  *repository.BlockRepository
	matches *repository.MatchRepository
}

func NewFeedService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		users:   repository.NewUserRepository(appCtx.DB),
		swipes:  repository.NewSwipeRepository(appCtx.DB),
		blocks:  repository.NewBlockRepository(appCtx.DB),
		matches: repository.NewMatchRepository(appCtx.DB),
	}
}

// BuildFeed returns the next batch of candidates for userID. The initial
// batch is larger than refills so the first screen is full while refills
// stay cheap. A requester with no recorded location gets an empty feed.
func (s *Service) BuildFeed(ctx context.Context, userID uint64, filter Filter, refill bool) (*Response, error) {
	if err := filter.normalize(); err != nil {
		return nil, err
	}

	requester, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	neighbors, err := s.appCtx.Locations.Nearby(ctx, userID, filter.MaxDistanceKm, s.appCtx.Cfg.Feed.NearbyLimit)
	if err != nil {
		return nil, err
	}
	if len(neighbors) == 0 {
		return &Response{Profiles: []Card{}, HasMore: false}, nil
	}

	excluded, err := s.excludedIDs(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	distances := make(map[uint64]float64, len(neighbors))
	candidateIDs := make([]uint64, 0, len(neighbors))
	for _, n := range neighbors {
		if n.DistanceKm < filter.MinDistanceKm || excluded[n.UserID] {
			continue
		}
		distances[n.UserID] = n.DistanceKm
		candidateIDs = append(candidateIDs, n.UserID)
	}
	if len(candidateIDs) == 0 {
		return &Response{Profiles: []Card{}, HasMore: false}, nil
	}

	candidates, err := s.users.GetByIDs(ctx, candidateIDs)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	eligible := make([]*db.User, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		candidate, ok := candidates[id]
		if !ok {
			// Stale geo entry for a purged user row; skip it.
			continue
		}
		if s.eligible(requester, candidate, filter) {
			eligible = append(eligible, candidate)
		}
	}

	rand.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})

	batchSize := s.appCtx.Cfg.Feed.InitialBatchSize
	if refill {
		batchSize = s.appCtx.Cfg.Feed.RefillBatchSize
	}
	hasMore := len(eligible) > batchSize
	if hasMore {
		eligible = eligible[:batchSize]
	}

	cards := make([]Card, 0, len(eligible))
	for _, candidate := range eligible {
		cards = append(cards, Card{
			UserID:       candidate.ID,
			Nickname:     candidate.Nickname,
			Age:          candidate.Age,
			Gender:       candidate.Gender,
			PrimaryPhoto: candidate.PrimaryPhoto,
			LocationName: candidate.LocationName,
			DistanceKm:   math.Round(distances[candidate.ID]*10) / 10,
		})
	}

	s.appCtx.Logger.Debug("feed built",
		"user", userID, "nearby", len(neighbors), "eligible", len(cards), "has_more", hasMore, "refill", refill)

	return &Response{Profiles: cards, TotalCount: len(cards), HasMore: hasMore}, nil
}

// excludedIDs is the set of users that never appear in userID's feed:
// anyone already decided on, plus blocks in either direction.
func (s *Service) excludedIDs(ctx context.Context, userID uint64) (map[uint64]bool, error) {
	excluded := map[uint64]bool{userID: true}

	decided, err := s.swipes.DecidedUserIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	blockedByMe, err := s.blocks.BlockedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	blockedMe, err := s.blocks.BlockersOfUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, id := range decided {
		excluded[id] = true
	}
	for _, id := range blockedByMe {
		excluded[id] = true
	}
	for _, id := range blockedMe {
		excluded[id] = true
	}
	return excluded, nil
}

// eligible applies the profile-level predicate: candidate is live and
// onboarded, inside the age filter, and the gender preferences of both
// sides are compatible (an empty preference list means no restriction).
func (s *Service) eligible(requester, candidate *db.User, filter Filter) bool {
	if candidate.Deleted || !candidate.OnboardingComplete {
		return false
	}
	if candidate.Age < filter.MinAge || candidate.Age > filter.MaxAge {
		return false
	}
	if wants := requester.PreferredGenderSet(); len(wants) > 0 && !wants[candidate.Gender] {
		return false
	}
	if wants := candidate.PreferredGenderSet(); len(wants) > 0 && !wants[requester.Gender] {
		return false
	}
	return true
}
