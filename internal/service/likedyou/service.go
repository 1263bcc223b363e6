package likedyou

import (
	"context"
	"errors"
	"time"

	"github.com/crushapp/crush-server/internal/app"
	"github.com/crushapp/crush-server/internal/db"
	svcErr "github.com/crushapp/crush-server/internal/errors"
	"github.com/crushapp/crush-server/internal/matchmaker"
	"github.com/crushapp/crush-server/internal/repository"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
	previewSize     = 3
)

// Liker is one entry in the liked-you list.
type Liker struct {
	UserID       uint64    `json:"userId"`
	Nickname     string    `json:"nickname"`
	Age          int       `json:"age"`
	PrimaryPhoto string    `json:"primaryPhoto,omitempty"`
	LocationName string    `json:"locationName,omitempty"`
	LikedAt      time.Time `json:"likedAt"`
}

// ListResponse is one page of pending likers, newest first.
type ListResponse struct {
	Likers    []Liker `json:"likers"`
	NextToken *string `json:"nextPaginationToken,omitempty"`
}

// PreviewResponse powers the teaser card: total count plus a few photos.
type PreviewResponse struct {
	Count  int64    `json:"count"`
	Photos []string `json:"photos"`
}

// CountResponse is the pending-liker count alone.
type CountResponse struct {
	Count int64 `json:"count"`
}

// ActionResponse is the outcome of deciding on a pending liker. A LIKE on
// someone who already liked you always matches.
type ActionResponse struct {
	IsMatch    bool   `json:"isMatch"`
	ChatRoomID string `json:"chatRoomId,omitempty"`
	Message    string `json:"message"`
}

// Service surfaces users who liked the caller and handles decisions on them.
type Service struct {
	appCtx  *app.AppContext
	users   *repository.UserRepository
	swipes  *repository.SwipeRepository
	likes   *repository.LikeRepository
	blocks  *repository.BlockRepository
	matches *repository.MatchRepository
	engine  *matchmaker.Engine
}

func NewLikedYouService(appCtx *app.AppContext) *Service {
	likes := repository.NewLikeRepository(appCtx.DB)
	matches := repository.NewMatchRepository(appCtx.DB)
	return &Service{
		appCtx:  appCtx,
		users:   repository.NewUserRepository(appCtx.DB),
		swipes:  repository.NewSwipeRepository(appCtx.DB),
		likes:   likes,
		blocks:  repository.NewBlockRepository(appCtx.DB),
		matches: matches,
		engine: matchmaker.NewEngine(
			likes, matches, appCtx.Chat, appCtx.Notifier, appCtx.Pool, appCtx.Logger,
		),
	}
}

// List returns one page of users who liked userID and are still actionable:
// not blocked in either direction, not already matched, profile still live.
func (s *Service) List(ctx context.Context, userID uint64, token *string, limit int) (*ListResponse, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	likes, nextToken, err := s.likes.ListLikersOf(ctx, userID, token, limit)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if len(likes) == 0 {
		return &ListResponse{Likers: []Liker{}}, nil
	}

	hidden, err := s.hiddenIDs(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	likerIDs := make([]uint64, 0, len(likes))
	for _, l := range likes {
		if !hidden[l.FromUserID] {
			likerIDs = append(likerIDs, l.FromUserID)
		}
	}
	profiles, err := s.users.GetByIDs(ctx, likerIDs)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	likers := make([]Liker, 0, len(likes))
	for _, l := range likes {
		profile, ok := profiles[l.FromUserID]
		if !ok || profile.Deleted || !profile.OnboardingComplete {
			continue
		}
		likers = append(likers, Liker{
			UserID:       profile.ID,
			Nickname:     profile.Nickname,
			Age:          profile.Age,
			PrimaryPhoto: profile.PrimaryPhoto,
			LocationName: profile.LocationName,
			LikedAt:      l.CreatedAt,
		})
	}

	return &ListResponse{Likers: likers, NextToken: nextToken}, nil
}

// Preview returns the pending count with up to a few liker photos. The
// client blurs them; this service just picks the newest ones.
func (s *Service) Preview(ctx context.Context, userID uint64) (*PreviewResponse, error) {
	count, err := s.count(ctx, userID)
	if err != nil {
		return nil, err
	}

	page, err := s.List(ctx, userID, nil, previewSize)
	if err != nil {
		return nil, err
	}

	photos := make([]string, 0, previewSize)
	for _, liker := range page.Likers {
		if liker.PrimaryPhoto != "" {
			photos = append(photos, liker.PrimaryPhoto)
		}
	}

	return &PreviewResponse{Count: count, Photos: photos}, nil
}

// Count returns how many users like userID, cache-first with a DB fallback.
func (s *Service) Count(ctx context.Context, userID uint64) (*CountResponse, error) {
	count, err := s.count(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &CountResponse{Count: count}, nil
}

func (s *Service) count(ctx context.Context, userID uint64) (int64, error) {
	if cached, ok, err := s.appCtx.RedisCache.GetLikeCount(ctx, userID); err == nil && ok {
		return cached, nil
	}

	count, err := s.likes.CountLikersOf(ctx, userID)
	if err != nil {
		return 0, svcErr.Map(err)
	}
	if err := s.appCtx.RedisCache.SetLikeCount(ctx, userID, count); err != nil {
		s.appCtx.Logger.Warn("like count cache write failed", "user", userID, "err", err)
	}
	return count, nil
}

// Action records userID's decision on likerID, who must already like them.
//
// Unlike the feed path, a prior PASS here does not conflict: seeing who
// liked you is a second chance, so any earlier decision on the liker is
// superseded. A LIKE therefore always completes a match.
func (s *Service) Action(ctx context.Context, userID, likerID uint64, kind string) (*ActionResponse, error) {
	if kind != db.SwipeLike && kind != db.SwipePass {
		return nil, svcErr.InvalidArgument("kind must be LIKE or PASS")
	}
	if userID == likerID {
		return nil, svcErr.InvalidArgument("cannot act on yourself")
	}

	actor, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	liker, err := s.users.Get(ctx, likerID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	likedYou, err := s.likes.Exists(ctx, likerID, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !likedYou {
		return nil, svcErr.Forbidden("this user has not liked you")
	}

	alreadyMatched, err := s.matches.ExistsActivePair(ctx, userID, likerID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if alreadyMatched {
		return nil, svcErr.Conflict("already matched with this user")
	}

	if err := s.swipes.DeletePair(ctx, userID, likerID); err != nil {
		return nil, svcErr.Map(err)
	}
	if _, err := s.swipes.Create(ctx, userID, likerID, kind); err != nil {
		return nil, svcErr.Map(err)
	}

	if kind == db.SwipePass {
		return &ActionResponse{Message: "Passed"}, nil
	}

	if err := s.likes.Create(ctx, userID, likerID); err != nil {
		return nil, svcErr.Map(err)
	}
	s.appCtx.RedisCache.BumpLikeCount(ctx, likerID, 1)

	result, err := s.engine.TryMatch(ctx, actor, liker)
	if err != nil {
		return nil, err
	}
	if result.Outcome == matchmaker.OutcomeLikeSent {
		// The reciprocity check just passed, so the like index must have lost
		// the row underneath us; treat it as an internal inconsistency.
		return nil, errors.New("liked-you action did not produce a match")
	}

	return &ActionResponse{
		IsMatch:    true,
		ChatRoomID: result.Match.ChatRoomID,
		Message:    "It's a match!",
	}, nil
}

// hiddenIDs: likers never shown in the list. Blocks in either direction and
// existing active matches.
func (s *Service) hiddenIDs(ctx context.Context, userID uint64) (map[uint64]bool, error) {
	hidden := make(map[uint64]bool)

	blockedByMe, err := s.blocks.BlockedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	blockedMe, err := s.blocks.BlockersOfUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	partners, err := s.matches.ActivePartnerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, id := range blockedByMe {
		hidden[id] = true
	}
	for _, id := range blockedMe {
		hidden[id] = true
	}
	for _, id := range partners {
		hidden[id] = true
	}
	return hidden, nil
}
