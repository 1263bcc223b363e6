package swipe

import (
	"context"
	"errors"

	"github.com/crushapp/crush-server/internal/app"
	"github.com/crushapp/crush-server/internal/db"
	svcErr "github.com/crushapp/crush-server/internal/errors"
	"github.com/crushapp/crush-server/internal/matchmaker"
	"github.com/crushapp/crush-server/internal/repository"
)

// MatchedUser is the partner summary returned when a swipe completes a
// match, enough for the client's match screen without a second fetch.
type MatchedUser struct {
	UserID       uint64 `json:"userId"`
	Nickname     string `json:"nickname"`
	PrimaryPhoto string `json:"primaryPhoto,omitempty"`
}

// Response is the outcome of one synchronous swipe.
type Response struct {
	IsMatch     bool         `json:"isMatch"`
	ChatRoomID  string       `json:"chatRoomId,omitempty"`
	MatchedUser *MatchedUser `json:"matchedUser,omitempty"`
	Message     string       `json:"message"`
}

// Service records swipe decisions and drives match detection on likes.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
	swipes *repository.SwipeRepository
	likes  *repository.LikeRepository
	engine *matchmaker.Engine
}

func NewSwipeService(appCtx *app.AppContext) *Service {
	likes := repository.NewLikeRepository(appCtx.DB)
	matches := repository.NewMatchRepository(appCtx.DB)
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
		swipes: repository.NewSwipeRepository(appCtx.DB),
		likes:  likes,
		engine: matchmaker.NewEngine(
			likes, matches, appCtx.Chat, appCtx.Notifier, appCtx.Pool, appCtx.Logger,
		),
	}
}

// Swipe records actor's decision on target. The ledger is append-only: a
// second decision on the same target is a conflict, never an overwrite.
func (s *Service) Swipe(ctx context.Context, actorID, targetID uint64, kind string) (*Response, error) {
	if kind != db.SwipeLike && kind != db.SwipePass {
		return nil, svcErr.InvalidArgument("kind must be LIKE or PASS")
	}
	if targetID == 0 {
		return nil, svcErr.InvalidArgument("targetUserId is required")
	}
	if actorID == targetID {
		return nil, svcErr.InvalidArgument("cannot swipe on yourself")
	}

	actor, err := s.users.Get(ctx, actorID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	target, err := s.users.Get(ctx, targetID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	if _, err := s.swipes.Create(ctx, actorID, targetID, kind); err != nil {
		mapped := svcErr.Map(err)
		if errors.Is(mapped, svcErr.ErrConflict) {
			return nil, svcErr.Conflict("already swiped on this user")
		}
		return nil, mapped
	}

	if kind == db.SwipePass {
		return &Response{Message: "Passed"}, nil
	}

	return s.recordLike(ctx, actor, target)
}

// recordLike writes the reciprocity index entry and runs match detection.
// The swipe ledger row already exists when this is called.
func (s *Service) recordLike(ctx context.Context, actor, target *db.User) (*Response, error) {
	if err := s.likes.Create(ctx, actor.ID, target.ID); err != nil {
		return nil, svcErr.Map(err)
	}
	s.appCtx.RedisCache.BumpLikeCount(ctx, target.ID, 1)

	result, err := s.engine.TryMatch(ctx, actor, target)
	if err != nil {
		return nil, err
	}

	if result.Outcome == matchmaker.OutcomeLikeSent {
		return &Response{Message: "Like sent"}, nil
	}

	return &Response{
		IsMatch:    true,
		ChatRoomID: result.Match.ChatRoomID,
		MatchedUser: &MatchedUser{
			UserID:       target.ID,
			Nickname:     target.Nickname,
			PrimaryPhoto: target.PrimaryPhoto,
		},
		Message: "It's a match!",
	}, nil
}
