package account

import (
	"context"

	"github.com/crushapp/crush-server/internal/app"
	svcErr "github.com/crushapp/crush-server/internal/errors"
	"github.com/crushapp/crush-server/internal/repository"
)

// Service handles account teardown. Deletion is soft: the profile row and
// swipe history survive so match partners keep a consistent view, but the
// user disappears from feeds, liker lists, and the location index.
type Service struct {
	appCtx  *app.AppContext
	users   *repository.UserRepository
	matches *repository.MatchRepository
}

func NewAccountService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		users:   repository.NewUserRepository(appCtx.DB),
		matches: repository.NewMatchRepository(appCtx.DB),
	}
}

// Delete tears down userID's presence: soft-deletes the profile,
// deactivates every match, and drops the location point and cached
// counters. Match rows are deactivated, never deleted.
func (s *Service) Delete(ctx context.Context, userID uint64) error {
	flipped, err := s.users.MarkDeleted(ctx, userID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !flipped {
		return svcErr.NotFound("user not found")
	}

	deactivated, err := s.matches.DeactivateForUser(ctx, userID)
	if err != nil {
		return svcErr.Map(err)
	}

	if err := s.appCtx.Locations.Remove(ctx, userID); err != nil {
		s.appCtx.Logger.Warn("location removal failed during account delete", "user", userID, "err", err)
	}
	if err := s.appCtx.RedisCache.DropLikeCount(ctx, userID); err != nil {
		s.appCtx.Logger.Warn("like count drop failed during account delete", "user", userID, "err", err)
	}

	s.appCtx.Logger.Info("account deleted", "user", userID, "matches_deactivated", deactivated)
	return nil
}
