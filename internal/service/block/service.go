package block

import (
	"context"
	"errors"

	"github.com/crushapp/crush-server/internal/app"
	svcErr "github.com/crushapp/crush-server/internal/errors"
	"github.com/crushapp/crush-server/internal/repository"
)

// Service manages block edges. A block hides both users from each other's
// feeds and liked-you lists; it does not touch existing match records.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
	blocks *repository.BlockRepository
}

func NewBlockService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
		blocks: repository.NewBlockRepository(appCtx.DB),
	}
}

// Block records blocker → target. Blocking twice is a conflict so clients
// notice state drift instead of silently re-sending.
func (s *Service) Block(ctx context.Context, blockerID, targetID uint64) error {
	if blockerID == targetID {
		return svcErr.InvalidArgument("cannot block yourself")
	}

	exists, err := s.users.Exists(ctx, targetID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !exists {
		return svcErr.NotFound("user not found")
	}

	if err := s.blocks.Create(ctx, blockerID, targetID); err != nil {
		mapped := svcErr.Map(err)
		if errors.Is(mapped, svcErr.ErrConflict) {
			return svcErr.Conflict("user already blocked")
		}
		return mapped
	}

	s.appCtx.Logger.Info("user blocked", "blocker", blockerID, "blocked", targetID)
	return nil
}

// Unblock removes blocker → target, failing when no block exists.
func (s *Service) Unblock(ctx context.Context, blockerID, targetID uint64) error {
	removed, err := s.blocks.Delete(ctx, blockerID, targetID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !removed {
		return svcErr.NotFound("user is not blocked")
	}
	return nil
}
