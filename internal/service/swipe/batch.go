package swipe

import (
	"context"
	"errors"

	"github.com/crushapp/crush-server/internal/db"
	svcErr "github.com/crushapp/crush-server/internal/errors"
	"github.com/crushapp/crush-server/internal/matchmaker"
)

const maxBatchSize = 100

// BatchItem is one decision in an offline-accumulated batch, e.g. swipes
// queued on the client while the device had no connectivity.
type BatchItem struct {
	TargetUserID uint64 `json:"targetUserId"`
	Kind         string `json:"kind"`
}

// BatchAck is returned immediately; the batch itself is processed on the
// worker pool after the response is sent.
type BatchAck struct {
	Accepted bool `json:"accepted"`
	Count    int  `json:"count"`
}

// batchStats tracks the per-batch accounting. Every item lands in exactly
// one of processed, skipped, or failedTargets.
type batchStats struct {
	processed     int
	skipped       int
	matched       int
	failedTargets []uint64
}

// SubmitBatch validates the envelope, acknowledges, and hands processing to
// the pool. Items are processed in submission order so a LIKE following a
// PASS on the same target within one batch behaves like two serial swipes.
func (s *Service) SubmitBatch(ctx context.Context, actorID uint64, items []BatchItem) (*BatchAck, error) {
	if len(items) == 0 {
		return nil, svcErr.InvalidArgument("batch must contain at least one swipe")
	}
	if len(items) > maxBatchSize {
		return nil, svcErr.InvalidArgument("batch exceeds the maximum of 100 swipes")
	}

	exists, err := s.users.Exists(ctx, actorID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !exists {
		return nil, svcErr.NotFound("user not found")
	}

	batch := make([]BatchItem, len(items))
	copy(batch, items)

	s.appCtx.Pool.Submit(func() {
		// Detached from the request context: the ack has already been sent.
		s.processBatch(context.Background(), actorID, batch)
	})

	return &BatchAck{Accepted: true, Count: len(batch)}, nil
}

// processBatch replays the batch with two upfront bulk reads (target users,
// existing decisions) instead of per-item round trips. A failure on one item
// never aborts the rest.
func (s *Service) processBatch(ctx context.Context, actorID uint64, items []BatchItem) {
	stats := batchStats{}

	actor, err := s.users.Get(ctx, actorID)
	if err != nil {
		s.appCtx.Logger.Error("batch aborted, actor fetch failed", "actor", actorID, "err", err)
		return
	}

	targetIDs := make([]uint64, 0, len(items))
	for _, item := range items {
		targetIDs = append(targetIDs, item.TargetUserID)
	}
	targets, err := s.users.GetByIDs(ctx, targetIDs)
	if err != nil {
		s.appCtx.Logger.Error("batch aborted, target fetch failed", "actor", actorID, "err", err)
		return
	}
	decided, err := s.swipes.DecidedAmong(ctx, actorID, targetIDs)
	if err != nil {
		s.appCtx.Logger.Error("batch aborted, decision fetch failed", "actor", actorID, "err", err)
		return
	}

	seen := make(map[uint64]bool, len(items))
	for _, item := range items {
		s.processItem(ctx, actor, item, targets, decided, seen, &stats)
	}

	s.appCtx.Logger.Info("swipe batch processed",
		"actor", actorID,
		"total", len(items),
		"processed", stats.processed,
		"skipped", stats.skipped,
		"matched", stats.matched,
		"failed", len(stats.failedTargets),
		"failed_targets", stats.failedTargets,
	)
}

func (s *Service) processItem(
	ctx context.Context,
	actor *db.User,
	item BatchItem,
	targets map[uint64]*db.User,
	decided map[uint64]bool,
	seen map[uint64]bool,
	stats *batchStats,
) {
	defer func() {
		if r := recover(); r != nil {
			stats.failedTargets = append(stats.failedTargets, item.TargetUserID)
			s.appCtx.Logger.Error("batch item panicked", "actor", actor.ID, "target", item.TargetUserID, "panic", r)
		}
	}()

	if item.Kind != db.SwipeLike && item.Kind != db.SwipePass {
		stats.failedTargets = append(stats.failedTargets, item.TargetUserID)
		return
	}
	if item.TargetUserID == actor.ID {
		stats.failedTargets = append(stats.failedTargets, item.TargetUserID)
		return
	}
	target, ok := targets[item.TargetUserID]
	if !ok {
		stats.failedTargets = append(stats.failedTargets, item.TargetUserID)
		return
	}

	if decided[item.TargetUserID] || seen[item.TargetUserID] {
		stats.skipped++
		return
	}
	seen[item.TargetUserID] = true

	if _, err := s.swipes.Create(ctx, actor.ID, item.TargetUserID, item.Kind); err != nil {
		// A decision written between the bulk read and this insert is not a
		// failure; the batch simply lost to a live swipe.
		if errors.Is(svcErr.Map(err), svcErr.ErrConflict) {
			stats.skipped++
			return
		}
		stats.failedTargets = append(stats.failedTargets, item.TargetUserID)
		s.appCtx.Logger.Warn("batch item failed", "actor", actor.ID, "target", item.TargetUserID, "err", err)
		return
	}
	stats.processed++

	if item.Kind != db.SwipeLike {
		return
	}

	if err := s.likes.Create(ctx, actor.ID, item.TargetUserID); err != nil {
		s.appCtx.Logger.Warn("batch like index write failed", "actor", actor.ID, "target", item.TargetUserID, "err", err)
		return
	}
	s.appCtx.RedisCache.BumpLikeCount(ctx, item.TargetUserID, 1)

	result, err := s.engine.TryMatch(ctx, actor, target)
	if err != nil {
		s.appCtx.Logger.Warn("batch match check failed", "actor", actor.ID, "target", item.TargetUserID, "err", err)
		return
	}
	if result.Outcome != matchmaker.OutcomeLikeSent {
		stats.matched++
	}
}
