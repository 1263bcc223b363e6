package matchmaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/crushapp/crush-server/internal/async"
	"github.com/crushapp/crush-server/internal/client"
	"github.com/crushapp/crush-server/internal/db"
	svcErr "github.com/crushapp/crush-server/internal/errors"
	"github.com/crushapp/crush-server/internal/repository"
)

// Outcome of processing one LIKE.
type Outcome string

const (
	// OutcomeLikeSent: no reciprocal like yet; the target gets a
	// "someone liked you" push.
	OutcomeLikeSent Outcome = "LIKE_SENT"

	// OutcomeMatched: this call created the match record.
	OutcomeMatched Outcome = "MATCHED"

	// OutcomeAlreadyMatched: the other side's concurrent like created the
	// match first. Not an error; the caller adopts the existing record.
	OutcomeAlreadyMatched Outcome = "ALREADY_MATCHED"
)

// sideEffectTimeout bounds each collaborator call made off the request
// path, so one slow collaborator cannot stall a batch worker.
const sideEffectTimeout = 5 * time.Second

// Result carries the outcome plus the match record for the two matched
// outcomes. The chat-room id in Match is the same for both concurrent
// callers regardless of who won the insert.
type Result struct {
	Outcome Outcome
	Match   *db.Match
}

// Engine decides whether a LIKE completes a mutual pair and, exactly once
// per pair, creates the match record and kicks off downstream provisioning.
type Engine struct {
	likes   *repository.LikeRepository
	matches *repository.MatchRepository
	chat    client.ChatProvisioner
	notify  client.Notifier
	pool    *async.Pool
	logger  *slog.Logger
}

func NewEngine(
	likes *repository.LikeRepository,
	matches *repository.MatchRepository,
	chat client.ChatProvisioner,
	notify client.Notifier,
	pool *async.Pool,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		likes:   likes,
		matches: matches,
		chat:    chat,
		notify:  notify,
		pool:    pool,
		logger:  logger,
	}
}

// TryMatch handles actor's freshly recorded LIKE toward target. The caller
// must have written the swipe ledger and like index first.
//
// The check-then-create race (both users liking each other within the same
// instant) is resolved by the unique constraint on the canonical pair: the
// losing insert adopts the winner's row, so both callers observe the same
// match and chat-room id.
func (e *Engine) TryMatch(ctx context.Context, actor, target *db.User) (*Result, error) {
	reciprocal, err := e.likes.Exists(ctx, target.ID, actor.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	if !reciprocal {
		e.notifyLikeAsync(target.ID, actor)
		return &Result{Outcome: OutcomeLikeSent}, nil
	}

	// Mutual like. The chat-room id is generated before the insert so it is
	// durable on the match record even if provisioning fails and is retried.
	roomID := uuid.NewString()
	match, err := e.matches.Create(ctx, actor.ID, target.ID, db.MatchTypeSwipe, roomID)
	if err != nil {
		mapped := svcErr.Map(err)
		if !errors.Is(mapped, svcErr.ErrConflict) {
			return nil, mapped
		}

		// Lost the race: the other side's like created the match first.
		existing, getErr := e.matches.GetByPair(ctx, actor.ID, target.ID)
		if getErr != nil {
			return nil, svcErr.Map(getErr)
		}
		e.logger.Info("match already created by concurrent like",
			"user1", existing.User1ID, "user2", existing.User2ID, "chat_room", existing.ChatRoomID)
		return &Result{Outcome: OutcomeAlreadyMatched, Match: existing}, nil
	}

	e.logger.Info("match created",
		"match_id", match.ID, "user1", match.User1ID, "user2", match.User2ID, "chat_room", match.ChatRoomID)

	e.provisionAsync(match, actor, target)
	return &Result{Outcome: OutcomeMatched, Match: match}, nil
}

// notifyLikeAsync sends the "someone liked you" push off the request path.
func (e *Engine) notifyLikeAsync(targetID uint64, actor *db.User) {
	actorID, actorNick := actor.ID, actor.Nickname
	e.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		if err := e.notify.NotifyLike(ctx, targetID, actorID, actorNick); err != nil {
			e.logger.Warn("like notification failed", "to", targetID, "from", actorID, "err", err)
		}
	})
}

// provisionAsync requests the chat room and notifies both sides. All three
// calls are fire-and-forget: the match record is the durable source of
// truth, and a room whose provisioning failed can be retried later from it.
func (e *Engine) provisionAsync(match *db.Match, actor, target *db.User) {
	m := *match
	actorID, actorNick := actor.ID, actor.Nickname
	targetID, targetNick := target.ID, target.Nickname

	e.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()

		createdID, err := e.chat.CreateRoom(ctx, m.ChatRoomID, m.User1ID, m.User2ID, m.ID)
		switch {
		case err != nil:
			e.logger.Error("chat room provisioning failed, match kept",
				"match_id", m.ID, "chat_room", m.ChatRoomID, "err", err)
		case createdID != m.ChatRoomID:
			e.logger.Warn("chat room id mismatch",
				"match_id", m.ID, "requested", m.ChatRoomID, "actual", createdID)
		}
	})

	e.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		if err := e.notify.NotifyMatch(ctx, actorID, targetID, targetNick); err != nil {
			e.logger.Warn("match notification failed", "to", actorID, "err", err)
		}
		if err := e.notify.NotifyMatch(ctx, targetID, actorID, actorNick); err != nil {
			e.logger.Warn("match notification failed", "to", targetID, "err", err)
		}
	})
}
