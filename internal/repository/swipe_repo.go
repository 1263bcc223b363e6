package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/crushapp/crush-server/internal/db"
)

// SwipeRepository is the decision ledger: one LIKE/PASS row per ordered
// (from, to) pair, enforced by the unique index on the pair.
type SwipeRepository struct {
	db *gorm.DB
}

func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// Create appends a decision. A second decision for the same ordered pair
// fails with gorm.ErrDuplicatedKey (the storage constraint is the
// at-most-once guarantee; concurrent writers race safely on it).
func (r *SwipeRepository) Create(ctx context.Context, fromID, toID uint64, kind string) (*db.Swipe, error) {
	swipe := db.Swipe{
		FromUserID: fromID,
		ToUserID:   toID,
		Kind:       kind,
	}
	if err := r.db.WithContext(ctx).Create(&swipe).Error; err != nil {
		return nil, err
	}
	return &swipe, nil
}

// Exists reports whether from has already decided on to.
func (r *SwipeRepository) Exists(ctx context.Context, fromID, toID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("from_user_id = ? AND to_user_id = ?", fromID, toID).
		Count(&count).Error
	return count > 0, err
}

// DecidedUserIDs returns every user from has already swiped on (either
// kind). Feeds exclude all of them.
func (r *SwipeRepository) DecidedUserIDs(ctx context.Context, fromID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("from_user_id = ?", fromID).
		Pluck("to_user_id", &ids).Error
	return ids, err
}

// DecidedAmong returns which of targetIDs already have a decision from
// fromID, as a set. One query regardless of batch size.
func (r *SwipeRepository) DecidedAmong(ctx context.Context, fromID uint64, targetIDs []uint64) (map[uint64]bool, error) {
	decided := make(map[uint64]bool, len(targetIDs))
	if len(targetIDs) == 0 {
		return decided, nil
	}

	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("from_user_id = ? AND to_user_id IN ?", fromID, targetIDs).
		Pluck("to_user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		decided[id] = true
	}
	return decided, nil
}

// DeletePair removes any existing decision from → to. Used only by the
// liked-you action path, which may supersede a prior PASS with a LIKE.
func (r *SwipeRepository) DeletePair(ctx context.Context, fromID, toID uint64) error {
	return r.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ?", fromID, toID).
		Delete(&db.Swipe{}).Error
}
