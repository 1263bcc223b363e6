package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/crushapp/crush-server/internal/db"
)

// BlockRepository stores directional block edges. Feed exclusion considers
// both directions; the rows themselves are one-way.
type BlockRepository struct {
	db *gorm.DB
}

func NewBlockRepository(database *gorm.DB) *BlockRepository {
	return &BlockRepository{db: database}
}

// Create records blocker → blocked. A duplicate fails with
// gorm.ErrDuplicatedKey.
func (r *BlockRepository) Create(ctx context.Context, blockerID, blockedID uint64) error {
	block := db.Block{BlockerID: blockerID, BlockedUserID: blockedID}
	return r.db.WithContext(ctx).Create(&block).Error
}

// Delete removes blocker → blocked, reporting whether a row existed.
func (r *BlockRepository) Delete(ctx context.Context, blockerID, blockedID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_user_id = ?", blockerID, blockedID).
		Delete(&db.Block{})
	return res.RowsAffected > 0, res.Error
}

// Exists reports whether blocker has blocked blocked.
func (r *BlockRepository) Exists(ctx context.Context, blockerID, blockedID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Block{}).
		Where("blocker_id = ? AND blocked_user_id = ?", blockerID, blockedID).
		Count(&count).Error
	return count > 0, err
}

// BlockedByUser returns the ids userID has blocked.
func (r *BlockRepository) BlockedByUser(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Block{}).
		Where("blocker_id = ?", userID).
		Pluck("blocked_user_id", &ids).Error
	return ids, err
}

// BlockersOfUser returns the ids that have blocked userID.
func (r *BlockRepository) BlockersOfUser(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Block{}).
		Where("blocked_user_id = ?", userID).
		Pluck("blocker_id", &ids).Error
	return ids, err
}
