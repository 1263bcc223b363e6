package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/crushapp/crush-server/internal/db"
	"github.com/crushapp/crush-server/internal/utils/pagination"
)

// LikeRepository maintains the reciprocity index: the set of (from, to)
// LIKE edges, queried on every like to detect a mutual pair.
type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// Create records that from likes to. Idempotent: the like index is derived
// from the swipe ledger, so re-recording an edge is a no-op, not a conflict.
func (r *LikeRepository) Create(ctx context.Context, fromID, toID uint64) error {
	like := db.Like{FromUserID: fromID, ToUserID: toID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like).Error
}

// Exists answers "does from like to". This is the reciprocity check.
func (r *LikeRepository) Exists(ctx context.Context, fromID, toID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("from_user_id = ? AND to_user_id = ?", fromID, toID).
		Count(&count).Error
	return count > 0, err
}

// ListLikersOf returns users who liked toID, newest first, with
// cursor-based pagination.
func (r *LikeRepository) ListLikersOf(
	ctx context.Context,
	toID uint64,
	paginationToken *string,
	limit int,
) ([]db.Like, *string, error) {
	var likes []db.Like

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("to_user_id = ?", toID).
		Order("created_at DESC, from_user_id DESC").
		Limit(limit + 1)

	if cursor.LikerID > 0 && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix).UTC()
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND from_user_id < ?))",
			ts, ts, cursor.LikerID,
		)
	}

	if err := query.Find(&likes).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(likes) > limit {
		last := likes[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			LikerID:     last.FromUserID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		likes = likes[:limit]
	}

	return likes, nextToken, nil
}

// CountLikersOf returns how many users like toID. Backed by the Redis
// counter cache at the service layer; this is the DB fallback.
func (r *LikeRepository) CountLikersOf(ctx context.Context, toID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("to_user_id = ?", toID).
		Count(&count).Error
	return count, err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
