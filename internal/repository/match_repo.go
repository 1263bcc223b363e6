package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/crushapp/crush-server/internal/db"
)

// MatchRepository stores the canonical match records. The unique index on
// the canonical (user1, user2) pair is the at-most-one-match-per-pair
// invariant; callers canonicalize with PairKey before touching it.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// PairKey canonicalizes an unordered user pair: smaller id first.
func PairKey(a, b uint64) (uint64, uint64) {
	if a < b {
		return a, b
	}
	return b, a
}

// Create inserts the match for the canonical pair. Under two concurrent
// mutual likes exactly one insert wins; the loser sees
// gorm.ErrDuplicatedKey and must adopt the winner's row via GetByPair.
func (r *MatchRepository) Create(ctx context.Context, userA, userB uint64, matchType, chatRoomID string) (*db.Match, error) {
	u1, u2 := PairKey(userA, userB)
	match := db.Match{
		User1ID:    u1,
		User2ID:    u2,
		MatchType:  matchType,
		ChatRoomID: chatRoomID,
		IsActive:   true,
	}
	if err := r.db.WithContext(ctx).Create(&match).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

// GetByPair returns the match for the unordered pair, or
// gorm.ErrRecordNotFound.
func (r *MatchRepository) GetByPair(ctx context.Context, userA, userB uint64) (*db.Match, error) {
	u1, u2 := PairKey(userA, userB)
	var match db.Match
	err := r.db.WithContext(ctx).
		Where("user1_id = ? AND user2_id = ?", u1, u2).
		First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// ExistsActivePair reports whether an active match exists for the pair.
func (r *MatchRepository) ExistsActivePair(ctx context.Context, userA, userB uint64) (bool, error) {
	u1, u2 := PairKey(userA, userB)
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("user1_id = ? AND user2_id = ? AND is_active = ?", u1, u2, true).
		Count(&count).Error
	return count > 0, err
}

// ActivePartnerIDs returns the ids userID is actively matched with.
func (r *MatchRepository) ActivePartnerIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("(user1_id = ? OR user2_id = ?) AND is_active = ?", userID, userID, true).
		Find(&matches).Error
	if err != nil {
		return nil, err
	}

	partners := make([]uint64, 0, len(matches))
	for i := range matches {
		partners = append(partners, matches[i].OtherUser(userID))
	}
	return partners, nil
}

// DeactivateForUser marks every match involving userID inactive. Matches
// are deactivated, never deleted, when a user leaves the system.
func (r *MatchRepository) DeactivateForUser(ctx context.Context, userID uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("(user1_id = ? OR user2_id = ?) AND is_active = ?", userID, userID, true).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}
