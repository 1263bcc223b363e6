package db

import (
	"strings"
	"time"
)

// Swipe kinds.
const (
	SwipeLike = "LIKE"
	SwipePass = "PASS"
)

// Match types.
const (
	MatchTypeSwipe = "SWIPE"
)

// User table. Identity (credentials, tokens) lives in the auth subsystem;
// this service reads the profile fields that feed building needs.
type User struct {
	ID                 uint64    `gorm:"primaryKey;autoIncrement"`
	Nickname           string    `gorm:"size:64;not null"`
	Age                int       `gorm:"not null"`
	Gender             string    `gorm:"size:16;not null"`
	PreferredGenders   string    `gorm:"size:64;not null"` // comma-separated, empty = all
	PrimaryPhoto       string    `gorm:"size:512"`
	LocationName       string    `gorm:"size:128"`
	OnboardingComplete bool      `gorm:"default:false"`
	Deleted            bool      `gorm:"default:false"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

// PreferredGenderSet splits the stored preference list. An empty list means
// the user has no gender restriction.
func (u *User) PreferredGenderSet() map[string]bool {
	set := make(map[string]bool)
	for _, g := range strings.Split(u.PreferredGenders, ",") {
		if g = strings.TrimSpace(g); g != "" {
			set[g] = true
		}
	}
	return set
}

// Swipe is one user's recorded LIKE or PASS toward another.
//
// The unique index on (from_user_id, to_user_id) is the ledger's core
// invariant: at most one decision per ordered pair. A second insert is a
// storage-level conflict, never an overwrite.
type Swipe struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	FromUserID uint64    `gorm:"not null;uniqueIndex:uniq_swipe_pair,priority:1"`
	ToUserID   uint64    `gorm:"not null;uniqueIndex:uniq_swipe_pair,priority:2"`
	Kind       string    `gorm:"size:8;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Like is the reciprocity index: a row exists iff from likes to. Logically
// derived from Swipe rows with kind=LIKE, kept separate for O(1) mutual
// checks and "liked you" listings.
type Like struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	FromUserID uint64    `gorm:"not null;uniqueIndex:uniq_like_pair,priority:1"`
	ToUserID   uint64    `gorm:"not null;uniqueIndex:uniq_like_pair,priority:2;index:idx_like_to_created,priority:1"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index:idx_like_to_created,priority:2,sort:desc"`
}

// Block is directional: blocker hides blocked and vice versa in feeds.
type Block struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	BlockerID     uint64    `gorm:"not null;uniqueIndex:uniq_block_pair,priority:1"`
	BlockedUserID uint64    `gorm:"not null;uniqueIndex:uniq_block_pair,priority:2"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

// Match is the canonical record of a mutual like.
//
// User1ID < User2ID always (pair canonicalization), and the unique index on
// the pair is what turns the two-concurrent-likes race into an atomic
// storage-level insert: exactly one row per unordered pair, the losing
// writer adopts the winner's row.
type Match struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	User1ID    uint64    `gorm:"not null;uniqueIndex:uniq_match_pair,priority:1"`
	User2ID    uint64    `gorm:"not null;uniqueIndex:uniq_match_pair,priority:2"`
	MatchType  string    `gorm:"size:16;not null"`
	ChatRoomID string    `gorm:"size:64;not null"` // assigned at creation, immutable
	IsActive   bool      `gorm:"default:true"`
	MatchedAt  time.Time `gorm:"autoCreateTime"`
}

// OtherUser returns the match partner of userID.
func (m *Match) OtherUser(userID uint64) uint64 {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}
