package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/crushapp/crush-server/internal/db"
	"github.com/crushapp/crush-server/internal/repository"
)

// setupDB spins up an in-memory SQLite DB with the full schema. Each test
// gets its own isolated database.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(&db.User{}, &db.Swipe{}, &db.Like{}, &db.Block{}, &db.Match{}))
	return gdb
}

// TestSwipeCreateConflict verifies the ledger's append-only invariant: the
// second decision on the same ordered pair is a duplicate-key error, even
// with a different kind.
func TestSwipeCreateConflict(t *testing.T) {
	ctx := context.Background()
	swipes := repository.NewSwipeRepository(setupDB(t))

	_, err := swipes.Create(ctx, 1, 2, db.SwipeLike)
	require.NoError(t, err)

	_, err = swipes.Create(ctx, 1, 2, db.SwipePass)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	// The reverse direction is a different ordered pair.
	_, err = swipes.Create(ctx, 2, 1, db.SwipePass)
	assert.NoError(t, err)
}

// TestSwipeDecidedAmong checks the bulk decision lookup used by the batch
// ingestor.
func TestSwipeDecidedAmong(t *testing.T) {
	ctx := context.Background()
	swipes := repository.NewSwipeRepository(setupDB(t))

	_, err := swipes.Create(ctx, 1, 2, db.SwipeLike)
	require.NoError(t, err)
	_, err = swipes.Create(ctx, 1, 4, db.SwipePass)
	require.NoError(t, err)

	decided, err := swipes.DecidedAmong(ctx, 1, []uint64{2, 3, 4, 5})
	require.NoError(t, err)
	assert.True(t, decided[2])
	assert.True(t, decided[4])
	assert.False(t, decided[3])
	assert.False(t, decided[5])

	ids, err := swipes.DecidedUserIDs(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{2, 4}, ids)
}

// TestLikeCreateIdempotent verifies the reciprocity index tolerates repeated
// writes of the same edge.
func TestLikeCreateIdempotent(t *testing.T) {
	ctx := context.Background()
	likes := repository.NewLikeRepository(setupDB(t))

	require.NoError(t, likes.Create(ctx, 1, 2))
	require.NoError(t, likes.Create(ctx, 1, 2))

	exists, err := likes.Exists(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = likes.Exists(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, exists)

	count, err := likes.CountLikersOf(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

// TestListLikersPagination walks a five-liker list in pages of two, newest
// first, and checks the cursor terminates.
func TestListLikersPagination(t *testing.T) {
	ctx := context.Background()
	gdb := setupDB(t)
	likes := repository.NewLikeRepository(gdb)

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	for i := uint64(1); i <= 5; i++ {
		row := db.Like{
			FromUserID: i,
			ToUserID:   100,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, gdb.Create(&row).Error)
	}

	page1, token1, err := likes.ListLikersOf(ctx, 100, nil, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotNil(t, token1)
	assert.Equal(t, uint64(5), page1[0].FromUserID)
	assert.Equal(t, uint64(4), page1[1].FromUserID)

	page2, token2, err := likes.ListLikersOf(ctx, 100, token1, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	require.NotNil(t, token2)
	assert.Equal(t, uint64(3), page2[0].FromUserID)
	assert.Equal(t, uint64(2), page2[1].FromUserID)

	page3, token3, err := likes.ListLikersOf(ctx, 100, token2, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Nil(t, token3)
	assert.Equal(t, uint64(1), page3[0].FromUserID)
}

// TestMatchPairCanonical verifies matches are stored under the canonical
// pair regardless of argument order, and that the pair is unique.
func TestMatchPairCanonical(t *testing.T) {
	ctx := context.Background()
	matches := repository.NewMatchRepository(setupDB(t))

	match, err := matches.Create(ctx, 5, 2, db.MatchTypeSwipe, "room-a")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), match.User1ID)
	assert.Equal(t, uint64(5), match.User2ID)
	assert.True(t, match.IsActive)

	// Same unordered pair, either order, is a conflict.
	_, err = matches.Create(ctx, 2, 5, db.MatchTypeSwipe, "room-b")
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
	_, err = matches.Create(ctx, 5, 2, db.MatchTypeSwipe, "room-c")
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	found, err := matches.GetByPair(ctx, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, "room-a", found.ChatRoomID)
	assert.Equal(t, uint64(2), found.OtherUser(5))
}

// TestMatchDeactivateForUser checks deactivation flips is_active without
// deleting rows.
func TestMatchDeactivateForUser(t *testing.T) {
	ctx := context.Background()
	matches := repository.NewMatchRepository(setupDB(t))

	_, err := matches.Create(ctx, 1, 2, db.MatchTypeSwipe, "room-1")
	require.NoError(t, err)
	_, err = matches.Create(ctx, 1, 3, db.MatchTypeSwipe, "room-2")
	require.NoError(t, err)
	_, err = matches.Create(ctx, 2, 3, db.MatchTypeSwipe, "room-3")
	require.NoError(t, err)

	partners, err := matches.ActivePartnerIDs(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{2, 3}, partners)

	n, err := matches.DeactivateForUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	partners, err = matches.ActivePartnerIDs(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, partners)

	// The pair not involving user 1 is untouched.
	active, err := matches.ExistsActivePair(ctx, 2, 3)
	require.NoError(t, err)
	assert.True(t, active)

	// Rows survive deactivation.
	found, err := matches.GetByPair(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, found.IsActive)
}

// TestBlockDirections verifies block edges are directional and that Delete
// reports whether anything was removed.
func TestBlockDirections(t *testing.T) {
	ctx := context.Background()
	blocks := repository.NewBlockRepository(setupDB(t))

	require.NoError(t, blocks.Create(ctx, 1, 2))

	err := blocks.Create(ctx, 1, 2)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	exists, err := blocks.Exists(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = blocks.Exists(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, exists)

	blocked, err := blocks.BlockedByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, blocked)
	blockers, err := blocks.BlockersOfUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, blockers)

	removed, err := blocks.Delete(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = blocks.Delete(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, removed)
}
