package db

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/crushapp/crush-server/internal/geo"
)

// SeedTestData resets the database and populates it with demo users,
// decisions, and Redis locations.
//
// Behavior:
//  1. Clears existing rows in users, swipes, likes, blocks, matches.
//  2. Creates 20 users (10 male, 10 female), onboarded, scattered within
//     ~20km of the city center.
//  3. Generates decisions with ~70% likes; every 3rd pair gets a guaranteed
//     reciprocal like so mutual-match paths have data to hit.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(gdb *gorm.DB, locations *geo.Index) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	// --- Fresh start ---
	for _, table := range []string{"matches", "blocks", "likes", "swipes", "users"} {
		if err := gdb.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch gdb.Dialector.Name() {
	case "mysql":
		gdb.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
		gdb.Exec("ALTER TABLE swipes AUTO_INCREMENT = 1")
	case "sqlite":
		gdb.Exec("DELETE FROM sqlite_sequence WHERE name IN ('users', 'swipes', 'likes', 'matches')")
	}

	log.Println("Cleared existing data")

	// --- Seed Users (10 male, 10 female) around San Francisco ---
	const centerLon, centerLat = -122.4194, 37.7749
	for i := 1; i <= 20; i++ {
		gender := "male"
		preferred := "female"
		if i > 10 {
			gender = "female"
			preferred = "male"
		}

		user := User{
			Nickname:           fmt.Sprintf("user%d", i),
			Age:                20 + r.Intn(20),
			Gender:             gender,
			PreferredGenders:   preferred,
			PrimaryPhoto:       fmt.Sprintf("https://photos.example.com/u%d/main.jpg", i),
			OnboardingComplete: true,
		}
		if err := gdb.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		// ~0.18° ≈ 20km spread
		lon := centerLon + (r.Float64()-0.5)*0.36
		lat := centerLat + (r.Float64()-0.5)*0.36
		if locations != nil {
			if err := locations.Upsert(ctx, user.ID, lon, lat); err != nil {
				return fmt.Errorf("failed to seed location: %w", err)
			}
		}
	}
	log.Println("Seeded 20 users with locations.")

	// --- Seed Decisions ---
	counter := 0
	for fromID := uint64(1); fromID <= 20; fromID++ {
		for j := 0; j < 8; j++ {
			toID := uint64(r.Intn(20) + 1)
			if fromID == toID {
				continue
			}

			var from, to User
			if err := gdb.First(&from, fromID).Error; err != nil {
				continue
			}
			if err := gdb.First(&to, toID).Error; err != nil {
				continue
			}
			if from.Gender == to.Gender {
				continue
			}

			kind := SwipePass
			if r.Intn(100) < 70 {
				kind = SwipeLike
			}

			// guarantee mutual likes every 3rd pair
			if counter%3 == 0 {
				kind = SwipeLike
				seedSwipe(gdb, toID, fromID, SwipeLike)
			}

			seedSwipe(gdb, fromID, toID, kind)
			counter++
		}
	}
	log.Printf("Seeded %d decisions.", counter)

	return nil
}

// seedSwipe inserts a swipe (and like-index row for LIKE), ignoring
// duplicates so the random generator can collide freely.
func seedSwipe(gdb *gorm.DB, fromID, toID uint64, kind string) {
	swipe := Swipe{FromUserID: fromID, ToUserID: toID, Kind: kind}
	gdb.Clauses(clause.OnConflict{DoNothing: true}).Create(&swipe)
	if kind == SwipeLike {
		like := Like{FromUserID: fromID, ToUserID: toID}
		gdb.Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
	}
}
