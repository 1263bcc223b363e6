package main

import (
	"context"
	"log"

	"github.com/crushapp/crush-server/internal/cache"
	"github.com/crushapp/crush-server/internal/config"
	"github.com/crushapp/crush-server/internal/db"
	"github.com/crushapp/crush-server/internal/geo"
)

func main() {
	// Load configuration
	cfg := config.New()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}

	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	if err := db.SeedTestData(database, geo.NewIndex(redisCache.Client)); err != nil {
		log.Fatalf("failed to seed: %v", err)
	}

	log.Println("Seeding completed.")
}
