package main

import (
	"context"

	"github.com/crushapp/crush-server/internal/app"
	"github.com/crushapp/crush-server/internal/async"
	"github.com/crushapp/crush-server/internal/cache"
	"github.com/crushapp/crush-server/internal/client"
	"github.com/crushapp/crush-server/internal/config"
	"github.com/crushapp/crush-server/internal/db"
	"github.com/crushapp/crush-server/internal/geo"
	"github.com/crushapp/crush-server/internal/logger"
	"github.com/crushapp/crush-server/internal/server"
	"github.com/crushapp/crush-server/internal/service/account"
	"github.com/crushapp/crush-server/internal/service/block"
	"github.com/crushapp/crush-server/internal/service/feed"
	"github.com/crushapp/crush-server/internal/service/likedyou"
	"github.com/crushapp/crush-server/internal/service/location"
	"github.com/crushapp/crush-server/internal/service/swipe"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}
	locations := geo.NewIndex(redisCache.Client)

	// Worker pool for batch swipes and collaborator side effects
	pool := async.NewPool(cfg.Pool.Workers, cfg.Pool.QueueSize, log)
	defer pool.Stop()

	// External collaborators
	chatClient := client.NewChatClient(cfg)
	var notifier client.Notifier
	if cfg.Notify.BaseURL != "" {
		notifier = client.NewPushClient(cfg)
	} else {
		notifier = &client.NoopNotifier{Logger: log}
	}
	geocoder := client.NewNominatimClient(cfg, redisCache)

	appCtx := app.New(cfg, database, redisCache, locations, pool, chatClient, notifier, geocoder, log)

	registrars := []server.Registrar{
		feed.NewRegistrar(appCtx),
		swipe.NewRegistrar(appCtx),
		likedyou.NewRegistrar(appCtx),
		location.NewRegistrar(appCtx),
		block.NewRegistrar(appCtx),
		account.NewRegistrar(appCtx),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database, locations); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
