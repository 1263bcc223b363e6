package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/crushapp/crush-server/internal/async"
	"github.com/crushapp/crush-server/internal/cache"
	"github.com/crushapp/crush-server/internal/client"
	"github.com/crushapp/crush-server/internal/config"
	"github.com/crushapp/crush-server/internal/geo"
)

// AppContext holds shared dependencies (DB, Redis, collaborators, etc.)
type AppContext struct {
	Cfg        *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Locations  *geo.Index
	Pool       *async.Pool
	Chat       client.ChatProvisioner
	Notifier   client.Notifier
	Geocoder   client.Geocoder
	Logger     *slog.Logger
}

// New creates a new AppContext
func New(
	cfg *config.Config,
	db *gorm.DB,
	rdb *cache.RedisCache,
	locations *geo.Index,
	pool *async.Pool,
	chat client.ChatProvisioner,
	notifier client.Notifier,
	geocoder client.Geocoder,
	logger *slog.Logger,
) *AppContext {
	return &AppContext{
		Cfg:        cfg,
		DB:         db,
		RedisCache: rdb,
		Locations:  locations,
		Pool:       pool,
		Chat:       chat,
		Notifier:   notifier,
		Geocoder:   geocoder,
		Logger:     logger,
	}
}
