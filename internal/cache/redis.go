package cache

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/crushapp/crush-server/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	likeCountTTL = time.Hour

	// Reverse-geocode results are keyed by coordinates rounded to 0.05°
	// (~5km cells) so nearby lookups share one entry.
	geocodeTTL      = 7 * 24 * time.Hour
	geocodeRounding = 0.05
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForLikeCount generates the Redis key for a user's pending-liker count.
func (c *RedisCache) KeyForLikeCount(userID uint64) string {
	return fmt.Sprintf("likes:count:%d", userID)
}

// GetLikeCount reads the cached liker count. A miss returns (0, false, nil);
// a hit refreshes the TTL since the user is clearly active.
func (c *RedisCache) GetLikeCount(ctx context.Context, userID uint64) (int64, bool, error) {
	key := c.KeyForLikeCount(userID)
	val, err := c.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	_ = c.Client.Expire(ctx, key, likeCountTTL).Err()
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

func (c *RedisCache) SetLikeCount(ctx context.Context, userID uint64, count int64) error {
	return c.Set(ctx, c.KeyForLikeCount(userID), count, likeCountTTL)
}

// DropLikeCount discards the cached liker count, e.g. when the user's data
// is being torn down.
func (c *RedisCache) DropLikeCount(ctx context.Context, userID uint64) error {
	return c.Del(ctx, c.KeyForLikeCount(userID))
}

// bumpLikeCountScript adjusts the counter only when it already exists.
// INCRBY on an absent key would mint a counter equal to the delta, and a
// fresh single-digit count on a cold cache would then mask the real DB
// total until expiry.
var bumpLikeCountScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	redis.call("INCRBY", KEYS[1], ARGV[1])
	redis.call("EXPIRE", KEYS[1], ARGV[2])
	return 1
end
return 0
`)

// BumpLikeCount adjusts the cached liker count after a like write, refreshing
// the TTL. A cold cache is left cold so the next read repopulates from the
// DB. Best effort; errors leave the counter to repair on the next DB read.
func (c *RedisCache) BumpLikeCount(ctx context.Context, userID uint64, delta int64) {
	key := c.KeyForLikeCount(userID)
	_, _ = bumpLikeCountScript.Run(ctx, c.Client, []string{key},
		delta, int(likeCountTTL.Seconds())).Result()
}

// KeyForGeocode generates the Redis key for a reverse-geocode cell.
func (c *RedisCache) KeyForGeocode(lat, lon float64) string {
	rlat := roundTo(lat, geocodeRounding)
	rlon := roundTo(lon, geocodeRounding)
	return fmt.Sprintf("geocode:%.2f:%.2f", rlat, rlon)
}

func (c *RedisCache) GetGeocode(ctx context.Context, lat, lon float64) (string, bool, error) {
	val, err := c.Get(ctx, c.KeyForGeocode(lat, lon))
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisCache) SetGeocode(ctx context.Context, lat, lon float64, name string) error {
	return c.Set(ctx, c.KeyForGeocode(lat, lon), name, geocodeTTL)
}

func roundTo(v, step float64) float64 {
	return math.Round(v/step) * step
}
