package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	HTTP struct {
		Host string
		Port string
	}

	Chat struct {
		BaseURL string
	}

	Notify struct {
		BaseURL string
	}

	Geocode struct {
		BaseURL     string
		UserAgent   string
		ThresholdKm float64
	}

	Feed struct {
		InitialBatchSize int
		RefillBatchSize  int
		NearbyLimit      int
	}

	Pool struct {
		Workers   int
		QueueSize int
	}

	App struct {
		ENV string
	}
}

func New() *Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "crush_server")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "crush")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	if dbStr := getEnvDefault("REDIS_DB", "0"); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "127.0.0.1")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")

	// Collaborators
	cfg.Chat.BaseURL = getEnvDefault("CHAT_SERVICE_URL", "http://localhost:8081")
	cfg.Notify.BaseURL = getEnvDefault("NOTIFY_SERVICE_URL", "")
	cfg.Geocode.BaseURL = getEnvDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org")
	cfg.Geocode.UserAgent = getEnvDefault("NOMINATIM_USER_AGENT", "CrushApp/1.0 (contact@crush.com)")
	cfg.Geocode.ThresholdKm = getEnvFloat("GEOCODE_THRESHOLD_KM", 15.0)

	// Feed sizing
	cfg.Feed.InitialBatchSize = getEnvInt("FEED_INITIAL_BATCH_SIZE", 15)
	cfg.Feed.RefillBatchSize = getEnvInt("FEED_REFILL_BATCH_SIZE", 10)
	cfg.Feed.NearbyLimit = getEnvInt("FEED_NEARBY_LIMIT", 100)

	// Async swipe pool
	cfg.Pool.Workers = getEnvInt("SWIPE_POOL_WORKERS", 5)
	cfg.Pool.QueueSize = getEnvInt("SWIPE_POOL_QUEUE", 100)

	cfg.App.ENV = getEnvDefault("APP_ENV", "development")

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
