package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabaseURL   string
	SessionSecret string
	GinMode       string
	SiteURL       string

	LogLevel  string
	LogFormat string // console or json

	FeedCacheTTL  time.Duration
	FeedCacheSize int
	DefaultSort   string
	DefaultOrder  string

	TemplatesDir string
	StaticDir    string
	UploadDir    string

	// AdminToken 保护编辑/删除接口，为空时关闭
	AdminToken string
}

const defaultDSN = "host=localhost user=postgres password=postgres dbname=commentfeed port=5432 sslmode=disable TimeZone=UTC"

// Load reads .env (when present) and the process environment. Bad values fall back to
// defaults instead of failing startup.
func Load() *Config {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading env vars from system")
	}

	return &Config{
		Port:          getString("PORT", "8080"),
		DatabaseURL:   getString("DATABASE_URL", defaultDSN),
		SessionSecret: getString("SESSION_SECRET", "secret_key_change_me"),
		GinMode:       getString("GIN_MODE", "release"),
		SiteURL:       getString("SITE_URL", "http://localhost:8080"),
		LogLevel:      getString("LOG_LEVEL", "info"),
		LogFormat:     getString("LOG_FORMAT", "console"),
		FeedCacheTTL:  getDuration("FEED_CACHE_TTL", 60*time.Second),
		FeedCacheSize: getInt("FEED_CACHE_SIZE", 64),
		DefaultSort:   getString("DEFAULT_SORT", "created_at"),
		DefaultOrder:  getString("DEFAULT_ORDER", "desc"),
		TemplatesDir:  getString("TEMPLATES_DIR", "./web/templates"),
		StaticDir:     getString("STATIC_DIR", "./web/static"),
		UploadDir:     getString("UPLOAD_DIR", "./web/uploads"),
		AdminToken:    os.Getenv("ADMIN_TOKEN"),
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("Invalid %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		log.Printf("Invalid %s=%q, using %s", key, raw, fallback)
		return fallback
	}
	return v
}
