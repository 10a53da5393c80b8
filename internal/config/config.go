package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string
	PublicBaseURL  string

	DatabaseURL string
	RedisURL    string

	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool

	MeiliSearchHost string
	MeiliMasterKey  string

	CloudinaryUploadFolder string

	LoginMaxAttempts   int
	LoginBlockDuration time.Duration
	LoginAttemptReset  time.Duration
	RateLimitLink      time.Duration

	ClickSyncSchedule string
}

// Load reads the environment. DATABASE_URL and SESSION_SECRET are
// required; the service refuses to start without them.
func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		SessionSecret: os.Getenv("SESSION_SECRET"),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "linkbio"),

		ClickSyncSchedule: getEnv("CLICK_SYNC_SCHEDULE", "@every 1m"),
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.SessionTTL, err = parseDuration("SESSION_TTL", "720h"); err != nil {
		return nil, err
	}
	if cfg.LoginBlockDuration, err = parseDuration("LOGIN_BLOCK_DURATION", "15m"); err != nil {
		return nil, err
	}
	if cfg.LoginAttemptReset, err = parseDuration("LOGIN_ATTEMPT_RESET", "30m"); err != nil {
		return nil, err
	}
	if cfg.RateLimitLink, err = parseDuration("RATE_LIMIT_LINK", "3s"); err != nil {
		return nil, err
	}

	cfg.LoginMaxAttempts, err = strconv.Atoi(getEnv("LOGIN_MAX_ATTEMPTS", "5"))
	if err != nil || cfg.LoginMaxAttempts < 1 {
		return nil, errors.New("invalid LOGIN_MAX_ATTEMPTS: must be a positive integer")
	}

	cfg.CookieSecure = getEnv("COOKIE_SECURE", strconv.FormatBool(cfg.IsProduction())) == "true"

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
