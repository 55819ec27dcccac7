package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration loaded from environment and file.
// Priority: Env vars → config.toml → defaults
type Config struct {
	// ServerPort is the address to bind the server to (e.g., ":8080")
	ServerPort string

	// UpstreamBaseURL is the provider API origin, without the /v1 suffix.
	UpstreamBaseURL string

	// UpstreamAPIKey authenticates the gateway to the provider.
	UpstreamAPIKey string

	// UpstreamTimeout bounds a single proxied round trip.
	UpstreamTimeout time.Duration

	// DBPath overrides the default SQLite database location.
	DBPath string

	// LedgerDir is the directory holding per-user usage logs.
	LedgerDir string

	// RateLimit is the number of requests admitted per window per user.
	RateLimit int64

	// RateWindow is the fixed rate-limit window size.
	RateWindow time.Duration

	// RedisURL, when set, backs the rate limiter with Redis instead of
	// in-process memory.
	RedisURL string

	// LogFile, when set, mirrors logs as JSON to a rotated file.
	LogFile string

	// AdminPassword seeds the admin credential on first start.
	AdminPassword string
}

// Load reads configuration from file and environment variables.
// Environment variables override file config values.
func Load() *Config {
	fileConfig, _ := LoadFile() // Ignore error, use defaults

	return &Config{
		ServerPort:      getEnvOrFile("SERVER_PORT", fileConfig.ServerPort, ":8080"),
		UpstreamBaseURL: getEnvOrFile("UPSTREAM_BASE_URL", fileConfig.UpstreamBaseURL, "https://api.openai.com"),
		UpstreamAPIKey:  getEnvOrFile("UPSTREAM_API_KEY", fileConfig.UpstreamAPIKey, ""),
		UpstreamTimeout: getEnvDurationOrFile("UPSTREAM_TIMEOUT", fileConfig.UpstreamTimeout, 120*time.Second),
		DBPath:          getEnvOrFile("DB_PATH", fileConfig.DBPath, DBPath()),
		LedgerDir:       getEnvOrFile("LEDGER_DIR", fileConfig.LedgerDir, LedgerDir()),
		RateLimit:       getEnvInt64OrFile("RATE_LIMIT", fileConfig.RateLimit, 60),
		RateWindow:      getEnvDurationOrFile("RATE_WINDOW", fileConfig.RateWindow, time.Minute),
		RedisURL:        getEnvOrFile("REDIS_URL", fileConfig.RedisURL, ""),
		LogFile:         getEnvOrFile("LOG_FILE", fileConfig.LogFile, ""),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
	}
}

// getEnvOrFile returns env value, file value, or default (in priority order)
func getEnvOrFile(key, fileValue, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// getEnvInt64OrFile returns env int64, file int64, or default (in priority order)
func getEnvInt64OrFile(key string, fileValue *int64, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	if fileValue != nil && *fileValue > 0 {
		return *fileValue
	}
	return defaultValue
}

// getEnvDurationOrFile returns env duration, file duration, or default (in
// priority order). Values use Go duration syntax ("30s", "2m").
func getEnvDurationOrFile(key, fileValue string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	if fileValue != "" {
		if d, err := time.ParseDuration(fileValue); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
