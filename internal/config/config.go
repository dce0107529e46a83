// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/notifyctl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Table names: single source of truth, matches db.Migrate
// --------------------------------------------------------------------------

const (
	SettingsTable    = "notify_settings"
	AttemptsTable    = "notification_attempts"
	EngagementsTable = "notification_engagements"
	OutboxTable      = "notification_outbox"

	// SettingsChannel is the pg_notify channel raised on every settings write.
	SettingsChannel = "notify_settings_changed"
)

// --------------------------------------------------------------------------
// Config struct populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database (optional; empty keeps settings and analytics in memory)
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// Redis settings backend (optional, wins over Postgres for settings)
	RedisURL string

	// AMQP delivery sink (optional)
	AMQPURL      string
	AMQPExchange string

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Scheduling engine
	Timezone          string
	BatchTickInterval time.Duration

	// Analytics
	AnalyticsRetention time.Duration
	CleanupSchedule    string // cron spec
	ReportSchedule     string // cron spec, empty disables
	ReportTimeframe    time.Duration

	// Cache
	CacheEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    envOr("DATABASE_URL", ""),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		RedisURL: envOr("REDIS_URL", ""),

		AMQPURL:      envOr("AMQP_URL", ""),
		AMQPExchange: envOr("AMQP_EXCHANGE", "notify.deliveries"),

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 300),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		Timezone:          envOr("NOTIFY_TIMEZONE", "UTC"),
		BatchTickInterval: envDuration("BATCH_TICK_INTERVAL", time.Second),

		AnalyticsRetention: time.Duration(envInt("ANALYTICS_RETENTION_DAYS", 30)) * 24 * time.Hour,
		CleanupSchedule:    envOr("ANALYTICS_CLEANUP_CRON", "@daily"),
		ReportSchedule:     envOr("OPTIMIZATION_REPORT_CRON", "0 6 * * *"),
		ReportTimeframe:    time.Duration(envInt("OPTIMIZATION_TIMEFRAME_DAYS", 7)) * 24 * time.Hour,

		CacheEnabled: envBool("CACHE_ENABLED", true),
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	if cfg.BatchTickInterval <= 0 {
		return nil, fmt.Errorf("BATCH_TICK_INTERVAL must be positive, got %s", cfg.BatchTickInterval)
	}
	return cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location resolves the engine time zone used for hour and weekday checks.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("NOTIFY_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
