// Package config loads Waypoint configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string
	UserID   string

	// Database. When DatabaseURL is empty Waypoint runs in local mode
	// against SQLite at SQLitePath.
	DatabaseURL string
	SQLitePath  string

	// Redis (per-plan write locks)
	RedisURL string

	// RabbitMQ (domain event publication)
	RabbitMQURL string

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxRetentionDays    int
	OutboxProcessorEnabled bool

	// Worker
	MissedDaySweepSpec string

	// Calendar providers
	CalDAVURL      string
	CalDAVUsername string
	CalDAVPassword string
	CalDAVCalendar string

	GoogleCalendarID   string
	GoogleClientID     string
	GoogleClientSecret string

	// Token encryption at rest (base64-encoded 32-byte key)
	EncryptionKey string

	// Reschedule policy
	MaxExtensionDays int
}

// Load loads configuration from environment variables. A .env file is
// honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		UserID:   getEnv("WAYPOINT_USER_ID", "00000000-0000-0000-0000-000000000001"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("WAYPOINT_SQLITE_PATH", defaultSQLitePath()),

		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		OutboxPollInterval:     getDurationEnv("OUTBOX_POLL_INTERVAL", 100*time.Millisecond),
		OutboxBatchSize:        getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxRetentionDays:    getIntEnv("OUTBOX_RETENTION_DAYS", 14),
		OutboxProcessorEnabled: getBoolEnv("OUTBOX_PROCESSOR_ENABLED", true),

		MissedDaySweepSpec: getEnv("MISSED_DAY_SWEEP_SPEC", "5 0 * * *"),

		CalDAVURL:      getEnv("CALDAV_URL", ""),
		CalDAVUsername: getEnv("CALDAV_USERNAME", ""),
		CalDAVPassword: getEnv("CALDAV_PASSWORD", ""),
		CalDAVCalendar: getEnv("CALDAV_CALENDAR", ""),

		GoogleCalendarID:   getEnv("GOOGLE_CALENDAR_ID", "primary"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),

		EncryptionKey: getEnv("WAYPOINT_ENCRYPTION_KEY", ""),

		MaxExtensionDays: getIntEnv("WAYPOINT_MAX_EXTENSION_DAYS", 14),
	}

	return cfg, nil
}

// IsLocalMode reports whether Waypoint runs against SQLite.
func (c *Config) IsLocalMode() bool {
	return c.DatabaseURL == ""
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "waypoint.db"
	}
	return home + "/.waypoint/waypoint.db"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getBoolEnv(key string, fallback bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value == "true" || value == "1" || value == "yes"
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
