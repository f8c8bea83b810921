package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Email     EmailConfig
	Review    ReviewConfig
	Screening ScreeningConfig
	Feed      FeedConfig
	Telemetry TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
	BaseURL     string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host           string
	Port           int
	Database       string
	User           string
	Password       string
	MaxConns       int
	MinConns       int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
	MigrationsPath string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig holds cache settings
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	// CommentLimit is the max comments per user per CommentWindow
	CommentLimit  int64
	CommentWindow time.Duration
	// GlobalLimit is the service-wide request limit per minute (0 disables)
	GlobalLimit int64
}

// EmailConfig holds outbound email settings
type EmailConfig struct {
	Enabled    bool
	APIKey     string
	Endpoint   string
	From       string
	AdminEmail string
}

// ReviewConfig holds the submission review policy
type ReviewConfig struct {
	// ResubmitOnEdit controls whether editing a rejected extension returns it
	// to pending. When false a rejected extension keeps its status and
	// rejection reason until an admin re-reviews it.
	ResubmitOnEdit bool
}

// ScreeningConfig holds submission screening rules
type ScreeningConfig struct {
	// Rules are CEL expressions evaluated against new submissions.
	// A rule that evaluates to true vetoes the submission.
	Rules []string
}

// FeedConfig holds syndication feed settings
type FeedConfig struct {
	Title string
	Limit int
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof bool
	PprofPort   int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
			BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			Host:           getEnv("POSTGRES_HOST", "localhost"),
			Port:           getEnvInt("POSTGRES_PORT", 5432),
			Database:       getEnv("POSTGRES_DB", "marketplace"),
			User:           getEnv("POSTGRES_USER", "marketplace"),
			Password:       getEnv("POSTGRES_PASSWORD", "marketplace"),
			MaxConns:       getEnvInt("POSTGRES_MAX_CONNS", 50),
			MinConns:       getEnvInt("POSTGRES_MIN_CONNS", 10),
			MaxIdleTime:    getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime:    getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			Enabled:    getEnvBool("CACHE_ENABLED", true),
			DefaultTTL: getEnvDuration("CACHE_DEFAULT_TTL", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			CommentLimit:  int64(getEnvInt("RATE_LIMIT_COMMENTS", 10)),
			CommentWindow: getEnvDuration("RATE_LIMIT_COMMENT_WINDOW", 1*time.Hour),
			GlobalLimit:   int64(getEnvInt("RATE_LIMIT_GLOBAL", 0)),
		},
		Email: EmailConfig{
			Enabled:    getEnvBool("EMAIL_ENABLED", false),
			APIKey:     getEnv("EMAIL_API_KEY", ""),
			Endpoint:   getEnv("EMAIL_ENDPOINT", "https://api.inbound.new/v2/emails"),
			From:       getEnv("EMAIL_FROM", "OpenCode Cafe <hello@opencode.cafe>"),
			AdminEmail: getEnv("EMAIL_ADMIN", ""),
		},
		Review: ReviewConfig{
			ResubmitOnEdit: getEnvBool("REVIEW_RESUBMIT_ON_EDIT", false),
		},
		Screening: ScreeningConfig{
			Rules: getEnvSlice("SCREENING_RULES", nil),
		},
		Feed: FeedConfig{
			Title: getEnv("FEED_TITLE", "OpenCode Cafe — new extensions"),
			Limit: getEnvInt("FEED_LIMIT", 25),
		},
		Telemetry: TelemetryConfig{
			EnablePprof: getEnvBool("ENABLE_PPROF", false),
			PprofPort:   getEnvInt("PPROF_PORT", 6060),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	if c.RateLimit.CommentLimit < 1 {
		return fmt.Errorf("comment rate limit must be >= 1")
	}

	if c.Email.Enabled && c.Email.APIKey == "" {
		return fmt.Errorf("EMAIL_API_KEY is required when email is enabled")
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns the Redis host:port address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ";")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
