package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"kalendar/internal/core"
)

type Config struct {
	// HTTP Server
	Port string

	// Fallback month rendered when the month query parameter is absent or
	// unparseable, in "YYYY-MM" notation.
	DefaultMonth string

	// Month view-model cache
	MonthCacheSize int
	MonthCacheTTL  time.Duration

	// Per-IP rate limiting
	RateLimitRPS   int
	RateLimitBurst int

	// Logging
	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		DefaultMonth: getEnv("DEFAULT_MONTH", "2017-03"),

		MonthCacheSize: getEnvInt("MONTH_CACHE_SIZE", 64),
		MonthCacheTTL:  getEnvDuration("MONTH_CACHE_TTL", 10*time.Minute),

		RateLimitRPS:   getEnvInt("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 30),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// The fallback month must itself build; a server that cannot render its
	// default page is misconfigured.
	if _, err := core.BuildMonthFromNotation(c.DefaultMonth); err != nil {
		errors = append(errors, fmt.Sprintf("invalid default month '%s': %v", c.DefaultMonth, err))
	}

	// Validate cache settings
	if c.MonthCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid month cache size %d: must be at least 1", c.MonthCacheSize))
	} else if c.MonthCacheSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid month cache size %d: must be at most 10000", c.MonthCacheSize))
	}

	if c.MonthCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid month cache TTL %v: must be at least 1 second", c.MonthCacheTTL))
	} else if c.MonthCacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid month cache TTL %v: must be at most 24 hours", c.MonthCacheTTL))
	}

	// Validate rate limiter settings
	if c.RateLimitRPS < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit rps %d: must be at least 1", c.RateLimitRPS))
	}
	if c.RateLimitBurst < c.RateLimitRPS {
		errors = append(errors, fmt.Sprintf("invalid rate limit burst %d: must be at least the rps (%d)", c.RateLimitBurst, c.RateLimitRPS))
	}

	// Validate log level
	if _, err := c.SlogLevel(); err != nil {
		errors = append(errors, err.Error())
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// SlogLevel maps the configured log level name onto a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
