package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Catalog selection
	CatalogSource string
	CatalogFile   string
	SQLiteDBPath  string

	// Currency display
	Locale         string
	CurrencyCode   string
	CurrencySymbol string

	// Sessions
	SessionTTL  time.Duration
	MaxSessions int

	// Rate limiting
	RateLimitPerMinute int

	// Logging
	LogLevel  string
	LogFormat string
}

var (
	validCatalogSources = []string{"builtin", "yaml", "sqlite"}
	validLogLevels      = []string{"debug", "info", "warn", "error"}
	validLogFormats     = []string{"text", "json"}
)

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		CatalogSource: getEnv("CATALOG_SOURCE", "builtin"),
		CatalogFile:   getEnv("CATALOG_FILE", ""),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/cashcount.db"),

		Locale:         getEnv("LOCALE", "ko-KR"),
		CurrencyCode:   getEnv("CURRENCY_CODE", "KRW"),
		CurrencySymbol: getEnv("CURRENCY_SYMBOL", "₩"),

		SessionTTL:  getEnvDuration("SESSION_TTL", 12*time.Hour),
		MaxSessions: getEnvInt("MAX_SESSIONS", 1000),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}
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

	if !oneOf(c.CatalogSource, validCatalogSources) {
		errors = append(errors, fmt.Sprintf("invalid catalog source '%s': must be one of %v", c.CatalogSource, validCatalogSources))
	}

	switch c.CatalogSource {
	case "yaml":
		if c.CatalogFile == "" {
			errors = append(errors, "CATALOG_FILE is required when using yaml catalog source")
		} else if _, err := os.Stat(c.CatalogFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("catalog file does not exist: %s", c.CatalogFile))
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite catalog source")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if strings.TrimSpace(c.Locale) == "" {
		errors = append(errors, "locale cannot be empty")
	}
	if len(c.CurrencyCode) != 3 {
		errors = append(errors, fmt.Sprintf("invalid currency code '%s': must be a 3-letter ISO 4217 code", c.CurrencyCode))
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	} else if c.SessionTTL > 7*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at most 168 hours", c.SessionTTL))
	}

	if c.MaxSessions < 1 {
		errors = append(errors, fmt.Sprintf("invalid max sessions %d: must be at least 1", c.MaxSessions))
	} else if c.MaxSessions > 100000 {
		errors = append(errors, fmt.Sprintf("invalid max sessions %d: must be at most 100000", c.MaxSessions))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if c.LogLevel != "" && !oneOf(c.LogLevel, validLogLevels) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}
	if c.LogFormat != "" && !oneOf(c.LogFormat, validLogFormats) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validLogFormats))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func oneOf(v string, options []string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
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
