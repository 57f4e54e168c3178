// Package cli provides common process initialization shared by cmd/cashcount
// and cmd/cashctl.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"cashcount/internal/config"
	applog "cashcount/internal/log"
)

// SetupLogger builds the application logger from LOG_LEVEL and LOG_FORMAT
// and installs it as the slog default.
func SetupLogger(level, format string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Format:    format,
		Component: applog.ComponentApp,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	return logger
}

// SetupLoggerFromEnv is SetupLogger for callers that run before the
// configuration is loaded.
func SetupLoggerFromEnv() *applog.Logger {
	return SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig(logger *slog.Logger) (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		return nil, err
	}
	return cfg, nil
}
