// Package cli provides common initialization for the famfin binary.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"famfin/internal/config"
	applog "famfin/internal/log"
	"famfin/internal/storage"
)

// SetupLogger initializes structured logging at the given level and
// sets it as the process default.
func SetupLogger(level slog.Level) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     level,
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitStore opens the sqlite ledger store at the given path.
// Exits the process on failure.
func InitStore(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize ledger store", applog.FieldError, err, applog.FieldPath, dbPath)
		os.Exit(1)
	}
	return repo
}
