// Package config loads server settings from the environment, with a .env
// file picked up when present.
package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the server binary needs to start.
type Config struct {
	// Port the HTTP server listens on.
	Port string
	// DBPath is the SQLite database file.
	DBPath string
	// LogLevel is debug, info, warn or error.
	LogLevel string
	// LogFormat is "text" for colored terminal output or "json".
	LogFormat string
	// ProviderBaseURL is the external payment app's deep-link endpoint.
	// Empty disables payment initiation.
	ProviderBaseURL string
}

// Load reads the configuration. A missing .env file is not an error;
// every setting has a working default.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}
	return Config{
		Port:            getEnv("PORT", "8080"),
		DBPath:          getEnv("DB_PATH", "./data/trips.db"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		ProviderBaseURL: getEnv("PROVIDER_BASE_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
