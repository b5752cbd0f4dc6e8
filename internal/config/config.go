package config

import (
	"os"
)

type Config struct {
	Port        string
	DatabaseDSN string
	Env         string
	LogLevel    string
	LogFormat   string
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by the caller) > default.
// An empty DATABASE_DSN selects an on-disk SQLite database, which keeps local
// development dependency-free; a postgres:// DSN selects the Postgres driver.
func Load() Config {
	cfg := Config{}
	cfg.Port = getEnv("PORT", "8080")
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", "invoice.db")
	cfg.Env = getEnv("APP_ENV", "development")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "console")
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
