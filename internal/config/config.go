package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds process-level settings. Values come from the environment,
// optionally seeded from a .env file in the working directory.
type Config struct {
	MappingPath string
	OutputDir   string
	ListenAddr  string
	DatabaseURL string
	LogLevel    string
}

// Load reads configuration from .env (when present) and the environment.
func Load() *Config {
	// Missing .env is fine; the environment still applies.
	_ = godotenv.Load(".env")

	return &Config{
		MappingPath: envOr("ICSR_MAPPING_PATH", "config/map_metadata.csv"),
		OutputDir:   envOr("ICSR_OUTPUT_DIR", "output"),
		ListenAddr:  envOr("ICSR_LISTEN_ADDR", ":8080"),
		DatabaseURL: os.Getenv("ICSR_DATABASE_URL"),
		LogLevel:    envOr("ICSR_LOG_LEVEL", "info"),
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
