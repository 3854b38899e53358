package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ICSR_MAPPING_PATH", "")
	t.Setenv("ICSR_OUTPUT_DIR", "")
	t.Setenv("ICSR_LISTEN_ADDR", "")
	t.Setenv("ICSR_DATABASE_URL", "")
	t.Setenv("ICSR_LOG_LEVEL", "")

	cfg := Load()

	assert.Equal(t, "config/map_metadata.csv", cfg.MappingPath)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ICSR_MAPPING_PATH", "/etc/icsr/map.csv")
	t.Setenv("ICSR_OUTPUT_DIR", "/var/icsr/out")
	t.Setenv("ICSR_LISTEN_ADDR", ":9090")
	t.Setenv("ICSR_DATABASE_URL", "postgres://localhost/pv")
	t.Setenv("ICSR_LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, "/etc/icsr/map.csv", cfg.MappingPath)
	assert.Equal(t, "/var/icsr/out", cfg.OutputDir)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "postgres://localhost/pv", cfg.DatabaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
}
