package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pokerequity.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultTablesDir, cfg.Engine.TablesDir)
	assert.Equal(t, 1, cfg.Daemon.MinOpponents)
	assert.Equal(t, 8, cfg.Daemon.MaxOpponents)
	assert.Equal(t, 100, cfg.Daemon.MinIterations)
	assert.Equal(t, 1_000_000, cfg.Daemon.MaxIterations)
	assert.Equal(t, 5*time.Second, cfg.Client.ReadyTimeout())
	assert.Equal(t, 5*time.Second, cfg.Client.RequestTimeout())
	assert.Equal(t, log.InfoLevel, cfg.LogLevel())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
engine {
  tables_dir = "/var/lib/pokerequity"
  seed       = 1234
}

daemon {
  max_opponents = 6
  listen        = "127.0.0.1:7777"
}

client {
  binary             = "/usr/local/bin/pokerequity"
  args               = ["daemon", "--tables", "/var/lib/pokerequity"]
  request_timeout_ms = 2500
}

log {
  level = "debug"
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/var/lib/pokerequity", cfg.Engine.TablesDir)
	assert.Equal(t, int64(1234), cfg.Engine.Seed)
	assert.Equal(t, 6, cfg.Daemon.MaxOpponents)
	assert.Equal(t, 1, cfg.Daemon.MinOpponents, "unset fields keep their defaults")
	assert.Equal(t, "127.0.0.1:7777", cfg.Daemon.Listen)
	assert.Equal(t, []string{"daemon", "--tables", "/var/lib/pokerequity"}, cfg.Client.Args)
	assert.Equal(t, 2500*time.Millisecond, cfg.Client.RequestTimeout())
	assert.Equal(t, 5*time.Second, cfg.Client.ReadyTimeout())
	assert.Equal(t, log.DebugLevel, cfg.LogLevel())
}

func TestLoadRejectsBadHCL(t *testing.T) {
	_, err := Load(writeConfig(t, `engine { tables_dir = `))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `daemon { max_opponents = "many" }`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `unknown { }`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"opponent bounds inverted", func(c *Config) { c.Daemon.MinOpponents = 5; c.Daemon.MaxOpponents = 2 }},
		{"iteration bounds inverted", func(c *Config) { c.Daemon.MinIterations = 1000; c.Daemon.MaxIterations = 10 }},
		{"negative timeout", func(c *Config) { c.Client.RequestTimeoutMs = -1 }},
		{"unknown log level", func(c *Config) { c.Log.Level = "chatty" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
