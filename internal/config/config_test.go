package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 72*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 30*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []SeedColumn{{Name: "To Do"}, {Name: "In Progress"}, {Name: "Done"}}, cfg.Board.DefaultColumns)
	assert.Equal(t, "@every 1h", cfg.Jobs.ResetTokenCleanup)
	assert.Empty(t, cfg.Jobs.ReconcileSizes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "/tmp/trakr.db")
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("JWT_EXPIRY_HOURS", "not-a-number")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "/tmp/trakr.db", cfg.DatabaseDSN())
	assert.Equal(t, 7, cfg.DBMaxOpenConns)
	assert.Equal(t, 72*time.Hour, cfg.JWTExpiry)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trakr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: warn
board:
  default_columns:
    - name: To Do
    - name: Doing
      max: 3
    - name: Done
jobs:
  reconcile_sizes: "@daily"
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, []SeedColumn{{Name: "To Do"}, {Name: "Doing", Max: 3}, {Name: "Done"}}, cfg.Board.DefaultColumns)
	assert.Equal(t, "@daily", cfg.Jobs.ReconcileSizes)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, "@every 1h", cfg.Jobs.ResetTokenCleanup)
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trakr.yaml")
	require.NoError(t, os.WriteFile(path, []byte("board: [unclosed"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	assert.ErrorContains(t, err, "parse config file")
}

func TestDatabaseDSN_Postgres(t *testing.T) {
	cfg := &Config{DBDriver: "postgres", DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p@ss", DBName: "trakr"}
	assert.Equal(t, "postgres://u:p%40ss@db:5432/trakr?sslmode=disable", cfg.DatabaseDSN())
}
