package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	for _, names := range envBindings {
		for _, name := range names {
			t.Setenv(name, "")
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, filepath.Join("data", "app.db"), cfg.DatabaseURL)
	assert.Equal(t, filepath.Join("data", "tasks.json"), cfg.TasksFile)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.ReportTime)
	assert.Empty(t, cfg.Telegram.Token)
}

func TestLoadDataDirDrivesFileDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_DIR", "/srv/goals")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/srv/goals", "app.db"), cfg.DatabaseURL)
	assert.Equal(t, filepath.Join("/srv/goals", "tasks.json"), cfg.TasksFile)
}

func TestLoadDatabaseEnvPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_DIR", "/srv/goals")
	t.Setenv("SQLITE_PATH", "/tmp/sqlite.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/sqlite.db", cfg.DatabaseURL)

	t.Setenv("DB_PATH", "/tmp/db-path.db")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/db-path.db", cfg.DatabaseURL)

	t.Setenv("DATABASE_URL", "file:/tmp/url.db?_busy_timeout=100")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "file:/tmp/url.db?_busy_timeout=100", cfg.DatabaseURL)
}

func TestLoadTimezoneAndTelegram(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("TELEGRAM_TOKEN", "  abc  ")
	t.Setenv("TELEGRAM_ALLOWED_USER_ID", "42")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "abc", cfg.Telegram.Token)
	assert.Equal(t, int64(42), cfg.Telegram.AllowedUserID)

	t.Setenv("APP_TZ", "America/New_York")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", cfg.Timezone)
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("server:\n  addr: \":9090\"\ntimezone: UTC\ntasks_file: /etc/goals/tasks.json\nreport_time: \"07:30\"\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "/etc/goals/tasks.json", cfg.TasksFile)
	assert.Equal(t, "07:30", cfg.ReportTime)

	t.Setenv("HTTP_ADDR", ":7070")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadServerMode(t *testing.T) {
	clearEnv(t)
	t.Setenv("GIN_MODE", " Debug ")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Server.Mode)

	t.Setenv("SERVER_MODE", "production")
	_, err = Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "production")
}
