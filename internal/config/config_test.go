package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMySQL, cfg.Storage.Driver)
	assert.Equal(t, 3, cfg.Keepalive.MaxRetries)
	assert.Equal(t, 30, cfg.Keepalive.IntervalMinutes)
	assert.Equal(t, 182*24*time.Hour, cfg.ReviewCadence())
	assert.Equal(t, "_SUPERSEDED", cfg.Governance.SupersededSuffix)
	assert.Contains(t, cfg.Governance.RequiredFields, "owner")
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[app]
port = 9090

[storage]
driver = "memory"

[governance]
required_fields = ["owner", "tags"]
golden_answer_minimum = 5

[keepalive]
interval_minutes = 10
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("AUTH_REFRESH_INTERVAL_MINUTES", "15")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("GOVERNANCE_REQUIRED_FIELDS", "owner, tags ,version")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, 5, cfg.Governance.GoldenAnswerMinimum)
	assert.Equal(t, 15, cfg.Keepalive.IntervalMinutes)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"owner", "tags", "version"}, cfg.Governance.RequiredFields)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTPAddr())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("STORAGE_DRIVER", "postgres")

	_, err := Load()
	assert.Error(t, err)
}
