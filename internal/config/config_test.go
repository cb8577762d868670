package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 3, cfg.CommitMaxRetries)
	assert.Equal(t, "@every 1h", cfg.AuditSchedule)
	assert.True(t, cfg.MigrateOnStart)
	assert.NotEmpty(t, cfg.DBConn)
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("COMMIT_MAX_RETRIES", "5")
	t.Setenv("MIGRATE_ON_START", "false")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 5, cfg.CommitMaxRetries)
	assert.False(t, cfg.MigrateOnStart)
}

func TestNewConfigRejectsZeroRetries(t *testing.T) {
	t.Setenv("COMMIT_MAX_RETRIES", "0")

	_, err := NewConfig()
	assert.Error(t, err)
}

func TestNewConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7070\"\naudit_schedule: \"@daily\"\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "@daily", cfg.AuditSchedule)
}
