package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "api:\n  key: test-key\n"))
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.API.Key)
	assert.Equal(t, "https://api.rawg.io/api", cfg.API.BaseURL)
	assert.Equal(t, 40, cfg.API.PageSize)
	assert.Equal(t, 3, cfg.API.Retry.MaxAttempts)
	assert.Equal(t, 6*time.Hour, cfg.Sync.Interval)
	assert.Equal(t, 1500*time.Millisecond, cfg.Sync.RateLimitDelay)
	assert.Equal(t, 0, cfg.Sync.MaxPages)
	assert.Equal(t, "file", cfg.Checkpoint.Backend)
	assert.Equal(t, "rawg_visited_pages.json", cfg.Checkpoint.Path)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("TEST_RAWG_KEY", "secret-from-env")
	t.Setenv("TEST_DB_PASSWORD", "hunter2")

	cfg, err := Load(writeConfig(t, `
api:
  key: ${TEST_RAWG_KEY}
database:
  host: localhost
  port: 5432
  user: syncer
  password: ${TEST_DB_PASSWORD}
  dbname: catalog
  sslmode: disable
`))
	require.NoError(t, err)

	assert.Equal(t, "secret-from-env", cfg.API.Key)
	assert.Equal(t, "hunter2", cfg.Database.Password)
	assert.Equal(t,
		"host=localhost port=5432 user=syncer password=hunter2 dbname=catalog sslmode=disable",
		cfg.Database.DSN(),
	)
}

func TestLoad_ExplicitValuesWin(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
api:
  page_size: 20
  timeout: 5s
sync:
  max_pages: 10
  rate_limit_delay: 2s
checkpoint:
  backend: redis
`))
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.API.PageSize)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 10, cfg.Sync.MaxPages)
	assert.Equal(t, 2*time.Second, cfg.Sync.RateLimitDelay)
	assert.Equal(t, "redis", cfg.Checkpoint.Backend)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
