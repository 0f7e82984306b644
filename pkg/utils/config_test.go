package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileFallsBackToDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, defaultHTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, defaultSyncAddr, cfg.SyncAddr)
	assert.Equal(t, DefaultMealDBBaseURL, cfg.MealDBBaseURL)
	assert.Equal(t, defaultDetailCache, cfg.DetailCacheSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.RequestsPerSecond)
}

func TestLoadConfig_ParsesFileAndTrims(t *testing.T) {
	chdir(t, t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr = "  127.0.0.1:9999  "
sync_addr = ""
mealdb_base_url = "http://localhost:9000/"
requests_per_second = 4.5
detail_cache_size = -3
log_level = " DEBUG "
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.HTTPAddr)
	assert.Empty(t, cfg.SyncAddr)
	assert.Equal(t, "http://localhost:9000/", cfg.MealDBBaseURL)
	assert.InDelta(t, 4.5, cfg.RequestsPerSecond, 0.0001)
	assert.Equal(t, 0, cfg.DetailCacheSize)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	chdir(t, t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`http_addr = ":1111"`), 0o600))

	t.Setenv("MEALHUB_HTTP_ADDR", ":2222")
	t.Setenv("MEALHUB_RPS", "2")
	t.Setenv("MEALHUB_DETAIL_CACHE", "10")
	t.Setenv("MEALHUB_LOG_DEV", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":2222", cfg.HTTPAddr)
	assert.InDelta(t, 2.0, cfg.RequestsPerSecond, 0.0001)
	assert.Equal(t, 10, cfg.DetailCacheSize)
	assert.True(t, cfg.LogDevelopment)
}

func TestLoadConfig_BadEnvValue(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MEALHUB_RPS", "fast")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MEALHUB_RPS")
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	chdir(t, t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`http_addr = `), 0o600))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestNewLogger_RejectsUnknownLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "chatty"

	_, err := NewLogger(cfg)
	require.Error(t, err)
}

// chdir stands in for testing.T.Chdir, which needs Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(prev)) })
}
