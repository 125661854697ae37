package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout())
	assert.Equal(t, 3, cfg.HTTP.MaxRetries)
	assert.Equal(t, 45*time.Second, cfg.Search.SourceTimeout())
	assert.Equal(t, 5, cfg.Search.MaxConcurrent)
	assert.Equal(t, 100, cfg.Search.MaxResults)
	assert.InDelta(t, 10, cfg.Dedup.DistanceMeters, 0.001)
	assert.Equal(t, time.Hour, cfg.Dedup.TimeWindow())
	assert.InDelta(t, 0.90, cfg.Dedup.TextSimilarity, 0.001)
	assert.False(t, cfg.Dedup.TextCheckEnable)
	assert.Equal(t, "en", cfg.Sources.Wikipedia.Language)
	assert.True(t, cfg.Sources.Pastvu.Enabled)
	assert.Equal(t, "https://pastvu.com/api2", cfg.Sources.Pastvu.BaseURL)
	assert.Equal(t, "https://api.flickr.com/services/rest", cfg.Sources.Flickr.BaseURL)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/pegasus
log:
  level: debug
dedup:
  distance_meters: 25
  time_window_mins: 30
  text_check_enable: true
sources:
  flickr:
    api_key: abc123
  wikipedia:
    language: ru
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.InDelta(t, 25, cfg.Dedup.DistanceMeters, 0.001)
	assert.Equal(t, 30*time.Minute, cfg.Dedup.TimeWindow())
	assert.True(t, cfg.Dedup.TextCheckEnable)
	assert.Equal(t, "abc123", cfg.Sources.Flickr.APIKey)
	assert.Equal(t, "ru", cfg.Sources.Wikipedia.Language)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouting", Format: "json"})
	require.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
}
