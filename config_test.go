package moonlight

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Moonlight", cfg.Name)
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, "data/moonlight.db", cfg.DatabasePath)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 365, cfg.StatsRetentionDays)
	assert.Equal(t, 10*time.Minute, cfg.ViewDedupWindow)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moonlight.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: Cine Luna
url: https://cineluna.example
addr: ":8080"
cookie_secure: true
cache_ttl: 90s
stats_retention_days: 30
`), 0o644))
	t.Setenv("MOONLIGHT_SITE_NAME", "Luna TV")
	t.Setenv("MOONLIGHT_CACHE_TTL", "2m")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Luna TV", cfg.Name)
	assert.Equal(t, "https://cineluna.example", cfg.URL)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 30, cfg.StatsRetentionDays)
}

func TestLoadConfigErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unclosed"), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)

	t.Setenv("MOONLIGHT_COOKIE_SECURE", "quizá")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "MOONLIGHT_COOKIE_SECURE")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, parseLogLevel("DEBUG"), parseLogLevel("debug"))
	assert.Equal(t, parseLogLevel("info"), parseLogLevel("unknown"))
	assert.NotEqual(t, parseLogLevel("info"), parseLogLevel("error"))
}
