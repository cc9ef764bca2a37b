package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menabung/rebalancer/internal/modules/yields"
	"github.com/menabung/rebalancer/internal/storage"
)

func TestLoad_Defaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	t.Setenv("DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.DirExists(t, dir)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, yields.ModeDemo, cfg.YieldMode)
	assert.Equal(t, 5*time.Minute, cfg.YieldCacheTTL)
	assert.Equal(t, 2.0, cfg.SignificantChangeThreshold)
	assert.Equal(t, "@every 5m0s", cfg.RefreshSchedule)
	assert.Equal(t, 4*time.Hour, cfg.NotifyCooldown)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, storage.BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, filepath.Join(dir, "store.db"), cfg.StorePath())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("YIELD_SOURCE_MODE", "LIVE")
	t.Setenv("YIELD_CACHE_TTL", "90s")
	t.Setenv("SIGNIFICANT_CHANGE_THRESHOLD", "1.5")
	t.Setenv("NOTIFY_COOLDOWN_HOURS", "0.5")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("THETANUTS_API_URL", "https://thetanuts.example")
	t.Setenv("HTTP_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, yields.ModeLive, cfg.YieldMode)
	assert.Equal(t, 90*time.Second, cfg.YieldCacheTTL)
	assert.Equal(t, 30*time.Minute, cfg.NotifyCooldown)
	assert.Equal(t, storage.BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout, "unparsable values fall back to the default")

	agg := cfg.AggregatorConfig()
	assert.Equal(t, yields.ModeLive, agg.Mode)
	assert.Equal(t, 1.5, agg.SignificantChangeThreshold)
	assert.Equal(t, "https://thetanuts.example", cfg.RemoteConfig().ThetanutsURL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"mode", "YIELD_SOURCE_MODE", "paper"},
		{"backend", "STORE_BACKEND", "postgres"},
		{"port", "PORT", "70000"},
		{"threshold", "SIGNIFICANT_CHANGE_THRESHOLD", "-1"},
		{"ttl", "YIELD_CACHE_TTL", "-5m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATA_DIR", t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
