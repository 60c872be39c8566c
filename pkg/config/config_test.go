package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_TravelTimeConfig(t *testing.T) {
	t.Setenv("TRAVEL_TIME_PROVIDER", "Google")
	t.Setenv("GMAPS_API_KEY", "test-key")
	t.Setenv("TRAVEL_TIME_TIMEOUT_SECONDS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, TravelTimeProviderGoogle, cfg.TravelTime.Provider)
	assert.Equal(t, "test-key", cfg.TravelTime.APIKey)
	assert.Equal(t, 4*time.Second, cfg.TravelTime.Timeout)
	assert.True(t, cfg.TravelTime.LiveTravelTimeEnabled())
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GMAPS_API_KEY", "")
	t.Setenv("OVERLAY_BACKEND", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/hospitals.csv", cfg.Registry.Source)
	assert.Equal(t, 10*time.Second, cfg.TravelTime.Timeout)
	assert.Equal(t, OverlayBackendMemory, cfg.Overlay.Backend)
	assert.False(t, cfg.TravelTime.LiveTravelTimeEnabled())
	assert.False(t, cfg.RedisRequired())
}

func TestLoad_RedisOverlayRequiresRedis(t *testing.T) {
	t.Setenv("OVERLAY_BACKEND", "redis")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.RedisRequired())
}

func TestLoad_RejectsUnknownBackends(t *testing.T) {
	t.Setenv("OVERLAY_BACKEND", "etcd")

	_, err := Load()
	assert.Error(t, err)
}
