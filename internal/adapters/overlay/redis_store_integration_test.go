//go:build integration

package overlay_test

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/hospitalrouter/backend/internal/adapters/overlay"
	"github.com/zatekoja/hospitalrouter/backend/internal/domain/entities"
	"github.com/zatekoja/hospitalrouter/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/hospitalrouter/backend/pkg/config"
)

func TestRedisStore_ApplyAndSnapshot(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	client := newTestRedisClient(t)
	if client == nil {
		t.Skip("Redis not available for integration test")
	}
	defer client.Close()

	ctx := context.Background()
	const overlayKey = "hospitalrouter-test:overlay"
	require.NoError(t, client.Client().Del(ctx, overlayKey).Err())
	defer client.Client().Del(ctx, overlayKey)
	store := overlay.NewRedisStore(client, "hospitalrouter-test")

	delta := entities.CapacityOverlay{
		EDBedsDelta:             -1,
		ICUBedsDelta:            -1,
		SpecialistPatientsDelta: map[entities.Specialty]int{entities.SpecialtyCardiology: 1},
	}
	require.NoError(t, store.Apply(ctx, "St. David's: North", delta))
	require.NoError(t, store.Apply(ctx, "St. David's: North", delta))
	require.NoError(t, store.Apply(ctx, "Other", entities.CapacityOverlay{EDBedsDelta: -1}))

	got, err := store.Get(ctx, "St. David's: North")
	require.NoError(t, err)
	assert.Equal(t, -2, got.EDBedsDelta)
	assert.Equal(t, -2, got.ICUBedsDelta)
	assert.Equal(t, 2, got.SpecialistDelta(entities.SpecialtyCardiology))

	snapshot, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 2)
	assert.Equal(t, got, snapshot["St. David's: North"])
	assert.Equal(t, -1, snapshot["Other"].EDBedsDelta)
}

func newTestRedisClient(t *testing.T) *redis.Client {
	cfg := &config.RedisConfig{
		Host:     getEnv("TEST_REDIS_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_REDIS_PORT", 6379),
		Password: getEnv("TEST_REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("TEST_REDIS_DB", 0),
	}
	client, err := redis.NewClient(cfg)
	if err != nil {
		t.Logf("Redis unavailable: %v", err)
		return nil
	}
	return client
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
