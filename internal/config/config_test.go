package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load("testdata/missing.env")
	require.NoError(t, err)

	assert.Equal(t, "3333", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, 50.0, cfg.DiscoveryRadiusMeters)
	assert.Equal(t, 200.0, cfg.SearchRadiusMeters)
	assert.Equal(t, 10.0, cfg.MaxGPSAccuracyMeters)
	assert.Equal(t, 30*time.Second, cfg.GlyphCacheTTL)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.False(t, cfg.RedisEnabled())
	assert.False(t, cfg.S3Enabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/glyph")
	t.Setenv("DISCOVERY_RADIUS_METERS", "25")
	t.Setenv("SEARCH_RADIUS_METERS", "300")
	t.Setenv("GLYPH_CACHE_TTL", "1m")
	t.Setenv("STREAK_TIMEZONE", "Europe/Sofia")

	cfg, err := Load("testdata/missing.env")
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, 25.0, cfg.DiscoveryRadiusMeters)
	assert.Equal(t, 300.0, cfg.SearchRadiusMeters)
	assert.Equal(t, time.Minute, cfg.GlyphCacheTTL)
	assert.Equal(t, "Europe/Sofia", cfg.Location().String())
}

func TestValidateRejectsSearchRadiusBelowDiscoveryRadius(t *testing.T) {
	cfg := Config{
		StorageDriver:         DriverMemory,
		DiscoveryRadiusMeters: 50,
		SearchRadiusMeters:    20,
		MaxSearchRadiusMeters: 5000,
		MaxGPSAccuracyMeters:  10,
		StreakTimezone:        "UTC",
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEARCH_RADIUS_METERS")
}

func TestValidateRequiresDatabaseURLForPostgres(t *testing.T) {
	cfg := Config{
		StorageDriver:         DriverPostgres,
		DiscoveryRadiusMeters: 50,
		SearchRadiusMeters:    200,
		MaxSearchRadiusMeters: 5000,
		MaxGPSAccuracyMeters:  10,
		StreakTimezone:        "Not/AZone",
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "STREAK_TIMEZONE")
}
