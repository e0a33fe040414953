package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddress)
	assert.Equal(t, DefaultElevationURL, cfg.ElevationURL)
	assert.False(t, cfg.UseAltitudeCache)
	assert.Equal(t, 507.0, cfg.Altitude)
	assert.Equal(t, 1, cfg.AltitudeVariance)
	assert.Equal(t, CacheBackendPostgres, cfg.CacheBackend)
	assert.Equal(t, 70.0, cfg.CacheRadius)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := writeEnvFile(t, `GMAPS_KEY=file-key
USE_ALTITUDE_CACHE=true
ALTITUDE=100
ALTITUDE_VARIANCE=0
ALTITUDE_CACHE_BACKEND=Redis
`)
	t.Setenv("GMAPS_KEY", "env-key")
	t.Setenv("ALTITUDE_CACHE_RADIUS", "25")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.GMapsKey)
	assert.True(t, cfg.UseAltitudeCache)
	assert.Equal(t, 100.0, cfg.Altitude)
	assert.Equal(t, 0, cfg.AltitudeVariance)
	assert.Equal(t, CacheBackendRedis, cfg.CacheBackend)
	assert.Equal(t, 25.0, cfg.CacheRadius)
}

func TestConfig_Validate(t *testing.T) {
	base := Config{CacheBackend: CacheBackendPostgres, CacheRadius: 70}

	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.CacheBackend = "memcached" }, expectError: true},
		{name: "variance at limit", mutate: func(c *Config) { c.AltitudeVariance = MaxAltitudeVariance }},
		{name: "variance too large", mutate: func(c *Config) { c.AltitudeVariance = MaxAltitudeVariance + 1 }, expectError: true},
		{name: "zero radius", mutate: func(c *Config) { c.CacheRadius = 0 }, expectError: true},
		{name: "postgres cache without db source", mutate: func(c *Config) { c.UseAltitudeCache = true }, expectError: true},
		{
			name: "redis cache without db source",
			mutate: func(c *Config) {
				c.UseAltitudeCache = true
				c.CacheBackend = CacheBackendRedis
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
