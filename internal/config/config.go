package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	CacheBackendPostgres = "postgres"
	CacheBackendRedis    = "redis"

	DefaultElevationURL = "https://maps.googleapis.com/maps/api/elevation/json"

	// MaxAltitudeVariance bounds ALTITUDE_VARIANCE in meters.
	MaxAltitudeVariance = 100000
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	DBSource      string `mapstructure:"DB_SOURCE"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	ServerAddress string `mapstructure:"SERVER_ADDRESS"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`

	GMapsKey     string `mapstructure:"GMAPS_KEY"`
	ElevationURL string `mapstructure:"ELEVATION_URL"`

	UseAltitudeCache bool    `mapstructure:"USE_ALTITUDE_CACHE"`
	Altitude         float64 `mapstructure:"ALTITUDE"`
	AltitudeVariance int     `mapstructure:"ALTITUDE_VARIANCE"`
	CacheBackend     string  `mapstructure:"ALTITUDE_CACHE_BACKEND"`
	CacheRadius      float64 `mapstructure:"ALTITUDE_CACHE_RADIUS"`
}

// LoadConfig reads app.env from path, overridden by environment variables.
// A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	// Every key needs a default so AutomaticEnv can see it during Unmarshal.
	v.SetDefault("DB_SOURCE", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("GMAPS_KEY", "")
	v.SetDefault("ELEVATION_URL", DefaultElevationURL)
	v.SetDefault("USE_ALTITUDE_CACHE", false)
	v.SetDefault("ALTITUDE", 507.0)
	v.SetDefault("ALTITUDE_VARIANCE", 1)
	v.SetDefault("ALTITUDE_CACHE_BACKEND", CacheBackendPostgres)
	v.SetDefault("ALTITUDE_CACHE_RADIUS", 70.0)

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to unmarshal config: %w", err)
	}
	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(cfg.CacheBackend))

	return cfg, nil
}

// Validate checks the combinations LoadConfig cannot express with defaults.
func (c Config) Validate() error {
	switch c.CacheBackend {
	case CacheBackendPostgres, CacheBackendRedis:
	default:
		return fmt.Errorf("config: unknown altitude cache backend %q", c.CacheBackend)
	}

	if c.AltitudeVariance > MaxAltitudeVariance {
		return fmt.Errorf("config: altitude variance must be at most %d, got %d", MaxAltitudeVariance, c.AltitudeVariance)
	}

	if c.CacheRadius <= 0 {
		return fmt.Errorf("config: altitude cache radius must be positive, got %v", c.CacheRadius)
	}

	if c.UseAltitudeCache && c.CacheBackend == CacheBackendPostgres && strings.TrimSpace(c.DBSource) == "" {
		return errors.New("config: DB_SOURCE is required when the postgres altitude cache is enabled")
	}

	return nil
}
