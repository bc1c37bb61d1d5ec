package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port          string `mapstructure:"PORT"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	AutoMigrate   bool   `mapstructure:"AUTO_MIGRATE"`

	ClerkSecretKey     string `mapstructure:"CLERK_SECRET_KEY"`
	ClerkWebhookSecret string `mapstructure:"CLERK_WEBHOOK_SECRET"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	GlyphCacheTTL time.Duration `mapstructure:"GLYPH_CACHE_TTL"`

	S3Region        string `mapstructure:"S3_REGION"`
	S3Bucket        string `mapstructure:"S3_BUCKET"`
	S3AccessKey     string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey     string `mapstructure:"S3_SECRET_KEY"`
	S3Endpoint      string `mapstructure:"S3_ENDPOINT"`
	S3PublicBaseURL string `mapstructure:"S3_PUBLIC_BASE_URL"`

	DiscoveryRadiusMeters float64 `mapstructure:"DISCOVERY_RADIUS_METERS"`
	SearchRadiusMeters    float64 `mapstructure:"SEARCH_RADIUS_METERS"`
	MaxSearchRadiusMeters float64 `mapstructure:"MAX_SEARCH_RADIUS_METERS"`
	MaxGPSAccuracyMeters  float64 `mapstructure:"MAX_GPS_ACCURACY_METERS"`
	StreakTimezone        string  `mapstructure:"STREAK_TIMEZONE"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	MetricsUser    string  `mapstructure:"METRICS_USER"`
	MetricsPass    string  `mapstructure:"METRICS_PASS"`
	PprofSecret    string  `mapstructure:"PPROF_SECRET"`
	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
	TrustProxy     bool    `mapstructure:"TRUST_PROXY_HEADERS"`
}

var defaults = map[string]any{
	"PORT":                     "3333",
	"STORAGE_DRIVER":           DriverPostgres,
	"AUTO_MIGRATE":             false,
	"REDIS_DB":                 0,
	"GLYPH_CACHE_TTL":          "30s",
	"S3_REGION":                "us-east-1",
	"DISCOVERY_RADIUS_METERS":  50.0,
	"SEARCH_RADIUS_METERS":     200.0,
	"MAX_SEARCH_RADIUS_METERS": 5000.0,
	"MAX_GPS_ACCURACY_METERS":  10.0,
	"STREAK_TIMEZONE":          "UTC",
	"LOG_LEVEL":                "info",
	"LOG_FORMAT":               "console",
	"RATE_LIMIT_RPS":           5.0,
	"RATE_LIMIT_BURST":         30,
	"TRUST_PROXY_HEADERS":      false,
}

var keys = []string{
	"PORT", "DATABASE_URL", "STORAGE_DRIVER", "AUTO_MIGRATE",
	"CLERK_SECRET_KEY", "CLERK_WEBHOOK_SECRET",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "GLYPH_CACHE_TTL",
	"S3_REGION", "S3_BUCKET", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_ENDPOINT", "S3_PUBLIC_BASE_URL",
	"DISCOVERY_RADIUS_METERS", "SEARCH_RADIUS_METERS", "MAX_SEARCH_RADIUS_METERS",
	"MAX_GPS_ACCURACY_METERS", "STREAK_TIMEZONE",
	"LOG_LEVEL", "LOG_FORMAT",
	"METRICS_USER", "METRICS_PASS", "PPROF_SECRET", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"TRUST_PROXY_HEADERS",
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Debug().Err(err).Msg("No .env file found")
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", k, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.DiscoveryRadiusMeters <= 0 {
		errs = append(errs, errors.New("DISCOVERY_RADIUS_METERS must be positive"))
	}
	if c.SearchRadiusMeters < c.DiscoveryRadiusMeters {
		errs = append(errs, fmt.Errorf("SEARCH_RADIUS_METERS (%.0f) must be >= DISCOVERY_RADIUS_METERS (%.0f)",
			c.SearchRadiusMeters, c.DiscoveryRadiusMeters))
	}
	if c.MaxSearchRadiusMeters < c.SearchRadiusMeters {
		errs = append(errs, errors.New("MAX_SEARCH_RADIUS_METERS must be >= SEARCH_RADIUS_METERS"))
	}
	if c.MaxGPSAccuracyMeters <= 0 {
		errs = append(errs, errors.New("MAX_GPS_ACCURACY_METERS must be positive"))
	}
	if _, err := time.LoadLocation(c.StreakTimezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid STREAK_TIMEZONE %q: %w", c.StreakTimezone, err))
	}

	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL environment variable is not set"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	return errors.Join(errs...)
}

// Location returns the time zone that defines a streak "day".
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.StreakTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}
