// Package config loads settings for the tileset tools from the environment.
package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TILESETS"

// Config holds all configuration for the tileset tools.
type Config struct {
	Assets    AssetsConfig
	Logging   LoggingConfig
	Telemetry TelemetryConfig
}

// AssetsConfig controls where tilesets are read from.
type AssetsConfig struct {
	Root         string // Directory tileset names are resolved against
	CacheMaxCost int64  // Registry cache budget, in tiles
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string // logrus level name
	Format    string // "text" or "json"
	File      string // Rotating log file; stderr when empty
	MaxSizeMB int
}

// TelemetryConfig holds tracing configuration.
type TelemetryConfig struct {
	Enabled  bool
	Endpoint string // OTLP HTTP URL; the OTEL_EXPORTER_OTLP_* variables apply when empty
}

// Load reads configuration from environment variables and an optional .env
// file in the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// Variables may be set directly
		log.Printf("Note: .env file not loaded: %v", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("asset_root", ".")
	v.SetDefault("cache_max_cost", 4096)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 10)
	v.SetDefault("telemetry_enabled", false)
	v.SetDefault("telemetry_endpoint", "")
	return v
}

// FromViper builds a validated Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Assets: AssetsConfig{
			Root:         v.GetString("asset_root"),
			CacheMaxCost: v.GetInt64("cache_max_cost"),
		},
		Logging: LoggingConfig{
			Level:     strings.ToLower(v.GetString("log_level")),
			Format:    strings.ToLower(v.GetString("log_format")),
			File:      v.GetString("log_file"),
			MaxSizeMB: v.GetInt("log_max_size_mb"),
		},
		Telemetry: TelemetryConfig{
			Enabled:  v.GetBool("telemetry_enabled"),
			Endpoint: v.GetString("telemetry_endpoint"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	if c.Assets.Root == "" {
		return fmt.Errorf("%s_ASSET_ROOT must not be empty", EnvPrefix)
	}
	if c.Assets.CacheMaxCost <= 0 {
		return fmt.Errorf("%s_CACHE_MAX_COST must be positive, got %d", EnvPrefix, c.Assets.CacheMaxCost)
	}
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return fmt.Errorf("%s_LOG_LEVEL %q is not a log level", EnvPrefix, c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%s_LOG_FORMAT must be text or json, got %q", EnvPrefix, c.Logging.Format)
	}
	if c.Logging.File != "" && c.Logging.MaxSizeMB <= 0 {
		return fmt.Errorf("%s_LOG_MAX_SIZE_MB must be positive, got %d", EnvPrefix, c.Logging.MaxSizeMB)
	}
	if c.Telemetry.Endpoint != "" && !strings.HasPrefix(c.Telemetry.Endpoint, "http://") && !strings.HasPrefix(c.Telemetry.Endpoint, "https://") {
		return fmt.Errorf("%s_TELEMETRY_ENDPOINT must be an http(s) URL, got %q", EnvPrefix, c.Telemetry.Endpoint)
	}
	return nil
}
