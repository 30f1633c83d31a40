// Package config handles configuration loading for MarketGauge.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Data    DataConfig    `mapstructure:"data"    yaml:"data"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// DataConfig holds market-data source and caching settings.
type DataConfig struct {
	Benchmark         string `mapstructure:"benchmark"           yaml:"benchmark"`           // e.g. "SPY"
	UniverseFile      string `mapstructure:"universe_file"       yaml:"universe_file"`       // CSV with a Symbol/Ticker column
	StatsFile         string `mapstructure:"stats_file"          yaml:"stats_file"`          // API call counter persistence
	MaxExpirations    int    `mapstructure:"max_expirations"     yaml:"max_expirations"`     // option chain depth
	OptionsCacheTTL   int    `mapstructure:"options_cache_ttl"   yaml:"options_cache_ttl"`   // seconds
	HistoryCacheTTL   int    `mapstructure:"history_cache_ttl"   yaml:"history_cache_ttl"`   // seconds
	InfoCacheTTL      int    `mapstructure:"info_cache_ttl"      yaml:"info_cache_ttl"`      // seconds
	UniverseCacheTTL  int    `mapstructure:"universe_cache_ttl"  yaml:"universe_cache_ttl"`  // seconds
	RequestsPerSecond int    `mapstructure:"requests_per_second" yaml:"requests_per_second"` // upstream rate limit
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "console" or "json"
}

// OptionsTTL returns the options chain cache TTL as a duration.
func (d DataConfig) OptionsTTL() time.Duration { return time.Duration(d.OptionsCacheTTL) * time.Second }

// HistoryTTL returns the price history cache TTL as a duration.
func (d DataConfig) HistoryTTL() time.Duration { return time.Duration(d.HistoryCacheTTL) * time.Second }

// InfoTTL returns the fundamentals cache TTL as a duration.
func (d DataConfig) InfoTTL() time.Duration { return time.Duration(d.InfoCacheTTL) * time.Second }

// UniverseTTL returns the universe cache TTL as a duration.
func (d DataConfig) UniverseTTL() time.Duration {
	return time.Duration(d.UniverseCacheTTL) * time.Second
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.marketgauge/config.yaml (home directory)
//  3. /etc/marketgauge/config.yaml (system)
//
// Environment variables override config file values.
// Format: MARKETGAUGE_<SECTION>_<KEY>, e.g. MARKETGAUGE_API_PORT
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".marketgauge"))
	v.AddConfigPath("/etc/marketgauge")

	v.SetEnvPrefix("MARKETGAUGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("MARKETGAUGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Data defaults
	v.SetDefault("data.benchmark", "SPY")
	v.SetDefault("data.universe_file", "tickers.csv")
	v.SetDefault("data.stats_file", "api_stats.json")
	v.SetDefault("data.max_expirations", 10)
	v.SetDefault("data.options_cache_ttl", 300)     // 5 minutes
	v.SetDefault("data.history_cache_ttl", 900)     // 15 minutes
	v.SetDefault("data.info_cache_ttl", 3600)       // 1 hour
	v.SetDefault("data.universe_cache_ttl", 86400)  // 24 hours
	v.SetDefault("data.requests_per_second", 4)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
