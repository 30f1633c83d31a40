package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadReturnsDefaults(t *testing.T) {
	os.Unsetenv("MARKETGAUGE_API_PORT")
	os.Unsetenv("MARKETGAUGE_DATA_BENCHMARK")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Data.Benchmark != "SPY" {
		t.Errorf("Data.Benchmark: got %q, want %q", cfg.Data.Benchmark, "SPY")
	}
	if cfg.Data.UniverseFile != "tickers.csv" {
		t.Errorf("Data.UniverseFile: got %q", cfg.Data.UniverseFile)
	}
	if cfg.Data.StatsFile != "api_stats.json" {
		t.Errorf("Data.StatsFile: got %q", cfg.Data.StatsFile)
	}
	if cfg.Data.MaxExpirations != 10 {
		t.Errorf("Data.MaxExpirations: got %d, want 10", cfg.Data.MaxExpirations)
	}
	if cfg.Data.OptionsCacheTTL != 300 {
		t.Errorf("Data.OptionsCacheTTL: got %d, want 300", cfg.Data.OptionsCacheTTL)
	}
	if cfg.Data.HistoryCacheTTL != 900 {
		t.Errorf("Data.HistoryCacheTTL: got %d, want 900", cfg.Data.HistoryCacheTTL)
	}
	if cfg.Data.InfoCacheTTL != 3600 {
		t.Errorf("Data.InfoCacheTTL: got %d, want 3600", cfg.Data.InfoCacheTTL)
	}
	if cfg.Data.UniverseCacheTTL != 86400 {
		t.Errorf("Data.UniverseCacheTTL: got %d, want 86400", cfg.Data.UniverseCacheTTL)
	}
	if cfg.Data.RequestsPerSecond != 4 {
		t.Errorf("Data.RequestsPerSecond: got %d, want 4", cfg.Data.RequestsPerSecond)
	}

	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "0.0.0.0")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "console")
	}
}

func TestTTLHelpers(t *testing.T) {
	d := DataConfig{
		OptionsCacheTTL:  300,
		HistoryCacheTTL:  900,
		InfoCacheTTL:     3600,
		UniverseCacheTTL: 86400,
	}
	if d.OptionsTTL() != 5*time.Minute {
		t.Errorf("OptionsTTL: got %v", d.OptionsTTL())
	}
	if d.HistoryTTL() != 15*time.Minute {
		t.Errorf("HistoryTTL: got %v", d.HistoryTTL())
	}
	if d.InfoTTL() != time.Hour {
		t.Errorf("InfoTTL: got %v", d.InfoTTL())
	}
	if d.UniverseTTL() != 24*time.Hour {
		t.Errorf("UniverseTTL: got %v", d.UniverseTTL())
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
data:
  benchmark: "QQQ"
  max_expirations: 4
  options_cache_ttl: 60
api:
  port: 9090
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Data.Benchmark != "QQQ" {
		t.Errorf("Data.Benchmark: got %q, want %q", cfg.Data.Benchmark, "QQQ")
	}
	if cfg.Data.MaxExpirations != 4 {
		t.Errorf("Data.MaxExpirations: got %d, want 4", cfg.Data.MaxExpirations)
	}
	if cfg.Data.OptionsCacheTTL != 60 {
		t.Errorf("Data.OptionsCacheTTL: got %d, want 60", cfg.Data.OptionsCacheTTL)
	}
	// Unset keys keep their defaults.
	if cfg.Data.UniverseFile != "tickers.csv" {
		t.Errorf("Data.UniverseFile: got %q, want default", cfg.Data.UniverseFile)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/path/config.yaml"); err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	if homeDir() == "" {
		t.Error("homeDir() should not return empty string")
	}
}
