package dashboard

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/openfolio/marketgauge/internal/config"
)

func testService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Data.Benchmark = "SPY"
	cfg.Data.UniverseFile = filepath.Join(dir, "tickers.csv")
	cfg.Data.StatsFile = filepath.Join(dir, "api_stats.json")
	cfg.Data.MaxExpirations = 10
	cfg.Data.RequestsPerSecond = 4
	cfg.Data.OptionsCacheTTL = 300
	cfg.Data.HistoryCacheTTL = 900
	cfg.Data.InfoCacheTTL = 3600
	cfg.Data.UniverseCacheTTL = 86400

	return New(cfg, zerolog.Nop())
}

func TestUniverseFromFile(t *testing.T) {
	s := testService(t)
	if err := os.WriteFile(s.cfg.Data.UniverseFile, []byte("Symbol\nAAPL\nMSFT\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tickers, err := s.Universe(context.Background())
	if err != nil {
		t.Fatalf("Universe: %v", err)
	}
	if len(tickers) != 2 || tickers[0] != "AAPL" {
		t.Errorf("tickers = %v", tickers)
	}

	// Second call is served from cache even if the file changes.
	if err := os.WriteFile(s.cfg.Data.UniverseFile, []byte("Symbol\nTSLA\n"), 0644); err != nil {
		t.Fatal(err)
	}
	tickers, err = s.Universe(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(tickers) != 2 {
		t.Errorf("cached universe = %v, want original 2 tickers", tickers)
	}
}

func TestUniverseFallbackWithoutFile(t *testing.T) {
	s := testService(t)
	tickers, err := s.Universe(context.Background())
	if err != nil {
		t.Fatalf("Universe: %v", err)
	}
	if len(tickers) != 10 {
		t.Errorf("fallback universe = %d tickers, want 10", len(tickers))
	}
}

func TestScreenUnknownStrategy(t *testing.T) {
	s := testService(t)
	if _, err := s.Screen(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestUsageStatsStartsAtZero(t *testing.T) {
	s := testService(t)
	if got := s.UsageStats().TotalCalls; got != 0 {
		t.Errorf("fresh counter = %d, want 0", got)
	}
}
