package sector

import (
	"sort"
	"testing"
	"time"

	"github.com/openfolio/marketgauge/pkg/models"
)

func trendBars(n int, start, dailyGrowth float64) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	base := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	price := start
	for i := range bars {
		bars[i] = models.PriceBar{
			Date: base.AddDate(0, 0, i), Open: price, High: price * 1.005,
			Low: price * 0.995, Close: price, Volume: 5_000_000,
		}
		price *= 1 + dailyGrowth
	}
	return bars
}

func TestFlowScoreInsufficientHistoryIsZero(t *testing.T) {
	bench := trendBars(300, 100, 0)
	if got := FlowScore(trendBars(10, 100, 0.01), bench, 20); got != 0 {
		t.Errorf("short sector history: score = %f, want 0", got)
	}
	if got := FlowScore(trendBars(300, 100, 0.01), trendBars(10, 100, 0), 20); got != 0 {
		t.Errorf("short benchmark history: score = %f, want 0", got)
	}
	if got := FlowScore(trendBars(19, 100, 0.01), bench, 20); got != 0 {
		t.Errorf("one bar short of the window: score = %f, want 0", got)
	}
}

func TestFlowScoreExactWindowComputes(t *testing.T) {
	// Exactly window bars is enough history: the score is computed over
	// those bars, not zeroed out.
	got := FlowScore(trendBars(20, 100, 0.005), trendBars(20, 100, 0), 20)
	if got <= 0 {
		t.Errorf("rising sector with exactly 20 bars: score = %f, want > 0", got)
	}
}

func TestFlowScoreSignTracksRelativeTrend(t *testing.T) {
	bench := trendBars(300, 100, 0)

	up := FlowScore(trendBars(300, 100, 0.005), bench, 20)
	down := FlowScore(trendBars(300, 100, -0.005), bench, 20)
	if up <= 0 {
		t.Errorf("rising sector vs flat benchmark: score = %f, want > 0", up)
	}
	if down >= 0 {
		t.Errorf("falling sector vs flat benchmark: score = %f, want < 0", down)
	}
	if up <= down {
		t.Errorf("rising (%f) must outscore falling (%f)", up, down)
	}
}

func TestComputeRankTable(t *testing.T) {
	// Give each ETF a distinct constant growth rate so every horizon ranks
	// them in the same, known order.
	tickers := make([]string, 0, len(SectorETFs))
	for tk := range SectorETFs {
		tickers = append(tickers, tk)
	}
	sort.Strings(tickers)

	histories := make(map[string][]models.PriceBar, len(tickers))
	for i, tk := range tickers {
		growth := 0.005 - float64(i)*0.001 // first ticker strongest
		histories[tk] = trendBars(300, 100, growth)
	}
	bench := trendBars(300, 100, 0)

	r, err := Compute(histories, bench, "SPY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Rows) != 11 {
		t.Fatalf("expected 11 rows, got %d", len(r.Rows))
	}

	// Each horizon's ranks must be a permutation of 1..11.
	for _, h := range Horizons {
		seen := make(map[int]bool)
		for _, row := range r.Rows {
			seen[row.Ranks[h.Name]] = true
		}
		for want := 1; want <= 11; want++ {
			if !seen[want] {
				t.Errorf("horizon %s missing rank %d", h.Name, want)
			}
		}
	}

	for _, row := range r.Rows {
		sum := 0
		for _, h := range Horizons {
			sum += row.Ranks[h.Name]
		}
		if row.TotalRank != sum {
			t.Errorf("%s total = %d, want sum of ranks %d", row.Ticker, row.TotalRank, sum)
		}
		if row.TotalRank < 4 || row.TotalRank > 44 {
			t.Errorf("%s total %d outside [4,44]", row.Ticker, row.TotalRank)
		}
	}

	// Final order is ascending total rank; strongest grower wins everywhere.
	for i := 1; i < len(r.Rows); i++ {
		if r.Rows[i].TotalRank < r.Rows[i-1].TotalRank {
			t.Fatal("rows not sorted by ascending total rank")
		}
		if r.Rows[i].Rank != i+1 {
			t.Errorf("row %d rank = %d, want %d", i, r.Rows[i].Rank, i+1)
		}
	}
	if r.Rows[0].Ticker != tickers[0] {
		t.Errorf("top sector = %s, want %s (strongest growth)", r.Rows[0].Ticker, tickers[0])
	}
	if r.Rows[0].TotalRank != 4 || r.Rows[0].Category != CategoryFavored {
		t.Errorf("uniform winner: total = %d category = %s, want 4 / %s",
			r.Rows[0].TotalRank, r.Rows[0].Category, CategoryFavored)
	}
	if r.Rows[10].TotalRank != 44 || r.Rows[10].Category != CategoryAvoid {
		t.Errorf("uniform loser: total = %d category = %s, want 44 / %s",
			r.Rows[10].TotalRank, r.Rows[10].Category, CategoryAvoid)
	}

	if len(r.Top3) != 3 {
		t.Fatalf("top3 length = %d", len(r.Top3))
	}
	for i, tk := range r.Top3 {
		if tk != r.Rows[i].Ticker {
			t.Errorf("top3[%d] = %s, want %s", i, tk, r.Rows[i].Ticker)
		}
	}
}

func TestComputeMissingHistoriesTieBreakOnTicker(t *testing.T) {
	// No histories at all: every score is zero and ties resolve
	// alphabetically, keeping the table deterministic.
	r, err := Compute(map[string][]models.PriceBar{}, trendBars(300, 100, 0), "SPY")
	if err != nil {
		t.Fatal(err)
	}

	prev := ""
	for _, row := range r.Rows {
		if prev != "" && row.Ticker < prev {
			t.Fatalf("tied rows not in ticker order: %s after %s", row.Ticker, prev)
		}
		prev = row.Ticker
	}
}

func TestComputeNoBenchmark(t *testing.T) {
	if _, err := Compute(nil, nil, "SPY"); err == nil {
		t.Fatal("expected error with no benchmark history")
	}
}
