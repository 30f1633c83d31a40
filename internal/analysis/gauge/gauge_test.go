package gauge

import (
	"math"
	"testing"
	"time"

	"github.com/openfolio/marketgauge/internal/analysis/fault"
	"github.com/openfolio/marketgauge/pkg/models"
)

func fp(v float64) *float64 { return &v }

func TestNormalizeBasics(t *testing.T) {
	if got := Normalize(50, 0, 100, false); got != 50 {
		t.Errorf("midpoint = %.2f, want 50", got)
	}
	if got := Normalize(-10, 0, 100, false); got != 0 {
		t.Errorf("below range = %.2f, want 0 (clamped)", got)
	}
	if got := Normalize(200, 0, 100, false); got != 100 {
		t.Errorf("above range = %.2f, want 100 (clamped)", got)
	}
	if got := Normalize(math.NaN(), 0, 100, false); got != 50 {
		t.Errorf("missing = %.2f, want neutral 50", got)
	}
}

func TestNormalizeMonotonicAndInvertIdentity(t *testing.T) {
	prev := -1.0
	for x := -50.0; x <= 150; x += 2.5 {
		s := Normalize(x, 0, 100, false)
		if s < prev {
			t.Fatalf("normalize not monotonic at x=%.1f", x)
		}
		prev = s

		inv := Normalize(x, 0, 100, true)
		if math.Abs(inv-(100-s)) > 1e-9 {
			t.Fatalf("invert identity broken at x=%.1f: %f vs %f", x, inv, 100-s)
		}
	}
}

func bullishInfo() *models.FundamentalInfo {
	return &models.FundamentalInfo{
		Symbol:                  "AAPL",
		DebtToEquity:            fp(10),
		PriceToBook:             fp(1.5),
		ReturnOnEq:              fp(0.30),
		PriceToSales:            fp(1.2),
		FreeCashflow:            fp(100e9),
		MarketCap:               fp(1000e9),
		EarningsGrowth:          fp(0.6),
		EarningsQuarterlyGrowth: fp(0.6),
		RevenueGrowth:           fp(0.5),
		ForwardPE:               fp(15),
		TrailingPE:              fp(30),
		ProfitMargins:           fp(0.30),
		CurrentPrice:            fp(100),
		TargetMeanPrice:         fp(140),
		ShortPctOfFloat:         fp(0.01),
		RecommendationMean:      fp(1.5),
		Beta:                    fp(1.5),
	}
}

func risingHistory(n int) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	base := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		price := 100 + float64(i)
		bars[i] = models.PriceBar{
			Date: base.AddDate(0, 0, i), Open: price, High: price + 1,
			Low: price - 1, Close: price + 0.8, Volume: 1_000_000 + int64(i)*10_000,
		}
	}
	return bars
}

func TestComputeBullish(t *testing.T) {
	r, err := Compute(bullishInfo(), risingHistory(260))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(r.Categories) != 4 {
		t.Fatalf("expected 4 categories, got %d", len(r.Categories))
	}
	for _, c := range r.Categories {
		if len(c.Factors) != 5 {
			t.Errorf("category %s has %d factors, want 5", c.Name, len(c.Factors))
		}
		for _, f := range c.Factors {
			if f.Score < 0 || f.Score > 100 {
				t.Errorf("factor %s score %.2f outside [0,100]", f.Name, f.Score)
			}
		}
	}

	if r.Rating != "BULLISH" {
		t.Errorf("rating = %s (score %.1f), want BULLISH", r.Rating, r.Score)
	}

	// Final score is the mean of category means.
	sum := 0.0
	for _, c := range r.Categories {
		sum += c.Score
	}
	if math.Abs(r.Score-sum/4) > 1e-9 {
		t.Errorf("final score %.4f is not the category mean %.4f", r.Score, sum/4)
	}
}

func TestComputeMissingFieldsGoNeutral(t *testing.T) {
	r, err := Compute(&models.FundamentalInfo{Symbol: "XYZ"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// With everything missing, most factors sit at 50 and the rating is
	// NEUTRAL; no factor failure aborts the gauge.
	if r.Rating != "NEUTRAL" {
		t.Errorf("rating = %s (score %.1f), want NEUTRAL", r.Rating, r.Score)
	}
	for _, c := range r.Categories {
		if c.Name == "Technicals" {
			for _, f := range c.Factors {
				if f.Score != 50 {
					t.Errorf("short history: factor %s = %.1f, want 50", f.Name, f.Score)
				}
			}
		}
	}
}

func TestComputeIdempotent(t *testing.T) {
	info := bullishInfo()
	hist := risingHistory(260)

	a, err := Compute(info, hist)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compute(info, hist)
	if err != nil {
		t.Fatal(err)
	}
	if a.Score != b.Score || a.Rating != b.Rating {
		t.Errorf("re-running on frozen input changed output: %.4f/%s vs %.4f/%s",
			a.Score, a.Rating, b.Score, b.Rating)
	}
}

func TestComputeNilInfo(t *testing.T) {
	_, err := Compute(nil, nil)
	if !fault.IsKind(err, fault.KindDataUnavailable) {
		t.Fatalf("expected data_unavailable, got %v", err)
	}
}
