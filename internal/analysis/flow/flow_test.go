package flow

import (
	"math"
	"testing"

	"github.com/openfolio/marketgauge/internal/analysis/fault"
	"github.com/openfolio/marketgauge/pkg/models"
)

func fp(v float64) *float64 { return &v }

func call(strike float64, vol, oi int64, last float64) models.OptionContract {
	return models.OptionContract{
		Strike: strike, Type: models.Call, Volume: vol, OpenInterest: oi,
		LastPrice: fp(last), Expiration: "2026-09-18",
	}
}

func put(strike float64, vol, oi int64, last float64) models.OptionContract {
	c := call(strike, vol, oi, last)
	c.Type = models.Put
	return c
}

func TestUnusualActivityCount(t *testing.T) {
	calls := []models.OptionContract{
		call(100, 10, 3, 1.0),  // 10 > 2*3 → unusual
		call(105, 20, 25, 1.0), // 20 <= 2*25 → not unusual
	}

	s, err := Compute("SPY", 100, calls, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.UnusualCalls) != 1 {
		t.Errorf("unusual calls = %d, want 1", len(s.UnusualCalls))
	}
	if s.UnusualCalls[0].Strike != 100 {
		t.Errorf("unusual strike = %.0f, want 100", s.UnusualCalls[0].Strike)
	}
}

func TestPremiumFallbackToMid(t *testing.T) {
	c := models.OptionContract{
		Strike: 100, Type: models.Call, Volume: 10, Bid: 1.0, Ask: 3.0,
	}
	// No last price: premium = mid(2.0) × 10 × 100.
	if got := Premium(c); math.Abs(got-2000) > 1e-9 {
		t.Errorf("premium = %.2f, want 2000", got)
	}
}

func TestRatiosGuardZeroDenominator(t *testing.T) {
	puts := []models.OptionContract{put(95, 100, 50, 2.0)}

	s, err := Compute("SPY", 100, nil, puts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// No calls: denominators clamp to 1 instead of dividing by zero.
	if s.PCVolumeRatio != 100 {
		t.Errorf("pc volume ratio = %.2f, want 100", s.PCVolumeRatio)
	}
	if s.PCPremiumRatio != 2.0*100*100 {
		t.Errorf("pc premium ratio = %.2f, want %.2f", s.PCPremiumRatio, 2.0*100*100)
	}
}

func TestTopByPremiumCapsAtFive(t *testing.T) {
	var calls []models.OptionContract
	for i := 0; i < 8; i++ {
		calls = append(calls, call(100+float64(i), int64(10+i), 100, 1.0))
	}

	s, err := Compute("SPY", 100, calls, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.TopCalls) != 5 {
		t.Fatalf("top calls = %d, want 5", len(s.TopCalls))
	}
	for i := 1; i < len(s.TopCalls); i++ {
		if s.TopCalls[i].Premium > s.TopCalls[i-1].Premium {
			t.Error("top calls must be sorted by premium descending")
		}
	}
}

func TestInterpretDecisionTable(t *testing.T) {
	cases := []struct {
		net   float64
		ratio float64
		want  string
	}{
		{net: 1000, ratio: 0.5, want: "STRONGLY BULLISH"},
		{net: 1000, ratio: 0.9, want: "BULLISH"},
		{net: -1000, ratio: 2.0, want: "STRONGLY BEARISH"},
		{net: -1000, ratio: 1.2, want: "BEARISH"},
		{net: 0, ratio: 1.0, want: "BEARISH"}, // net ≤ 0 goes to the bearish branch
	}

	for _, tc := range cases {
		s := &Snapshot{NetPremium: tc.net, PCPremiumRatio: tc.ratio}
		got := Interpret(s).Sentiment
		if got != tc.want {
			t.Errorf("net=%.0f ratio=%.2f: sentiment = %s, want %s", tc.net, tc.ratio, got, tc.want)
		}
	}
}

func TestInterpretVolumeBias(t *testing.T) {
	cases := []struct {
		ratio float64
		want  string
	}{
		{1.3, "Put-heavy"},
		{0.7, "Call-heavy"},
		{1.0, "Balanced"},
	}
	for _, tc := range cases {
		s := &Snapshot{NetPremium: 1, PCVolumeRatio: tc.ratio}
		if got := Interpret(s).VolumeBias; got != tc.want {
			t.Errorf("ratio %.2f: bias = %s, want %s", tc.ratio, got, tc.want)
		}
	}
}

func TestComputeBothSidesEmpty(t *testing.T) {
	_, err := Compute("SPY", 100, nil, nil)
	if !fault.IsKind(err, fault.KindDataUnavailable) {
		t.Fatalf("expected data_unavailable, got %v", err)
	}
}
