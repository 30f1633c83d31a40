package gamma

import (
	"math"
	"strings"
	"testing"

	"github.com/openfolio/marketgauge/internal/analysis/fault"
	"github.com/openfolio/marketgauge/pkg/models"
)

func fp(v float64) *float64 { return &v }

func TestComputeSyntheticNetGEX(t *testing.T) {
	spot := 450.0
	chain := &models.OptionChain{
		Symbol:    "SPY",
		SpotPrice: spot,
		Contracts: []models.OptionContract{
			{Strike: spot, Type: models.Call, OpenInterest: 100, Gamma: fp(0.02)},
			{Strike: spot, Type: models.Put, OpenInterest: 50, Gamma: fp(0.02)},
		},
	}

	p, err := Compute(chain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := 0.02*100*100*spot - 0.02*50*100*spot
	if p.Stats.NetGEX != want {
		t.Errorf("net GEX = %.2f, want %.2f", p.Stats.NetGEX, want)
	}
	if len(p.GEX) != 1 || p.GEX[0].Strike != spot {
		t.Errorf("expected single aggregated strike at spot, got %+v", p.GEX)
	}
}

func TestComputeStrikeWindow(t *testing.T) {
	spot := 100.0
	chain := &models.OptionChain{
		Symbol:    "XYZ",
		SpotPrice: spot,
		Contracts: []models.OptionContract{
			{Strike: 79.99, Type: models.Call, OpenInterest: 10, Volume: 5, Gamma: fp(0.01)},
			{Strike: 80, Type: models.Call, OpenInterest: 10, Volume: 5, Gamma: fp(0.01)},
			{Strike: 100, Type: models.Call, OpenInterest: 10, Volume: 5, Gamma: fp(0.01)},
			{Strike: 120, Type: models.Put, OpenInterest: 10, Volume: 5, Gamma: fp(0.01)},
			{Strike: 120.01, Type: models.Put, OpenInterest: 10, Volume: 5, Gamma: fp(0.01)},
		},
	}

	p, err := Compute(chain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, e := range p.GEX {
		if e.Strike < 0.8*spot || e.Strike > 1.2*spot {
			t.Errorf("strike %.2f outside [%.2f, %.2f]", e.Strike, 0.8*spot, 1.2*spot)
		}
	}
	if len(p.GEX) != 3 {
		t.Errorf("expected 3 strikes inside window (bounds inclusive), got %d", len(p.GEX))
	}
	if p.Stats.TotalCallVolume != 10 || p.Stats.TotalPutVolume != 5 {
		t.Errorf("filtered volume = %d call / %d put, want 10/5",
			p.Stats.TotalCallVolume, p.Stats.TotalPutVolume)
	}
}

func TestComputeApproximatesGammaWhenMissing(t *testing.T) {
	spot := 200.0
	chain := &models.OptionChain{
		Symbol:    "XYZ",
		SpotPrice: spot,
		Contracts: []models.OptionContract{
			{Strike: spot, Type: models.Call, OpenInterest: 1}, // ATM, no gamma reported
		},
	}

	p, err := Compute(chain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// ATM approximation is exactly 0.01.
	want := 0.01 * 1 * 100 * spot
	if math.Abs(p.Stats.NetGEX-want) > 1e-9 {
		t.Errorf("net GEX = %.4f, want %.4f", p.Stats.NetGEX, want)
	}
}

func TestApproximateGammaDecays(t *testing.T) {
	atm := ApproximateGamma(100, 100)
	otm := ApproximateGamma(110, 100)
	far := ApproximateGamma(150, 100)
	if !(atm > otm && otm > far) {
		t.Errorf("gamma approximation must decay with moneyness: %.5f %.5f %.5f", atm, otm, far)
	}
	if atm != 0.01 {
		t.Errorf("ATM gamma = %.5f, want 0.01", atm)
	}
}

func TestZeroGammaLevelUsesCumulativeSum(t *testing.T) {
	spot := 100.0
	chain := &models.OptionChain{
		Symbol:    "XYZ",
		SpotPrice: spot,
		Contracts: []models.OptionContract{
			// Cumulative: -1000, +9000, +3000 (in gamma×OI units ×100×spot).
			{Strike: 90, Type: models.Put, OpenInterest: 10, Gamma: fp(0.01)},
			{Strike: 100, Type: models.Call, OpenInterest: 100, Gamma: fp(0.01)},
			{Strike: 110, Type: models.Put, OpenInterest: 60, Gamma: fp(0.01)},
		},
	}

	p, err := Compute(chain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// |cum| minimum is at strike 90 (|-1000| < |9000|, |3000|).
	if p.Stats.ZeroGammaLevel != 90 {
		t.Errorf("zero gamma level = %.0f, want 90", p.Stats.ZeroGammaLevel)
	}
	if p.Stats.MaxGEXStrike != 100 {
		t.Errorf("max GEX strike = %.0f, want 100", p.Stats.MaxGEXStrike)
	}
}

func TestComputeFailureModes(t *testing.T) {
	// Empty chain.
	_, err := Compute(&models.OptionChain{Symbol: "SPY"})
	if !fault.IsKind(err, fault.KindDataUnavailable) {
		t.Fatalf("expected data_unavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "no options data") {
		t.Errorf("unexpected message: %v", err)
	}

	// Missing spot price.
	_, err = Compute(&models.OptionChain{
		Symbol:    "SPY",
		Contracts: []models.OptionContract{{Strike: 100, Type: models.Call}},
	})
	if !strings.Contains(err.Error(), "missing underlying price") {
		t.Errorf("unexpected message: %v", err)
	}

	// All strikes outside the window.
	_, err = Compute(&models.OptionChain{
		Symbol:    "SPY",
		SpotPrice: 100,
		Contracts: []models.OptionContract{
			{Strike: 300, Type: models.Call, OpenInterest: 10, Gamma: fp(0.01)},
		},
	})
	if err == nil || !strings.Contains(err.Error(), "no valid strikes in range") {
		t.Errorf("unexpected error: %v", err)
	}
}
