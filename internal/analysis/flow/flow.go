// Package flow derives daily options-flow proxy indicators for institutional
// positioning: premium notional, put/call ratios, unusual-activity flags,
// top contracts by premium, and a sentiment read.
package flow

import (
	"sort"
	"time"

	"github.com/openfolio/marketgauge/internal/analysis/fault"
	"github.com/openfolio/marketgauge/pkg/models"
)

// ContractPremium is one contract annotated with its dollar premium.
type ContractPremium struct {
	Strike       float64 `json:"strike"`
	Expiration   string  `json:"expiration"`
	Volume       int64   `json:"volume"`
	OpenInterest int64   `json:"open_interest"`
	Premium      float64 `json:"premium"`
}

// Snapshot aggregates the fetched chain into flow metrics.
type Snapshot struct {
	Symbol           string            `json:"symbol"`
	CurrentPrice     float64           `json:"current_price"`
	TotalCallPremium float64           `json:"total_call_premium"`
	TotalPutPremium  float64           `json:"total_put_premium"`
	NetPremium       float64           `json:"net_premium"`
	TotalCallVolume  int64             `json:"total_call_volume"`
	TotalPutVolume   int64             `json:"total_put_volume"`
	PCVolumeRatio    float64           `json:"pc_volume_ratio"`
	PCPremiumRatio   float64           `json:"pc_premium_ratio"`
	UnusualCalls     []ContractPremium `json:"unusual_calls"`
	UnusualPuts      []ContractPremium `json:"unusual_puts"`
	TopCalls         []ContractPremium `json:"top_calls"`
	TopPuts          []ContractPremium `json:"top_puts"`
	ComputedAt       time.Time         `json:"computed_at"`
}

// Sentiment is the interpretation of a flow snapshot.
type Sentiment struct {
	Sentiment          string `json:"sentiment"`
	Description        string `json:"description"`
	HasUnusualActivity bool   `json:"has_unusual_activity"`
	UnusualCount       int    `json:"unusual_count"`
	VolumeBias         string `json:"volume_bias"`
	PremiumBias        string `json:"premium_bias"`
}

// Premium is the dollar notional of one contract's session volume:
// price × volume × 100, using last price with a bid/ask midpoint fallback.
func Premium(c models.OptionContract) float64 {
	return c.EffectivePrice() * float64(c.Volume) * 100
}

// Unusual reports whether a contract's session volume exceeds twice its
// open interest.
func Unusual(c models.OptionContract) bool {
	return float64(c.Volume) > 2*float64(c.OpenInterest)
}

// Compute builds a flow snapshot from separate call and put tables.
// It fails only when both sides are empty.
func Compute(symbol string, spot float64, calls, puts []models.OptionContract) (*Snapshot, error) {
	if len(calls) == 0 && len(puts) == 0 {
		return nil, fault.DataUnavailable("no options data for %s", symbol)
	}

	s := &Snapshot{
		Symbol:       symbol,
		CurrentPrice: spot,
		ComputedAt:   time.Now(),
	}

	for _, c := range calls {
		s.TotalCallPremium += Premium(c)
		s.TotalCallVolume += c.Volume
	}
	for _, p := range puts {
		s.TotalPutPremium += Premium(p)
		s.TotalPutVolume += p.Volume
	}

	s.NetPremium = s.TotalCallPremium - s.TotalPutPremium
	s.PCVolumeRatio = float64(s.TotalPutVolume) / maxf(float64(s.TotalCallVolume), 1)
	s.PCPremiumRatio = s.TotalPutPremium / maxf(s.TotalCallPremium, 1)

	s.UnusualCalls = collect(calls, Unusual)
	s.UnusualPuts = collect(puts, Unusual)
	s.TopCalls = topByPremium(calls, 5)
	s.TopPuts = topByPremium(puts, 5)

	return s, nil
}

// Interpret classifies a snapshot using the fixed decision table over net
// premium sign and the put/call premium ratio.
func Interpret(s *Snapshot) Sentiment {
	out := Sentiment{}

	if s.NetPremium > 0 {
		if s.PCPremiumRatio < 0.7 {
			out.Sentiment = "STRONGLY BULLISH"
			out.Description = "Heavy call buying with significant net premium flow to calls"
		} else {
			out.Sentiment = "BULLISH"
			out.Description = "Positive net premium flow favoring calls"
		}
	} else {
		if s.PCPremiumRatio > 1.5 {
			out.Sentiment = "STRONGLY BEARISH"
			out.Description = "Heavy put buying with significant net premium flow to puts"
		} else {
			out.Sentiment = "BEARISH"
			out.Description = "Negative net premium flow favoring puts"
		}
	}

	out.UnusualCount = len(s.UnusualCalls) + len(s.UnusualPuts)
	out.HasUnusualActivity = out.UnusualCount > 0

	switch {
	case s.PCVolumeRatio > 1.2:
		out.VolumeBias = "Put-heavy"
	case s.PCVolumeRatio < 0.8:
		out.VolumeBias = "Call-heavy"
	default:
		out.VolumeBias = "Balanced"
	}

	if s.PCPremiumRatio > 1 {
		out.PremiumBias = "Put-heavy"
	} else {
		out.PremiumBias = "Call-heavy"
	}

	return out
}

// --- helpers ---

func collect(contracts []models.OptionContract, keep func(models.OptionContract) bool) []ContractPremium {
	var out []ContractPremium
	for _, c := range contracts {
		if keep(c) {
			out = append(out, annotate(c))
		}
	}
	return out
}

func topByPremium(contracts []models.OptionContract, n int) []ContractPremium {
	annotated := make([]ContractPremium, 0, len(contracts))
	for _, c := range contracts {
		annotated = append(annotated, annotate(c))
	}
	sort.SliceStable(annotated, func(i, j int) bool {
		return annotated[i].Premium > annotated[j].Premium
	})
	if len(annotated) > n {
		annotated = annotated[:n]
	}
	return annotated
}

func annotate(c models.OptionContract) ContractPremium {
	return ContractPremium{
		Strike:       c.Strike,
		Expiration:   c.Expiration,
		Volume:       c.Volume,
		OpenInterest: c.OpenInterest,
		Premium:      Premium(c),
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
