// Package gamma computes net gamma exposure (GEX) and volume profiles from
// an options chain snapshot.
//
// Interpretation: positive GEX (call-heavy) means dealers are long gamma and
// tend to stabilize price; negative GEX (put-heavy) means dealers are short
// gamma and tend to amplify moves. When the provider does not report gamma it
// is approximated from moneyness; the approximation is a bell curve peaking
// at-the-money and is not a Black-Scholes gamma.
package gamma

import (
	"math"
	"sort"
	"time"

	"github.com/openfolio/marketgauge/internal/analysis/fault"
	"github.com/openfolio/marketgauge/pkg/models"
)

// Strike window around spot: only strikes in [0.8×spot, 1.2×spot] enter the
// aggregates. This is a hard filter, not display truncation.
const (
	lowerWindow = 0.8
	upperWindow = 1.2
)

// StrikeExposure is the signed dollar gamma exposure aggregated at one strike.
type StrikeExposure struct {
	Strike   float64 `json:"strike"`
	Exposure float64 `json:"exposure"`
}

// StrikeVolume is traded volume at one strike, split by option type.
type StrikeVolume struct {
	Strike     float64 `json:"strike"`
	CallVolume int64   `json:"call_volume"`
	PutVolume  int64   `json:"put_volume"`
}

// Stats summarizes a computed gamma profile.
type Stats struct {
	SpotPrice       float64 `json:"spot_price"`
	NetGEX          float64 `json:"net_gex"`
	MaxGEXStrike    float64 `json:"max_gex_strike"`
	MaxGEXValue     float64 `json:"max_gex_value"`
	ZeroGammaLevel  float64 `json:"zero_gamma_level"`
	TotalCallVolume int64   `json:"total_call_volume"`
	TotalPutVolume  int64   `json:"total_put_volume"`
}

// Profile is the full gamma/volume profile for one underlying.
type Profile struct {
	Symbol     string           `json:"symbol"`
	SpotPrice  float64          `json:"spot_price"`
	GEX        []StrikeExposure `json:"gex"`
	Volume     []StrikeVolume   `json:"volume"`
	Stats      Stats            `json:"stats"`
	ComputedAt time.Time        `json:"computed_at"`
}

// ApproximateGamma estimates gamma from moneyness when the provider does not
// report it: 0.01·exp(-50·((K-S)/S)²), peaking at-the-money and decaying to
// zero away from it. The constants are chosen to keep exposure values in a
// readable dollar range; this is an approximation, not a pricing model.
func ApproximateGamma(strike, spot float64) float64 {
	moneyness := math.Abs(strike-spot) / spot
	return 0.01 * math.Exp(-50*moneyness*moneyness)
}

// Compute builds the gamma/volume profile for the chain. It never panics on
// bad input; the three failure modes (no chain data, unusable chain, no
// strikes inside the window) are distinguishable via the fault message.
func Compute(chain *models.OptionChain) (*Profile, error) {
	if chain == nil || len(chain.Contracts) == 0 {
		symbol := ""
		if chain != nil {
			symbol = chain.Symbol
		}
		return nil, fault.DataUnavailable("no options data available for %s", symbol)
	}

	spot := chain.SpotPrice
	if spot <= 0 {
		return nil, fault.DataUnavailable("failed to calculate gamma exposure: missing underlying price")
	}

	// Per-contract signed exposure, aggregated by strike. Missing numeric
	// fields default to zero; calls positive, puts negative.
	gexByStrike := map[float64]float64{}
	volByStrike := map[float64]*StrikeVolume{}

	for _, c := range chain.Contracts {
		g := 0.0
		if c.Gamma != nil {
			g = *c.Gamma
		} else {
			g = ApproximateGamma(c.Strike, spot)
		}

		gex := g * float64(c.OpenInterest) * 100 * spot
		if c.Type == models.Put {
			gex = -gex
		}
		gexByStrike[c.Strike] += gex

		sv, ok := volByStrike[c.Strike]
		if !ok {
			sv = &StrikeVolume{Strike: c.Strike}
			volByStrike[c.Strike] = sv
		}
		if c.Type == models.Call {
			sv.CallVolume += c.Volume
		} else {
			sv.PutVolume += c.Volume
		}
	}

	lower := spot * lowerWindow
	upper := spot * upperWindow

	var gex []StrikeExposure
	for strike, exp := range gexByStrike {
		if strike < lower || strike > upper {
			continue
		}
		gex = append(gex, StrikeExposure{Strike: strike, Exposure: exp})
	}
	if len(gex) == 0 {
		return nil, fault.DataUnavailable("no valid strikes in range")
	}
	sort.Slice(gex, func(i, j int) bool { return gex[i].Strike < gex[j].Strike })

	var vol []StrikeVolume
	for strike, sv := range volByStrike {
		if strike < lower || strike > upper {
			continue
		}
		vol = append(vol, *sv)
	}
	sort.Slice(vol, func(i, j int) bool { return vol[i].Strike < vol[j].Strike })

	stats := computeStats(spot, gex, vol)

	return &Profile{
		Symbol:     chain.Symbol,
		SpotPrice:  spot,
		GEX:        gex,
		Volume:     vol,
		Stats:      stats,
		ComputedAt: time.Now(),
	}, nil
}

func computeStats(spot float64, gex []StrikeExposure, vol []StrikeVolume) Stats {
	stats := Stats{SpotPrice: spot}

	maxIdx := 0
	for i, e := range gex {
		stats.NetGEX += e.Exposure
		if e.Exposure > gex[maxIdx].Exposure {
			maxIdx = i
		}
	}
	stats.MaxGEXStrike = gex[maxIdx].Strike
	stats.MaxGEXValue = gex[maxIdx].Exposure

	// Zero-gamma level: the strike whose cumulative exposure (ascending by
	// strike) is closest to zero. Ties go to the lowest strike.
	cum := 0.0
	best := math.Inf(1)
	for _, e := range gex {
		cum += e.Exposure
		if math.Abs(cum) < best {
			best = math.Abs(cum)
			stats.ZeroGammaLevel = e.Strike
		}
	}

	for _, v := range vol {
		stats.TotalCallVolume += v.CallVolume
		stats.TotalPutVolume += v.PutVolume
	}

	return stats
}
