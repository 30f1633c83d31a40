// Package stage classifies a ticker into a Weinstein market stage from its
// weekly history: price versus the 30-week moving average and the average's
// slope decide the stage, with Mansfield relative strength against a
// benchmark attached for context.
package stage

import (
	"fmt"
	"math"
	"time"

	"github.com/openfolio/marketgauge/internal/analysis/fault"
	"github.com/openfolio/marketgauge/internal/analysis/technical"
	"github.com/openfolio/marketgauge/pkg/models"
)

// Slope on the 30-week average flatter than this is treated as sideways.
const flatSlopeThreshold = 0.01

// Stage labels.
const (
	StageBasing    = "Stage 1 (Basing/Accumulation)"
	StageAdvancing = "Stage 2 (Advancing)"
	StageTopping   = "Stage 3 (Topping)"
	StageDeclining = "Stage 4 (Declining)"
	StageBottoming = "Stage 4/1 (Bottoming?)"
	StageUnknown   = "Unknown"
)

// Result is the classification for one ticker.
type Result struct {
	Symbol       string    `json:"symbol"`
	Stage        string    `json:"stage"`
	CurrentPrice float64   `json:"current_price"`
	SMA30        float64   `json:"sma30"`
	Slope        float64   `json:"slope"`
	MansfieldRS  float64   `json:"mansfield_rs"`
	Details      []string  `json:"details"`
	ComputedAt   time.Time `json:"computed_at"`
}

// Classify stages a ticker from weekly bars. The benchmark series feeds the
// Mansfield relative-strength reading and may be shorter than the ticker's;
// relative strength then reads zero.
func Classify(symbol string, weekly, benchmark []models.PriceBar) (*Result, error) {
	if len(weekly) < 30 {
		return nil, fault.InsufficientHistory(
			"stage analysis needs 30 weekly bars for %s, have %d", symbol, len(weekly))
	}

	closes := models.Closes(weekly)
	sma := technical.SMA(closes, 30)
	smaNow := sma[len(sma)-1]
	price := closes[len(closes)-1]

	// Slope over the last five weeks of the average. Without five settled
	// SMA values the average is treated as flat.
	slope := 0.0
	if len(sma) > 34 {
		prev := sma[len(sma)-5]
		if prev != 0 {
			slope = (smaNow - prev) / prev
		}
	}

	stage := classify(price, smaNow, slope)

	return &Result{
		Symbol:       symbol,
		Stage:        stage,
		CurrentPrice: price,
		SMA30:        smaNow,
		Slope:        slope,
		MansfieldRS:  mansfieldRS(weekly, benchmark),
		Details:      details(price, smaNow, slope),
		ComputedAt:   time.Now(),
	}, nil
}

func classify(price, sma, slope float64) string {
	switch {
	case math.IsNaN(sma):
		return StageUnknown
	case price > sma && slope > flatSlopeThreshold:
		return StageAdvancing
	case price < sma && slope < -flatSlopeThreshold:
		return StageDeclining
	case math.Abs(slope) <= flatSlopeThreshold && price >= sma:
		return StageBasing
	case math.Abs(slope) <= flatSlopeThreshold:
		return StageBottoming
	case price < sma:
		return StageTopping
	default:
		return StageUnknown
	}
}

// mansfieldRS is the latest Mansfield relative strength: the price ratio to
// the benchmark against its own 52-week average, as a fraction.
func mansfieldRS(weekly, benchmark []models.PriceBar) float64 {
	n := len(weekly)
	if len(benchmark) < n {
		n = len(benchmark)
	}
	if n < 52 {
		return 0
	}

	ratio := make([]float64, n)
	for i := 0; i < n; i++ {
		b := benchmark[len(benchmark)-n+i].Close
		if b == 0 {
			return 0
		}
		ratio[i] = weekly[len(weekly)-n+i].Close / b
	}

	base := technical.RollingMean(ratio, 52)
	if math.IsNaN(base) || base == 0 {
		return 0
	}
	return ratio[len(ratio)-1]/base - 1
}

func details(price, sma, slope float64) []string {
	rel := "below"
	if price >= sma {
		rel = "above"
	}
	dir := "flat"
	if slope > flatSlopeThreshold {
		dir = "rising"
	} else if slope < -flatSlopeThreshold {
		dir = "falling"
	}
	return []string{
		fmt.Sprintf("Price %.2f is %s the 30-week MA %.2f", price, rel, sma),
		fmt.Sprintf("30-week MA is %s (%.2f%% over 5 weeks)", dir, slope*100),
	}
}
