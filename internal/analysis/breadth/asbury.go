// Package breadth implements the Asbury 6 market-health gauge: six boolean
// internals computed from SPY, IWM, TLT and VIX daily history, combined into
// a BUY/CASH/NEUTRAL signal. A historical variant replays the gauge day by
// day using only data available up to each day.
package breadth

import (
	"fmt"
	"math"
	"time"

	"github.com/openfolio/marketgauge/internal/analysis/fault"
	"github.com/openfolio/marketgauge/internal/analysis/technical"
	"github.com/openfolio/marketgauge/pkg/models"
)

// Signal values for the overall gauge.
const (
	SignalBuy     = "BUY"
	SignalCash    = "CASH"
	SignalNeutral = "NEUTRAL"
)

// Metric is one of the six internals.
type Metric struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	Positive    bool   `json:"positive"`
	Status      string `json:"status"` // "Positive" or "Negative"
	Description string `json:"description"`
}

// Result is the complete gauge output.
type Result struct {
	Metrics       []Metric  `json:"metrics"`
	Signal        string    `json:"signal"`
	PositiveCount int       `json:"positive_count"`
	NegativeCount int       `json:"negative_count"`
	ComputedAt    time.Time `json:"computed_at"`
}

// HistoricalPoint is the gauge state on one past day.
type HistoricalPoint struct {
	Date          time.Time `json:"date"`
	PositiveCount int       `json:"positive_count"`
	NegativeCount int       `json:"negative_count"`
	Signal        string    `json:"signal"`
	SPYClose      float64   `json:"spy_close"`
}

// Evaluate computes all six metrics from the given daily histories.
// It fails when any series is too short for its metric's windows.
func Evaluate(spy, iwm, tlt, vix []models.PriceBar) (*Result, error) {
	metrics, err := allMetrics(spy, iwm, tlt, vix)
	if err != nil {
		return nil, err
	}

	r := &Result{Metrics: metrics, ComputedAt: time.Now()}
	for _, m := range metrics {
		if m.Positive {
			r.PositiveCount++
		} else {
			r.NegativeCount++
		}
	}
	r.Signal = overallSignal(r.PositiveCount, r.NegativeCount)
	return r, nil
}

// Historical replays the gauge over the aligned input series, computing each
// day from the data available up to that day only. Days where any metric
// cannot be computed are skipped rather than failing the whole replay.
func Historical(spy, iwm, tlt, vix []models.PriceBar) []HistoricalPoint {
	// Need enough bars for the 50-day volume window plus slack.
	const startIdx = 60

	limit := len(spy)
	for _, s := range [][]models.PriceBar{iwm, tlt, vix} {
		if len(s) < limit {
			limit = len(s)
		}
	}

	var history []HistoricalPoint
	for i := startIdx; i < limit; i++ {
		metrics, err := allMetrics(spy[:i+1], iwm[:i+1], tlt[:i+1], vix[:i+1])
		if err != nil {
			continue
		}

		pos, neg := 0, 0
		for _, m := range metrics {
			if m.Positive {
				pos++
			} else {
				neg++
			}
		}
		history = append(history, HistoricalPoint{
			Date:          spy[i].Date,
			PositiveCount: pos,
			NegativeCount: neg,
			Signal:        overallSignal(pos, neg),
			SPYClose:      spy[i].Close,
		})
	}
	return history
}

func overallSignal(positive, negative int) string {
	switch {
	case positive >= 4:
		return SignalBuy
	case negative >= 4:
		return SignalCash
	default:
		return SignalNeutral
	}
}

func allMetrics(spy, iwm, tlt, vix []models.PriceBar) ([]Metric, error) {
	breadthM, err := MarketBreadth(spy)
	if err != nil {
		return nil, err
	}
	volM, err := VolumeStrength(spy)
	if err != nil {
		return nil, err
	}
	relM, err := RelativePerformance(spy, iwm)
	if err != nil {
		return nil, err
	}
	flowM, err := AssetFlows(spy, tlt)
	if err != nil {
		return nil, err
	}
	vixM, err := Volatility(vix)
	if err != nil {
		return nil, err
	}
	rocM, err := PriceROC(spy)
	if err != nil {
		return nil, err
	}
	return []Metric{breadthM, volM, relM, flowM, vixM, rocM}, nil
}

// MarketBreadth proxies participation: volume above its 20-day average with
// price within 2% of the 20-day high.
func MarketBreadth(spy []models.PriceBar) (Metric, error) {
	if len(spy) < 20 {
		return Metric{}, fault.InsufficientHistory("market breadth needs 20 bars, have %d", len(spy))
	}

	volumes := models.Volumes(spy)
	highs := make([]float64, len(spy))
	for i, b := range spy {
		highs[i] = b.High
	}

	avgVol20 := technical.RollingMean(volumes, 20)
	high20 := technical.RollingMax(highs, 20)
	last := spy[len(spy)-1]

	volRatio := float64(last.Volume) / avgVol20
	priceRatio := last.Close / high20
	positive := volRatio > 1.0 && priceRatio > 0.98

	return metric("Market Breadth",
		fmt.Sprintf("%.2fx avg volume, %.1f%% of 20d high", volRatio, priceRatio*100),
		positive, "Strong participation", "Narrow participation"), nil
}

// VolumeStrength compares the recent 5-day average volume to the 50-day
// average; above 110% signals conviction.
func VolumeStrength(spy []models.PriceBar) (Metric, error) {
	if len(spy) < 50 {
		return Metric{}, fault.InsufficientHistory("volume strength needs 50 bars, have %d", len(spy))
	}

	volumes := models.Volumes(spy)
	ratio := technical.RollingMean(volumes, 5) / technical.RollingMean(volumes, 50)
	positive := ratio > 1.10

	return metric("Volume",
		fmt.Sprintf("%.2fx (5d avg / 50d avg)", ratio),
		positive, "High conviction", "Low conviction"), nil
}

// RelativePerformance checks whether small caps (IWM) are outperforming
// large caps (SPY) over 20 days, a risk-appetite read.
func RelativePerformance(spy, iwm []models.PriceBar) (Metric, error) {
	if len(spy) < 20 || len(iwm) < 20 {
		return Metric{}, fault.InsufficientHistory("relative performance needs 20 bars")
	}

	spyRet := technical.ReturnOver(models.Closes(spy), 20) * 100
	iwmRet := technical.ReturnOver(models.Closes(iwm), 20) * 100
	positive := iwmRet-spyRet > 0

	return metric("Relative Performance",
		fmt.Sprintf("IWM %+.1f%% vs SPY %+.1f%%", iwmRet, spyRet),
		positive, "Small caps leading (risk-on)", "Large caps defensive"), nil
}

// AssetFlows compares 10-day stock (SPY) vs bond (TLT) returns; equities
// outperforming signals capital flowing toward risk.
func AssetFlows(spy, tlt []models.PriceBar) (Metric, error) {
	if len(spy) < 10 || len(tlt) < 10 {
		return Metric{}, fault.InsufficientHistory("asset flows needs 10 bars")
	}

	spyRet := technical.ReturnOver(models.Closes(spy), 10) * 100
	tltRet := technical.ReturnOver(models.Closes(tlt), 10) * 100
	positive := spyRet > tltRet

	return metric("Asset Flows",
		fmt.Sprintf("SPY %+.1f%% vs TLT %+.1f%%", spyRet, tltRet),
		positive, "Capital flowing to equities", "Flight to safety (bonds)"), nil
}

// Volatility is positive when VIX is below 20 and under its 20-day average.
func Volatility(vix []models.PriceBar) (Metric, error) {
	if len(vix) < 20 {
		return Metric{}, fault.InsufficientHistory("volatility needs 20 bars, have %d", len(vix))
	}

	closes := models.Closes(vix)
	current := closes[len(closes)-1]
	avg20 := technical.RollingMean(closes, 20)
	positive := current < 20 && current < avg20

	return metric("Volatility (VIX)",
		fmt.Sprintf("%.2f (20d avg: %.2f)", current, avg20),
		positive, "Low fear, stable market", "Elevated uncertainty"), nil
}

// PriceROC is positive when the 20-day rate of change is positive and the
// 10-day pace confirms acceleration.
func PriceROC(spy []models.PriceBar) (Metric, error) {
	if len(spy) < 20 {
		return Metric{}, fault.InsufficientHistory("price ROC needs 20 bars, have %d", len(spy))
	}

	closes := models.Closes(spy)
	roc20 := technical.ReturnOver(closes, 20) * 100
	roc10 := technical.ReturnOver(closes, 10) * 100
	if math.IsNaN(roc20) || math.IsNaN(roc10) {
		return Metric{}, fault.Calculation("price ROC returned NaN")
	}
	positive := roc20 > 0 && roc10 > roc20/2

	return metric("Price ROC",
		fmt.Sprintf("20d: %+.2f%%, 10d: %+.2f%%", roc20, roc10),
		positive, "Strong upward momentum", "Weak or negative momentum"), nil
}

func metric(name, value string, positive bool, posDesc, negDesc string) Metric {
	m := Metric{Name: name, Value: value, Positive: positive}
	if positive {
		m.Status = "Positive"
		m.Description = posDesc
	} else {
		m.Status = "Negative"
		m.Description = negDesc
	}
	return m
}
