// Package canslim scores a ticker against the seven CANSLIM growth criteria
// from its fundamentals snapshot. Each letter is a pass/fail check with the
// observed value attached; the score is the number of passes out of seven.
package canslim

import (
	"fmt"
	"time"

	"github.com/openfolio/marketgauge/internal/analysis/fault"
	"github.com/openfolio/marketgauge/pkg/models"
)

// Check is one letter of the checklist.
type Check struct {
	Letter      string `json:"letter"`
	Name        string `json:"name"`
	Pass        bool   `json:"pass"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// Result is a scored checklist for one ticker.
type Result struct {
	Symbol     string    `json:"symbol"`
	Score      int       `json:"score"`
	MaxScore   int       `json:"max_score"`
	Checks     []Check   `json:"checks"`
	ComputedAt time.Time `json:"computed_at"`
}

// Evaluate runs the checklist. yearReturn is the trailing 1-year price
// return as a fraction (derived from daily history by the caller); pass a
// NaN-free zero when history is unavailable and the L check will fail on
// its threshold rather than error.
func Evaluate(info *models.FundamentalInfo, yearReturn float64) (*Result, error) {
	if info == nil {
		return nil, fault.DataUnavailable("no fundamental data")
	}

	eqg := models.FloatOr(info.EarningsQuarterlyGrowth, 0)
	eg := models.FloatOr(info.EarningsGrowth, 0)
	price := models.FloatOr(info.CurrentPrice, 0)
	high52 := models.FloatOr(info.FiftyTwoWeekHigh, 0)
	vol := models.FloatOr(info.Volume, 0)
	avgVol := models.FloatOr(info.AverageVolume, 0)
	instHold := models.FloatOr(info.HeldPctInstitutions, 0)

	checks := []Check{
		{
			Letter:      "C",
			Name:        "Current Quarterly Earnings",
			Pass:        eqg > 0.25,
			Value:       fmt.Sprintf("%.1f%% QoQ growth", eqg*100),
			Description: "Quarterly earnings growth above 25%",
		},
		{
			Letter:      "A",
			Name:        "Annual Earnings Growth",
			Pass:        eg > 0.25,
			Value:       fmt.Sprintf("%.1f%% annual growth", eg*100),
			Description: "Annual earnings growth above 25%",
		},
		{
			Letter:      "N",
			Name:        "New Highs",
			Pass:        high52 > 0 && price >= 0.85*high52,
			Value:       fmt.Sprintf("%.1f%% of 52w high", pctOfHigh(price, high52)),
			Description: "Price within 15% of its 52-week high",
		},
		{
			Letter:      "S",
			Name:        "Supply and Demand",
			Pass:        vol > avgVol,
			Value:       fmt.Sprintf("%.2fx average volume", volRatio(vol, avgVol)),
			Description: "Current volume above its average",
		},
		{
			Letter:      "L",
			Name:        "Leader or Laggard",
			Pass:        yearReturn > 0.2,
			Value:       fmt.Sprintf("%.1f%% 1y return", yearReturn*100),
			Description: "Trailing year return above 20%",
		},
		{
			Letter:      "I",
			Name:        "Institutional Sponsorship",
			Pass:        instHold > 0.3,
			Value:       fmt.Sprintf("%.1f%% institutional", instHold*100),
			Description: "Institutions hold more than 30% of shares",
		},
		{
			// Broad-market direction is judged by the market-health gauge;
			// the checklist itself does not veto on it.
			Letter:      "M",
			Name:        "Market Direction",
			Pass:        true,
			Value:       "see market health",
			Description: "Overall market trend (tracked separately)",
		},
	}

	score := 0
	for _, c := range checks {
		if c.Pass {
			score++
		}
	}

	return &Result{
		Symbol:     info.Symbol,
		Score:      score,
		MaxScore:   len(checks),
		Checks:     checks,
		ComputedAt: time.Now(),
	}, nil
}

func pctOfHigh(price, high52 float64) float64 {
	if high52 <= 0 {
		return 0
	}
	return price / high52 * 100
}

func volRatio(vol, avgVol float64) float64 {
	if avgVol <= 0 {
		return 0
	}
	return vol / avgVol
}
