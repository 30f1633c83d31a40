// Package gauge implements the 20-factor Power Gauge rating: four categories
// of five factors each, scored 0-100 from fundamentals and price history and
// averaged with equal category weight into a final BULLISH/NEUTRAL/BEARISH
// rating.
//
// Individual factors degrade to a neutral 50 when their inputs are missing;
// a single absent field never aborts the gauge.
package gauge

import (
	"math"
	"time"

	"github.com/openfolio/marketgauge/internal/analysis/fault"
	"github.com/openfolio/marketgauge/internal/analysis/technical"
	"github.com/openfolio/marketgauge/pkg/models"
)

// Rating thresholds on the final score.
const (
	bullishThreshold = 65
	bearishThreshold = 35
)

// FactorScore is one named factor normalized to 0-100.
type FactorScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// CategoryScore groups five factors under a category average.
type CategoryScore struct {
	Name    string        `json:"name"`
	Score   float64       `json:"score"`
	Factors []FactorScore `json:"factors"`
}

// Result is the complete Power Gauge output for one ticker.
type Result struct {
	Symbol     string          `json:"symbol"`
	Rating     string          `json:"rating"`
	Score      float64         `json:"score"`
	Categories []CategoryScore `json:"categories"`
	ComputedAt time.Time       `json:"computed_at"`
}

// Compute scores a ticker from its fundamentals snapshot and one year of
// daily history. History may be short; technical factors then go neutral.
func Compute(info *models.FundamentalInfo, history []models.PriceBar) (*Result, error) {
	if info == nil {
		return nil, fault.DataUnavailable("no fundamental data")
	}

	categories := []CategoryScore{
		buildCategory("Financials", financialFactors(info)),
		buildCategory("Earnings", earningsFactors(info)),
		buildCategory("Experts", expertFactors(info)),
		buildCategory("Technicals", technicalFactors(history)),
	}

	// Final score is the mean of the four category means, not of all 20
	// factors, so each category carries equal weight.
	total := 0.0
	for _, c := range categories {
		total += c.Score
	}
	final := total / float64(len(categories))

	rating := "NEUTRAL"
	switch {
	case final >= bullishThreshold:
		rating = "BULLISH"
	case final <= bearishThreshold:
		rating = "BEARISH"
	}

	return &Result{
		Symbol:     info.Symbol,
		Rating:     rating,
		Score:      final,
		Categories: categories,
		ComputedAt: time.Now(),
	}, nil
}

func buildCategory(name string, factors []FactorScore) CategoryScore {
	sum := 0.0
	for _, f := range factors {
		sum += f.Score
	}
	return CategoryScore{
		Name:    name,
		Score:   sum / float64(len(factors)),
		Factors: factors,
	}
}

// --- Financials: balance sheet strength ---

func financialFactors(info *models.FundamentalInfo) []FactorScore {
	// FCF yield approximated as free cashflow over market cap.
	fcfYield := 0.0
	if fcf, ok := models.Float(info.FreeCashflow); ok {
		if mcap, ok := models.Float(info.MarketCap); ok && mcap != 0 {
			fcfYield = fcf / mcap
		}
	}

	return []FactorScore{
		{"Debt/Equity", normOpt(info.DebtToEquity, 0, 200, true)},
		{"Price/Book", normOpt(info.PriceToBook, 1, 10, true)},
		{"ROE", normOpt(info.ReturnOnEq, 0.05, 0.25, false)},
		{"Price/Sales", normOpt(info.PriceToSales, 1, 10, true)},
		{"FCF Yield", Normalize(fcfYield, 0, 0.05, false)},
	}
}

// --- Earnings: performance ---

func earningsFactors(info *models.FundamentalInfo) []FactorScore {
	// Projected P/E: trailing over forward when both exist. A ratio above 1
	// means forward earnings are expected to be cheaper.
	projectedPE := normOpt(info.ForwardPE, 10, 50, true)
	if fpe, ok := models.Float(info.ForwardPE); ok && fpe != 0 {
		if tpe, ok := models.Float(info.TrailingPE); ok {
			projectedPE = Normalize(tpe/fpe, 0.8, 1.5, false)
		}
	}

	return []FactorScore{
		{"Growth Rate", normOpt(info.EarningsGrowth, -0.1, 0.5, false)},
		{"Earnings Surprise", normOpt(info.EarningsQuarterlyGrowth, -0.2, 0.5, false)},
		{"Earnings Trend", normOpt(info.RevenueGrowth, -0.1, 0.4, false)},
		{"Projected P/E", projectedPE},
		{"Consistency", normOpt(info.ProfitMargins, 0.05, 0.25, false)},
	}
}

// --- Experts: analyst and ownership sentiment ---

func expertFactors(info *models.FundamentalInfo) []FactorScore {
	current := models.FloatOr(info.CurrentPrice, 1)
	if current == 0 {
		current = 1
	}
	target := models.FloatOr(info.TargetMeanPrice, current)
	upside := (target - current) / current

	return []FactorScore{
		{"Analyst Target", Normalize(upside, -0.1, 0.3, false)},
		{"Short Interest", Normalize(models.FloatOr(info.ShortPctOfFloat, 0), 0, 0.2, true)},
		// Insider transaction feeds are unreliable across providers; scored
		// neutral until a dependable source exists.
		{"Insider Activity", 50},
		{"Analyst Rating", Normalize(models.FloatOr(info.RecommendationMean, 3), 1.5, 3.5, true)},
		{"Industry Relative", Normalize(models.FloatOr(info.Beta, 1), 0.5, 1.5, false)},
	}
}

// --- Technicals: price and volume ---

func technicalFactors(history []models.PriceBar) []FactorScore {
	neutral := []FactorScore{
		{"Rel Strength", 50},
		{"Chaikin Money Flow", 50},
		{"Chaikin Trend", 50},
		{"Price Trend ROC", 50},
		{"Volume Trend", 50},
	}
	if len(history) < 50 {
		return neutral
	}

	closes := models.Closes(history)
	volumes := models.Volumes(history)

	roc126 := 0.0
	if len(closes) > 126 {
		roc126 = technical.ReturnOver(closes, 126)
	}

	cmf := technical.CMF(history, 21)

	chaikinTrend := 40.0
	if technical.ChaikinOscillatorChange(history) > 0 {
		chaikinTrend = 60
	}

	roc42 := 0.0
	if len(closes) > 42 {
		roc42 = technical.ReturnOver(closes, 42)
	}

	volRatio := 1.0
	vol90 := technical.RollingMean(volumes, 90)
	vol20 := technical.RollingMean(volumes, 20)
	if !math.IsNaN(vol90) && vol90 > 0 && !math.IsNaN(vol20) {
		volRatio = vol20 / vol90
	}

	return []FactorScore{
		{"Rel Strength", Normalize(roc126, -0.1, 0.3, false)},
		{"Chaikin Money Flow", Normalize(cmf, -0.2, 0.2, false)},
		{"Chaikin Trend", chaikinTrend},
		{"Price Trend ROC", Normalize(roc42, -0.1, 0.2, false)},
		{"Volume Trend", Normalize(volRatio, 0.8, 1.5, false)},
	}
}
