// Package screener builds a per-ticker metrics table from fundamentals and
// daily history, then filters it through named option- and trend-oriented
// strategies.
package screener

import (
	"sort"
	"time"

	"github.com/openfolio/marketgauge/internal/analysis/technical"
	"github.com/openfolio/marketgauge/pkg/models"
)

// Tickers with fewer bars than this are dropped from the table; the longest
// moving average and the volatility window both need settled values.
const minBars = 50

// Results per strategy are capped to keep the table scannable.
const maxRows = 20

// Row is one ticker's screening metrics.
type Row struct {
	Ticker     string  `json:"ticker"`
	Price      float64 `json:"price"`
	MarketCap  float64 `json:"market_cap"`
	Beta       float64 `json:"beta"`
	PE         float64 `json:"pe"`
	DivYield   float64 `json:"div_yield"`
	RSI        float64 `json:"rsi"`
	SMA20      float64 `json:"sma20"`
	SMA50      float64 `json:"sma50"`
	SMA200     float64 `json:"sma200"`
	HV20       float64 `json:"hv20"`
	AboveSMA50 bool    `json:"above_sma50"`
	BarCount   int     `json:"bar_count"`
}

// Strategy filters and orders the table.
type Strategy struct {
	Name        string
	Description string
	filter      func(Row) bool
	less        func(a, b Row) bool
}

// Strategies in display order.
var Strategies = []Strategy{
	{
		Name:        "csp",
		Description: "Cash-secured puts: volatile names holding above trend",
		filter: func(r Row) bool {
			return r.HV20 > 30 && r.Price > r.SMA50 && r.RSI > 30 && r.RSI < 55
		},
		less: func(a, b Row) bool { return a.HV20 > b.HV20 },
	},
	{
		Name:        "covered_calls",
		Description: "Covered calls: moderate volatility uptrends with income",
		filter: func(r Row) bool {
			return r.HV20 > 20 && r.HV20 < 60 && r.Price > r.SMA50 && r.RSI > 50
		},
		less: func(a, b Row) bool { return a.DivYield > b.DivYield },
	},
	{
		Name:        "short_momentum",
		Description: "Short momentum: breakdowns below trend",
		filter: func(r Row) bool {
			return r.Price < r.SMA50 && r.RSI < 40
		},
		less: func(a, b Row) bool { return a.RSI < b.RSI },
	},
	{
		Name:        "mid_momentum",
		Description: "Momentum: strong uptrends not yet overbought",
		filter: func(r Row) bool {
			return r.Price > r.SMA50 && r.RSI > 55 && r.RSI < 75
		},
		less: func(a, b Row) bool { return a.RSI > b.RSI },
	},
	{
		Name:        "safe_long",
		Description: "Defensive longs: low beta, dividend, long-term uptrend",
		filter: func(r Row) bool {
			return r.Beta < 1.0 && r.DivYield > 0.02 && r.Price > r.SMA200
		},
		less: func(a, b Row) bool { return a.DivYield > b.DivYield },
	},
}

// StrategyByName finds a strategy, reporting whether it exists.
func StrategyByName(name string) (Strategy, bool) {
	for _, s := range Strategies {
		if s.Name == name {
			return s, true
		}
	}
	return Strategy{}, false
}

// Result is one strategy's output table.
type Result struct {
	Strategy    string    `json:"strategy"`
	Description string    `json:"description"`
	Rows        []Row     `json:"rows"`
	Scanned     int       `json:"scanned"`
	ComputedAt  time.Time `json:"computed_at"`
}

// BuildRow computes one ticker's metrics. It returns false when the history
// is too short to screen.
func BuildRow(ticker string, info *models.FundamentalInfo, history []models.PriceBar) (Row, bool) {
	if len(history) < minBars {
		return Row{}, false
	}

	closes := models.Closes(history)
	price := closes[len(closes)-1]
	sma50 := technical.SMALatest(closes, 50)

	row := Row{
		Ticker:     ticker,
		Price:      price,
		RSI:        technical.RSI(closes, 14),
		SMA20:      technical.SMALatest(closes, 20),
		SMA50:      sma50,
		SMA200:     technical.SMALatest(closes, 200),
		HV20:       technical.HistoricalVolatility(closes, 20),
		AboveSMA50: price > sma50,
		BarCount:   len(history),
	}
	if info != nil {
		row.MarketCap = models.FloatOr(info.MarketCap, 0)
		row.Beta = models.FloatOr(info.Beta, 0)
		row.PE = models.FloatOr(info.TrailingPE, 0)
		row.DivYield = models.FloatOr(info.DividendYield, 0)
	}
	return row, true
}

// Run applies one strategy to the table: filter, order, cap.
func Run(s Strategy, table []Row) *Result {
	matched := make([]Row, 0, len(table))
	for _, r := range table {
		if s.filter(r) {
			matched = append(matched, r)
		}
	}

	sort.SliceStable(matched, func(a, b int) bool { return s.less(matched[a], matched[b]) })
	if len(matched) > maxRows {
		matched = matched[:maxRows]
	}

	return &Result{
		Strategy:    s.Name,
		Description: s.Description,
		Rows:        matched,
		Scanned:     len(table),
		ComputedAt:  time.Now(),
	}
}
