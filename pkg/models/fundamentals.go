package models

import "time"

// FundamentalInfo is a snapshot of fundamental and sentiment fields for one
// ticker, assembled from the provider's summary endpoints. Every field is a
// pointer: nil means the provider did not report it, and downstream scoring
// degrades that factor to a neutral default instead of failing.
type FundamentalInfo struct {
	Symbol string `json:"symbol"`

	// Valuation / balance sheet
	DebtToEquity *float64 `json:"debt_to_equity,omitempty"`
	PriceToBook  *float64 `json:"price_to_book,omitempty"`
	ReturnOnEq   *float64 `json:"return_on_equity,omitempty"`
	PriceToSales *float64 `json:"price_to_sales,omitempty"`
	FreeCashflow *float64 `json:"free_cashflow,omitempty"`
	MarketCap    *float64 `json:"market_cap,omitempty"`

	// Earnings
	EarningsGrowth          *float64 `json:"earnings_growth,omitempty"`
	EarningsQuarterlyGrowth *float64 `json:"earnings_quarterly_growth,omitempty"`
	RevenueGrowth           *float64 `json:"revenue_growth,omitempty"`
	ForwardPE               *float64 `json:"forward_pe,omitempty"`
	TrailingPE              *float64 `json:"trailing_pe,omitempty"`
	ProfitMargins           *float64 `json:"profit_margins,omitempty"`

	// Sentiment / ownership
	CurrentPrice        *float64 `json:"current_price,omitempty"`
	TargetMeanPrice     *float64 `json:"target_mean_price,omitempty"`
	ShortPctOfFloat     *float64 `json:"short_pct_of_float,omitempty"`
	RecommendationMean  *float64 `json:"recommendation_mean,omitempty"`
	Beta                *float64 `json:"beta,omitempty"`
	HeldPctInstitutions *float64 `json:"held_pct_institutions,omitempty"`

	// Price / volume context
	FiftyTwoWeekHigh *float64 `json:"fifty_two_week_high,omitempty"`
	FiftyTwoWeekLow  *float64 `json:"fifty_two_week_low,omitempty"`
	Volume           *float64 `json:"volume,omitempty"`
	AverageVolume    *float64 `json:"average_volume,omitempty"`
	DividendYield    *float64 `json:"dividend_yield,omitempty"`

	FetchedAt time.Time `json:"fetched_at"`
}

// Float dereferences an optional field, returning NaN-safe defaults via ok.
func Float(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

// FloatOr dereferences an optional field with a fallback.
func FloatOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}
