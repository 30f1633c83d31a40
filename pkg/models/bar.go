package models

import "time"

// Timeframe is the sampling interval of a price series.
type Timeframe string

const (
	TimeframeDaily  Timeframe = "1d"
	TimeframeWeekly Timeframe = "1wk"
)

// PriceBar is one OHLCV bar for a trading session or week.
// Bars in a series are chronological and immutable once fetched.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Closes extracts the close series from a slice of bars.
func Closes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts the volume series from a slice of bars.
func Volumes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = float64(b.Volume)
	}
	return out
}
