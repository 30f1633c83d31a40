// Package macrox derives cross-asset macro context: the treasury yield curve
// spread and normalized performance of major assets over a shared window.
package macrox

import (
	"time"

	"github.com/openfolio/marketgauge/internal/analysis/fault"
	"github.com/openfolio/marketgauge/pkg/models"
)

// MacroTickers maps display names to the index/future symbols that back them.
var MacroTickers = map[string]string{
	"10Y Yield": "^TNX",
	"5Y Yield":  "^FVX",
	"3M Yield":  "^IRX",
	"Dollar":    "DX-Y.NYB",
	"Gold":      "GC=F",
	"Oil":       "CL=F",
	"Bitcoin":   "BTC-USD",
	"S&P 500":   "^GSPC",
}

// YieldPoint is one day on the curve-spread series.
type YieldPoint struct {
	Date       time.Time `json:"date"`
	TenYear    float64   `json:"ten_year"`
	ThreeMonth float64   `json:"three_month"`
	Spread     float64   `json:"spread"`
}

// CurveResult is the 10Y-3M spread history with its latest reading.
type CurveResult struct {
	Points   []YieldPoint `json:"points"`
	Latest   float64      `json:"latest"`
	Inverted bool         `json:"inverted"`
}

// PerfPoint is one asset's normalized performance path.
type PerfPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// YieldCurve builds the 10Y minus 3M spread from the two yield histories,
// joined on date. Yahoo quotes both as percent×10 in the same units, so the
// spread is a straight difference.
func YieldCurve(tenYear, threeMonth []models.PriceBar) (*CurveResult, error) {
	if len(tenYear) == 0 || len(threeMonth) == 0 {
		return nil, fault.DataUnavailable("missing yield history")
	}

	shortByDay := make(map[string]float64, len(threeMonth))
	for _, b := range threeMonth {
		shortByDay[b.Date.Format("2006-01-02")] = b.Close
	}

	points := make([]YieldPoint, 0, len(tenYear))
	for _, b := range tenYear {
		tm, ok := shortByDay[b.Date.Format("2006-01-02")]
		if !ok {
			continue
		}
		points = append(points, YieldPoint{
			Date:       b.Date,
			TenYear:    b.Close,
			ThreeMonth: tm,
			Spread:     b.Close - tm,
		})
	}
	if len(points) == 0 {
		return nil, fault.DataUnavailable("yield histories share no dates")
	}

	latest := points[len(points)-1].Spread
	return &CurveResult{Points: points, Latest: latest, Inverted: latest < 0}, nil
}

// NormalizedPerformance rebases a close series to percent change from its
// first bar, the common way to chart assets of different scales together.
func NormalizedPerformance(bars []models.PriceBar) ([]PerfPoint, error) {
	if len(bars) == 0 {
		return nil, fault.DataUnavailable("no history to normalize")
	}
	base := bars[0].Close
	if base == 0 {
		return nil, fault.Calculation("cannot normalize from a zero base price")
	}

	out := make([]PerfPoint, len(bars))
	for i, b := range bars {
		out[i] = PerfPoint{Date: b.Date, Value: (b.Close/base - 1) * 100}
	}
	return out, nil
}
