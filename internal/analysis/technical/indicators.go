package technical

import (
	"math"

	"github.com/openfolio/marketgauge/pkg/models"
)

// ReturnOver returns the fractional return from the bar `lookback` positions
// from the end to the last bar (e.g. lookback=20 compares against the 20th
// bar from the end). NaN when the series is shorter than lookback.
func ReturnOver(closes []float64, lookback int) float64 {
	n := len(closes)
	if lookback <= 1 || n < lookback {
		return math.NaN()
	}
	base := closes[n-lookback]
	if base == 0 {
		return math.NaN()
	}
	return closes[n-1]/base - 1
}

// PctChange returns the series of bar-over-bar fractional changes. The first
// element is dropped, so the result is one shorter than the input.
func PctChange(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, closes[i]/closes[i-1]-1)
	}
	return out
}

// RSI computes the latest Relative Strength Index using simple rolling
// means of gains and losses over the period. NaN when the series is too
// short. A zero average loss yields 100.
func RSI(closes []float64, period int) float64 {
	n := len(closes)
	if period <= 0 || n < period+1 {
		return math.NaN()
	}

	var gainSum, lossSum float64
	for i := n - period; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}

	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// CMF computes the latest Chaikin Money Flow over the period: the rolling
// sum of money-flow volume divided by the rolling sum of volume.
func CMF(bars []models.PriceBar, period int) float64 {
	n := len(bars)
	if period <= 0 || n < period {
		return math.NaN()
	}

	var mfvSum, volSum float64
	for _, b := range bars[n-period:] {
		mfvSum += moneyFlowVolume(b)
		volSum += float64(b.Volume)
	}
	if volSum == 0 {
		return math.NaN()
	}
	return mfvSum / volSum
}

// ChaikinOscillatorChange computes the 5-bar change of the Chaikin
// oscillator (EMA3 minus EMA10 of the accumulation/distribution line).
// Positive means money flow is accelerating in.
func ChaikinOscillatorChange(bars []models.PriceBar) float64 {
	n := len(bars)
	if n < 15 {
		return math.NaN()
	}

	adl := make([]float64, n)
	cum := 0.0
	for i, b := range bars {
		cum += moneyFlowVolume(b)
		adl[i] = cum
	}

	ema3 := EMA(adl, 3)
	ema10 := EMA(adl, 10)
	osc := make([]float64, n)
	for i := range osc {
		osc[i] = ema3[i] - ema10[i]
	}
	return osc[n-1] - osc[n-6]
}

// HistoricalVolatility computes annualized close-to-close volatility over
// the trailing window as a percentage (stddev of log returns × √252 × 100).
func HistoricalVolatility(closes []float64, window int) float64 {
	n := len(closes)
	if window <= 1 || n < window+1 {
		return math.NaN()
	}

	logRets := make([]float64, 0, window)
	for i := n - window; i < n; i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			return math.NaN()
		}
		logRets = append(logRets, math.Log(closes[i]/closes[i-1]))
	}

	mean := Mean(logRets)
	var sq float64
	for _, r := range logRets {
		sq += (r - mean) * (r - mean)
	}
	std := math.Sqrt(sq / float64(len(logRets)-1))
	return std * math.Sqrt(252) * 100
}

// moneyFlowVolume is ((C-L)-(H-C))/(H-L) × V, zero on a flat bar.
func moneyFlowVolume(b models.PriceBar) float64 {
	rng := b.High - b.Low
	if rng == 0 {
		return 0
	}
	mult := ((b.Close - b.Low) - (b.High - b.Close)) / rng
	return mult * float64(b.Volume)
}
