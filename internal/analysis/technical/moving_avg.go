// Package technical implements the indicator math shared by the analysis
// engines: moving averages, rolling statistics, momentum, and money-flow
// indicators. All functions are pure and operate on plain float64 series;
// a return of NaN means the input was too short for the requested window.
package technical

import "math"

// SMA calculates the Simple Moving Average series for the given period.
// Positions before the first full window hold NaN.
func SMA(data []float64, period int) []float64 {
	n := len(data)
	if n < period || period <= 0 {
		return nil
	}

	result := make([]float64, n)
	for i := 0; i < period-1; i++ {
		result[i] = math.NaN()
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	result[period-1] = sum / float64(period)

	for i := period; i < n; i++ {
		sum += data[i] - data[i-period]
		result[i] = sum / float64(period)
	}

	return result
}

// SMALatest returns the most recent SMA value, or NaN when the series is
// shorter than the period.
func SMALatest(data []float64, period int) float64 {
	vals := SMA(data, period)
	if len(vals) == 0 {
		return math.NaN()
	}
	return vals[len(vals)-1]
}

// EMA calculates the Exponential Moving Average series, seeded with the
// first data point (span smoothing, alpha = 2/(period+1)).
func EMA(data []float64, period int) []float64 {
	n := len(data)
	if n == 0 || period <= 0 {
		return nil
	}

	alpha := 2.0 / float64(period+1)
	result := make([]float64, n)
	result[0] = data[0]
	for i := 1; i < n; i++ {
		result[i] = alpha*data[i] + (1-alpha)*result[i-1]
	}
	return result
}

// RollingMean returns the mean of the trailing window of the series, or NaN
// when fewer than window points are available.
func RollingMean(data []float64, window int) float64 {
	n := len(data)
	if window <= 0 || n < window {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range data[n-window:] {
		sum += v
	}
	return sum / float64(window)
}

// RollingMax returns the maximum of the trailing window of the series, or
// NaN when fewer than window points are available.
func RollingMax(data []float64, window int) float64 {
	n := len(data)
	if window <= 0 || n < window {
		return math.NaN()
	}
	max := data[n-window]
	for _, v := range data[n-window:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Mean returns the arithmetic mean of the series, or NaN when empty.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}
