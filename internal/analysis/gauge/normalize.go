package gauge

import "math"

// Normalize maps value onto a 0-100 scale over [min, max], clamping at the
// bounds. With invert the scale is flipped (100 - score). A NaN value means
// the underlying field was missing and scores a neutral 50, before any
// inversion. This is the single normalization primitive shared by every
// factor in the gauge.
func Normalize(value, min, max float64, invert bool) float64 {
	if math.IsNaN(value) {
		return 50
	}

	score := (value - min) / (max - min) * 100
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	if invert {
		return 100 - score
	}
	return score
}

// normOpt normalizes an optional field, treating nil as missing.
func normOpt(p *float64, min, max float64, invert bool) float64 {
	if p == nil {
		return Normalize(math.NaN(), min, max, invert)
	}
	return Normalize(*p, min, max, invert)
}
