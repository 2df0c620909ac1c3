// Package anomaly converts raw measurements into bounded deviation scores
// against a rolling baseline.
package anomaly

import (
	"math"

	"github.com/candorlabs/candor/internal/baseline"
)

// epsilon guards the z-score division when the baseline has collapsed to a
// constant. A zero std-dev window yields an enormous z and therefore a score
// pinned at 100 for any deviation, which is the intended behavior: departure
// from a perfectly stable baseline is maximally anomalous.
const epsilon = 1e-9

// SubScore maps a measurement against its baseline into [0,100].
//
// z = |value - mean| / max(std, epsilon); the score saturates at 100 when
// z reaches 2*sensitivity standard deviations. Higher sensitivity therefore
// means a *flatter* ramp (more deviation tolerated before saturation).
func SubScore(value float64, stats baseline.Stats, sensitivity float64) float64 {
	std := stats.StdDev
	if std < epsilon {
		std = epsilon
	}
	z := math.Abs(value-stats.Mean) / std
	score := z / (2 * sensitivity) * 100
	if score > 100 {
		return 100
	}
	return score
}

// RangeScore maps a measurement against a normal [lo, hi] band into [0,100]:
// 0 inside the band, ramping linearly to 100 as the value departs by the band
// width on either side. Used for rate-style metrics (blink rate) where the
// healthy range is known a priori rather than learned.
func RangeScore(value, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	width := hi - lo
	if width <= 0 {
		width = 1
	}
	var dist float64
	switch {
	case value < lo:
		dist = lo - value
	case value > hi:
		dist = value - hi
	default:
		return 0
	}
	score := dist / width * 100
	if score > 100 {
		return 100
	}
	return score
}
