package rppg

import "math"

// biquad is a second-order IIR filter section (RBJ audio EQ cookbook
// coefficients), used to band-limit the intensity trace to the
// physiological pulse band before the spectral transform.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

// butterworth Q for a maximally flat 2nd-order response.
const butterQ = math.Sqrt2 / 2

// newLowPass creates a 2nd-order low-pass biquad with cutoff fc at sample
// rate fs.
func newLowPass(fc, fs float64) *biquad {
	w0 := 2 * math.Pi * fc / fs
	alpha := math.Sin(w0) / (2 * butterQ)
	cosw := math.Cos(w0)
	a0 := 1 + alpha
	return &biquad{
		b0: (1 - cosw) / 2 / a0,
		b1: (1 - cosw) / a0,
		b2: (1 - cosw) / 2 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

// newHighPass creates a 2nd-order high-pass biquad with cutoff fc at sample
// rate fs.
func newHighPass(fc, fs float64) *biquad {
	w0 := 2 * math.Pi * fc / fs
	alpha := math.Sin(w0) / (2 * butterQ)
	cosw := math.Cos(w0)
	a0 := 1 + alpha
	return &biquad{
		b0: (1 + cosw) / 2 / a0,
		b1: -(1 + cosw) / a0,
		b2: (1 + cosw) / 2 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

// step advances the filter by one sample.
func (f *biquad) step(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// bandPass filters the series through a high-pass at lo Hz and a low-pass at
// hi Hz. Fresh filter state per call; the caller passes the whole window.
func bandPass(values []float64, lo, hi, fs float64) []float64 {
	hp := newHighPass(lo, fs)
	lp := newLowPass(hi, fs)
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = lp.step(hp.step(v))
	}
	return out
}

// detrend removes the least-squares linear trend from the series, eliminating
// slow illumination drift that would otherwise dominate the spectrum.
func detrend(values []float64) []float64 {
	n := len(values)
	if n < 2 {
		out := make([]float64, n)
		copy(out, values)
		return out
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	var slope, intercept float64
	if denom != 0 {
		slope = (fn*sumXY - sumX*sumY) / denom
		intercept = (sumY - slope*sumX) / fn
	} else {
		intercept = sumY / fn
	}

	out := make([]float64, n)
	for i, v := range values {
		out[i] = v - (intercept + slope*float64(i))
	}
	return out
}
