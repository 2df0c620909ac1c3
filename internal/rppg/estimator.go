// Package rppg implements the remote-photoplethysmography pulse estimator:
// a sliding window of forehead ROI intensities is detrended, band-limited to
// the physiological pulse band, and searched for its dominant spectral
// component to recover beats per minute.
package rppg

import (
	"math"
	"sort"

	"github.com/candorlabs/candor/internal/baseline"
	"github.com/candorlabs/candor/pkg/signal"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Signal-quality bounds: estimates outside this BPM range are flagged poor.
const (
	qualityLowBPM  = 50
	qualityHighBPM = 180
)

// Estimate is the estimator's diagnostic state after a sample observation.
type Estimate struct {
	BPM         float64 `json:"bpm"`          // raw estimate from the latest window
	SmoothedBPM float64 `json:"smoothed_bpm"` // median over the recent estimates
	Stress      float64 `json:"stress"`
	Quality     string  `json:"quality"` // "good" or "poor"
	Calibrated  bool    `json:"calibrated"`
	Samples     int     `json:"samples"`
}

// Estimator turns ROI intensity samples into a pulse-derived stress score.
// Not safe for concurrent use; the plugin serializes access.
type Estimator struct {
	cfg     Config
	window  *baseline.Window // intensity samples, one per frame
	history *baseline.Window // recent raw BPM estimates for median smoothing
	minLen  int
	last    Estimate
}

// NewEstimator creates a pulse estimator from validated config.
func NewEstimator(cfg Config) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	window, err := baseline.NewWindow(int(float64(cfg.BufferSeconds) * cfg.FrameRate))
	if err != nil {
		return nil, err
	}
	history, err := baseline.NewWindow(cfg.MedianWindow)
	if err != nil {
		return nil, err
	}
	return &Estimator{
		cfg:     cfg,
		window:  window,
		history: history,
		minLen:  int(float64(cfg.MinSeconds) * cfg.FrameRate),
	}, nil
}

// Observe appends one intensity sample and, once the buffer spans the
// minimum duration, recomputes the BPM estimate. Underfull buffers return
// the previous estimate with updated=false.
func (e *Estimator) Observe(v float64) (Estimate, bool) {
	e.window.Observe(v)
	n := e.window.Len()
	if n < e.minLen {
		e.last.Samples = n
		return e.last, false
	}

	bpm, ok := dominantBPM(e.window.Values(), e.cfg.FrameRate)
	if !ok {
		e.last.Samples = n
		return e.last, false
	}

	e.history.Observe(bpm)
	smoothed := median(e.history.Values())

	est := Estimate{
		BPM:         bpm,
		SmoothedBPM: smoothed,
		Stress:      e.stressFromBPM(smoothed),
		Quality:     quality(smoothed),
		Calibrated:  true,
		Samples:     n,
	}
	e.last = est
	return est, true
}

// Last returns the most recent estimate.
func (e *Estimator) Last() Estimate {
	return e.last
}

// Reset clears the sample buffer and BPM history.
func (e *Estimator) Reset() {
	e.window.Reset()
	e.history.Reset()
	e.last = Estimate{}
}

// stressFromBPM maps a smoothed BPM onto [0,100]: zero at the configured
// resting rate, saturating 40 BPM above it. Implausibly low estimates read
// as measurement trouble, not deep calm, and pin a small floor instead.
func (e *Estimator) stressFromBPM(bpm float64) float64 {
	if bpm < qualityLowBPM {
		return 20
	}
	return signal.Clamp((bpm-e.cfg.RestingBPM)/40*100, 0, 100)
}

func quality(bpm float64) string {
	if bpm >= qualityLowBPM && bpm <= qualityHighBPM {
		return "good"
	}
	return "poor"
}

// dominantBPM finds the strongest spectral component of the intensity trace
// within the pulse band and converts it to beats per minute. The peak bin is
// refined by parabolic interpolation so the estimate is not quantized to the
// FFT bin width (0.1 Hz = 6 BPM for a 10 s window).
func dominantBPM(values []float64, fs float64) (float64, bool) {
	filtered := bandPass(detrend(values), bandLowHz, bandHighHz, fs)

	n := len(filtered)
	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, filtered)

	mags := make([]float64, len(coeffs))
	for i, c := range coeffs {
		mags[i] = cmplxAbs(c)
	}

	peak := -1
	var peakMag float64
	for i := 1; i < len(coeffs)-1; i++ {
		f := fft.Freq(i) * fs
		if f < bandLowHz || f > bandHighHz {
			continue
		}
		if mags[i] > peakMag {
			peakMag = mags[i]
			peak = i
		}
	}
	if peak < 1 || peakMag == 0 {
		return 0, false
	}

	// Parabolic refinement over the peak and its neighbors.
	alpha, beta, gamma := mags[peak-1], mags[peak], mags[peak+1]
	delta := 0.0
	if denom := alpha - 2*beta + gamma; denom != 0 {
		delta = 0.5 * (alpha - gamma) / denom
		if delta > 0.5 {
			delta = 0.5
		} else if delta < -0.5 {
			delta = -0.5
		}
	}

	freq := (float64(peak) + delta) * fs / float64(n)
	return freq * 60, true
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
