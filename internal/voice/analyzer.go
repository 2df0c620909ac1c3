// Package voice implements the voice stress analyzer: pitch, jitter and
// shimmer are extracted from fixed-duration PCM chunks and scored against
// rolling per-speaker baselines.
package voice

import (
	"math"

	"github.com/candorlabs/candor/internal/anomaly"
	"github.com/candorlabs/candor/internal/baseline"
	"github.com/candorlabs/candor/pkg/signal"
)

// Features are the acoustic measurements extracted from one voiced chunk.
type Features struct {
	Pitch   float64 `json:"pitch"`   // mean fundamental frequency, Hz
	Jitter  float64 `json:"jitter"`  // cycle-to-cycle period variation, percent
	Shimmer float64 `json:"shimmer"` // cycle-to-cycle amplitude variation, percent
	Voiced  int     `json:"voiced"`  // voiced sub-frames found
	RMS     float64 `json:"rms"`
}

// Snapshot is the analyzer's diagnostic state after a chunk observation.
type Snapshot struct {
	Score        float64  `json:"score"`
	PitchScore   float64  `json:"pitch_score"`
	JitterScore  float64  `json:"jitter_score"`
	ShimmerScore float64  `json:"shimmer_score"`
	Features     Features `json:"features"`
	Calibrated   bool     `json:"calibrated"`
	Chunks       int      `json:"chunks"` // voiced chunks observed since start/reset
}

// Analyzer turns audio chunks into a vocal stress score.
// Not safe for concurrent use; the plugin serializes access.
type Analyzer struct {
	cfg     Config
	pitch   *baseline.Window
	jitter  *baseline.Window
	shimmer *baseline.Window
	last    Snapshot
	chunks  int
}

// NewAnalyzer creates a voice analyzer from validated config.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pitch, err := baseline.NewWindow(cfg.WindowSize)
	if err != nil {
		return nil, err
	}
	jitter, err := baseline.NewWindow(cfg.WindowSize)
	if err != nil {
		return nil, err
	}
	shimmer, err := baseline.NewWindow(cfg.WindowSize)
	if err != nil {
		return nil, err
	}
	return &Analyzer{cfg: cfg, pitch: pitch, jitter: jitter, shimmer: shimmer}, nil
}

// Observe processes one chunk of PCM. Silent or unvoiced chunks are missed
// samples: no state changes and the previous snapshot is returned with
// updated=false.
func (a *Analyzer) Observe(samples []float64) (snap Snapshot, updated bool) {
	feats, ok := a.extract(samples)
	if !ok {
		return a.last, false
	}

	a.chunks++

	pitchStats := a.pitch.Observe(feats.Pitch)
	jitterStats := a.jitter.Observe(feats.Jitter)
	shimmerStats := a.shimmer.Observe(feats.Shimmer)

	snap = Snapshot{
		Features:   feats,
		Chunks:     a.chunks,
		Calibrated: pitchStats.Samples >= a.cfg.MinSamples,
	}

	if snap.Calibrated {
		snap.PitchScore = anomaly.SubScore(feats.Pitch, pitchStats, a.cfg.Sensitivity)
		snap.JitterScore = anomaly.SubScore(feats.Jitter, jitterStats, a.cfg.Sensitivity)
		snap.ShimmerScore = anomaly.SubScore(feats.Shimmer, shimmerStats, a.cfg.Sensitivity)
	}

	snap.Score = signal.Clamp((snap.PitchScore+snap.JitterScore+snap.ShimmerScore)/3, 0, 100)

	a.last = snap
	return snap, true
}

// Last returns the most recent snapshot.
func (a *Analyzer) Last() Snapshot {
	return a.last
}

// Reset clears all baselines.
func (a *Analyzer) Reset() {
	a.pitch.Reset()
	a.jitter.Reset()
	a.shimmer.Reset()
	a.last = Snapshot{}
	a.chunks = 0
}

// extract measures pitch, jitter and shimmer over the chunk. Returns false
// for silent chunks and chunks with too few voiced sub-frames to compare
// consecutive cycles.
func (a *Analyzer) extract(samples []float64) (Features, bool) {
	chunkRMS := rms(samples)
	if chunkRMS < a.cfg.SilenceRMS {
		return Features{}, false
	}

	fs := float64(a.cfg.SampleRate)
	minLag := int(fs / pitchMaxHz)
	maxLag := int(fs / pitchMinHz)

	var periods, amps []float64
	for start := 0; start+frameLen <= len(samples); start += hopLen {
		frame := samples[start : start+frameLen]
		lag, corr := bestLag(frame, minLag, maxLag)
		if lag == 0 || corr < voicingThreshold {
			continue
		}
		periods = append(periods, float64(lag)/fs)
		amps = append(amps, rms(frame))
	}

	if len(periods) < 2 {
		return Features{}, false
	}

	var pitchSum float64
	for _, t := range periods {
		pitchSum += 1 / t
	}

	feats := Features{
		Pitch:   pitchSum / float64(len(periods)),
		Jitter:  relativeVariation(periods),
		Shimmer: relativeVariation(amps),
		Voiced:  len(periods),
		RMS:     chunkRMS,
	}
	return feats, true
}

// bestLag finds the lag in [minLag, maxLag] maximizing the normalized
// autocorrelation of the frame. Returns lag 0 when no lag fits the frame.
func bestLag(frame []float64, minLag, maxLag int) (int, float64) {
	if maxLag >= len(frame) {
		maxLag = len(frame) - 1
	}
	best, bestCorr := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var num, e0, e1 float64
		for i := 0; i < len(frame)-lag; i++ {
			num += frame[i] * frame[i+lag]
			e0 += frame[i] * frame[i]
			e1 += frame[i+lag] * frame[i+lag]
		}
		if e0 == 0 || e1 == 0 {
			continue
		}
		corr := num / math.Sqrt(e0*e1)
		if corr > bestCorr {
			bestCorr = corr
			best = lag
		}
	}
	return best, bestCorr
}

// relativeVariation is the mean absolute consecutive difference relative to
// the mean, in percent: the shared shape of the jitter and shimmer measures.
func relativeVariation(values []float64) float64 {
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if mean == 0 {
		return 0
	}

	var diffSum float64
	for i := 1; i < len(values); i++ {
		diffSum += math.Abs(values[i] - values[i-1])
	}
	return diffSum / float64(len(values)-1) / mean * 100
}

func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}
