// Package face implements the facial anomaly analyzer: per-metric rolling
// baselines over landmark-derived measurements, combined into one bounded
// facial stress score.
package face

import (
	"github.com/candorlabs/candor/internal/anomaly"
	"github.com/candorlabs/candor/internal/baseline"
	"github.com/candorlabs/candor/pkg/signal"
)

// Sub-score combination weights. Brow tension dominates because it is the
// most stable landmark measurement; blink rate is the noisiest.
const (
	browWeight  = 0.4
	lipWeight   = 0.3
	blinkWeight = 0.3
)

// Snapshot is the scorer's diagnostic state after a frame observation.
type Snapshot struct {
	Score      float64 `json:"score"`
	BrowScore  float64 `json:"brow_score"`
	LipScore   float64 `json:"lip_score"`
	BlinkScore float64 `json:"blink_score"`
	BlinkRate  float64 `json:"blink_rate"` // blinks per minute over the blink window
	Calibrated bool    `json:"calibrated"`
	Frames     int     `json:"frames"` // frames observed since start/reset
}

// Scorer turns per-frame landmark metrics into a facial stress score.
// Not safe for concurrent use; the plugin serializes access.
type Scorer struct {
	cfg  Config
	brow *baseline.Window
	lip  *baseline.Window

	// blinks records a 1 for each frame on which the eyes transitioned to
	// closed, 0 otherwise. The window sum over its span gives the blink rate.
	blinks    *baseline.Window
	prevBlink bool

	last   Snapshot
	frames int
}

// NewScorer creates a facial scorer from validated config.
func NewScorer(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	brow, err := baseline.NewWindow(cfg.WindowSize)
	if err != nil {
		return nil, err
	}
	lip, err := baseline.NewWindow(cfg.WindowSize)
	if err != nil {
		return nil, err
	}
	// blink_window is in seconds; the ring itself holds one marker per frame.
	blinks, err := baseline.NewWindow(int(float64(cfg.BlinkWindow) * cfg.FrameRate))
	if err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg, brow: brow, lip: lip, blinks: blinks}, nil
}

// Observe processes one frame. A frame with Present=false is a missed sample:
// no state changes and the previous snapshot is returned with updated=false.
func (s *Scorer) Observe(m signal.FrameMetrics) (snap Snapshot, updated bool) {
	if !m.Present {
		return s.last, false
	}

	s.frames++

	browStats := s.brow.Observe(m.BrowEyeDistance)
	lipStats := s.lip.Observe(m.LipCompression)

	transition := 0.0
	if m.Blink && !s.prevBlink {
		transition = 1.0
	}
	s.prevBlink = m.Blink
	blinkStats := s.blinks.Observe(transition)

	snap = Snapshot{
		Frames:     s.frames,
		Calibrated: browStats.Samples >= s.cfg.MinSamples && lipStats.Samples >= s.cfg.MinSamples,
	}

	if snap.Calibrated {
		snap.BrowScore = anomaly.SubScore(m.BrowEyeDistance, browStats, s.cfg.Sensitivity)
		snap.LipScore = anomaly.SubScore(m.LipCompression, lipStats, s.cfg.Sensitivity)
	}

	// Blink rate over the window span, scaled to per-minute. A rate needs
	// seconds of history to mean anything, so the sub-score waits for
	// min_samples seconds of frames rather than min_samples frames.
	n := s.blinks.Len()
	seconds := float64(n) / s.cfg.FrameRate
	if n > 0 {
		blinkCount := blinkStats.Mean * float64(n)
		snap.BlinkRate = blinkCount / seconds * 60
	}
	if seconds >= float64(s.cfg.MinSamples) {
		snap.BlinkScore = anomaly.RangeScore(snap.BlinkRate, s.cfg.BlinkRateLow, s.cfg.BlinkRateHigh)
	}

	snap.Score = signal.Clamp(
		browWeight*snap.BrowScore+lipWeight*snap.LipScore+blinkWeight*snap.BlinkScore,
		0, 100,
	)

	s.last = snap
	return snap, true
}

// Last returns the most recent snapshot.
func (s *Scorer) Last() Snapshot {
	return s.last
}

// Reset clears all baselines and blink history.
func (s *Scorer) Reset() {
	s.brow.Reset()
	s.lip.Reset()
	s.blinks.Reset()
	s.prevBlink = false
	s.last = Snapshot{}
	s.frames = 0
}
