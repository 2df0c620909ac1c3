package face

import (
	"math"
	"testing"
	"time"

	"github.com/candorlabs/candor/pkg/signal"
)

func testConfig() Config {
	cfg := DefaultConfig()
	return cfg
}

func frame(brow, lip float64, blink bool) signal.FrameMetrics {
	return signal.FrameMetrics{
		Timestamp:       time.Now(),
		Present:         true,
		BrowEyeDistance: brow,
		LipCompression:  lip,
		Blink:           blink,
	}
}

// feedCalm drives the scorer with steady measurements and an in-band blink
// rate (one blink every 3 seconds = 20/min at 30 fps).
func feedCalm(s *Scorer, frames int) Snapshot {
	var snap Snapshot
	for i := 0; i < frames; i++ {
		blink := i%90 == 0
		snap, _ = s.Observe(frame(10.0, 2.0, blink))
	}
	return snap
}

func TestScorerConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero window", func(c *Config) { c.WindowSize = 0 }},
		{"negative sensitivity", func(c *Config) { c.Sensitivity = -1 }},
		{"zero min samples", func(c *Config) { c.MinSamples = 0 }},
		{"zero frame rate", func(c *Config) { c.FrameRate = 0 }},
		{"zero blink window", func(c *Config) { c.BlinkWindow = 0 }},
		{"inverted blink band", func(c *Config) { c.BlinkRateLow = 25; c.BlinkRateHigh = 10 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if _, err := NewScorer(cfg); err == nil {
				t.Error("NewScorer: expected error, got nil")
			}
		})
	}
}

func TestScorerMissedSampleLeavesStateUntouched(t *testing.T) {
	s, err := NewScorer(testConfig())
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}

	before := feedCalm(s, 200)

	snap, updated := s.Observe(signal.FrameMetrics{Present: false})
	if updated {
		t.Error("Observe with Present=false reported an update")
	}
	if snap != before {
		t.Errorf("snapshot changed on missed sample: %+v vs %+v", snap, before)
	}
	if s.Last().Frames != 200 {
		t.Errorf("frame count = %d, want 200", s.Last().Frames)
	}
}

func TestScorerCalibrationGate(t *testing.T) {
	s, _ := NewScorer(testConfig())

	var snap Snapshot
	for i := 0; i < 4; i++ {
		snap, _ = s.Observe(frame(10+float64(i), 2, false))
	}
	if snap.Calibrated {
		t.Error("calibrated after 4 frames, want uncalibrated until min_samples")
	}
	if snap.BrowScore != 0 || snap.LipScore != 0 {
		t.Errorf("sub-scores before calibration = %v/%v, want 0/0", snap.BrowScore, snap.LipScore)
	}

	snap, _ = s.Observe(frame(14, 2, false))
	if !snap.Calibrated {
		t.Error("not calibrated after min_samples frames")
	}
}

func TestScorerCalmInputScoresNearZero(t *testing.T) {
	s, _ := NewScorer(testConfig())

	// 20 seconds of calm frames: steady landmarks, 20 blinks/min.
	snap := feedCalm(s, 600)

	if !snap.Calibrated {
		t.Fatal("expected calibrated after 600 frames")
	}
	if snap.Score > 5 {
		t.Errorf("calm score = %v, want near zero", snap.Score)
	}
	if snap.BlinkRate < 10 || snap.BlinkRate > 25 {
		t.Errorf("blink rate = %v, want within [10,25]", snap.BlinkRate)
	}
}

func TestScorerDeviationRaisesScore(t *testing.T) {
	s, _ := NewScorer(testConfig())
	feedCalm(s, 600)
	calm := s.Last().Score

	// Sudden brow drop and lip compression spike.
	snap, _ := s.Observe(frame(4.0, 6.0, false))
	if snap.Score <= calm {
		t.Errorf("deviant frame score = %v, want > calm score %v", snap.Score, calm)
	}
	if snap.BrowScore == 0 {
		t.Error("expected non-zero brow sub-score for deviant frame")
	}
}

func TestScorerAbsentBlinkingIsAnomalous(t *testing.T) {
	s, _ := NewScorer(testConfig())

	// 30 seconds with no blinks at all: staring.
	var snap Snapshot
	for i := 0; i < 900; i++ {
		snap, _ = s.Observe(frame(10, 2, false))
	}
	if snap.BlinkRate != 0 {
		t.Fatalf("blink rate = %v, want 0", snap.BlinkRate)
	}
	if snap.BlinkScore <= 0 {
		t.Error("expected positive blink sub-score for zero blink rate")
	}
}

func TestScorerScoreBounded(t *testing.T) {
	s, _ := NewScorer(testConfig())
	feedCalm(s, 600)

	// Extreme outliers must still clamp to [0,100].
	snap, _ := s.Observe(frame(1e6, -1e6, true))
	if snap.Score < 0 || snap.Score > 100 {
		t.Errorf("score = %v, want within [0,100]", snap.Score)
	}
}

func TestScorerCombinationWeights(t *testing.T) {
	s, _ := NewScorer(testConfig())
	feedCalm(s, 600)
	snap, _ := s.Observe(frame(4.0, 6.0, false))

	want := signal.Clamp(0.4*snap.BrowScore+0.3*snap.LipScore+0.3*snap.BlinkScore, 0, 100)
	if math.Abs(snap.Score-want) > 1e-9 {
		t.Errorf("score = %v, want weighted combination %v", snap.Score, want)
	}
}

func TestScorerReset(t *testing.T) {
	s, _ := NewScorer(testConfig())
	feedCalm(s, 600)

	s.Reset()

	if s.Last() != (Snapshot{}) {
		t.Errorf("snapshot after reset = %+v, want zero value", s.Last())
	}
	snap, _ := s.Observe(frame(10, 2, false))
	if snap.Calibrated {
		t.Error("calibrated immediately after reset")
	}
	if snap.Frames != 1 {
		t.Errorf("frames after reset = %d, want 1", snap.Frames)
	}
}
