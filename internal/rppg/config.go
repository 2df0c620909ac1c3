package rppg

import "fmt"

// Topics published by the pulse plugin.
const (
	// TopicScore carries *signal.ModalityScore snapshots.
	TopicScore = "pulse.score"
)

// Physiological band searched for the pulse component, in Hz.
// 0.8-3.0 Hz covers 48-180 BPM.
const (
	bandLowHz  = 0.8
	bandHighHz = 3.0
)

// Config holds the pulse estimator configuration (plugins.pulse.*).
type Config struct {
	Enabled       bool    `mapstructure:"enabled"`
	FrameRate     float64 `mapstructure:"frame_rate"`
	BufferSeconds int     `mapstructure:"buffer_seconds"`
	MinSeconds    int     `mapstructure:"min_seconds"`
	MedianWindow  int     `mapstructure:"median_window"`
	RestingBPM    float64 `mapstructure:"resting_bpm"`
}

// DefaultConfig returns the default pulse estimator configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		FrameRate:     30,
		BufferSeconds: 10,
		MinSeconds:    5,
		MedianWindow:  5,
		RestingBPM:    90,
	}
}

// Validate checks config invariants.
func (c Config) Validate() error {
	if c.FrameRate <= 0 {
		return fmt.Errorf("frame_rate must be positive, got %g", c.FrameRate)
	}
	if c.BufferSeconds <= 0 {
		return fmt.Errorf("buffer_seconds must be positive, got %d", c.BufferSeconds)
	}
	if c.MinSeconds <= 0 || c.MinSeconds > c.BufferSeconds {
		return fmt.Errorf("min_seconds must be in (0, buffer_seconds], got %d", c.MinSeconds)
	}
	if c.MedianWindow <= 0 {
		return fmt.Errorf("median_window must be positive, got %d", c.MedianWindow)
	}
	if c.RestingBPM <= 0 {
		return fmt.Errorf("resting_bpm must be positive, got %g", c.RestingBPM)
	}
	// The spectral search needs the band to sit below Nyquist.
	if c.FrameRate/2 <= bandHighHz {
		return fmt.Errorf("frame_rate %g too low for the %g Hz pulse band", c.FrameRate, bandHighHz)
	}
	return nil
}
