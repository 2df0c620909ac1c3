package face

import "fmt"

// Topics published by the face plugin.
const (
	// TopicScore carries *signal.ModalityScore snapshots.
	TopicScore = "face.score"
)

// Config holds the facial analyzer configuration (plugins.face.*).
type Config struct {
	Enabled       bool    `mapstructure:"enabled"`
	WindowSize    int     `mapstructure:"window_size"`
	Sensitivity   float64 `mapstructure:"sensitivity"`
	MinSamples    int     `mapstructure:"min_samples"`
	FrameRate     float64 `mapstructure:"frame_rate"`
	BlinkWindow   int     `mapstructure:"blink_window"` // seconds of blink history
	BlinkRateLow  float64 `mapstructure:"blink_rate_low"`
	BlinkRateHigh float64 `mapstructure:"blink_rate_high"`
}

// DefaultConfig returns the default facial analyzer configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		WindowSize:    30,
		Sensitivity:   2.0,
		MinSamples:    5,
		FrameRate:     30,
		BlinkWindow:   60,
		BlinkRateLow:  10,
		BlinkRateHigh: 25,
	}
}

// Validate checks config invariants.
func (c Config) Validate() error {
	if c.WindowSize <= 0 {
		return fmt.Errorf("window_size must be positive, got %d", c.WindowSize)
	}
	if c.Sensitivity <= 0 {
		return fmt.Errorf("sensitivity must be positive, got %g", c.Sensitivity)
	}
	if c.MinSamples <= 0 {
		return fmt.Errorf("min_samples must be positive, got %d", c.MinSamples)
	}
	if c.FrameRate <= 0 {
		return fmt.Errorf("frame_rate must be positive, got %g", c.FrameRate)
	}
	if c.BlinkWindow <= 0 {
		return fmt.Errorf("blink_window must be positive, got %d", c.BlinkWindow)
	}
	if c.BlinkRateLow < 0 || c.BlinkRateHigh <= c.BlinkRateLow {
		return fmt.Errorf("blink rate band [%g, %g] is invalid", c.BlinkRateLow, c.BlinkRateHigh)
	}
	return nil
}
