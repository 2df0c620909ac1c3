package voice

import (
	"fmt"
	"time"
)

// Topics published by the voice plugin.
const (
	// TopicScore carries *signal.ModalityScore snapshots.
	TopicScore = "voice.score"
)

// Analysis frame geometry and pitch search range. Fixed rather than
// configurable: these follow the producer contract, not deployment taste.
const (
	frameLen   = 512
	hopLen     = 256
	pitchMinHz = 65.0
	pitchMaxHz = 500.0

	// Sub-frames whose best normalized autocorrelation peak falls below this
	// are treated as unvoiced and skipped.
	voicingThreshold = 0.3
)

// Config holds the voice analyzer configuration (plugins.voice.*).
type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	WindowSize    int           `mapstructure:"window_size"`
	Sensitivity   float64       `mapstructure:"sensitivity"`
	MinSamples    int           `mapstructure:"min_samples"`
	SampleRate    int           `mapstructure:"sample_rate"`
	ChunkDuration time.Duration `mapstructure:"chunk_duration"`
	SilenceRMS    float64       `mapstructure:"silence_rms"`
}

// DefaultConfig returns the default voice analyzer configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		WindowSize:    30,
		Sensitivity:   2.0,
		MinSamples:    5,
		SampleRate:    16000,
		ChunkDuration: time.Second,
		SilenceRMS:    0.01,
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
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	// The pitch search needs at least one full analysis frame and lags up to
	// the lowest pitch period.
	if minLen := int(float64(c.SampleRate)/pitchMinHz) * 2; c.ChunkSamples() < minLen || c.ChunkSamples() < frameLen {
		return fmt.Errorf("chunk of %s at %d Hz is too short for pitch analysis", c.ChunkDuration, c.SampleRate)
	}
	if c.SilenceRMS < 0 {
		return fmt.Errorf("silence_rms must be non-negative, got %g", c.SilenceRMS)
	}
	return nil
}

// ChunkSamples returns the expected sample count per chunk.
func (c Config) ChunkSamples() int {
	return int(float64(c.SampleRate) * c.ChunkDuration.Seconds())
}
