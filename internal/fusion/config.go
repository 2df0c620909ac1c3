package fusion

import (
	"fmt"
	"math"

	"github.com/candorlabs/candor/pkg/signal"
)

// Topics published by the fusion engine.
const (
	// TopicResult carries *signal.FusionResult snapshots after each recompute.
	TopicResult = "fusion.result"
	// TopicReset carries *ResetEvent when a session is rotated.
	TopicReset = "fusion.reset"
)

// ResetEvent announces a session rotation. All modality baselines have been
// cleared; scores published under the new session start uncalibrated.
type ResetEvent struct {
	PreviousSessionID string `json:"previous_session_id"`
	NewSessionID      string `json:"new_session_id"`
}

// weightSumTolerance bounds how far the configured weights may drift from
// summing to exactly 1. Weights are never renormalized: a bad sum is an
// operator error and refusing to start is the only honest response.
const weightSumTolerance = 1e-6

// Config holds the fusion engine configuration (plugins.fusion.*).
type Config struct {
	Enabled      bool    `mapstructure:"enabled"`
	FacialWeight float64 `mapstructure:"facial_weight"`
	VoiceWeight  float64 `mapstructure:"voice_weight"`
	PulseWeight  float64 `mapstructure:"pulse_weight"`
}

// DefaultConfig returns the default fusion configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		FacialWeight: 0.4,
		VoiceWeight:  0.3,
		PulseWeight:  0.3,
	}
}

// Weights returns the per-modality weight map.
func (c Config) Weights() map[string]float64 {
	return map[string]float64{
		signal.ModalityFacial: c.FacialWeight,
		signal.ModalityVoice:  c.VoiceWeight,
		signal.ModalityPulse:  c.PulseWeight,
	}
}

// Validate checks config invariants. The fusion plugin is Required, so any
// error here aborts startup.
func (c Config) Validate() error {
	for modality, w := range c.Weights() {
		if w < 0 {
			return fmt.Errorf("%s weight must be non-negative, got %g", modality, w)
		}
	}
	sum := c.FacialWeight + c.VoiceWeight + c.PulseWeight
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("modality weights must sum to 1.0, got %g", sum)
	}
	return nil
}
