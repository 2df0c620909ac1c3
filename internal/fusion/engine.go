// Package fusion combines per-modality stress scores into the session-wide
// honesty estimate and alarm level streamed to presentation clients.
package fusion

import (
	"sync"
	"time"

	"github.com/candorlabs/candor/pkg/signal"
	"github.com/google/uuid"
)

// Alarm thresholds on the honesty score. The 60 boundary is inclusive for
// low stress.
const (
	honestyLowStressMin    = 60.0
	honestyMediumStressMin = 40.0
)

// Engine caches the latest score per modality and computes fusion results.
// Safe for concurrent use.
type Engine struct {
	weights map[string]float64

	mu        sync.Mutex
	scores    map[string]signal.ModalityScore
	sessionID string
}

// NewEngine creates a fusion engine from validated config and opens the
// first session.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		weights:   cfg.Weights(),
		scores:    make(map[string]signal.ModalityScore),
		sessionID: uuid.NewString(),
	}, nil
}

// SessionID returns the current session identifier.
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

// Update caches a modality score. Scores for modalities without a configured
// weight are ignored.
func (e *Engine) Update(score signal.ModalityScore) {
	if _, ok := e.weights[score.Modality]; !ok {
		return
	}
	e.mu.Lock()
	e.scores[score.Modality] = score
	e.mu.Unlock()
}

// Fuse computes a fresh result from the cached scores. A modality that has
// never reported contributes zero stress; the last known score of a stalled
// modality is used at full weight.
func (e *Engine) Fuse() *signal.FusionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	var combined float64
	contributions := make(map[string]float64, len(e.weights))
	modalities := make(map[string]signal.ModalityScore, len(e.scores))

	for modality, w := range e.weights {
		score, seen := e.scores[modality]
		if seen {
			modalities[modality] = score
		}
		contribution := w * signal.Clamp(score.Value, 0, 100)
		contributions[modality] = contribution
		combined += contribution
	}

	honesty := signal.Clamp(100-combined, 0, 100)
	level := alarmLevel(honesty)

	return &signal.FusionResult{
		SessionID:      e.sessionID,
		HonestyScore:   honesty,
		CombinedStress: combined,
		AlarmLevel:     level,
		Contributions:  contributions,
		Modalities:     modalities,
		Interpretation: interpret(level, modalities),
		ComputedAt:     time.Now(),
	}
}

// Reset clears all cached scores and rotates the session. Returns the
// previous and new session identifiers.
func (e *Engine) Reset() (previous, next string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	previous = e.sessionID
	e.sessionID = uuid.NewString()
	e.scores = make(map[string]signal.ModalityScore)
	return previous, e.sessionID
}

func alarmLevel(honesty float64) signal.AlarmLevel {
	switch {
	case honesty >= honestyLowStressMin:
		return signal.AlarmLowStress
	case honesty >= honestyMediumStressMin:
		return signal.AlarmMediumStress
	default:
		return signal.AlarmHighStress
	}
}

// interpret renders the human-readable one-liner shown alongside the score.
// It describes physiological arousal, never truthfulness.
func interpret(level signal.AlarmLevel, modalities map[string]signal.ModalityScore) string {
	calibrated := 0
	for _, s := range modalities {
		if s.Calibrated {
			calibrated++
		}
	}
	if calibrated == 0 {
		return "Calibrating: baselines are still being established."
	}

	switch level {
	case signal.AlarmLowStress:
		return "Signals are near the subject's baseline."
	case signal.AlarmMediumStress:
		return "Elevated arousal across one or more channels."
	default:
		return "Strong deviation from baseline on the weighted channels."
	}
}
