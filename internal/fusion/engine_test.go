package fusion

import (
	"testing"

	"github.com/candorlabs/candor/pkg/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"equal thirds within tolerance", Config{FacialWeight: 1.0 / 3, VoiceWeight: 1.0 / 3, PulseWeight: 1.0 / 3}, false},
		{"sum below one", Config{FacialWeight: 0.4, VoiceWeight: 0.3, PulseWeight: 0.2}, true},
		{"sum above one", Config{FacialWeight: 0.5, VoiceWeight: 0.4, PulseWeight: 0.3}, true},
		{"negative weight", Config{FacialWeight: -0.2, VoiceWeight: 0.6, PulseWeight: 0.6}, true},
		{"single modality takes all", Config{FacialWeight: 1, VoiceWeight: 0, PulseWeight: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func score(modality string, value float64) signal.ModalityScore {
	return signal.ModalityScore{Modality: modality, Value: value, Calibrated: true, Seq: 1}
}

func TestEngineWeightedFusion(t *testing.T) {
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	e.Update(score(signal.ModalityFacial, 20))
	e.Update(score(signal.ModalityVoice, 30))
	e.Update(score(signal.ModalityPulse, 10))

	result := e.Fuse()
	assert.InDelta(t, 20, result.CombinedStress, 1e-9)
	assert.InDelta(t, 80, result.HonestyScore, 1e-9)
	assert.Equal(t, signal.AlarmLowStress, result.AlarmLevel)
	assert.InDelta(t, 8, result.Contributions[signal.ModalityFacial], 1e-9)
	assert.InDelta(t, 9, result.Contributions[signal.ModalityVoice], 1e-9)
	assert.InDelta(t, 3, result.Contributions[signal.ModalityPulse], 1e-9)
	assert.Len(t, result.Modalities, 3)
	assert.Equal(t, e.SessionID(), result.SessionID)
}

func TestEngineMissingModalityContributesZero(t *testing.T) {
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	e.Update(score(signal.ModalityFacial, 50))

	result := e.Fuse()
	assert.InDelta(t, 20, result.CombinedStress, 1e-9)
	assert.Zero(t, result.Contributions[signal.ModalityVoice])
	assert.Zero(t, result.Contributions[signal.ModalityPulse])
	assert.NotContains(t, result.Modalities, signal.ModalityVoice)
	assert.NotContains(t, result.Modalities, signal.ModalityPulse)
}

func TestEngineClampsOutOfRangeScores(t *testing.T) {
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	e.Update(score(signal.ModalityFacial, 150))
	e.Update(score(signal.ModalityVoice, -10))

	result := e.Fuse()
	assert.InDelta(t, 40, result.Contributions[signal.ModalityFacial], 1e-9)
	assert.Zero(t, result.Contributions[signal.ModalityVoice])
}

func TestEngineAlarmBoundaries(t *testing.T) {
	tests := []struct {
		honesty float64
		want    signal.AlarmLevel
	}{
		{80, signal.AlarmLowStress},
		{60, signal.AlarmLowStress}, // boundary is inclusive for low stress
		{59.999, signal.AlarmMediumStress},
		{40, signal.AlarmMediumStress},
		{39.999, signal.AlarmHighStress},
		{0, signal.AlarmHighStress},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, alarmLevel(tt.honesty), "honesty %v", tt.honesty)
	}
}

func TestEngineHighStressResult(t *testing.T) {
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	e.Update(score(signal.ModalityFacial, 80))
	e.Update(score(signal.ModalityVoice, 60))
	e.Update(score(signal.ModalityPulse, 40))

	// combined = 32 + 18 + 12 = 62, honesty = 38
	result := e.Fuse()
	assert.InDelta(t, 38, result.HonestyScore, 1e-9)
	assert.Equal(t, signal.AlarmHighStress, result.AlarmLevel)
}

func TestEngineIgnoresUnknownModality(t *testing.T) {
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	e.Update(signal.ModalityScore{Modality: "galvanic", Value: 100})

	result := e.Fuse()
	assert.Zero(t, result.CombinedStress)
	assert.Empty(t, result.Modalities)
}

func TestEngineResetRotatesSession(t *testing.T) {
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	e.Update(score(signal.ModalityFacial, 90))
	first := e.SessionID()

	previous, next := e.Reset()
	assert.Equal(t, first, previous)
	assert.NotEqual(t, previous, next)
	assert.Equal(t, next, e.SessionID())

	result := e.Fuse()
	assert.Zero(t, result.CombinedStress)
	assert.InDelta(t, 100, result.HonestyScore, 1e-9)
	assert.Empty(t, result.Modalities)
}

func TestEngineInterpretation(t *testing.T) {
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	// Nothing calibrated yet.
	result := e.Fuse()
	assert.Contains(t, result.Interpretation, "Calibrating")

	uncalibrated := signal.ModalityScore{Modality: signal.ModalityFacial, Value: 0}
	e.Update(uncalibrated)
	assert.Contains(t, e.Fuse().Interpretation, "Calibrating")

	e.Update(score(signal.ModalityFacial, 10))
	assert.Contains(t, e.Fuse().Interpretation, "baseline")
}
