// Package signal defines the shared read-only types exchanged between the
// analyzer plugins, the fusion engine, and presentation clients. It is
// deliberately dependency-free so external producers can import it.
package signal

import "time"

// Modality identifiers.
const (
	ModalityFacial = "facial"
	ModalityVoice  = "voice"
	ModalityPulse  = "pulse"
)

// RoleModality marks plugins that produce a ModalityScore and participate
// in pipeline-wide reset.
const RoleModality = "modality"

// AlarmLevel classifies an honesty score into fixed stress bands.
type AlarmLevel string

const (
	AlarmLowStress    AlarmLevel = "low_stress"    // honesty >= 60
	AlarmMediumStress AlarmLevel = "medium_stress" // 40 <= honesty < 60
	AlarmHighStress   AlarmLevel = "high_stress"   // honesty < 40
)

// ModalityScore is the bounded per-modality stress snapshot published by an
// analyzer. Value is in [0,100]. Seq increases on every recompute so consumers
// can detect staleness; Calibrated is false until the analyzer's baselines
// have enough samples to be meaningful.
type ModalityScore struct {
	Modality   string    `json:"modality"`
	Value      float64   `json:"value"`
	Calibrated bool      `json:"calibrated"`
	Seq        uint64    `json:"seq"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FusionResult is the combined snapshot handed to the presentation layer.
// Recomputed on every fusion cycle; never persisted.
type FusionResult struct {
	SessionID      string                   `json:"session_id"`
	HonestyScore   float64                  `json:"honesty_score"`
	CombinedStress float64                  `json:"combined_stress"`
	AlarmLevel     AlarmLevel               `json:"alarm_level"`
	Contributions  map[string]float64       `json:"contributions"`
	Modalities     map[string]ModalityScore `json:"modalities"`
	Interpretation string                   `json:"interpretation"`
	ComputedAt     time.Time                `json:"computed_at"`
}

// FrameMetrics is the per-frame payload from the landmark producer.
// Present=false means no face was found this cycle: the analyzer treats it as
// a missed sample, not a zero measurement.
type FrameMetrics struct {
	Timestamp       time.Time `json:"timestamp"`
	Present         bool      `json:"present"`
	BrowEyeDistance float64   `json:"brow_eye_distance"`
	LipCompression  float64   `json:"lip_compression"`
	Blink           bool      `json:"blink"`
}

// ROISample is one frame's spatial-mean intensity of the forehead region,
// produced by the video-frame producer.
type ROISample struct {
	Timestamp     time.Time `json:"timestamp"`
	MeanIntensity float64   `json:"mean_intensity"`
}

// AudioChunk is one fixed-duration block of mono PCM from the audio producer.
type AudioChunk struct {
	Timestamp  time.Time `json:"timestamp"`
	SampleRate int       `json:"sample_rate"`
	Samples    []float64 `json:"samples"`
}

// Resetter is implemented by modality plugins so the fusion engine can clear
// all per-session state in one scoped operation.
type Resetter interface {
	Reset()
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
