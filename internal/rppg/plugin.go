package rppg

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/candorlabs/candor/internal/server"
	"github.com/candorlabs/candor/pkg/plugin"
	"github.com/candorlabs/candor/pkg/signal"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin        = (*Module)(nil)
	_ plugin.HTTPProvider  = (*Module)(nil)
	_ plugin.HealthChecker = (*Module)(nil)
	_ plugin.Validator     = (*Module)(nil)
	_ signal.Resetter      = (*Module)(nil)
)

// Module implements the pulse (rPPG) estimator plugin. Registered under the
// name "pulse"; the package is named for the technique.
type Module struct {
	logger *zap.Logger
	cfg    Config
	bus    plugin.EventBus

	mu        sync.Mutex
	estimator *Estimator
	score     signal.ModalityScore
	seq       uint64
	lastSeen  time.Time
}

// New creates a new pulse plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "pulse",
		Version:     "0.1.0",
		Description: "Pulse rate estimation from forehead ROI intensity (rPPG)",
		Roles:       []string{signal.RoleModality},
		Required:    false,
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal pulse config: %w", err)
		}
	}

	est, err := NewEstimator(m.cfg)
	if err != nil {
		return fmt.Errorf("pulse estimator: %w", err)
	}
	m.estimator = est
	m.score = signal.ModalityScore{Modality: signal.ModalityPulse}

	m.logger.Info("pulse module initialized",
		zap.Float64("frame_rate", m.cfg.FrameRate),
		zap.Int("buffer_seconds", m.cfg.BufferSeconds),
		zap.Float64("resting_bpm", m.cfg.RestingBPM),
	)
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.logger.Info("pulse module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("pulse module stopped")
	return nil
}

// ValidateConfig implements plugin.Validator.
func (m *Module) ValidateConfig() error {
	return m.cfg.Validate()
}

// Reset implements signal.Resetter.
func (m *Module) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.estimator.Reset()
	m.seq++
	m.score = signal.ModalityScore{Modality: signal.ModalityPulse, Seq: m.seq}
	m.logger.Info("pulse buffer reset")
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	est := m.estimator.Last()
	status := "healthy"
	msg := ""
	switch {
	case !m.cfg.Enabled:
		status = "degraded"
		msg = "disabled by configuration"
	case !est.Calibrated:
		status = "degraded"
		msg = "buffer below minimum span"
	case est.Quality == "poor":
		status = "degraded"
		msg = "pulse estimate outside plausible range"
	}
	age := "never"
	if !m.lastSeen.IsZero() {
		age = time.Since(m.lastSeen).String()
	}
	return plugin.HealthStatus{
		Status:  status,
		Message: msg,
		Details: map[string]string{
			"samples":        strconv.Itoa(est.Samples),
			"last_sample_at": age,
		},
	}
}

// Routes implements plugin.HTTPProvider. Mounted under /api/v1/pulse/.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "/sample", Handler: m.handleSample},
		{Method: "GET", Path: "/score", Handler: m.handleScore},
	}
}

// handleSample ingests one ROI intensity sample.
//
//	@Summary		Ingest ROI intensity sample
//	@Description	Accepts one frame's forehead mean intensity from the video producer.
//	@Tags			pulse
//	@Accept			json
//	@Param			sample	body	signal.ROISample	true	"ROI sample"
//	@Success		202
//	@Failure		400	{object}	server.Problem
//	@Router			/pulse/sample [post]
func (m *Module) handleSample(w http.ResponseWriter, r *http.Request) {
	if !m.cfg.Enabled {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	var sample signal.ROISample
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		server.BadRequest(w, "invalid sample payload: "+err.Error(), r.URL.Path)
		return
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}

	m.mu.Lock()
	m.lastSeen = time.Now()
	est, updated := m.estimator.Observe(sample.MeanIntensity)
	var score signal.ModalityScore
	if updated {
		m.seq++
		m.score = signal.ModalityScore{
			Modality:   signal.ModalityPulse,
			Value:      est.Stress,
			Calibrated: est.Calibrated,
			Seq:        m.seq,
			UpdatedAt:  sample.Timestamp,
		}
		score = m.score
	}
	m.mu.Unlock()

	if updated && m.bus != nil {
		_ = m.bus.Publish(r.Context(), plugin.Event{
			Topic:     TopicScore,
			Source:    "pulse",
			Timestamp: time.Now(),
			Payload:   &score,
		})
	}

	w.WriteHeader(http.StatusAccepted)
}

// scoreResponse is the payload for GET /pulse/score.
type scoreResponse struct {
	Score       signal.ModalityScore `json:"score"`
	Diagnostics Estimate             `json:"diagnostics"`
}

// handleScore returns the current pulse score with BPM diagnostics.
//
//	@Summary		Current pulse score
//	@Description	Returns the latest pulse stress score with raw and smoothed BPM.
//	@Tags			pulse
//	@Produce		json
//	@Success		200	{object}	scoreResponse
//	@Router			/pulse/score [get]
func (m *Module) handleScore(w http.ResponseWriter, _ *http.Request) {
	m.mu.Lock()
	resp := scoreResponse{Score: m.score, Diagnostics: m.estimator.Last()}
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
