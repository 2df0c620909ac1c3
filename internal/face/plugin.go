package face

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

// Module implements the facial anomaly analyzer plugin.
type Module struct {
	logger *zap.Logger
	cfg    Config
	bus    plugin.EventBus

	mu       sync.Mutex
	scorer   *Scorer
	score    signal.ModalityScore
	seq      uint64
	lastSeen time.Time
}

// New creates a new face plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "face",
		Version:     "0.1.0",
		Description: "Facial anomaly scoring from landmark metrics",
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
			return fmt.Errorf("unmarshal face config: %w", err)
		}
	}

	scorer, err := NewScorer(m.cfg)
	if err != nil {
		return fmt.Errorf("face scorer: %w", err)
	}
	m.scorer = scorer
	m.score = signal.ModalityScore{Modality: signal.ModalityFacial}

	m.logger.Info("face module initialized",
		zap.Int("window_size", m.cfg.WindowSize),
		zap.Float64("sensitivity", m.cfg.Sensitivity),
		zap.Int("blink_window", m.cfg.BlinkWindow),
	)
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.logger.Info("face module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("face module stopped")
	return nil
}

// ValidateConfig implements plugin.Validator.
func (m *Module) ValidateConfig() error {
	return m.cfg.Validate()
}

// Reset implements signal.Resetter: clears baselines, blink history and the
// published score. Called by the fusion engine during a session reset.
func (m *Module) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scorer.Reset()
	m.seq++
	m.score = signal.ModalityScore{Modality: signal.ModalityFacial, Seq: m.seq}
	m.logger.Info("face baselines reset")
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := "healthy"
	msg := ""
	switch {
	case !m.cfg.Enabled:
		status = "degraded"
		msg = "disabled by configuration"
	case !m.score.Calibrated:
		status = "degraded"
		msg = "baselines not yet calibrated"
	}
	age := "never"
	if !m.lastSeen.IsZero() {
		age = time.Since(m.lastSeen).String()
	}
	return plugin.HealthStatus{
		Status:  status,
		Message: msg,
		Details: map[string]string{
			"frames":        strconv.Itoa(m.scorer.Last().Frames),
			"last_frame_at": age,
		},
	}
}

// Routes implements plugin.HTTPProvider. Mounted under /api/v1/face/.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "/frame", Handler: m.handleFrame},
		{Method: "GET", Path: "/score", Handler: m.handleScore},
	}
}

// handleFrame ingests one frame of landmark metrics.
//
//	@Summary		Ingest facial frame metrics
//	@Description	Accepts one frame of landmark-derived measurements from the face producer.
//	@Tags			face
//	@Accept			json
//	@Param			frame	body	signal.FrameMetrics	true	"frame metrics"
//	@Success		202
//	@Failure		400	{object}	server.Problem
//	@Router			/face/frame [post]
func (m *Module) handleFrame(w http.ResponseWriter, r *http.Request) {
	if !m.cfg.Enabled {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	var frame signal.FrameMetrics
	if err := json.NewDecoder(r.Body).Decode(&frame); err != nil {
		server.BadRequest(w, "invalid frame payload: "+err.Error(), r.URL.Path)
		return
	}
	if frame.Timestamp.IsZero() {
		frame.Timestamp = time.Now()
	}

	m.mu.Lock()
	m.lastSeen = time.Now()
	snap, updated := m.scorer.Observe(frame)
	var score signal.ModalityScore
	if updated {
		m.seq++
		m.score = signal.ModalityScore{
			Modality:   signal.ModalityFacial,
			Value:      snap.Score,
			Calibrated: snap.Calibrated,
			Seq:        m.seq,
			UpdatedAt:  frame.Timestamp,
		}
		score = m.score
	}
	m.mu.Unlock()

	if updated && m.bus != nil {
		_ = m.bus.Publish(r.Context(), plugin.Event{
			Topic:     TopicScore,
			Source:    "face",
			Timestamp: time.Now(),
			Payload:   &score,
		})
	}

	w.WriteHeader(http.StatusAccepted)
}

// scoreResponse is the payload for GET /face/score.
type scoreResponse struct {
	Score       signal.ModalityScore `json:"score"`
	Diagnostics Snapshot             `json:"diagnostics"`
}

// handleScore returns the current facial score with diagnostics.
//
//	@Summary		Current facial score
//	@Description	Returns the latest facial stress score and per-metric diagnostics.
//	@Tags			face
//	@Produce		json
//	@Success		200	{object}	scoreResponse
//	@Router			/face/score [get]
func (m *Module) handleScore(w http.ResponseWriter, _ *http.Request) {
	m.mu.Lock()
	resp := scoreResponse{Score: m.score, Diagnostics: m.scorer.Last()}
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
