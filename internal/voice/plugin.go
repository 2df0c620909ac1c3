package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
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

// Module implements the voice stress analyzer plugin.
type Module struct {
	logger *zap.Logger
	cfg    Config
	bus    plugin.EventBus

	mu       sync.Mutex
	analyzer *Analyzer
	score    signal.ModalityScore
	seq      uint64
	lastSeen time.Time
}

// New creates a new voice plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "voice",
		Version:     "0.1.0",
		Description: "Vocal stress analysis from pitch, jitter and shimmer",
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
			return fmt.Errorf("unmarshal voice config: %w", err)
		}
	}

	analyzer, err := NewAnalyzer(m.cfg)
	if err != nil {
		return fmt.Errorf("voice analyzer: %w", err)
	}
	m.analyzer = analyzer
	m.score = signal.ModalityScore{Modality: signal.ModalityVoice}

	m.logger.Info("voice module initialized",
		zap.Int("sample_rate", m.cfg.SampleRate),
		zap.Duration("chunk_duration", m.cfg.ChunkDuration),
		zap.Int("window_size", m.cfg.WindowSize),
	)
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.logger.Info("voice module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("voice module stopped")
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
	m.analyzer.Reset()
	m.seq++
	m.score = signal.ModalityScore{Modality: signal.ModalityVoice, Seq: m.seq}
	m.logger.Info("voice baselines reset")
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
			"voiced_chunks": strconv.Itoa(m.analyzer.Last().Chunks),
			"last_chunk_at": age,
		},
	}
}

// Routes implements plugin.HTTPProvider. Mounted under /api/v1/voice/.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "/chunk", Handler: m.handleChunk},
		{Method: "GET", Path: "/score", Handler: m.handleScore},
	}
}

// handleChunk ingests one fixed-duration block of mono PCM.
//
//	@Summary		Ingest audio chunk
//	@Description	Accepts one chunk of mono PCM from the audio producer. Sample rate and duration must match the configured producer contract.
//	@Tags			voice
//	@Accept			json
//	@Param			chunk	body	signal.AudioChunk	true	"audio chunk"
//	@Success		202
//	@Failure		400	{object}	server.Problem
//	@Router			/voice/chunk [post]
func (m *Module) handleChunk(w http.ResponseWriter, r *http.Request) {
	if !m.cfg.Enabled {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	var chunk signal.AudioChunk
	if err := json.NewDecoder(r.Body).Decode(&chunk); err != nil {
		server.BadRequest(w, "invalid chunk payload: "+err.Error(), r.URL.Path)
		return
	}
	if chunk.SampleRate != m.cfg.SampleRate {
		server.BadRequest(w,
			fmt.Sprintf("chunk sample rate %d does not match configured %d", chunk.SampleRate, m.cfg.SampleRate),
			r.URL.Path)
		return
	}
	// Allow minor producer framing slack; a wrong chunk size is a contract
	// violation, not something to silently re-buffer.
	want := m.cfg.ChunkSamples()
	if math.Abs(float64(len(chunk.Samples)-want)) > 0.1*float64(want) {
		server.BadRequest(w,
			fmt.Sprintf("chunk has %d samples, expected about %d", len(chunk.Samples), want),
			r.URL.Path)
		return
	}
	if chunk.Timestamp.IsZero() {
		chunk.Timestamp = time.Now()
	}

	m.mu.Lock()
	m.lastSeen = time.Now()
	snap, updated := m.analyzer.Observe(chunk.Samples)
	var score signal.ModalityScore
	if updated {
		m.seq++
		m.score = signal.ModalityScore{
			Modality:   signal.ModalityVoice,
			Value:      snap.Score,
			Calibrated: snap.Calibrated,
			Seq:        m.seq,
			UpdatedAt:  chunk.Timestamp,
		}
		score = m.score
	}
	m.mu.Unlock()

	if updated && m.bus != nil {
		_ = m.bus.Publish(r.Context(), plugin.Event{
			Topic:     TopicScore,
			Source:    "voice",
			Timestamp: time.Now(),
			Payload:   &score,
		})
	}

	w.WriteHeader(http.StatusAccepted)
}

// scoreResponse is the payload for GET /voice/score.
type scoreResponse struct {
	Score       signal.ModalityScore `json:"score"`
	Diagnostics Snapshot             `json:"diagnostics"`
}

// handleScore returns the current vocal score with feature diagnostics.
//
//	@Summary		Current voice score
//	@Description	Returns the latest vocal stress score with pitch, jitter and shimmer diagnostics.
//	@Tags			voice
//	@Produce		json
//	@Success		200	{object}	scoreResponse
//	@Router			/voice/score [get]
func (m *Module) handleScore(w http.ResponseWriter, _ *http.Request) {
	m.mu.Lock()
	resp := scoreResponse{Score: m.score, Diagnostics: m.analyzer.Last()}
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
