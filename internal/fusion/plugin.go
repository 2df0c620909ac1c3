package fusion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/candorlabs/candor/internal/face"
	"github.com/candorlabs/candor/internal/rppg"
	"github.com/candorlabs/candor/internal/voice"
	"github.com/candorlabs/candor/pkg/plugin"
	"github.com/candorlabs/candor/pkg/signal"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin          = (*Module)(nil)
	_ plugin.HTTPProvider    = (*Module)(nil)
	_ plugin.HealthChecker   = (*Module)(nil)
	_ plugin.Validator       = (*Module)(nil)
	_ plugin.EventSubscriber = (*Module)(nil)
)

var (
	modalityScoreGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "candor_modality_score",
			Help: "Latest stress score per modality (0-100)",
		},
		[]string{"modality"},
	)
	honestyScoreGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "candor_honesty_score",
			Help: "Latest fused honesty score (0-100)",
		},
	)
	fusionTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "candor_fusion_total",
			Help: "Total fusion recomputations",
		},
	)
)

func init() {
	prometheus.MustRegister(modalityScoreGauge)
	prometheus.MustRegister(honestyScoreGauge)
	prometheus.MustRegister(fusionTotal)
}

// Module implements the fusion engine plugin. It is the only Required plugin:
// the pipeline is pointless without a combiner, while any single modality can
// be disabled.
type Module struct {
	logger   *zap.Logger
	cfg      Config
	bus      plugin.EventBus
	resolver plugin.PluginResolver

	engine *Engine

	mu       sync.Mutex
	lastSeen map[string]time.Time
	started  bool
}

// New creates a new fusion plugin instance.
func New() *Module {
	return &Module{lastSeen: make(map[string]time.Time)}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "fusion",
		Version:     "0.1.0",
		Description: "Weighted multi-modal fusion, alarm levels and session control",
		Roles:       []string{"fusion"},
		Required:    true,
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus
	m.resolver = deps.Plugins

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal fusion config: %w", err)
		}
	}

	engine, err := NewEngine(m.cfg)
	if err != nil {
		return fmt.Errorf("fusion engine: %w", err)
	}
	m.engine = engine

	m.logger.Info("fusion module initialized",
		zap.Float64("facial_weight", m.cfg.FacialWeight),
		zap.Float64("voice_weight", m.cfg.VoiceWeight),
		zap.Float64("pulse_weight", m.cfg.PulseWeight),
		zap.String("session_id", engine.SessionID()),
	)
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
	m.logger.Info("fusion module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	m.mu.Lock()
	m.started = false
	m.mu.Unlock()
	m.logger.Info("fusion module stopped")
	return nil
}

// Started reports whether the engine is accepting work. Used by the server's
// readiness probe.
func (m *Module) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// ValidateConfig implements plugin.Validator.
func (m *Module) ValidateConfig() error {
	return m.cfg.Validate()
}

// Subscriptions implements plugin.EventSubscriber: every modality score
// triggers a recompute and a fresh fusion.result.
func (m *Module) Subscriptions() []plugin.Subscription {
	handler := func(ctx context.Context, event plugin.Event) {
		score, ok := event.Payload.(*signal.ModalityScore)
		if !ok {
			m.logger.Warn("unexpected payload on score topic", zap.String("topic", event.Topic))
			return
		}
		m.engine.Update(*score)
		m.mu.Lock()
		m.lastSeen[score.Modality] = event.Timestamp
		m.mu.Unlock()
		m.recompute(ctx)
	}
	return []plugin.Subscription{
		{Topic: face.TopicScore, Handler: handler},
		{Topic: voice.TopicScore, Handler: handler},
		{Topic: rppg.TopicScore, Handler: handler},
	}
}

// recompute fuses the cached scores, updates metrics and publishes the result.
func (m *Module) recompute(ctx context.Context) *signal.FusionResult {
	result := m.engine.Fuse()

	for modality, score := range result.Modalities {
		modalityScoreGauge.WithLabelValues(modality).Set(score.Value)
	}
	honestyScoreGauge.Set(result.HonestyScore)
	fusionTotal.Inc()

	if m.bus != nil {
		m.bus.PublishAsync(ctx, plugin.Event{
			Topic:     TopicResult,
			Source:    "fusion",
			Timestamp: time.Now(),
			Payload:   result,
		})
	}
	return result
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	details := map[string]string{
		"session_id": m.engine.SessionID(),
	}
	for _, modality := range []string{signal.ModalityFacial, signal.ModalityVoice, signal.ModalityPulse} {
		if at, ok := m.lastSeen[modality]; ok {
			details["last_"+modality] = time.Since(at).String()
		} else {
			details["last_"+modality] = "never"
		}
	}

	status := "healthy"
	msg := ""
	if len(m.lastSeen) == 0 {
		status = "degraded"
		msg = "no modality has reported yet"
	}
	return plugin.HealthStatus{Status: status, Message: msg, Details: details}
}

// Routes implements plugin.HTTPProvider. Mounted under /api/v1/fusion/.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/result", Handler: m.handleResult},
		{Method: "POST", Path: "/reset", Handler: m.handleReset},
	}
}

// handleResult returns a freshly computed fusion result.
//
//	@Summary		Current fusion result
//	@Description	Recomputes and returns the fused honesty score, alarm level and per-modality contributions.
//	@Tags			fusion
//	@Produce		json
//	@Success		200	{object}	signal.FusionResult
//	@Router			/fusion/result [get]
func (m *Module) handleResult(w http.ResponseWriter, r *http.Request) {
	result := m.recompute(r.Context())

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// handleReset clears every modality baseline and rotates the session.
//
//	@Summary		Reset session
//	@Description	Clears all modality baselines and the fusion cache, then starts a new session.
//	@Tags			fusion
//	@Produce		json
//	@Success		200	{object}	ResetEvent
//	@Router			/fusion/reset [post]
func (m *Module) handleReset(w http.ResponseWriter, r *http.Request) {
	if m.resolver != nil {
		for _, p := range m.resolver.ResolveByRole(signal.RoleModality) {
			if resetter, ok := p.(signal.Resetter); ok {
				resetter.Reset()
			}
		}
	}

	previous, next := m.engine.Reset()
	event := &ResetEvent{PreviousSessionID: previous, NewSessionID: next}

	m.logger.Info("session reset",
		zap.String("previous_session_id", previous),
		zap.String("new_session_id", next),
	)

	if m.bus != nil {
		_ = m.bus.Publish(r.Context(), plugin.Event{
			Topic:     TopicReset,
			Source:    "fusion",
			Timestamp: time.Now(),
			Payload:   event,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(event)
}
