package fusion

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/candorlabs/candor/internal/event"
	"github.com/candorlabs/candor/internal/face"
	"github.com/candorlabs/candor/pkg/plugin"
	"github.com/candorlabs/candor/pkg/plugin/plugintest"
	"github.com/candorlabs/candor/pkg/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestContract(t *testing.T) {
	plugintest.TestPluginContract(t, func() plugin.Plugin { return New() })
}

// fakeModality is a minimal modality plugin recording Reset calls.
type fakeModality struct {
	name   string
	resets int
}

func (f *fakeModality) Info() plugin.PluginInfo {
	return plugin.PluginInfo{Name: f.name, Roles: []string{signal.RoleModality}, APIVersion: plugin.APIVersionCurrent}
}
func (f *fakeModality) Init(context.Context, plugin.Dependencies) error { return nil }
func (f *fakeModality) Start(context.Context) error                    { return nil }
func (f *fakeModality) Stop(context.Context) error                     { return nil }
func (f *fakeModality) Reset()                                         { f.resets++ }

// fakeResolver resolves plugins by role for reset fan-out.
type fakeResolver struct {
	plugins []plugin.Plugin
}

func (r *fakeResolver) Resolve(name string) (plugin.Plugin, bool) {
	for _, p := range r.plugins {
		if p.Info().Name == name {
			return p, true
		}
	}
	return nil, false
}

func (r *fakeResolver) ResolveByRole(role string) []plugin.Plugin {
	var out []plugin.Plugin
	for _, p := range r.plugins {
		for _, have := range p.Info().Roles {
			if have == role {
				out = append(out, p)
			}
		}
	}
	return out
}

func newTestModule(t *testing.T, bus plugin.EventBus, resolver plugin.PluginResolver) *Module {
	t.Helper()
	m := New()
	err := m.Init(context.Background(), plugin.Dependencies{
		Logger:  zap.NewNop(),
		Bus:     bus,
		Plugins: resolver,
	})
	require.NoError(t, err)
	return m
}

func TestModuleScorePublishTriggersFusionResult(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	m := newTestModule(t, bus, nil)

	for _, sub := range m.Subscriptions() {
		bus.Subscribe(sub.Topic, sub.Handler)
	}

	results := make(chan *signal.FusionResult, 1)
	bus.Subscribe(TopicResult, func(_ context.Context, e plugin.Event) {
		if r, ok := e.Payload.(*signal.FusionResult); ok {
			results <- r
		}
	})

	err := bus.Publish(context.Background(), plugin.Event{
		Topic:     face.TopicScore,
		Source:    "face",
		Timestamp: time.Now(),
		Payload:   &signal.ModalityScore{Modality: signal.ModalityFacial, Value: 50, Calibrated: true},
	})
	require.NoError(t, err)

	select {
	case result := <-results:
		assert.InDelta(t, 20, result.CombinedStress, 1e-9)
		assert.InDelta(t, 80, result.HonestyScore, 1e-9)
		assert.Equal(t, signal.AlarmLowStress, result.AlarmLevel)
	case <-time.After(2 * time.Second):
		t.Fatal("no fusion result published after modality score")
	}
}

func TestModuleResultRoute(t *testing.T) {
	m := newTestModule(t, nil, nil)
	m.engine.Update(signal.ModalityScore{Modality: signal.ModalityPulse, Value: 100, Calibrated: true})

	rec := httptest.NewRecorder()
	m.handleResult(rec, httptest.NewRequest("GET", "/api/v1/fusion/result", nil))

	require.Equal(t, 200, rec.Code)
	var result signal.FusionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.InDelta(t, 30, result.CombinedStress, 1e-9)
	assert.Equal(t, signal.AlarmLowStress, result.AlarmLevel)
}

func TestModuleResetRoute(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	modalities := []*fakeModality{{name: "face"}, {name: "voice"}, {name: "pulse"}}
	resolver := &fakeResolver{}
	for _, f := range modalities {
		resolver.plugins = append(resolver.plugins, f)
	}
	m := newTestModule(t, bus, resolver)

	var resetEvents []*ResetEvent
	bus.Subscribe(TopicReset, func(_ context.Context, e plugin.Event) {
		if r, ok := e.Payload.(*ResetEvent); ok {
			resetEvents = append(resetEvents, r)
		}
	})

	m.engine.Update(signal.ModalityScore{Modality: signal.ModalityFacial, Value: 90, Calibrated: true})
	before := m.engine.SessionID()

	rec := httptest.NewRecorder()
	m.handleReset(rec, httptest.NewRequest("POST", "/api/v1/fusion/reset", nil))

	require.Equal(t, 200, rec.Code)
	var resp ResetEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, before, resp.PreviousSessionID)
	assert.NotEqual(t, resp.PreviousSessionID, resp.NewSessionID)

	for _, f := range modalities {
		assert.Equal(t, 1, f.resets, "modality %s not reset", f.name)
	}

	require.Len(t, resetEvents, 1)
	assert.Equal(t, before, resetEvents[0].PreviousSessionID)

	result := m.engine.Fuse()
	assert.Zero(t, result.CombinedStress)
}

func TestModuleValidateConfigRejectsBadWeights(t *testing.T) {
	m := New()
	m.cfg = Config{FacialWeight: 0.5, VoiceWeight: 0.3, PulseWeight: 0.3}
	assert.Error(t, m.ValidateConfig())
}
