package rppg

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/candorlabs/candor/internal/event"
	"github.com/candorlabs/candor/pkg/plugin"
	"github.com/candorlabs/candor/pkg/plugin/plugintest"
	"github.com/candorlabs/candor/pkg/signal"
	"go.uber.org/zap"
)

func TestContract(t *testing.T) {
	plugintest.TestPluginContract(t, func() plugin.Plugin { return New() })
}

func initModule(t *testing.T, bus plugin.EventBus) *Module {
	t.Helper()
	m := New()
	if err := m.Init(context.Background(), plugin.Dependencies{Logger: zap.NewNop(), Bus: bus}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return m
}

func TestHandleSampleRejectsBadPayload(t *testing.T) {
	m := initModule(t, nil)

	rec := httptest.NewRecorder()
	m.handleSample(rec, httptest.NewRequest("POST", "/api/v1/pulse/sample", strings.NewReader("nope")))

	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleSampleSilentUntilMinimumSpan(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	m := initModule(t, bus)

	published := 0
	bus.Subscribe(TopicScore, func(context.Context, plugin.Event) { published++ })

	// A handful of samples: far below the minimum buffer span.
	for i := 0; i < 10; i++ {
		sample := signal.ROISample{Timestamp: time.Now(), MeanIntensity: 128}
		body, _ := json.Marshal(sample)
		rec := httptest.NewRecorder()
		m.handleSample(rec, httptest.NewRequest("POST", "/api/v1/pulse/sample", bytes.NewReader(body)))
		if rec.Code != 202 {
			t.Fatalf("status = %d, want 202", rec.Code)
		}
	}

	if published != 0 {
		t.Errorf("published %d scores before minimum span, want 0", published)
	}
}

func TestHandleScoreReturnsModality(t *testing.T) {
	m := initModule(t, nil)

	rec := httptest.NewRecorder()
	m.handleScore(rec, httptest.NewRequest("GET", "/api/v1/pulse/score", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp scoreResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Score.Modality != signal.ModalityPulse {
		t.Errorf("modality = %q, want %q", resp.Score.Modality, signal.ModalityPulse)
	}
}
