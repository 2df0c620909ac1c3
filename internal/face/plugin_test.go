package face

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

func TestHandleFrameRejectsBadPayload(t *testing.T) {
	m := initModule(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/face/frame", strings.NewReader("{not json"))
	m.handleFrame(rec, req)

	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q, want problem document", ct)
	}
}

func TestHandleFramePublishesScore(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	m := initModule(t, bus)

	var published []*signal.ModalityScore
	bus.Subscribe(TopicScore, func(_ context.Context, e plugin.Event) {
		if s, ok := e.Payload.(*signal.ModalityScore); ok {
			published = append(published, s)
		}
	})

	frame := signal.FrameMetrics{
		Timestamp:       time.Now(),
		Present:         true,
		BrowEyeDistance: 0.12,
		LipCompression:  0.05,
	}
	body, _ := json.Marshal(frame)

	rec := httptest.NewRecorder()
	m.handleFrame(rec, httptest.NewRequest("POST", "/api/v1/face/frame", bytes.NewReader(body)))

	if rec.Code != 202 {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if len(published) != 1 {
		t.Fatalf("published %d scores, want 1", len(published))
	}
	if published[0].Modality != signal.ModalityFacial {
		t.Errorf("modality = %q, want %q", published[0].Modality, signal.ModalityFacial)
	}
	if published[0].Calibrated {
		t.Error("first frame reported calibrated")
	}
}

func TestHandleScoreReturnsDiagnostics(t *testing.T) {
	m := initModule(t, nil)

	rec := httptest.NewRecorder()
	m.handleScore(rec, httptest.NewRequest("GET", "/api/v1/face/score", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp scoreResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Score.Modality != signal.ModalityFacial {
		t.Errorf("modality = %q, want %q", resp.Score.Modality, signal.ModalityFacial)
	}
}
