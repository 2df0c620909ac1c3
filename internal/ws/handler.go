package ws

import (
	"context"
	"net/http"

	"github.com/candorlabs/candor/internal/fusion"
	"github.com/candorlabs/candor/pkg/plugin"
	"github.com/candorlabs/candor/pkg/signal"
	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// Handler provides the WebSocket endpoint streaming fusion results to
// presentation clients.
type Handler struct {
	hub    *Hub
	bus    plugin.EventBus
	logger *zap.Logger
}

// Compile-time check that Handler implements the server interface.
var _ interface {
	RegisterRoutes(mux *http.ServeMux)
} = (*Handler)(nil)

// NewHandler creates a WebSocket handler and subscribes to fusion events.
func NewHandler(bus plugin.EventBus, logger *zap.Logger) *Handler {
	h := &Handler{
		hub:    NewHub(logger),
		bus:    bus,
		logger: logger,
	}
	h.subscribeToEvents()
	return h
}

// RegisterRoutes registers WebSocket routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/fusion", h.handleFusionStream)
}

// handleFusionStream upgrades the connection to WebSocket and streams every
// fusion result as it is computed. The stream is read-only for clients.
func (h *Handler) handleFusionStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Local presentation clients connect from arbitrary origins (Electron,
		// file://); the stream carries no credentials and accepts no commands.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:   conn,
		remote: r.RemoteAddr,
		send:   make(chan Message, 256),
		logger: h.logger,
	}

	h.hub.Register(client)

	// Run read and write pumps. When either exits, clean up.
	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		client.writePump(ctx)
		close(done)
	}()

	// readPump blocks until client disconnects.
	client.readPump(ctx)

	// Client disconnected -- stop write pump and unregister.
	h.hub.Unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
	<-done
}

// subscribeToEvents subscribes to fusion engine events and forwards them to
// all connected WebSocket clients.
func (h *Handler) subscribeToEvents() {
	if h.bus == nil {
		return
	}

	h.bus.Subscribe(fusion.TopicResult, func(_ context.Context, event plugin.Event) {
		result, ok := event.Payload.(*signal.FusionResult)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageFusionResult,
			SessionID: result.SessionID,
			Timestamp: event.Timestamp,
			Data: FusionResultData{
				Result: result,
			},
		})
	})

	h.bus.Subscribe(fusion.TopicReset, func(_ context.Context, event plugin.Event) {
		reset, ok := event.Payload.(*fusion.ResetEvent)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageFusionReset,
			SessionID: reset.PreviousSessionID,
			Timestamp: event.Timestamp,
			Data: FusionResetData{
				NewSessionID: reset.NewSessionID,
			},
		})
	})

	h.logger.Info("subscribed to fusion events for WebSocket broadcasting")
}
