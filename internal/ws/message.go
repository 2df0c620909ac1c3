package ws

import (
	"time"

	"github.com/candorlabs/candor/pkg/signal"
)

// MessageType discriminates WebSocket messages.
type MessageType string

const (
	MessageFusionResult MessageType = "fusion.result"
	MessageFusionReset  MessageType = "fusion.reset"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}

// FusionResultData is the payload for fusion.result messages.
type FusionResultData struct {
	Result *signal.FusionResult `json:"result"`
}

// FusionResetData is the payload for fusion.reset messages.
type FusionResetData struct {
	NewSessionID string `json:"new_session_id"`
}
