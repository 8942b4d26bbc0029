// Package feed streams operator alerts to dashboard sessions over WebSocket.
package feed

import (
	"github.com/matthewbaird/nightwatch/internal/event"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server messages.
type ClientMessage struct {
	Type string `json:"type"` // "ping"
	ID   string `json:"id"`   // Client-assigned request ID
}

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client messages.
type ServerMessage struct {
	Type      string `json:"type"`                 // "session", "alert", "pong", "error"
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// SessionData is sent once after the upgrade.
type SessionData struct {
	SessionID      string `json:"session_id"`
	OrganizationID string `json:"organization_id"`
}

// AlertData carries one alert.
type AlertData = event.Alert

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
