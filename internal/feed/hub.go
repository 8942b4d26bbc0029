package feed

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/nightwatch/internal/event"
	"github.com/matthewbaird/nightwatch/internal/logging"
)

// sessionBuffer is how many alerts a slow session may fall behind before
// alerts are dropped for it.
const sessionBuffer = 64

// Session is one connected dashboard.
type Session struct {
	ID             string
	OrganizationID string
	CreatedAt      time.Time
	alerts         chan event.Alert
}

// Alerts delivers the alerts routed to the session.
func (s *Session) Alerts() <-chan event.Alert { return s.alerts }

// Hub routes alerts to the sessions of the alert's organization.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*Session)}
}

// Register creates a session for an organization.
func (h *Hub) Register(organizationID string) *Session {
	s := &Session{
		ID:             uuid.New().String(),
		OrganizationID: organizationID,
		CreatedAt:      time.Now(),
		alerts:         make(chan event.Alert, sessionBuffer),
	}
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()
	return s
}

// Remove deletes a session.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
}

// Count returns the number of sessions of an organization.
func (h *Hub) Count(organizationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, s := range h.sessions {
		if s.OrganizationID == organizationID {
			n++
		}
	}
	return n
}

// HandleEvent implements eventbus.Handler. Only operator alerts are
// forwarded; a session whose buffer is full misses the alert.
func (h *Hub) HandleEvent(_ context.Context, a event.Alert) error {
	if a.Kind != event.KindOperator {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		if s.OrganizationID != a.OrganizationID {
			continue
		}
		select {
		case s.alerts <- a:
		default:
			logging.Logger.WithField("session_id", s.ID).Warn("feed: session buffer full, dropping alert")
		}
	}
	return nil
}
