package feed

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/sirupsen/logrus"

	"github.com/matthewbaird/nightwatch/internal/logging"
	"github.com/matthewbaird/nightwatch/internal/store"
)

// OrganizationResolver maps an actor to its organization.
type OrganizationResolver interface {
	OrganizationFor(ctx context.Context, actor string) (string, error)
}

// Handler upgrades dashboard connections and streams their organization's
// operator alerts.
type Handler struct {
	hub            *Hub
	orgs           OrganizationResolver
	originPatterns []string
}

// NewHandler creates a WebSocket handler. originPatterns follows
// websocket.AcceptOptions; empty allows any origin.
func NewHandler(hub *Hub, orgs OrganizationResolver, originPatterns []string) *Handler {
	if len(originPatterns) == 0 {
		originPatterns = []string{"*"}
	}
	return &Handler{hub: hub, orgs: orgs, originPatterns: originPatterns}
}

// ServeHTTP resolves the actor, upgrades to WebSocket and runs the session.
// The actor comes from the X-Actor header, or the actor query parameter for
// browsers that cannot set headers on an upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	actor := r.Header.Get("X-Actor")
	if actor == "" {
		actor = r.URL.Query().Get("actor")
	}
	if actor == "" {
		http.Error(w, "missing actor", http.StatusUnauthorized)
		return
	}
	org, err := h.orgs.OrganizationFor(r.Context(), actor)
	switch {
	case errors.Is(err, store.ErrNoOrganization), err == nil && org == "":
		http.Error(w, "no organization found", http.StatusForbidden)
		return
	case err != nil:
		logging.Logger.WithError(err).WithField("actor", actor).Error("feed: resolving organization")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		logging.Logger.WithError(err).Warn("feed: websocket accept")
		return
	}
	defer conn.CloseNow()

	sess := h.hub.Register(org)
	defer h.hub.Remove(sess.ID)
	log := logging.Logger.WithFields(logrus.Fields{"session_id": sess.ID, "organization_id": org})
	log.Info("feed: session opened")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	h.send(ctx, conn, ServerMessage{
		Type: "session",
		Data: SessionData{SessionID: sess.ID, OrganizationID: org},
	})

	go func() {
		defer cancel()
		h.readLoop(ctx, conn, log)
	}()

	for {
		select {
		case a := <-sess.Alerts():
			h.send(ctx, conn, ServerMessage{Type: "alert", Data: AlertData(a)})
		case <-ctx.Done():
			log.Info("feed: session closed")
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}
	}
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, log *logrus.Entry) {
	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				log.WithError(err).Debug("feed: read failed")
			}
			return
		}
		switch msg.Type {
		case "ping":
			h.send(ctx, conn, ServerMessage{Type: "pong", RequestID: msg.ID})
		default:
			h.send(ctx, conn, ServerMessage{
				Type:      "error",
				RequestID: msg.ID,
				Data:      ErrorData{Code: "unknown_type", Message: "unknown message type: " + msg.Type},
			})
		}
	}
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		logging.Logger.WithError(err).Debug("feed: write failed")
	}
}
