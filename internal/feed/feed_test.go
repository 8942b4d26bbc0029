package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/nightwatch/internal/event"
	"github.com/matthewbaird/nightwatch/internal/logging"
	"github.com/matthewbaird/nightwatch/internal/store"
)

func TestMain(m *testing.M) {
	logging.Discard()
	os.Exit(m.Run())
}

type orgMap map[string]string

func (m orgMap) OrganizationFor(_ context.Context, actor string) (string, error) {
	org, ok := m[actor]
	if !ok {
		return "", store.ErrNoOrganization
	}
	return org, nil
}

func TestHub_RoutesByOrganization(t *testing.T) {
	hub := NewHub()
	a := hub.Register("org-a")
	b := hub.Register("org-b")
	assert.Equal(t, 1, hub.Count("org-a"))

	require.NoError(t, hub.HandleEvent(context.Background(), event.NewOperatorAlert("org-a", "Rent Due: 1 Main St")))

	select {
	case got := <-a.Alerts():
		assert.Equal(t, "Rent Due: 1 Main St", got.Message)
	default:
		t.Fatal("org-a session did not receive the alert")
	}
	select {
	case <-b.Alerts():
		t.Fatal("org-b session received another organization's alert")
	default:
	}

	hub.Remove(a.ID)
	assert.Equal(t, 0, hub.Count("org-a"))
}

func TestHub_IgnoresActivityAlerts(t *testing.T) {
	hub := NewHub()
	s := hub.Register("org-a")
	alert := event.Alert{ID: "x", Kind: event.KindActivity, OrganizationID: "org-a", Message: "m"}
	require.NoError(t, hub.HandleEvent(context.Background(), alert))
	assert.Len(t, s.Alerts(), 0)
}

func TestHub_DropsWhenSessionFull(t *testing.T) {
	hub := NewHub()
	s := hub.Register("org-a")
	for i := 0; i < sessionBuffer+5; i++ {
		require.NoError(t, hub.HandleEvent(context.Background(), event.NewOperatorAlert("org-a", "m")))
	}
	assert.Len(t, s.Alerts(), sessionBuffer)
}

func dial(t *testing.T, srv *httptest.Server, actor string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?actor=" + actor
	return websocket.Dial(ctx, url, nil)
}

func readMessage(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var raw struct {
		Type      string          `json:"type"`
		RequestID string          `json:"request_id"`
		Data      json.RawMessage `json:"data"`
	}
	require.NoError(t, wsjson.Read(ctx, conn, &raw))
	msg := ServerMessage{Type: raw.Type, RequestID: raw.RequestID}
	switch raw.Type {
	case "session":
		var d SessionData
		require.NoError(t, json.Unmarshal(raw.Data, &d))
		msg.Data = d
	case "alert":
		var d AlertData
		require.NoError(t, json.Unmarshal(raw.Data, &d))
		msg.Data = d
	}
	return msg
}

func TestHandler_StreamsAlerts(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(NewHandler(hub, orgMap{"u1": "org-a"}, nil))
	defer srv.Close()

	conn, _, err := dial(t, srv, "u1")
	require.NoError(t, err)
	defer conn.CloseNow()

	hello := readMessage(t, conn)
	require.Equal(t, "session", hello.Type)
	assert.Equal(t, "org-a", hello.Data.(SessionData).OrganizationID)

	require.Eventually(t, func() bool { return hub.Count("org-a") == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, hub.HandleEvent(context.Background(), event.NewOperatorAlert("org-a", "Lease Alert (NOTICE): A (3 days left)")))

	msg := readMessage(t, conn)
	require.Equal(t, "alert", msg.Type)
	assert.Equal(t, "Lease Alert (NOTICE): A (3 days left)", msg.Data.(AlertData).Message)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: "ping", ID: "42"}))
	pong := readMessage(t, conn)
	assert.Equal(t, "pong", pong.Type)
	assert.Equal(t, "42", pong.RequestID)

	conn.Close(websocket.StatusNormalClosure, "")
	assert.Eventually(t, func() bool { return hub.Count("org-a") == 0 }, time.Second, 10*time.Millisecond)
}

func TestHandler_RejectsUnknownActor(t *testing.T) {
	srv := httptest.NewServer(NewHandler(NewHub(), orgMap{}, nil))
	defer srv.Close()

	_, resp, err := dial(t, srv, "ghost")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, resp, err = dial(t, srv, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

type brokenResolver struct{}

func (brokenResolver) OrganizationFor(context.Context, string) (string, error) {
	return "", errors.New("database is locked")
}

func TestHandler_ResolverFailureIsServerError(t *testing.T) {
	srv := httptest.NewServer(NewHandler(NewHub(), brokenResolver{}, nil))
	defer srv.Close()

	_, resp, err := dial(t, srv, "alice")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
