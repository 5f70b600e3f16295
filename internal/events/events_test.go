package events

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/rbright/wisp/internal/fsm"
	"github.com/rbright/wisp/internal/session"
)

func TestStatusEndpointServesSnapshot(t *testing.T) {
	hub := NewHub(nil)
	server := httptest.NewServer(hub.Router())
	defer server.Close()

	hub.Observe(session.Transition{
		From:      fsm.StateIdle,
		To:        fsm.StateRecording,
		SessionID: "s-1",
		At:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Message:   "recording",
	})

	resp, err := http.Get(server.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var msg Message
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	require.Equal(t, "state", msg.Type)
	require.Equal(t, "recording", msg.State)
	require.Equal(t, "s-1", msg.SessionID)
	require.Equal(t, "recording", msg.Message)
}

func TestStatusEndpointRejectsPost(t *testing.T) {
	server := httptest.NewServer(NewHub(nil).Router())
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/status", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestWebSocketReceivesSnapshotThenTransitions(t *testing.T) {
	hub := NewHub(nil)
	server := httptest.NewServer(hub.Router())
	defer server.Close()

	conn := dial(t, server.URL)
	defer conn.Close()

	first := readMessage(t, conn)
	require.Equal(t, "idle", first.State)

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	hub.Observe(session.Transition{From: fsm.StateIdle, To: fsm.StateRecording, SessionID: "abc", At: time.Now()})
	hub.Observe(session.Transition{From: fsm.StateRecording, To: fsm.StateTranscribing, SessionID: "abc", At: time.Now()})

	require.Equal(t, "recording", readMessage(t, conn).State)
	second := readMessage(t, conn)
	require.Equal(t, "transcribing", second.State)
	require.Equal(t, "abc", second.SessionID)
}

func TestWebSocketClientDisconnectUnregisters(t *testing.T) {
	hub := NewHub(nil)
	server := httptest.NewServer(hub.Router())
	defer server.Close()

	conn := dial(t, server.URL)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	server := httptest.NewServer(NewHub(nil).Router())
	defer server.Close()

	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server.URL), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLocalOrigin(t *testing.T) {
	for origin, want := range map[string]bool{
		"":                        true,
		"http://localhost:3000":   true,
		"http://127.0.0.1:7878":   true,
		"http://[::1]:7878":       true,
		"https://evil.example":    false,
		"http://localhost.evil.x": false,
	} {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		require.Equal(t, want, localOrigin(req), origin)
	}
}

func TestServeStopsWithContext(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.serve(ctx, listener) }()

	url := "http://" + listener.Addr().String()
	conn := dial(t, url)
	defer conn.Close()
	readMessage(t, conn)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not stop")
	}
	require.Equal(t, 0, hub.Subscribers())
}

func TestServeReportsListenFailure(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	err = NewHub(nil).Serve(context.Background(), listener.Addr().String())
	require.ErrorContains(t, err, "listen events")
}

func dial(t *testing.T, httpURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(httpURL), nil)
	require.NoError(t, err)
	return conn
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + "/ws"
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}
