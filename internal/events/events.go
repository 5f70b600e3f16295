// Package events publishes controller state changes over WebSocket.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/rbright/wisp/internal/fsm"
	"github.com/rbright/wisp/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// Message is the JSON frame sent to subscribers and served by /api/status.
type Message struct {
	Type      string    `json:"type"`
	State     string    `json:"state"`
	SessionID string    `json:"session_id,omitempty"`
	At        time.Time `json:"at"`
	Message   string    `json:"message,omitempty"`
}

// FromTransition converts a controller transition into a state frame.
func FromTransition(t session.Transition) Message {
	return Message{
		Type:      "state",
		State:     string(t.To),
		SessionID: t.SessionID,
		At:        t.At.UTC(),
		Message:   t.Message,
	}
}

// Hub fans state frames out to WebSocket subscribers. It implements
// session.Observer; slow subscribers are dropped rather than blocking the controller.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    Message
}

// NewHub returns a hub whose snapshot starts idle.
func NewHub(logger *slog.Logger) *Hub {
	h := &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
		last:    Message{Type: "state", State: string(fsm.StateIdle), At: time.Now().UTC()},
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: localOrigin}
	return h
}

// Observe records the transition and broadcasts it.
func (h *Hub) Observe(t session.Transition) {
	msg := FromTransition(t)
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logWarn("encode state event", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = msg
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			delete(h.clients, c)
			c.close()
		}
	}
}

// Snapshot returns the most recent frame.
func (h *Hub) Snapshot() Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Router exposes GET /api/status and the /ws upgrade endpoint.
func (h *Hub) Router() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/api/status", h.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/ws", h.handleWebSocket).Methods(http.MethodGet)
	return router
}

// Serve listens on addr until ctx ends.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen events %s: %w", addr, err)
	}
	return h.serve(ctx, listener)
}

func (h *Hub) serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{Handler: h.Router(), ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(listener) }()
	if h.logger != nil {
		h.logger.Info("events server listening", "addr", listener.Addr().String())
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve events: %w", err)
	case <-ctx.Done():
	}

	h.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown events server: %w", err)
	}
	return nil
}

func (h *Hub) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.Snapshot()); err != nil {
		h.logWarn("encode status response", err)
	}
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logWarn("websocket upgrade failed", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	// The snapshot and registration share one critical section so no
	// transition falls between them.
	h.mu.Lock()
	if snapshot, err := json.Marshal(h.last); err == nil {
		c.send <- snapshot
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	go c.readPump(func() { h.unregister(c) })
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

func (h *Hub) logWarn(msg string, err error) {
	if h.logger != nil {
		h.logger.Warn(msg, "error", err.Error())
	}
}

// localOrigin admits non-browser clients and pages served from loopback.
func localOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client frames and keeps the pong deadline fresh.
func (c *client) readPump(done func()) {
	defer func() {
		done()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
