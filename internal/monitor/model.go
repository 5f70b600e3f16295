// Package monitor is a terminal dashboard for a running wisp daemon.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/rbright/wisp/internal/events"
	"github.com/rbright/wisp/internal/fsm"
)

const flashInterval = 500 * time.Millisecond

// Model is the root bubbletea model. It follows the daemon's /ws stream.
type Model struct {
	url string

	conn             *websocket.Conn
	connected        bool
	connError        string
	reconnectAttempt int

	state     fsm.State
	sessionID string
	message   string
	since     time.Time
	flashOn   bool

	now func() time.Time
}

// New returns a disconnected model for the events URL (ws://host:port/ws).
func New(url string) Model {
	return Model{url: url, state: fsm.StateIdle, flashOn: true, now: time.Now}
}

// Init connects and starts the flash ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(connectCmd(m.url), flashTickCmd())
}

func connectCmd(url string) tea.Cmd {
	return func() tea.Msg {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			return connectErrorMsg{err: err}
		}
		return connectedMsg{conn: conn}
	}
}

func readEventCmd(conn *websocket.Conn) tea.Cmd {
	return func() tea.Msg {
		var ev events.Message
		if err := conn.ReadJSON(&ev); err != nil {
			return eventErrorMsg{err: err}
		}
		return eventMsg{event: ev}
	}
}

// reconnectCmd backs off 1s, 2s, 4s, 8s, then holds at 16s.
func reconnectCmd(attempt int) tea.Cmd {
	delay := time.Duration(1<<min(attempt, 4)) * time.Second
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return reconnectTickMsg{}
	})
}

func flashTickCmd() tea.Cmd {
	return tea.Tick(flashInterval, func(time.Time) tea.Msg {
		return flashTickMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.closeConn()
			return m, tea.Quit
		}
		return m, nil

	case connectedMsg:
		m.conn = msg.conn
		m.connected = true
		m.connError = ""
		m.reconnectAttempt = 0
		return m, readEventCmd(m.conn)

	case connectErrorMsg:
		m.connected = false
		m.connError = msg.err.Error()
		return m, reconnectCmd(m.reconnectAttempt)

	case eventMsg:
		m.apply(msg.event)
		return m, readEventCmd(m.conn)

	case eventErrorMsg:
		m.closeConn()
		m.connected = false
		m.connError = msg.err.Error()
		return m, reconnectCmd(m.reconnectAttempt)

	case reconnectTickMsg:
		m.reconnectAttempt++
		return m, connectCmd(m.url)

	case flashTickMsg:
		if m.state == fsm.StateRecording {
			m.flashOn = !m.flashOn
		} else {
			m.flashOn = true
		}
		return m, flashTickCmd()
	}
	return m, nil
}

func (m *Model) apply(ev events.Message) {
	if ev.Type != "state" {
		return
	}
	state := fsm.State(ev.State)
	if state != m.state {
		m.since = ev.At
		m.flashOn = true
	}
	m.state = state
	m.sessionID = ev.SessionID
	m.message = ev.Message
}

func (m *Model) closeConn() {
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
}

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("wisp monitor"))
	b.WriteString("  ")
	if m.connected {
		b.WriteString(dimStyle.Render(m.url))
	} else {
		b.WriteString(errorStyle.Render("disconnected"))
	}
	b.WriteString("\n\n")

	b.WriteString(m.badge())
	if !m.since.IsZero() && m.state != fsm.StateIdle {
		elapsed := m.now().Sub(m.since).Truncate(100 * time.Millisecond)
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %s", elapsed)))
	}
	b.WriteString("\n")

	if m.sessionID != "" {
		b.WriteString(dimStyle.Render("session " + m.sessionID))
		b.WriteString("\n")
	}
	if m.message != "" {
		b.WriteString("last: " + m.message)
		b.WriteString("\n")
	}
	if !m.connected && m.connError != "" {
		b.WriteString(errorStyle.Render(m.connError))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("q to quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) badge() string {
	switch m.state {
	case fsm.StateRecording:
		if m.flashOn {
			return recordingStyle.Render("● REC")
		}
		return recordingDimStyle.Render("○ REC")
	case fsm.StateTranscribing:
		return transcribingStyle.Render("… transcribing")
	default:
		return idleStyle.Render("idle")
	}
}

// Run shows the dashboard until the user quits or ctx ends.
func Run(ctx context.Context, url string) error {
	program := tea.NewProgram(New(url), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := program.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// URL builds the websocket address for an events listen address.
func URL(addr string) string {
	return "ws://" + addr + "/ws"
}
