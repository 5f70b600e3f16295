package monitor

import (
	"github.com/gorilla/websocket"

	"github.com/rbright/wisp/internal/events"
)

type connectedMsg struct{ conn *websocket.Conn }

type connectErrorMsg struct{ err error }

type eventMsg struct{ event events.Message }

type eventErrorMsg struct{ err error }

type reconnectTickMsg struct{}

type flashTickMsg struct{}
