// Package ipc carries newline-delimited JSON commands over the daemon's unix socket.
package ipc

import "errors"

// Command names one control request understood by the daemon.
type Command string

const (
	CommandStatus Command = "status"
	CommandToggle Command = "toggle"
	CommandCancel Command = "cancel"
)

// Request is one client command sent over the control socket.
type Request struct {
	Command Command `json:"command"`
}

// Response is the daemon reply for one Request.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Session string `json:"session,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Err returns the daemon-side failure carried by r, or nil when r.OK.
func (r Response) Err() error {
	if r.OK {
		return nil
	}
	if r.Error == "" {
		return errors.New("request rejected")
	}
	return errors.New(r.Error)
}

// Reject builds a failed Response reporting state.
func Reject(state, msg string) Response {
	return Response{OK: false, State: state, Error: msg}
}
