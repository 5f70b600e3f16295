// Package fsm defines the pure recording lifecycle state machine.
package fsm

import (
	"errors"
	"fmt"
)

// State is one phase of the dictation cycle.
type State string

// Event drives a State change.
type Event string

const (
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateTranscribing State = "transcribing"
)

const (
	EventStart       Event = "start"
	EventStop        Event = "stop"
	EventCancel      Event = "cancel"
	EventTranscribed Event = "transcribed"
)

// ErrInvalidTransition reports an event that the current state does not accept.
var ErrInvalidTransition = errors.New("invalid transition")

// edges is the complete transition table. Pairs not listed are invalid.
var edges = map[State]map[Event]State{
	StateIdle: {
		EventStart: StateRecording,
	},
	StateRecording: {
		EventStop:   StateTranscribing,
		EventCancel: StateIdle,
	},
	StateTranscribing: {
		EventTranscribed: StateIdle,
	},
}

// Transition returns the state reached by applying event to current.
//
// Invalid pairs return current unchanged together with an error.
func Transition(current State, event Event) (State, error) {
	accepted, ok := edges[current]
	if !ok {
		return current, fmt.Errorf("unknown state %q", current)
	}
	next, ok := accepted[event]
	if !ok {
		return current, fmt.Errorf("%w: %s --(%s)--> ?", ErrInvalidTransition, current, event)
	}
	return next, nil
}

// Accepts reports whether current has an outgoing edge for event.
func Accepts(current State, event Event) bool {
	_, ok := edges[current][event]
	return ok
}
