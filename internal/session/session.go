// Package session owns the dictation state machine and its single control loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rbright/wisp/internal/asr"
	"github.com/rbright/wisp/internal/audio"
	"github.com/rbright/wisp/internal/fsm"
	"github.com/rbright/wisp/internal/ipc"
	"github.com/rbright/wisp/internal/pipeline"
)

// Action is one user request consumed by the control loop.
type Action int

const (
	ActionToggle Action = iota + 1
	ActionCancel
)

func (a Action) String() string {
	switch a {
	case ActionToggle:
		return "toggle"
	case ActionCancel:
		return "cancel"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Recorder is the session-facing subset of audio capture.
type Recorder interface {
	Arm() bool
	Disarm() audio.Buffer
	Discard()
}

// Processor runs one pipeline cycle on a normalized clip.
type Processor interface {
	Process(ctx context.Context, clip audio.Clip) (pipeline.Outcome, error)
}

// Indicator is the session-facing subset of indicator behavior.
type Indicator interface {
	ShowRecording(context.Context)
	ShowTranscribing(context.Context)
	ShowError(context.Context, string)
	CueStop(context.Context)
	CueComplete(context.Context)
	CueCancel(context.Context)
	Hide(context.Context)
}

// noopIndicator preserves session flow when no indicator is wired.
type noopIndicator struct{}

func (noopIndicator) ShowRecording(context.Context)     {}
func (noopIndicator) ShowTranscribing(context.Context)  {}
func (noopIndicator) ShowError(context.Context, string) {}
func (noopIndicator) CueStop(context.Context)           {}
func (noopIndicator) CueComplete(context.Context)       {}
func (noopIndicator) CueCancel(context.Context)         {}
func (noopIndicator) Hide(context.Context)              {}

// Transition describes one observed state change.
type Transition struct {
	From      fsm.State
	To        fsm.State
	SessionID string
	At        time.Time
	Message   string
}

// Observer is notified synchronously on the control goroutine; it must not block.
type Observer interface {
	Observe(Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Transition)

func (f ObserverFunc) Observe(t Transition) { f(t) }

// Status is a point-in-time controller snapshot.
type Status struct {
	State     fsm.State
	SessionID string
	StartedAt time.Time
	Message   string
}

// Controller serializes toggle/cancel actions through one goroutine so at most
// one pipeline is ever in flight.
type Controller struct {
	logger     *slog.Logger
	recorder   Recorder
	processor  Processor
	indicator  Indicator
	observers  []Observer
	sampleRate int

	mu        sync.RWMutex
	state     fsm.State
	sessionID string
	startedAt time.Time
	message   string

	actions chan Action
	newID   func() string
	now     func() time.Time
}

// NewController constructs a controller with safe default fallbacks.
func NewController(
	logger *slog.Logger,
	recorder Recorder,
	processor Processor,
	indicator Indicator,
	observers ...Observer,
) *Controller {
	if indicator == nil {
		indicator = noopIndicator{}
	}
	return &Controller{
		logger:     logger,
		recorder:   recorder,
		processor:  processor,
		indicator:  indicator,
		observers:  observers,
		sampleRate: audio.SampleRate,
		state:      fsm.StateIdle,
		actions:    make(chan Action, 4),
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Status returns the current state plus session metadata.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Status{State: c.state, SessionID: c.sessionID, StartedAt: c.startedAt, Message: c.message}
}

// Submit enqueues an action without blocking. It reports false when the queue is full.
func (c *Controller) Submit(a Action) bool {
	select {
	case c.actions <- a:
		return true
	default:
		return false
	}
}

// Run consumes actions until ctx ends. On exit any active recording is
// discarded, the overlay is hidden and the controller is idle.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case a := <-c.actions:
			c.dispatch(ctx, a)
		}
	}
}

func (c *Controller) dispatch(ctx context.Context, a Action) {
	state := c.State()
	switch {
	case a == ActionToggle && state == fsm.StateIdle:
		c.startRecording(ctx)
	case a == ActionToggle && state == fsm.StateRecording:
		c.stopAndProcess(ctx)
	case a == ActionCancel && state == fsm.StateRecording:
		c.cancelRecording(ctx)
	default:
		c.logDebug("ignoring action", "action", a.String(), "state", string(state))
	}
}

func (c *Controller) startRecording(ctx context.Context) {
	if !c.recorder.Arm() {
		c.logWarn("recorder already armed; discarding stale buffer")
		c.recorder.Discard()
		c.recorder.Arm()
	}

	id := c.newID()
	c.mu.Lock()
	c.sessionID = id
	c.startedAt = c.now()
	c.mu.Unlock()

	if err := c.transition(fsm.EventStart, "recording"); err != nil {
		c.recorder.Discard()
		c.logError("start recording", err)
		return
	}
	c.logInfo("recording started", "session_id", id)
	c.indicator.ShowRecording(ctx)
}

func (c *Controller) cancelRecording(ctx context.Context) {
	c.recorder.Discard()
	if err := c.transition(fsm.EventCancel, "cancelled"); err != nil {
		c.logError("cancel recording", err)
		return
	}
	c.logInfo("recording cancelled", "session_id", c.Status().SessionID)
	c.indicator.CueCancel(ctx)
	c.indicator.Hide(ctx)
}

func (c *Controller) stopAndProcess(ctx context.Context) {
	buf := c.recorder.Disarm()
	if err := c.transition(fsm.EventStop, "transcribing"); err != nil {
		c.logError("stop recording", err)
		return
	}
	c.indicator.CueStop(ctx)
	c.indicator.ShowTranscribing(ctx)

	clip := audio.Normalize(buf, c.sampleRate)
	outcome, err := c.processor.Process(ctx, clip)
	message, failed := c.describe(outcome, err)

	if ctx.Err() == nil {
		c.indicator.Hide(ctx)
		switch {
		case failed:
			c.indicator.ShowError(ctx, message)
		case err == nil:
			c.indicator.CueComplete(ctx)
		}
	}

	if terr := c.transition(fsm.EventTranscribed, message); terr != nil {
		c.logError("finish transcription", terr)
	}
	c.drainActions()
}

// describe classifies a pipeline result into a status message.
func (c *Controller) describe(outcome pipeline.Outcome, err error) (string, bool) {
	id := c.Status().SessionID
	switch {
	case err == nil:
		c.logInfo("transcription inserted",
			"session_id", id,
			"chars", len([]rune(outcome.Text)),
			"audio_ms", outcome.AudioDuration.Milliseconds(),
		)
		return "inserted", false
	case pipeline.IsShortCircuit(err):
		c.logInfo("cycle ended early", "session_id", id, "reason", err.Error())
		return err.Error(), false
	case errors.Is(err, context.Canceled):
		return "cancelled", false
	case asr.IsOutOfMemory(err):
		c.logError("transcription out of memory", err, "session_id", id)
		return "Out of memory; try a smaller model", true
	default:
		c.logError("pipeline failed", err, "session_id", id)
		if outcome.Correction.Ran && outcome.Text != "" {
			return "Output dispatch failed", true
		}
		return "Speech recognition failed", true
	}
}

// drainActions drops actions queued while the pipeline was running.
func (c *Controller) drainActions() {
	for {
		select {
		case a := <-c.actions:
			c.logDebug("dropping action queued during transcription", "action", a.String())
		default:
			return
		}
	}
}

// shutdown discards an active recording and clears any overlay left by an
// interrupted cycle. ctx is already done here, so cleanup gets its own deadline.
func (c *Controller) shutdown() {
	if c.State() == fsm.StateRecording {
		c.recorder.Discard()
		_ = c.transition(fsm.EventCancel, "shutdown")
	}

	cleanupCtx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
	defer cancel()
	c.indicator.Hide(cleanupCtx)
}

// transition applies one FSM event and notifies observers.
func (c *Controller) transition(event fsm.Event, message string) error {
	c.mu.Lock()
	from := c.state
	next, err := fsm.Transition(from, event)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = next
	c.message = message
	change := Transition{From: from, To: next, SessionID: c.sessionID, At: c.now(), Message: message}
	c.mu.Unlock()

	for _, observer := range c.observers {
		observer.Observe(change)
	}
	return nil
}

// Handle serves IPC commands for the running daemon.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		status := c.Status()
		return ipc.Response{OK: true, State: string(status.State), Session: status.SessionID, Message: status.Message}
	case ipc.CommandToggle:
		return c.request(ActionToggle)
	case ipc.CommandCancel:
		return c.request(ActionCancel)
	default:
		return ipc.Reject(string(c.State()), fmt.Sprintf("unknown command: %s", req.Command))
	}
}

// request validates a and enqueues it when the current state permits.
func (c *Controller) request(a Action) ipc.Response {
	state := c.State()
	if state == fsm.StateTranscribing {
		return ipc.Reject(string(state), "busy: transcribing")
	}
	if a == ActionCancel && !fsm.Accepts(state, fsm.EventCancel) {
		return ipc.Reject(string(state), fmt.Sprintf("cannot cancel from state %s", state))
	}

	if !c.Submit(a) {
		return ipc.Response{OK: true, State: string(state), Message: a.String() + " already requested"}
	}
	return ipc.Response{OK: true, State: string(state), Message: a.String() + " requested"}
}

func (c *Controller) logInfo(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Controller) logWarn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Controller) logDebug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Controller) logError(msg string, err error, args ...any) {
	if c.logger != nil {
		c.logger.Error(msg, append([]any{"error", err.Error()}, args...)...)
	}
}
