package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/wisp/internal/asr"
	"github.com/rbright/wisp/internal/audio"
	"github.com/rbright/wisp/internal/fsm"
	"github.com/rbright/wisp/internal/pipeline"
)

func TestToggleRecordsAndProcessesOneCycle(t *testing.T) {
	recorder := &fakeRecorder{buffer: audio.Buffer{{1000, -1000, 2000}}}
	processor := &fakeProcessor{outcome: pipeline.Outcome{Text: "hello"}}
	indicator := &fakeIndicator{}
	var transitions recordedTransitions

	ctrl := NewController(nil, recorder, processor, indicator, &transitions)
	ctrl.newID = func() string { return "session-1" }
	cancel := runController(t, ctrl)
	defer cancel()

	require.True(t, ctrl.Submit(ActionToggle))
	waitForState(t, ctrl, fsm.StateRecording)
	require.Equal(t, "session-1", ctrl.Status().SessionID)

	require.True(t, ctrl.Submit(ActionToggle))
	require.Eventually(t, func() bool { return processor.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	waitForState(t, ctrl, fsm.StateIdle)

	require.Equal(t, int32(1), recorder.armCalls.Load())
	require.Equal(t, int32(1), recorder.disarmCalls.Load())
	require.Equal(t, 3, len(processor.lastClip().Samples))
	require.Equal(t, audio.SampleRate, processor.lastClip().SampleRate)
	require.Equal(t, int32(1), indicator.recordingCalls.Load())
	require.Equal(t, int32(1), indicator.transcribingCalls.Load())
	require.Equal(t, int32(1), indicator.completeCalls.Load())
	require.Equal(t, int32(0), indicator.errorCalls.Load())
	require.Equal(t, "inserted", ctrl.Status().Message)

	require.Equal(t, []fsm.State{fsm.StateRecording, fsm.StateTranscribing, fsm.StateIdle}, transitions.targets())
	for _, tr := range transitions.all() {
		require.Equal(t, "session-1", tr.SessionID)
	}
}

func TestCancelDiscardsRecording(t *testing.T) {
	recorder := &fakeRecorder{}
	processor := &fakeProcessor{}
	indicator := &fakeIndicator{}

	ctrl := NewController(nil, recorder, processor, indicator)
	cancel := runController(t, ctrl)
	defer cancel()

	require.True(t, ctrl.Submit(ActionToggle))
	waitForState(t, ctrl, fsm.StateRecording)
	require.True(t, ctrl.Submit(ActionCancel))
	require.Eventually(t, func() bool { return recorder.discardCalls.Load() == 1 }, time.Second, 5*time.Millisecond)
	waitForState(t, ctrl, fsm.StateIdle)

	require.Equal(t, int32(0), processor.calls.Load())
	require.Equal(t, int32(1), indicator.cancelCalls.Load())
	require.Equal(t, "cancelled", ctrl.Status().Message)
}

func TestCancelFromIdleIsIgnored(t *testing.T) {
	recorder := &fakeRecorder{}
	ctrl := NewController(nil, recorder, &fakeProcessor{}, nil)
	cancel := runController(t, ctrl)
	defer cancel()

	require.True(t, ctrl.Submit(ActionCancel))
	require.True(t, ctrl.Submit(ActionToggle))
	waitForState(t, ctrl, fsm.StateRecording)
	require.Equal(t, int32(0), recorder.discardCalls.Load())
}

func TestShortCircuitIsNotAnError(t *testing.T) {
	processor := &fakeProcessor{err: pipeline.ErrEmptyTranscript}
	indicator := &fakeIndicator{}

	ctrl := NewController(nil, &fakeRecorder{}, processor, indicator)
	cancel := runController(t, ctrl)
	defer cancel()

	toggleCycle(t, ctrl, processor)

	require.Equal(t, int32(0), indicator.errorCalls.Load())
	require.Equal(t, int32(0), indicator.completeCalls.Load())
	require.Equal(t, pipeline.ErrEmptyTranscript.Error(), ctrl.Status().Message)
}

func TestOutOfMemoryShowsErrorAndReturnsToIdle(t *testing.T) {
	processor := &fakeProcessor{err: errors.Join(errors.New("transcribe"), asr.ErrOutOfMemory)}
	indicator := &fakeIndicator{}

	ctrl := NewController(nil, &fakeRecorder{}, processor, indicator)
	cancel := runController(t, ctrl)
	defer cancel()

	toggleCycle(t, ctrl, processor)

	require.Equal(t, int32(1), indicator.errorCalls.Load())
	require.Equal(t, "Out of memory; try a smaller model", indicator.lastError())

	// The engine stays usable; the next cycle runs normally.
	processor.setErr(nil)
	toggleCycle(t, ctrl, processor)
	require.Equal(t, "inserted", ctrl.Status().Message)
}

func TestDescribeDistinguishesDispatchFailures(t *testing.T) {
	ctrl := NewController(nil, &fakeRecorder{}, &fakeProcessor{}, nil)

	message, failed := ctrl.describe(pipeline.Outcome{
		Correction: pipeline.Stage{Name: pipeline.StageCorrection, Ran: true},
		Text:       "hello",
	}, errors.New("inject: boom"))
	require.True(t, failed)
	require.Equal(t, "Output dispatch failed", message)

	message, failed = ctrl.describe(pipeline.Outcome{}, errors.New("transcribe: boom"))
	require.True(t, failed)
	require.Equal(t, "Speech recognition failed", message)

	message, failed = ctrl.describe(pipeline.Outcome{}, context.Canceled)
	require.False(t, failed)
	require.Equal(t, "cancelled", message)
}

func TestActionsQueuedDuringTranscriptionAreDropped(t *testing.T) {
	release := make(chan struct{})
	processor := &fakeProcessor{block: release}
	recorder := &fakeRecorder{}

	ctrl := NewController(nil, recorder, processor, nil)
	cancel := runController(t, ctrl)
	defer cancel()

	require.True(t, ctrl.Submit(ActionToggle))
	waitForState(t, ctrl, fsm.StateRecording)
	require.True(t, ctrl.Submit(ActionToggle))
	waitForState(t, ctrl, fsm.StateTranscribing)

	require.True(t, ctrl.Submit(ActionToggle))
	require.True(t, ctrl.Submit(ActionToggle))
	close(release)

	waitForState(t, ctrl, fsm.StateIdle)
	require.Never(t, func() bool { return ctrl.State() != fsm.StateIdle }, 100*time.Millisecond, 10*time.Millisecond)
	require.Equal(t, int32(1), recorder.armCalls.Load())
}

func TestRunShutdownDiscardsActiveRecording(t *testing.T) {
	recorder := &fakeRecorder{}
	indicator := &fakeIndicator{}
	ctrl := NewController(nil, recorder, &fakeProcessor{}, indicator)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()

	require.True(t, ctrl.Submit(ActionToggle))
	waitForState(t, ctrl, fsm.StateRecording)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	require.Equal(t, fsm.StateIdle, ctrl.State())
	require.Equal(t, int32(1), recorder.discardCalls.Load())
	require.Equal(t, int32(1), indicator.hideCalls.Load())
}

func TestRunShutdownHidesOverlayDuringTranscription(t *testing.T) {
	recorder := &fakeRecorder{}
	indicator := &fakeIndicator{}
	processor := &fakeProcessor{block: make(chan struct{})}
	ctrl := NewController(nil, recorder, processor, indicator)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()

	require.True(t, ctrl.Submit(ActionToggle))
	waitForState(t, ctrl, fsm.StateRecording)
	require.True(t, ctrl.Submit(ActionToggle))
	waitForState(t, ctrl, fsm.StateTranscribing)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	require.Equal(t, fsm.StateIdle, ctrl.State())
	require.Equal(t, int32(1), indicator.transcribingCalls.Load())
	require.GreaterOrEqual(t, indicator.hideCalls.Load(), int32(1))
	require.Zero(t, indicator.errorCalls.Load())
}

func TestStartRecordingRecoversArmedRecorder(t *testing.T) {
	recorder := &fakeRecorder{}
	recorder.armed.Store(true)

	ctrl := NewController(nil, recorder, &fakeProcessor{}, nil)
	ctrl.startRecording(context.Background())

	require.Equal(t, fsm.StateRecording, ctrl.State())
	require.Equal(t, int32(1), recorder.discardCalls.Load())
	require.Equal(t, int32(2), recorder.armCalls.Load())
}

func TestSubmitReportsFullQueue(t *testing.T) {
	ctrl := NewController(nil, &fakeRecorder{}, &fakeProcessor{}, nil)
	for i := 0; i < cap(ctrl.actions); i++ {
		require.True(t, ctrl.Submit(ActionToggle))
	}
	require.False(t, ctrl.Submit(ActionToggle))
}

func TestActionString(t *testing.T) {
	require.Equal(t, "toggle", ActionToggle.String())
	require.Equal(t, "cancel", ActionCancel.String())
	require.Equal(t, "action(9)", Action(9).String())
}

func runController(t *testing.T, ctrl *Controller) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ctrl.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

func toggleCycle(t *testing.T, ctrl *Controller, processor *fakeProcessor) {
	t.Helper()
	before := processor.calls.Load()
	require.True(t, ctrl.Submit(ActionToggle))
	waitForState(t, ctrl, fsm.StateRecording)
	require.True(t, ctrl.Submit(ActionToggle))
	require.Eventually(t, func() bool { return processor.calls.Load() == before+1 }, time.Second, 5*time.Millisecond)
	waitForState(t, ctrl, fsm.StateIdle)
}

func waitForState(t *testing.T, ctrl *Controller, want fsm.State) {
	t.Helper()
	require.Eventually(t, func() bool { return ctrl.State() == want }, time.Second, 5*time.Millisecond,
		"state never reached %s (current %s)", want, ctrl.State())
}

type fakeRecorder struct {
	buffer       audio.Buffer
	armed        atomic.Bool
	armCalls     atomic.Int32
	disarmCalls  atomic.Int32
	discardCalls atomic.Int32
}

func (f *fakeRecorder) Arm() bool {
	f.armCalls.Add(1)
	return f.armed.CompareAndSwap(false, true)
}

func (f *fakeRecorder) Disarm() audio.Buffer {
	f.disarmCalls.Add(1)
	f.armed.Store(false)
	return f.buffer
}

func (f *fakeRecorder) Discard() {
	f.discardCalls.Add(1)
	f.armed.Store(false)
}

type fakeProcessor struct {
	outcome pipeline.Outcome
	block   chan struct{}
	calls   atomic.Int32

	mu   sync.Mutex
	err  error
	clip audio.Clip
}

func (f *fakeProcessor) Process(ctx context.Context, clip audio.Clip) (pipeline.Outcome, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return pipeline.Outcome{}, ctx.Err()
		}
	}
	f.mu.Lock()
	f.clip = clip
	err := f.err
	f.mu.Unlock()
	f.calls.Add(1)
	return f.outcome, err
}

func (f *fakeProcessor) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeProcessor) lastClip() audio.Clip {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clip
}

type fakeIndicator struct {
	recordingCalls    atomic.Int32
	transcribingCalls atomic.Int32
	errorCalls        atomic.Int32
	stopCalls         atomic.Int32
	completeCalls     atomic.Int32
	cancelCalls       atomic.Int32
	hideCalls         atomic.Int32

	mu          sync.Mutex
	lastMessage string
}

func (f *fakeIndicator) ShowRecording(context.Context)    { f.recordingCalls.Add(1) }
func (f *fakeIndicator) ShowTranscribing(context.Context) { f.transcribingCalls.Add(1) }
func (f *fakeIndicator) CueStop(context.Context)          { f.stopCalls.Add(1) }
func (f *fakeIndicator) CueComplete(context.Context)      { f.completeCalls.Add(1) }
func (f *fakeIndicator) CueCancel(context.Context)        { f.cancelCalls.Add(1) }
func (f *fakeIndicator) Hide(context.Context)             { f.hideCalls.Add(1) }

func (f *fakeIndicator) ShowError(_ context.Context, message string) {
	f.errorCalls.Add(1)
	f.mu.Lock()
	f.lastMessage = message
	f.mu.Unlock()
}

func (f *fakeIndicator) lastError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastMessage
}

type recordedTransitions struct {
	mu    sync.Mutex
	items []Transition
}

func (r *recordedTransitions) Observe(t Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, t)
}

func (r *recordedTransitions) all() []Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Transition(nil), r.items...)
}

func (r *recordedTransitions) targets() []fsm.State {
	states := make([]fsm.State, 0)
	for _, t := range r.all() {
		states = append(states, t.To)
	}
	return states
}
