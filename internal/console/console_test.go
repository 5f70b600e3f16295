package console

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/wisp/internal/fsm"
	"github.com/rbright/wisp/internal/pipeline"
	"github.com/rbright/wisp/internal/session"
)

func TestConsolePrintsLifecycleAndStages(t *testing.T) {
	var out bytes.Buffer
	c := New(&out, false)

	c.Ready("turbo", "Shift_R")
	c.Observe(session.Transition{From: fsm.StateIdle, To: fsm.StateRecording})
	c.Observe(session.Transition{From: fsm.StateRecording, To: fsm.StateTranscribing})
	c.Stage(pipeline.Stage{Name: pipeline.StageTranscription, Text: "hello world", Elapsed: 812 * time.Millisecond, Ran: true})
	c.Stage(pipeline.Stage{Name: pipeline.StageEnhancement})
	c.Stage(pipeline.Stage{Name: pipeline.StageCorrection, Text: "Hello world", Elapsed: time.Millisecond, Ran: true})
	c.Observe(session.Transition{From: fsm.StateTranscribing, To: fsm.StateIdle})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	require.Contains(t, lines[0], "Ready")
	require.Contains(t, lines[0], "model=turbo")
	require.Contains(t, lines[1], "Recording")
	require.Contains(t, lines[2], "Transcribing")
	require.Contains(t, lines[3], "Transcription: hello world")
	require.Contains(t, lines[3], "812ms")
	require.Contains(t, lines[4], "Post-processed: Hello world")
}

func TestConsoleCancelLine(t *testing.T) {
	var out bytes.Buffer
	c := New(&out, false)
	c.Observe(session.Transition{From: fsm.StateRecording, To: fsm.StateIdle})
	require.Contains(t, out.String(), "Recording cancelled")
}

func TestSilentKeepsWarningsAndErrors(t *testing.T) {
	var out bytes.Buffer
	c := New(&out, true)

	c.Ready("turbo", "Shift_R")
	c.Info("hidden %d", 1)
	c.Observe(session.Transition{From: fsm.StateIdle, To: fsm.StateRecording})
	c.Stage(pipeline.Stage{Name: pipeline.StageTranscription, Text: "x", Ran: true})
	c.Warn("ollama unavailable at %s", "http://localhost:11434")
	c.Error("boom")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "Warning: ollama unavailable at http://localhost:11434")
	require.Contains(t, lines[1], "Error: boom")
}
