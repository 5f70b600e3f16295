// Package console prints user-facing status lines to the terminal.
package console

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rbright/wisp/internal/fsm"
	"github.com/rbright/wisp/internal/pipeline"
	"github.com/rbright/wisp/internal/session"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF"))
	recStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF0000"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFF00"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF0000"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// Console writes status lines. Silent mode keeps only warnings and errors.
type Console struct {
	out    io.Writer
	silent bool

	mu sync.Mutex
}

// New returns a console writing to out.
func New(out io.Writer, silent bool) *Console {
	return &Console{out: out, silent: silent}
}

// Ready announces that the daemon accepts hotkeys.
func (c *Console) Ready(model string, toggleKey string) {
	c.info(labelStyle.Render("Ready") + dimStyle.Render(fmt.Sprintf(" model=%s; press %s to dictate", model, toggleKey)))
}

// Info prints an informational line.
func (c *Console) Info(format string, args ...any) {
	c.info(fmt.Sprintf(format, args...))
}

// Warn always prints.
func (c *Console) Warn(format string, args ...any) {
	c.println(warnStyle.Render("Warning:") + " " + fmt.Sprintf(format, args...))
}

// Error always prints.
func (c *Console) Error(format string, args ...any) {
	c.println(errorStyle.Render("Error:") + " " + fmt.Sprintf(format, args...))
}

// Observe prints recording lifecycle lines.
func (c *Console) Observe(t session.Transition) {
	switch {
	case t.To == fsm.StateRecording:
		c.info(recStyle.Render("● Recording"))
	case t.From == fsm.StateRecording && t.To == fsm.StateIdle:
		c.info(dimStyle.Render("Recording cancelled"))
	case t.From == fsm.StateRecording && t.To == fsm.StateTranscribing:
		c.info(dimStyle.Render("Transcribing..."))
	}
}

// Stage prints a completed pipeline stage with its text and timing.
func (c *Console) Stage(s pipeline.Stage) {
	if !s.Ran {
		return
	}
	var label string
	switch s.Name {
	case pipeline.StageTranscription:
		label = "Transcription"
	case pipeline.StageEnhancement:
		label = "Enhanced"
	case pipeline.StageCorrection:
		label = "Post-processed"
	default:
		label = string(s.Name)
	}
	c.info(fmt.Sprintf("%s %s %s",
		labelStyle.Render(label+":"),
		s.Text,
		dimStyle.Render("("+s.Elapsed.Round(time.Millisecond).String()+")"),
	))
}

func (c *Console) info(line string) {
	if c.silent {
		return
	}
	c.println(line)
}

func (c *Console) println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, line)
}
