// Package hotkey turns key presses into toggle and cancel requests.
package hotkey

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rbright/wisp/internal/config"
)

// Kind identifies the requested action.
type Kind int

const (
	Toggle Kind = iota + 1
	Cancel
)

func (k Kind) String() string {
	switch k {
	case Toggle:
		return "toggle"
	case Cancel:
		return "cancel"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is one key press.
type Event struct {
	Kind Kind
}

// Source delivers events on out until ctx ends. Sources that route presses
// through another channel (such as IPC) may never send.
type Source interface {
	Run(ctx context.Context, out chan<- Event) error
}

// New builds the source selected by cfg.Backend. exe is the wisp binary
// that compositor binds should invoke.
func New(cfg config.HotkeyConfig, exe string, logger *slog.Logger) (Source, error) {
	switch cfg.Backend {
	case "hypr":
		return NewHypr(cfg, exe, logger)
	case "stdin":
		return NewStdin(nil), nil
	case "none":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unsupported hotkey backend %q", cfg.Backend)
	}
}

// None waits for ctx; presses arrive only through IPC.
type None struct{}

func (None) Run(ctx context.Context, _ chan<- Event) error {
	<-ctx.Done()
	return nil
}
