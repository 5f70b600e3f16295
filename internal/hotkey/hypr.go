package hotkey

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/wisp/internal/config"
	"github.com/rbright/wisp/internal/fsm"
	"github.com/rbright/wisp/internal/hypr"
	"github.com/rbright/wisp/internal/session"
)

// SubmapName is the Hyprland submap active while recording; it holds the cancel bind.
const SubmapName = "wisp"

// Hypr registers compositor binds that exec `wisp toggle` and `wisp cancel`.
// Presses reach the daemon through IPC, so Run never sends.
type Hypr struct {
	keymap hypr.Keymap
	logger *slog.Logger
}

// NewHypr validates the configured keys and prepares the keymap.
func NewHypr(cfg config.HotkeyConfig, exe string, logger *slog.Logger) (*Hypr, error) {
	toggleMods, toggleKey, err := hypr.ParseKey(cfg.Toggle)
	if err != nil {
		return nil, fmt.Errorf("hotkey.toggle: %w", err)
	}
	cancelMods, cancelKey, err := hypr.ParseKey(cfg.Cancel)
	if err != nil {
		return nil, fmt.Errorf("hotkey.cancel: %w", err)
	}

	exe = shellQuote(exe)
	toggle := hypr.Bind{Mods: toggleMods, Key: toggleKey, Command: exe + " toggle"}
	cancel := hypr.Bind{Mods: cancelMods, Key: cancelKey, Command: exe + " cancel"}
	return &Hypr{
		keymap: hypr.Keymap{
			Global: []hypr.Bind{toggle},
			Submap: SubmapName,
			Local:  []hypr.Bind{toggle, cancel},
		},
		logger: logger,
	}, nil
}

// Run installs the binds, waits for ctx, then removes them.
func (h *Hypr) Run(ctx context.Context, _ chan<- Event) error {
	installCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	err := h.keymap.Install(installCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("install hyprland binds: %w", err)
	}
	if h.logger != nil {
		h.logger.Info("hyprland binds installed", "submap", SubmapName)
	}

	<-ctx.Done()

	cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cleanupCancel()
	if err := h.keymap.Remove(cleanupCtx); err != nil && h.logger != nil {
		h.logger.Warn("remove hyprland binds failed", "error", err.Error())
	}
	return nil
}

// SubmapObserver enters the recording submap when recording starts and
// resets it when recording ends, so the cancel key is live only while recording.
type SubmapObserver struct {
	Controller hypr.Controller
	Logger     *slog.Logger
}

func (o SubmapObserver) Observe(t session.Transition) {
	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()

	var err error
	switch {
	case t.To == fsm.StateRecording:
		err = o.Controller.SetSubmap(ctx, SubmapName)
	case t.From == fsm.StateRecording:
		err = o.Controller.ResetSubmap(ctx)
	default:
		return
	}
	if err != nil && o.Logger != nil {
		o.Logger.Warn("hyprland submap switch failed", "error", err.Error())
	}
}

// shellQuote quotes paths with spaces for the exec dispatcher.
func shellQuote(s string) string {
	if !strings.ContainsAny(s, " \t'\"") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
