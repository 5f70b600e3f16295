// Package output delivers final text into the focused window.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/rbright/wisp/internal/config"
)

// Injector writes text into the focused application through one backend.
type Injector struct {
	cfg    config.OutputConfig
	logger *slog.Logger

	deliver func(ctx context.Context, text string) error
}

// New builds the injector selected by cfg.Backend.
func New(cfg config.OutputConfig, logger *slog.Logger) (*Injector, error) {
	inj := &Injector{cfg: cfg, logger: logger}
	switch cfg.Backend {
	case "paste":
		inj.deliver = inj.paste
	case "clipboard":
		inj.deliver = newSystemClipboard(logger).inject
	case "type":
		inj.deliver = inj.typeText
	default:
		return nil, fmt.Errorf("unsupported output backend %q", cfg.Backend)
	}
	return inj, nil
}

// Inject delivers text, appending a trailing space when configured.
// Empty text is a no-op.
func (i *Injector) Inject(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if i.cfg.TrailingSpace {
		text += " "
	}
	return i.deliver(ctx, text)
}

// typeText pipes text to a keystroke typing tool such as wtype.
func (i *Injector) typeText(ctx context.Context, text string) error {
	typeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := runCommandWithInput(typeCtx, i.cfg.TypeCmd.Argv, text); err != nil {
		return fmt.Errorf("type text: %w", err)
	}
	return nil
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}
