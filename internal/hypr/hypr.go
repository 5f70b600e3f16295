// Package hypr drives Hyprland through hyprctl: submaps, runtime binds,
// overlay notifications and targeted shortcuts.
package hypr

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Controller switches the active keybind submap.
type Controller interface {
	SetSubmap(ctx context.Context, name string) error
	ResetSubmap(ctx context.Context) error
}

// CLIController implements Controller with hyprctl dispatch.
type CLIController struct{}

func (CLIController) SetSubmap(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("submap name must not be empty")
	}
	_, err := hyprctl(ctx, "dispatch", "submap", name)
	return err
}

func (c CLIController) ResetSubmap(ctx context.Context) error {
	return c.SetSubmap(ctx, "reset")
}

// Batch runs several hyprctl commands in one invocation.
func Batch(ctx context.Context, commands ...string) error {
	if len(commands) == 0 {
		return nil
	}
	_, err := hyprctl(ctx, "--batch", strings.Join(commands, " ; "))
	return err
}

// hyprctl runs one hyprctl invocation and returns stdout. Failures carry the
// combined output since hyprctl reports most errors on stdout.
func hyprctl(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "hyprctl", args...).CombinedOutput()
	if err == nil {
		return out, nil
	}
	if detail := strings.TrimSpace(string(out)); detail != "" {
		return nil, fmt.Errorf("hyprctl %s: %w (%s)", strings.Join(args, " "), err, detail)
	}
	return nil, fmt.Errorf("hyprctl %s: %w", strings.Join(args, " "), err)
}
