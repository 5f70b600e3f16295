package hypr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Window identifies the focused client a paste is aimed at.
type Window struct {
	Address string `json:"address"`
	Class   string `json:"class"`
}

// ActiveWindow returns the focused window as reported by hyprctl -j.
func ActiveWindow(ctx context.Context) (Window, error) {
	out, err := hyprctl(ctx, "-j", "activewindow")
	if err != nil {
		return Window{}, err
	}

	var w Window
	if err := json.Unmarshal(out, &w); err != nil {
		return Window{}, fmt.Errorf("decode hyprctl activewindow json: %w", err)
	}
	w.Address = strings.TrimSpace(w.Address)
	w.Class = strings.TrimSpace(w.Class)
	if w.Address == "" {
		return Window{}, errors.New("hyprctl activewindow returned empty address")
	}
	return w, nil
}

// WaitActiveWindow polls ActiveWindow up to attempts times. Focus is briefly
// empty while Hyprland switches workspaces.
func WaitActiveWindow(ctx context.Context, attempts int, delay time.Duration) (Window, error) {
	var lastErr error
	for n := 0; n < max(attempts, 1); n++ {
		if n > 0 {
			select {
			case <-ctx.Done():
				return Window{}, ctx.Err()
			case <-time.After(delay):
			}
		}
		w, err := ActiveWindow(ctx)
		if err == nil {
			return w, nil
		}
		lastErr = err
	}
	return Window{}, fmt.Errorf("resolve active window: %w", lastErr)
}

// ShortcutPayload renders a sendshortcut argument pinned to w, so a focus
// change during dispatch cannot redirect the keys.
func (w Window) ShortcutPayload(keys string) (string, error) {
	keys = strings.TrimSpace(keys)
	if keys == "" {
		return "", errors.New("paste shortcut cannot be empty")
	}
	address := strings.TrimSpace(w.Address)
	if address == "" {
		return "", errors.New("active window address is required")
	}
	return keys + ",address:" + address, nil
}

// SendShortcut presses keys (e.g. "CTRL,V") inside w.
func SendShortcut(ctx context.Context, keys string, w Window) error {
	payload, err := w.ShortcutPayload(keys)
	if err != nil {
		return err
	}
	_, err = hyprctl(ctx, "--quiet", "dispatch", "sendshortcut", payload)
	return err
}
