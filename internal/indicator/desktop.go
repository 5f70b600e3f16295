package indicator

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	defaultApp   = "wisp-indicator"
	busctlBinary = "busctl"
)

// desktopSurface keeps a single freedesktop notification on screen,
// replacing it in place on every update.
type desktopSurface struct {
	appName string

	mu sync.Mutex
	id uint32
}

func (d *desktopSurface) notify(ctx context.Context, _ style, timeoutMS int, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	app := strings.TrimSpace(d.appName)
	if app == "" {
		app = defaultApp
	}

	// Notify(app_name, replaces_id, app_icon, summary, body, actions, hints, expire_timeout)
	out, err := busctl(ctx, "Notify", "susssasa{sv}i",
		app, strconv.FormatUint(uint64(d.id), 10), "", text, "", "0", "0", strconv.Itoa(timeoutMS))
	if err != nil {
		return err
	}
	id, err := parseNotificationID(out)
	if err != nil {
		return err
	}
	d.id = id
	return nil
}

func (d *desktopSurface) dismiss(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.id == 0 {
		return nil
	}
	id := d.id
	d.id = 0
	_, err := busctl(ctx, "CloseNotification", "u", strconv.FormatUint(uint64(id), 10))
	return err
}

// busctl calls one method on the session notification daemon.
func busctl(ctx context.Context, method string, signature string, args ...string) (string, error) {
	argv := append([]string{"--user", "call", notifyDest, notifyPath, notifyDest, method, signature}, args...)
	out, err := exec.CommandContext(ctx, busctlBinary, argv...).CombinedOutput()
	reply := strings.TrimSpace(string(out))
	if err != nil {
		if reply == "" {
			return "", fmt.Errorf("busctl %s: %w", method, err)
		}
		return "", fmt.Errorf("busctl %s: %w (%s)", method, err, reply)
	}
	return reply, nil
}

// parseNotificationID reads a busctl reply of the form "u 42".
func parseNotificationID(reply string) (uint32, error) {
	kind, value, ok := strings.Cut(reply, " ")
	if !ok || kind != "u" {
		return 0, fmt.Errorf("unexpected Notify reply %q", reply)
	}
	id, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse notification id %q: %w", value, err)
	}
	return uint32(id), nil
}
