package hypr

import (
	"context"
	"strconv"
	"time"
)

// Icon selects the glyph Hyprland draws beside a notification.
type Icon int

const (
	IconInfo  Icon = 1
	IconError Icon = 3
)

const defaultNotifyColor = "rgb(89b4fa)"

// Notification is one overlay message drawn by the compositor.
type Notification struct {
	Icon    Icon
	Timeout time.Duration
	// Color is a Hyprland color literal such as "rgb(f38ba8)".
	Color string
	Text  string
}

// Show draws n. Hyprland stacks notifications, so callers dismiss the
// previous one first when replacing it.
func (n Notification) Show(ctx context.Context) error {
	color := n.Color
	if color == "" {
		color = defaultNotifyColor
	}
	_, err := hyprctl(ctx,
		"--quiet", "dispatch", "notify",
		strconv.Itoa(int(n.Icon)),
		strconv.FormatInt(n.Timeout.Milliseconds(), 10),
		color,
		n.Text,
	)
	return err
}

// DismissNotifications clears every overlay notification.
func DismissNotifications(ctx context.Context) error {
	_, err := hyprctl(ctx, "--quiet", "dispatch", "dismissnotify")
	return err
}
