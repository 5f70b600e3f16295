package indicator

import (
	"context"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/rbright/wisp/internal/hypr"
)

var hyprColors = map[style]string{
	styleRecording:    "rgb(f38ba8)",
	styleRecordingDim: "rgb(6c7086)",
	styleTranscribing: "rgb(cba6f7)",
	styleError:        "rgb(f38ba8)",
}

// hyprSurface uses Hyprland's built-in notification overlay.
type hyprSurface struct{}

func (hyprSurface) notify(ctx context.Context, s style, timeoutMS int, text string) error {
	n := hypr.Notification{
		Icon:    hypr.IconInfo,
		Timeout: time.Duration(timeoutMS) * time.Millisecond,
		Color:   hyprColors[s],
		Text:    text,
	}
	if s == styleError {
		n.Icon = hypr.IconError
	}
	return n.Show(ctx)
}

func (hyprSurface) dismiss(ctx context.Context) error {
	return hypr.DismissNotifications(ctx)
}

// beeepSurface raises plain popups. They expire on their own.
type beeepSurface struct{}

var beeepNotify = beeep.Notify

func (beeepSurface) notify(_ context.Context, _ style, _ int, text string) error {
	return beeepNotify("wisp", text, "")
}

func (beeepSurface) dismiss(context.Context) error { return nil }
