// Package indicator shows dictation state on screen and plays audio cues.
package indicator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/wisp/internal/config"
)

// surface is one notification backend.
type surface interface {
	notify(ctx context.Context, style style, timeoutMS int, text string) error
	dismiss(ctx context.Context) error
}

type style int

const (
	styleRecording style = iota + 1
	styleRecordingDim
	styleTranscribing
	styleError
)

const persistentTimeoutMS = 300000

// Notifier drives the configured notification surface and cue playback.
// Recording state flashes through a Flasher until the next state change.
type Notifier struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages
	surface  surface
	flasher  *Flasher

	cue     func(context.Context, cueKind) error
	soundMu sync.Mutex
}

// New builds a notifier for cfg.Backend.
func New(cfg config.IndicatorConfig, logger *slog.Logger) (*Notifier, error) {
	var s surface
	interval := time.Duration(cfg.FlashIntervalMS) * time.Millisecond
	switch cfg.Backend {
	case "hypr":
		s = hyprSurface{}
	case "desktop":
		s = &desktopSurface{appName: cfg.DesktopAppName}
	case "beeep":
		s = beeepSurface{}
		// Popups cannot be replaced in place, so flashing would stack them.
		interval = 0
	default:
		return nil, fmt.Errorf("unsupported indicator backend %q", cfg.Backend)
	}

	n := &Notifier{
		cfg:      cfg,
		logger:   logger,
		messages: messagesFromEnv(),
		surface:  s,
		cue:      emitCue,
	}
	n.flasher = NewFlasher(interval, n.recordingFrame)
	return n, nil
}

// ShowRecording plays the start cue and begins the flashing recording badge.
func (n *Notifier) ShowRecording(ctx context.Context) {
	n.playCue(cueStart)
	if !n.cfg.Enable {
		return
	}
	n.flasher.Start(ctx)
}

// ShowTranscribing replaces the recording badge with the transcribing notice.
func (n *Notifier) ShowTranscribing(ctx context.Context) {
	if !n.cfg.Enable {
		return
	}
	n.flasher.Stop()
	n.run(ctx, func(ctx context.Context) error {
		if err := n.surface.dismiss(ctx); err != nil {
			return err
		}
		return n.surface.notify(ctx, styleTranscribing, persistentTimeoutMS, n.messages.processing)
	})
}

// ShowError displays a short-lived error notice.
func (n *Notifier) ShowError(ctx context.Context, text string) {
	if !n.cfg.Enable {
		return
	}
	n.flasher.Stop()
	if text == "" {
		text = n.messages.errorText
	}
	timeout := n.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 1200
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.surface.notify(ctx, styleError, timeout, text)
	})
}

// CueStop plays the stop cue.
func (n *Notifier) CueStop(context.Context) { n.playCue(cueStop) }

// CueComplete plays the success cue.
func (n *Notifier) CueComplete(context.Context) { n.playCue(cueComplete) }

// CueCancel plays the cancel cue.
func (n *Notifier) CueCancel(context.Context) { n.playCue(cueCancel) }

// Hide stops flashing and dismisses the notice.
func (n *Notifier) Hide(ctx context.Context) {
	if !n.cfg.Enable {
		return
	}
	n.flasher.Stop()
	n.run(ctx, n.surface.dismiss)
}

// recordingFrame draws frame i of the recording badge; odd frames are dimmed.
func (n *Notifier) recordingFrame(ctx context.Context, i int) {
	n.run(ctx, func(ctx context.Context) error {
		if i > 0 {
			if err := n.surface.dismiss(ctx); err != nil {
				return err
			}
		}
		if i%2 == 1 {
			return n.surface.notify(ctx, styleRecordingDim, persistentTimeoutMS, "○ "+n.messages.recording)
		}
		return n.surface.notify(ctx, styleRecording, persistentTimeoutMS, "● "+n.messages.recording)
	})
}

// run executes one surface operation with a bounded timeout.
func (n *Notifier) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.log("indicator dispatch failed", err)
	}
}

// playCue plays asynchronously; cues never overlap.
func (n *Notifier) playCue(kind cueKind) {
	if !n.cfg.SoundEnable {
		return
	}
	go func() {
		n.soundMu.Lock()
		defer n.soundMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := n.cue(ctx, kind); err != nil {
			n.log("indicator audio cue failed", err)
		}
	}()
}

func (n *Notifier) log(message string, err error) {
	if n.logger == nil || err == nil {
		return
	}
	n.logger.Debug(message, "error", err.Error())
}
