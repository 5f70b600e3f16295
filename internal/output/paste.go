package output

import (
	"context"
	"fmt"
	"time"

	"github.com/rbright/wisp/internal/hypr"
)

// paste sets the clipboard through the configured command, then pastes it.
// A failed paste is logged; the clipboard still holds the text.
func (i *Injector) paste(ctx context.Context, text string) error {
	clipboardCtx, clipboardCancel := context.WithTimeout(ctx, 2*time.Second)
	defer clipboardCancel()
	if err := runCommandWithInput(clipboardCtx, i.cfg.Clipboard.Argv, text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	if len(i.cfg.PasteCmd.Argv) > 0 {
		pasteCtx, pasteCancel := context.WithTimeout(ctx, 2*time.Second)
		defer pasteCancel()
		if err := runCommandWithInput(pasteCtx, i.cfg.PasteCmd.Argv, ""); err != nil {
			i.logPasteFailure(err)
		}
		return nil
	}

	pasteCtx, pasteCancel := context.WithTimeout(ctx, 1200*time.Millisecond)
	defer pasteCancel()
	if err := shortcutPaste(pasteCtx, i.cfg.PasteShortcut); err != nil {
		i.logPasteFailure(err)
	}
	return nil
}

func (i *Injector) logPasteFailure(err error) {
	if i.logger == nil || err == nil {
		return
	}
	i.logger.Error("paste dispatch failed; clipboard remains set", "error", err.Error())
}

func shortcutPaste(ctx context.Context, keys string) error {
	window, err := hypr.WaitActiveWindow(ctx, 5, 10*time.Millisecond)
	if err != nil {
		return err
	}
	return hypr.SendShortcut(ctx, keys, window)
}
