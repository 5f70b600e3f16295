package output

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

// keyboard sends the paste chord to the focused window.
type keyboard interface {
	PressPaste() error
}

// systemClipboard writes through the OS clipboard, presses Ctrl+V and
// restores what the user had copied before.
type systemClipboard struct {
	read    func() (string, error)
	write   func(string) error
	keys    keyboard
	settle  time.Duration
	restore time.Duration
	logger  *slog.Logger
}

func newSystemClipboard(logger *slog.Logger) *systemClipboard {
	return &systemClipboard{
		read:    clipboard.ReadAll,
		write:   clipboard.WriteAll,
		keys:    &uinputKeyboard{},
		settle:  80 * time.Millisecond,
		restore: 120 * time.Millisecond,
		logger:  logger,
	}
}

func (c *systemClipboard) inject(ctx context.Context, text string) error {
	previous, readErr := c.read()
	if err := c.write(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	if err := sleepCtx(ctx, c.settle); err != nil {
		return err
	}

	if err := c.keys.PressPaste(); err != nil {
		return fmt.Errorf("press paste: %w", err)
	}
	if readErr != nil {
		return nil
	}

	if err := sleepCtx(ctx, c.restore); err != nil {
		return nil
	}
	if err := c.write(previous); err != nil && c.logger != nil {
		c.logger.Warn("restore clipboard failed", "error", err.Error())
	}
	return nil
}

// uinputKeyboard creates its virtual device on first use; the kernel needs a
// moment before a fresh uinput device accepts events.
type uinputKeyboard struct {
	once sync.Once
	kb   keybd_event.KeyBonding
	err  error
}

func (k *uinputKeyboard) PressPaste() error {
	k.once.Do(func() {
		k.kb, k.err = keybd_event.NewKeyBonding()
		if k.err == nil {
			time.Sleep(2 * time.Second)
		}
	})
	if k.err != nil {
		return fmt.Errorf("create virtual keyboard: %w", k.err)
	}

	k.kb.Clear()
	k.kb.HasCTRL(true)
	k.kb.SetKeys(keybd_event.VK_V)
	return k.kb.Launching()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
