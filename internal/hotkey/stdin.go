package hotkey

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
)

// Stdin reads terminal lines: an empty line toggles and "c" cancels.
type Stdin struct {
	in io.Reader
}

// NewStdin reads from in, or os.Stdin when in is nil.
func NewStdin(in io.Reader) *Stdin {
	if in == nil {
		in = os.Stdin
	}
	return &Stdin{in: in}
}

// Run returns when ctx ends or input reaches EOF. A blocked read on a
// terminal outlives ctx; its goroutine exits with the process.
func (s *Stdin) Run(ctx context.Context, out chan<- Event) error {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			return err
		case line := <-lines:
			kind, ok := parseLine(line)
			if !ok {
				continue
			}
			select {
			case out <- Event{Kind: kind}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func parseLine(line string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "t", "toggle":
		return Toggle, true
	case "c", "cancel":
		return Cancel, true
	default:
		return 0, false
	}
}
