package indicator

import (
	"context"
	"sync"
	"time"
)

// Flasher redraws a frame on a fixed interval until stopped.
//
// Frame 0 is drawn synchronously by Start. With a zero interval only frame 0
// is drawn.
type Flasher struct {
	interval time.Duration
	frame    func(ctx context.Context, i int)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewFlasher returns a stopped flasher.
func NewFlasher(interval time.Duration, frame func(ctx context.Context, i int)) *Flasher {
	return &Flasher{interval: interval, frame: frame}
}

// Start draws the first frame and begins ticking. A running flasher is restarted.
func (f *Flasher) Start(ctx context.Context) {
	f.Stop()
	f.frame(ctx, 0)
	if f.interval <= 0 {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	f.mu.Lock()
	f.cancel = cancel
	f.done = done
	f.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()
		for i := 1; ; i++ {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				f.frame(loopCtx, i)
			}
		}
	}()
}

// Stop halts ticking and waits for an in-flight frame to finish.
func (f *Flasher) Stop() {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel, f.done = nil, nil
	f.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the ticker goroutine is active.
func (f *Flasher) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancel != nil
}
