package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// SampleRate is the fixed capture rate in Hz; capture is always mono.
const SampleRate = 16000

// SampleFunc receives one chunk of mono s16 samples from a Source callback.
// The slice may be reused by the caller after return.
type SampleFunc func([]int16)

// Source is a continuously running background input stream.
type Source interface {
	Name() string
	Start(context.Context, SampleFunc) error
	Stop() error
}

// Buffer is the insertion-ordered list of chunks captured while armed.
type Buffer [][]int16

// Samples returns the total sample count across chunks.
func (b Buffer) Samples() int {
	n := 0
	for _, chunk := range b {
		n += len(chunk)
	}
	return n
}

// Recorder owns the capture buffer and the armed/disarmed hand-off.
//
// The source callback appends only while armed, under mu. Once Disarm returns
// the handed-off buffer is never touched again by the recorder.
type Recorder struct {
	source Source
	logger *slog.Logger

	mu      sync.Mutex
	armed   bool
	buf     Buffer
	running bool
}

// NewRecorder wraps a source with arm/disarm buffering.
func NewRecorder(source Source, logger *slog.Logger) *Recorder {
	return &Recorder{source: source, logger: logger}
}

// Start opens the background stream. Failure here is a startup error.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	if err := r.source.Start(ctx, r.append); err != nil {
		return fmt.Errorf("start %s capture: %w", r.source.Name(), err)
	}

	r.mu.Lock()
	r.running = true
	r.mu.Unlock()
	if r.logger != nil {
		r.logger.Info("audio stream started", "backend", r.source.Name(), "sample_rate", SampleRate)
	}
	return nil
}

// Arm clears the previous buffer and starts accepting samples.
// It reports false when the recorder was already armed.
func (r *Recorder) Arm() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.armed {
		return false
	}
	r.buf = nil
	r.armed = true
	return true
}

// Disarm stops accepting samples and hands off the accumulated buffer.
func (r *Recorder) Disarm() Buffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.armed = false
	buf := r.buf
	r.buf = nil
	return buf
}

// Discard disarms and drops everything captured.
func (r *Recorder) Discard() {
	_ = r.Disarm()
}

// Armed reports whether samples are currently being accepted.
func (r *Recorder) Armed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.armed
}

// Stop tears down the background stream. Safe to call repeatedly.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	r.armed = false
	r.buf = nil
	wasRunning := r.running
	r.running = false
	r.mu.Unlock()

	if !wasRunning {
		return nil
	}
	if err := r.source.Stop(); err != nil {
		return fmt.Errorf("stop %s capture: %w", r.source.Name(), err)
	}
	return nil
}

// append is the source callback; it copies because sources reuse their slices.
func (r *Recorder) append(samples []int16) {
	if len(samples) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.armed {
		return
	}
	chunk := make([]int16, len(samples))
	copy(chunk, samples)
	r.buf = append(r.buf, chunk)
}
