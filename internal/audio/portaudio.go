//go:build portaudio

package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioSource streams samples from the system default input device.
// It links libportaudio through cgo, so it is only built with -tags portaudio.
type PortAudioSource struct {
	framesPerBuffer int

	mu      sync.Mutex
	stream  *portaudio.Stream
	started bool
}

// NewPortAudioSource creates a default-device source; framesPerBuffer <= 0 uses 1024.
func NewPortAudioSource(framesPerBuffer int) *PortAudioSource {
	if framesPerBuffer <= 0 {
		framesPerBuffer = 1024
	}
	return &PortAudioSource{framesPerBuffer: framesPerBuffer}
}

// Name identifies the backend in logs.
func (s *PortAudioSource) Name() string {
	return "portaudio"
}

// Start initializes PortAudio and opens a mono 16kHz input stream.
func (s *PortAudioSource) Start(_ context.Context, onSamples SampleFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("portaudio source already started")
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init failed: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(SampleRate), s.framesPerBuffer, func(in []int16) {
		onSamples(in)
	})
	if err != nil {
		_ = portaudio.Terminate()
		return fmt.Errorf("open default input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return fmt.Errorf("start input stream: %w", err)
	}

	s.stream = stream
	s.started = true
	return nil
}

// Stop closes the stream and terminates PortAudio. Safe to call repeatedly.
func (s *PortAudioSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false

	var firstErr error
	if err := s.stream.Stop(); err != nil {
		firstErr = fmt.Errorf("stop input stream: %w", err)
	}
	if err := s.stream.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close input stream: %w", err)
	}
	if err := portaudio.Terminate(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("portaudio terminate: %w", err)
	}
	s.stream = nil
	return firstErr
}
