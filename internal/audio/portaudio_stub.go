//go:build !portaudio

package audio

import (
	"context"
	"errors"
)

// ErrPortAudioUnavailable is returned when the binary was built without the
// portaudio tag.
var ErrPortAudioUnavailable = errors.New("portaudio backend not compiled in (rebuild with -tags portaudio)")

// PortAudioSource is the placeholder used in pure-Go builds.
type PortAudioSource struct{}

// NewPortAudioSource returns a source whose Start always fails.
func NewPortAudioSource(int) *PortAudioSource {
	return &PortAudioSource{}
}

// Name identifies the backend in logs.
func (s *PortAudioSource) Name() string {
	return "portaudio"
}

// Start reports that the backend is unavailable.
func (s *PortAudioSource) Start(context.Context, SampleFunc) error {
	return ErrPortAudioUnavailable
}

// Stop is a no-op.
func (s *PortAudioSource) Stop() error {
	return nil
}
