//go:build integration

package audio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Requires a running Pulse or PipeWire server with at least one input.
func TestPulseCaptureIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	devices, err := ListDevices(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, devices)

	source := NewPulseSource("default", "default", nil)
	recorder := NewRecorder(source, nil)
	require.NoError(t, recorder.Start(ctx))
	defer func() { require.NoError(t, recorder.Stop()) }()
	require.NotEmpty(t, source.Device().ID)

	require.True(t, recorder.Arm())
	time.Sleep(300 * time.Millisecond)
	clip := Normalize(recorder.Disarm(), SampleRate)

	require.False(t, clip.Empty())
	require.InDelta(t, 0.3, clip.DurationSeconds(), 0.2)
}
