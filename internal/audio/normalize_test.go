package audio

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeEmptyBufferReturnsEmptyClip(t *testing.T) {
	clip := Normalize(nil, SampleRate)
	require.True(t, clip.Empty())
	require.Zero(t, clip.DurationSeconds())

	clip = Normalize(Buffer{{}, {}}, SampleRate)
	require.True(t, clip.Empty())
}

func TestNormalizeBoundsAndDuration(t *testing.T) {
	buf := Buffer{
		{math.MinInt16, -1, 0},
		{1, math.MaxInt16},
	}
	for i := 0; i < 40; i++ {
		chunk := make([]int16, 397)
		for j := range chunk {
			chunk[j] = int16((i*7919 + j*104729) % 65536)
		}
		buf = append(buf, chunk)
	}

	clip := Normalize(buf, SampleRate)
	require.Len(t, clip.Samples, buf.Samples())
	for _, s := range clip.Samples {
		require.GreaterOrEqual(t, s, float32(-1.0))
		require.LessOrEqual(t, s, float32(1.0))
	}
	require.Equal(t, float32(-1.0), clip.Samples[0])
	require.Equal(t, float32(0), clip.Samples[2])
	require.InDelta(t, float64(buf.Samples())/SampleRate, clip.DurationSeconds(), 1e-12)
}

func TestClipDuration(t *testing.T) {
	clip := Clip{Samples: make([]float32, 2*SampleRate), SampleRate: SampleRate}
	require.Equal(t, 2*time.Second, clip.Duration())
	require.Zero(t, Clip{Samples: []float32{1}}.DurationSeconds())
}
