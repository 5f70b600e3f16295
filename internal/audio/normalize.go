package audio

import "time"

// Clip is an immutable normalized mono waveform.
type Clip struct {
	Samples    []float32
	SampleRate int
}

// Empty reports whether the clip carries no audio.
func (c Clip) Empty() bool {
	return len(c.Samples) == 0
}

// DurationSeconds is len(Samples)/SampleRate.
func (c Clip) DurationSeconds() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// Duration is DurationSeconds as a time.Duration.
func (c Clip) Duration() time.Duration {
	return time.Duration(c.DurationSeconds() * float64(time.Second))
}

// Normalize flattens buf into float samples in [-1, 1] by dividing by 32768.
// An empty buffer yields an empty clip, never an error.
func Normalize(buf Buffer, sampleRate int) Clip {
	total := buf.Samples()
	if total == 0 {
		return Clip{SampleRate: sampleRate}
	}

	samples := make([]float32, 0, total)
	for _, chunk := range buf {
		for _, s := range chunk {
			samples = append(samples, float32(s)/32768.0)
		}
	}
	return Clip{Samples: samples, SampleRate: sampleRate}
}
