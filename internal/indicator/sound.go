package indicator

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"

	"github.com/rbright/wisp/internal/audio"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueComplete
	cueCancel
)

const (
	cueVolume = 0.2
	cueGap    = 25 * time.Millisecond
	cueFade   = 6 * time.Millisecond
)

// note is one sine tone inside a cue.
type note struct {
	hz  float64
	dur time.Duration
}

// cueScores: rising pair to start, single low tone to stop, bright pair on
// success, falling pair on cancel.
var cueScores = map[cueKind][]note{
	cueStart:    {{hz: 784, dur: 60 * time.Millisecond}, {hz: 1047, dur: 80 * time.Millisecond}},
	cueStop:     {{hz: 587, dur: 110 * time.Millisecond}},
	cueComplete: {{hz: 880, dur: 55 * time.Millisecond}, {hz: 1319, dur: 85 * time.Millisecond}},
	cueCancel:   {{hz: 523, dur: 70 * time.Millisecond}, {hz: 392, dur: 95 * time.Millisecond}},
}

var (
	renderOnce sync.Once
	rendered   map[cueKind][]int16
)

// cueSamples returns the rendered PCM for kind, or nil for unknown kinds.
func cueSamples(kind cueKind) []int16 {
	renderOnce.Do(func() {
		rendered = make(map[cueKind][]int16, len(cueScores))
		for k, score := range cueScores {
			rendered[k] = render(score)
		}
	})
	return rendered[kind]
}

// emitCue plays the tone for kind through the pulse server.
func emitCue(ctx context.Context, kind cueKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	samples := cueSamples(kind)
	if len(samples) == 0 {
		return nil
	}
	return play(ctx, samples)
}

func play(ctx context.Context, samples []int16) error {
	client, err := audio.NewPulseClient()
	if err != nil {
		return err
	}
	defer client.Close()

	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		n := copy(buf, samples[pos:])
		pos += n
		if pos >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(audio.SampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("wisp cue"),
	)
	if err != nil {
		return fmt.Errorf("open cue playback: %w", err)
	}
	defer stream.Close()

	if err := ctx.Err(); err != nil {
		return err
	}
	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue: %w", err)
	}
	return nil
}

// render concatenates the notes of score with a short silence between them.
func render(score []note) []int16 {
	gap := make([]int16, sampleCount(cueGap))
	var pcm []int16
	for i, n := range score {
		if i > 0 {
			pcm = append(pcm, gap...)
		}
		pcm = append(pcm, tone(n, cueVolume)...)
	}
	return pcm
}

// tone renders one note with a raised-cosine fade at both ends so it starts
// and stops without clicks.
func tone(n note, volume float64) []int16 {
	count := sampleCount(n.dur)
	if count <= 0 || n.hz <= 0 || volume <= 0 {
		return nil
	}
	fade := min(sampleCount(cueFade), count/2)

	pcm := make([]int16, count)
	for i := range pcm {
		gain := volume
		if edge := min(i, count-1-i); edge < fade {
			gain *= 0.5 - 0.5*math.Cos(math.Pi*float64(edge)/float64(fade))
		}
		phase := 2 * math.Pi * n.hz * float64(i) / audio.SampleRate
		pcm[i] = int16(math.Round(math.Sin(phase) * gain * math.MaxInt16))
	}
	return pcm
}

func sampleCount(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * audio.SampleRate))
}
