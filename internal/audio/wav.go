package audio

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeWAV writes clip as 16-bit PCM mono WAV.
func EncodeWAV(w io.WriteSeeker, clip Clip) error {
	rate := clip.SampleRate
	if rate <= 0 {
		rate = SampleRate
	}

	data := make([]int, len(clip.Samples))
	for i, s := range clip.Samples {
		data[i] = denormalize(s)
	}

	enc := wav.NewEncoder(w, rate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// WriteTempWAV encodes clip into a new temp file and returns its path.
// The caller removes the file.
func WriteTempWAV(dir string, clip Clip) (string, error) {
	f, err := os.CreateTemp(dir, "wisp-*.wav")
	if err != nil {
		return "", fmt.Errorf("create temp wav: %w", err)
	}
	path := f.Name()

	if err := EncodeWAV(f, clip); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close temp wav: %w", err)
	}
	return path, nil
}

func denormalize(s float32) int {
	v := math.Round(float64(s) * 32768.0)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int(v)
}
