// Package asr turns normalized clips into text through a speech-to-text engine.
package asr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/rbright/wisp/internal/audio"
	"github.com/rbright/wisp/internal/config"
)

var (
	// ErrOutOfMemory reports that the engine ran out of device memory for one clip.
	// The cycle is aborted; the engine stays usable.
	ErrOutOfMemory = errors.New("speech model ran out of memory")
	// ErrModelLoad reports that the model could not be loaded on any device.
	ErrModelLoad = errors.New("unable to load speech model")
)

// Transcriber converts one clip into text. Empty text is a valid result.
type Transcriber interface {
	Transcribe(ctx context.Context, clip audio.Clip) (string, error)
}

// Engine is a Transcriber that must be loaded before first use.
type Engine interface {
	Transcriber
	Name() string
	Model() string
	Load(ctx context.Context) error
}

// ModelAliases lists the whisper model names accepted by --model.
var ModelAliases = []string{
	"tiny", "tiny.en", "base", "base.en", "small", "small.en",
	"medium", "medium.en", "large-v1", "large-v2", "large-v3", "large", "turbo",
}

// New builds the engine selected by cfg.ASR.Backend.
func New(cfg config.ASRConfig, logger *slog.Logger) (Engine, error) {
	switch cfg.Backend {
	case "whisper-cpp":
		return NewWhisperCPP(cfg, logger), nil
	case "http":
		return NewHTTP(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported asr backend %q", cfg.Backend)
	}
}

// ResolveModelPath maps a model alias to a ggml file inside modelDir.
// Values that already look like paths are only ~-expanded.
func ResolveModelPath(model string, modelDir string) string {
	model = strings.TrimSpace(model)
	if strings.ContainsRune(model, filepath.Separator) || strings.HasSuffix(model, ".bin") {
		return config.ExpandUserPath(model)
	}

	name := model
	switch model {
	case "turbo":
		name = "large-v3-turbo"
	case "large":
		name = "large-v3"
	}
	return filepath.Join(config.ExpandUserPath(modelDir), "ggml-"+name+".bin")
}

var outOfMemoryMarkers = []string{
	"out of memory",
	"failed to allocate",
	"erroroutofdevicememory",
	"cudaerrormemoryallocation",
}

// IsOutOfMemory reports whether err is a recoverable out-of-memory failure.
func IsOutOfMemory(err error) bool {
	return errors.Is(err, ErrOutOfMemory)
}

// IsOutOfMemoryOutput reports whether engine output describes a device allocation failure.
func IsOutOfMemoryOutput(output string) bool {
	lower := strings.ToLower(output)
	for _, marker := range outOfMemoryMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func outOfMemoryLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if IsOutOfMemoryOutput(line) {
			return strings.TrimSpace(line)
		}
	}
	return lastLine(output)
}
