package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rbright/wisp/internal/audio"
	"github.com/rbright/wisp/internal/logging"
)

// DebugAudioDumper returns a Runner.Dump hook that writes each clip as a WAV
// under $XDG_STATE_HOME/wisp/debug. Failures are logged and ignored.
func DebugAudioDumper(logger *slog.Logger) func(audio.Clip) {
	return func(clip audio.Clip) {
		file, err := createDebugFile("audio", "wav")
		if err != nil {
			logWarn(logger, "unable to create debug audio dump", err)
			return
		}
		defer file.Close()

		if err := audio.EncodeWAV(file, clip); err != nil {
			logWarn(logger, "unable to write debug audio dump", err)
			return
		}
		if logger != nil {
			logger.Debug("debug audio dump written", "path", file.Name())
		}
	}
}

// createDebugFile creates a timestamped artifact under the state debug dir.
func createDebugFile(prefix string, extension string) (*os.File, error) {
	stateDir, err := logging.StateDir()
	if err != nil {
		return nil, fmt.Errorf("resolve state dir: %w", err)
	}
	debugDir := filepath.Join(stateDir, "debug")
	if err := os.MkdirAll(debugDir, 0o700); err != nil {
		return nil, fmt.Errorf("create debug dir: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405.000")
	path := filepath.Join(debugDir, fmt.Sprintf("%s-%s.%s", prefix, timestamp, extension))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open debug file %q: %w", path, err)
	}
	return file, nil
}

func logWarn(logger *slog.Logger, msg string, err error) {
	if logger == nil {
		return
	}
	logger.Warn(msg, "error", err.Error())
}
