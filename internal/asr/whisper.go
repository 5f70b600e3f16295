package asr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/rbright/wisp/internal/audio"
	"github.com/rbright/wisp/internal/config"
	"github.com/rbright/wisp/internal/transcript"
)

var timestampPrefix = regexp.MustCompile(`^\[[0-9:.]+\s*-->\s*[0-9:.]+\]\s*`)

// WhisperCPP runs the whisper.cpp CLI once per clip.
//
// GPU is preferred. A failed GPU load or an out-of-memory run switches all
// later runs to CPU.
type WhisperCPP struct {
	binary    string
	model     string
	modelPath string
	language  string
	threads   int
	tempDir   string
	logger    *slog.Logger

	mu  sync.Mutex
	gpu bool
}

// NewWhisperCPP builds the exec backend from config.
func NewWhisperCPP(cfg config.ASRConfig, logger *slog.Logger) *WhisperCPP {
	return &WhisperCPP{
		binary:    cfg.Binary,
		model:     cfg.Model,
		modelPath: ResolveModelPath(cfg.Model, cfg.ModelDir),
		language:  cfg.Language,
		threads:   cfg.Threads,
		logger:    logger,
		gpu:       cfg.GPU,
	}
}

// Name identifies the backend.
func (w *WhisperCPP) Name() string { return "whisper-cpp" }

// Model returns the configured model name for logs and the performance CSV.
func (w *WhisperCPP) Model() string { return w.model }

// ModelPath returns the resolved ggml model file.
func (w *WhisperCPP) ModelPath() string { return w.modelPath }

// GPU reports whether the next run will use the GPU.
func (w *WhisperCPP) GPU() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gpu
}

// Load verifies the model with a short silent clip, falling back to CPU once.
func (w *WhisperCPP) Load(ctx context.Context) error {
	if _, err := os.Stat(w.modelPath); err != nil {
		return fmt.Errorf("%w: model file %q: %v", ErrModelLoad, w.modelPath, err)
	}
	if _, err := exec.LookPath(w.binary); err != nil {
		return fmt.Errorf("%w: %s not found in PATH", ErrModelLoad, w.binary)
	}

	warmup := audio.Clip{Samples: make([]float32, audio.SampleRate/2), SampleRate: audio.SampleRate}
	gpu := w.GPU()
	_, err := w.Transcribe(ctx, warmup)
	if err == nil {
		w.logInfo("speech model loaded", "model", w.modelPath, "gpu", gpu)
		return nil
	}
	if ctx.Err() != nil || !gpu {
		return fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	w.disableGPU()
	w.logWarn("GPU model load failed; retrying on CPU", "error", err.Error())

	if _, err := w.Transcribe(ctx, warmup); err != nil {
		return fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	w.logInfo("speech model loaded", "model", w.modelPath, "gpu", false)
	return nil
}

// Transcribe writes clip to a temp WAV and runs the CLI on it.
func (w *WhisperCPP) Transcribe(ctx context.Context, clip audio.Clip) (string, error) {
	if clip.Empty() {
		return "", nil
	}

	wavPath, err := audio.WriteTempWAV(w.tempDir, clip)
	if err != nil {
		return "", err
	}
	defer os.Remove(wavPath)

	gpu := w.GPU()
	cmd := exec.CommandContext(ctx, w.binary, w.args(wavPath, gpu)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		combined := stderr.String() + "\n" + stdout.String()
		if IsOutOfMemoryOutput(combined) {
			if gpu && w.disableGPU() {
				w.logWarn("speech model ran out of GPU memory; next run uses CPU")
			}
			return "", fmt.Errorf("%w: %s", ErrOutOfMemory, outOfMemoryLine(combined))
		}
		detail := lastLine(stderr.String())
		if detail == "" {
			return "", fmt.Errorf("%s failed: %w", w.binary, err)
		}
		return "", fmt.Errorf("%s failed: %w (%s)", w.binary, err, detail)
	}

	return transcript.Assemble(parseSegments(stdout.String())), nil
}

func (w *WhisperCPP) args(wavPath string, gpu bool) []string {
	args := []string{"-m", w.modelPath, "-f", wavPath, "-l", w.language, "-nt", "-np"}
	if w.threads > 0 {
		args = append(args, "-t", strconv.Itoa(w.threads))
	}
	if !gpu {
		args = append(args, "--no-gpu")
	}
	return args
}

// disableGPU switches to CPU and reports whether anything changed.
func (w *WhisperCPP) disableGPU() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.gpu {
		return false
	}
	w.gpu = false
	return true
}

func (w *WhisperCPP) logInfo(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Info(msg, args...)
	}
}

func (w *WhisperCPP) logWarn(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Warn(msg, args...)
	}
}

// parseSegments returns one segment per non-empty stdout line, tolerating
// builds that ignore -nt and still print timestamps.
func parseSegments(output string) []string {
	segments := make([]string, 0)
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(timestampPrefix.ReplaceAllString(strings.TrimSpace(scanner.Text()), ""))
		if line == "" || isNonSpeechMarker(line) {
			continue
		}
		segments = append(segments, line)
	}
	return segments
}

// isNonSpeechMarker drops whisper annotations such as [BLANK_AUDIO] or (silence).
func isNonSpeechMarker(line string) bool {
	return (strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]")) ||
		(strings.HasPrefix(line, "(") && strings.HasSuffix(line, ")"))
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

var _ Engine = (*WhisperCPP)(nil)
