// Package doctor runs runtime readiness diagnostics for config, tools, audio, and models.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/wisp/internal/asr"
	"github.com/rbright/wisp/internal/audio"
	"github.com/rbright/wisp/internal/config"
	"github.com/rbright/wisp/internal/enhance"
	"github.com/rbright/wisp/internal/httpclient"
	"github.com/rbright/wisp/internal/ipc"
	"github.com/rbright/wisp/internal/transcript"
)

const httpProbeTimeout = 2 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded) Report {
	cfg := loaded.Config
	checks := []Check{}

	configMessage := fmt.Sprintf("loaded %q", loaded.Path)
	if !loaded.Exists {
		configMessage = fmt.Sprintf("%q not found; using defaults", loaded.Path)
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: configMessage})

	checks = append(checks, checkEnv("XDG_SESSION_TYPE", func(v string) bool {
		return strings.EqualFold(strings.TrimSpace(v), "wayland")
	}, "session type is wayland", "expected XDG_SESSION_TYPE=wayland"))

	if usesHyprland(cfg) {
		checks = append(checks, checkEnv("HYPRLAND_INSTANCE_SIGNATURE", func(v string) bool {
			return strings.TrimSpace(v) != ""
		}, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty"))
	}

	checks = append(checks, checkRuntimeDir())
	checks = append(checks, checkOutput(cfg.Output)...)
	checks = append(checks, checkAudio(ctx, cfg.Audio))
	checks = append(checks, checkASR(ctx, cfg.ASR)...)

	if check, ok := checkEnhance(ctx, cfg.Enhance); ok {
		checks = append(checks, check)
	}
	if cfg.Grammar.Enable {
		base := strings.TrimRight(strings.TrimSpace(cfg.Grammar.URL), "/")
		checks = append(checks, checkHTTP(ctx, "grammar", base+"/v2/languages"))
	}
	checks = append(checks, checkCorrections(cfg.Corrections.Path))

	return Report{Checks: checks}
}

func usesHyprland(cfg config.Config) bool {
	return cfg.Hotkey.Backend == "hypr" ||
		(cfg.Indicator.Enable && cfg.Indicator.Backend == "hypr") ||
		(cfg.Output.Backend == "paste" && len(cfg.Output.PasteCmd.Argv) == 0)
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

func checkRuntimeDir() Check {
	path, err := ipc.RuntimeSocketPath()
	if err != nil {
		return Check{Name: "XDG_RUNTIME_DIR", Pass: false, Message: err.Error()}
	}
	return Check{Name: "XDG_RUNTIME_DIR", Pass: true, Message: fmt.Sprintf("control socket at %s", path)}
}

// checkOutput verifies the commands the configured output backend shells out to.
func checkOutput(cfg config.OutputConfig) []Check {
	switch cfg.Backend {
	case "paste":
		checks := []Check{checkCommand(cfg.Clipboard.Argv, "clipboard_cmd")}
		if len(cfg.PasteCmd.Argv) > 0 {
			return append(checks, checkCommand(cfg.PasteCmd.Argv, "paste_cmd"))
		}
		return append(checks, checkBinary("hyprctl", "default paste path requires hyprctl"))
	case "type":
		return []Check{checkCommand(cfg.TypeCmd.Argv, "type_cmd")}
	case "clipboard":
		return []Check{{Name: "output", Pass: true, Message: "system clipboard with virtual keyboard paste"}}
	default:
		return []Check{{Name: "output", Pass: false, Message: fmt.Sprintf("unsupported output backend %q", cfg.Backend)}}
	}
}

func checkAudio(ctx context.Context, cfg config.AudioConfig) Check {
	if cfg.Backend == "portaudio" {
		return Check{Name: "audio.device", Pass: true, Message: "portaudio default input"}
	}
	return checkAudioSelection(ctx, cfg)
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.AudioConfig) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Input, cfg.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkASR verifies the speech engine without loading the model.
func checkASR(ctx context.Context, cfg config.ASRConfig) []Check {
	switch cfg.Backend {
	case "whisper-cpp":
		return []Check{
			checkBinary(cfg.Binary, "speech engine"),
			checkModelFile(cfg.Model, cfg.ModelDir),
		}
	case "http":
		base := strings.TrimRight(strings.TrimSpace(cfg.HTTP.URL), "/")
		return []Check{checkHTTP(ctx, "asr.http", base+"/v1/models")}
	default:
		return []Check{{Name: "asr", Pass: false, Message: fmt.Sprintf("unsupported asr backend %q", cfg.Backend)}}
	}
}

func checkModelFile(model string, modelDir string) Check {
	path := asr.ResolveModelPath(model, modelDir)
	info, err := os.Stat(path)
	if err != nil {
		return Check{Name: "asr.model", Pass: false, Message: fmt.Sprintf("model %q missing at %s", model, path)}
	}
	if info.IsDir() {
		return Check{Name: "asr.model", Pass: false, Message: fmt.Sprintf("%s is a directory", path)}
	}
	return Check{Name: "asr.model", Pass: true, Message: fmt.Sprintf("%s (%d MiB)", path, info.Size()>>20)}
}

// checkEnhance reports the enabled enhancement backend. ok is false when
// enhancement is disabled.
func checkEnhance(ctx context.Context, cfg config.EnhanceConfig) (Check, bool) {
	switch {
	case cfg.Ollama.Enable:
		if err := enhance.NewOllama(cfg, nil).Probe(ctx); err != nil {
			return Check{Name: "enhance.ollama", Pass: false, Message: err.Error()}, true
		}
		return Check{Name: "enhance.ollama", Pass: true, Message: fmt.Sprintf("model %q available", cfg.Ollama.Model)}, true
	case cfg.Azure.Enable:
		if _, err := enhance.NewAzure(cfg, nil); err != nil {
			return Check{Name: "enhance.azure", Pass: false, Message: err.Error()}, true
		}
		return Check{Name: "enhance.azure", Pass: true, Message: fmt.Sprintf("deployment %q configured", cfg.Azure.Deployment)}, true
	default:
		return Check{}, false
	}
}

// checkHTTP expects a 2xx from url.
func checkHTTP(ctx context.Context, name string, url string) Check {
	ctx, cancel := context.WithTimeout(ctx, httpProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("invalid url: %v", err)}
	}
	resp, err := httpclient.New(httpProbeTimeout).Do(req)
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url)}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("reachable at %s", url)}
}

// checkCorrections parses the table without creating it.
func checkCorrections(path string) Check {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Check{Name: "corrections", Pass: true, Message: fmt.Sprintf("%s will be created on first run", path)}
		}
		return Check{Name: "corrections", Pass: false, Message: err.Error()}
	}
	defer f.Close()

	table, err := transcript.ParseTable(f)
	if err != nil {
		return Check{Name: "corrections", Pass: false, Message: err.Error()}
	}
	return Check{Name: "corrections", Pass: true, Message: fmt.Sprintf("%d entries in %s", len(table), path)}
}
