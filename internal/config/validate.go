package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if err := oneOf("audio.backend", cfg.Audio.Backend, "pulse", "portaudio"); err != nil {
		return nil, err
	}

	if err := oneOf("asr.backend", cfg.ASR.Backend, "whisper-cpp", "http"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.ASR.Model) == "" {
		return nil, fmt.Errorf("asr.model must not be empty")
	}
	if strings.TrimSpace(cfg.ASR.Language) == "" {
		return nil, fmt.Errorf("asr.language must not be empty")
	}
	if cfg.ASR.Threads < 0 {
		return nil, fmt.Errorf("asr.threads must be >= 0")
	}
	if cfg.ASR.Backend == "whisper-cpp" && strings.TrimSpace(cfg.ASR.Binary) == "" {
		return nil, fmt.Errorf("asr.binary must not be empty when asr.backend=whisper-cpp")
	}
	if cfg.ASR.Backend == "http" && !hasHTTPScheme(cfg.ASR.HTTP.URL) {
		return nil, fmt.Errorf("asr.http.url must start with http:// or https://")
	}

	if cfg.Enhance.MaxLengthRatio <= 0 {
		return nil, fmt.Errorf("enhance.max_length_ratio must be > 0")
	}
	if strings.TrimSpace(cfg.Enhance.Prompt) == "" {
		return nil, fmt.Errorf("enhance.prompt must not be empty")
	}
	if cfg.Enhance.Ollama.Enable {
		if !hasHTTPScheme(cfg.Enhance.Ollama.URL) {
			return nil, fmt.Errorf("enhance.ollama.url must start with http:// or https://")
		}
		if strings.TrimSpace(cfg.Enhance.Ollama.Model) == "" {
			return nil, fmt.Errorf("enhance.ollama.model must not be empty")
		}
	}
	if cfg.Enhance.Ollama.Enable && cfg.Enhance.Azure.Enable {
		warnings = append(warnings, Warning{Message: "enhance.ollama and enhance.azure both enabled; using ollama"})
	}

	if strings.TrimSpace(cfg.Corrections.Path) == "" {
		return nil, fmt.Errorf("corrections.path must not be empty")
	}
	if cfg.Grammar.Enable && !hasHTTPScheme(cfg.Grammar.URL) {
		return nil, fmt.Errorf("grammar.url must start with http:// or https://")
	}

	if err := oneOf("output.backend", cfg.Output.Backend, "paste", "clipboard", "type"); err != nil {
		return nil, err
	}
	switch cfg.Output.Backend {
	case "paste":
		if len(cfg.Output.Clipboard.Argv) == 0 {
			return nil, fmt.Errorf("output.clipboard_cmd must not be empty when output.backend=paste")
		}
		if cfg.Output.PasteCmd.Raw != "" && len(cfg.Output.PasteCmd.Argv) == 0 {
			return nil, fmt.Errorf("output.paste_cmd is configured but empty")
		}
		if len(cfg.Output.PasteCmd.Argv) == 0 && strings.TrimSpace(cfg.Output.PasteShortcut) == "" {
			return nil, fmt.Errorf("output.paste_shortcut must not be empty when output.paste_cmd is unset")
		}
	case "type":
		if len(cfg.Output.TypeCmd.Argv) == 0 {
			return nil, fmt.Errorf("output.type_cmd must not be empty when output.backend=type")
		}
	}

	if err := oneOf("hotkey.backend", cfg.Hotkey.Backend, "hypr", "stdin", "none"); err != nil {
		return nil, err
	}
	if cfg.Hotkey.Backend == "hypr" {
		if strings.TrimSpace(cfg.Hotkey.Toggle) == "" {
			return nil, fmt.Errorf("hotkey.toggle must not be empty")
		}
		if strings.TrimSpace(cfg.Hotkey.Cancel) == "" {
			return nil, fmt.Errorf("hotkey.cancel must not be empty")
		}
		if strings.EqualFold(cfg.Hotkey.Toggle, cfg.Hotkey.Cancel) {
			return nil, fmt.Errorf("hotkey.toggle and hotkey.cancel must differ")
		}
	}

	if err := oneOf("indicator.backend", cfg.Indicator.Backend, "hypr", "desktop", "beeep"); err != nil {
		return nil, err
	}
	if cfg.Indicator.Backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.FlashIntervalMS < 0 {
		return nil, fmt.Errorf("indicator.flash_interval_ms must be >= 0")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	if cfg.Performance.Enable && strings.TrimSpace(cfg.Performance.Path) == "" {
		return nil, fmt.Errorf("performance.path must not be empty when performance.enable=true")
	}
	if cfg.Events.Enable && strings.TrimSpace(cfg.Events.Addr) == "" {
		return nil, fmt.Errorf("events.addr must not be empty when events.enable=true")
	}

	return warnings, nil
}

func oneOf(key string, value string, allowed ...string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%s must not be empty", key)
	}
	for _, candidate := range allowed {
		if value == candidate {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of: %s", key, strings.Join(allowed, ", "))
}

func hasHTTPScheme(raw string) bool {
	raw = strings.TrimSpace(raw)
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}
