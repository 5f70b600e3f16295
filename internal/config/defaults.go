package config

// DefaultPrompt is the rewrite instruction sent to enhancement backends.
const DefaultPrompt = "Fix any punctuation errors and rewrite the following text to improve brevity and clarity while preserving the original meaning. Keep slang where appropriate and only use standard ASCII characters. ONLY return revised text."

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"
	typeCmd := "wtype -"

	return Config{
		Audio: AudioConfig{
			Backend:  "pulse",
			Input:    "default",
			Fallback: "default",
		},
		ASR: ASRConfig{
			Backend:  "whisper-cpp",
			Model:    "turbo",
			ModelDir: "~/.local/share/whisper.cpp/models",
			Binary:   "whisper-cli",
			Language: "en",
			GPU:      true,
			HTTP: ASRHTTPConfig{
				URL:       "http://127.0.0.1:8000",
				APIKeyEnv: "OPENAI_API_KEY",
				TimeoutMS: 60000,
			},
		},
		Enhance: EnhanceConfig{
			Ollama: OllamaConfig{
				URL:            "http://localhost:11434",
				Model:          "gemma3:12b",
				Temperature:    0.3,
				MaxTokens:      150,
				ProbeTimeoutMS: 5000,
				TimeoutMS:      10000,
			},
			Azure: AzureConfig{
				APIVersion:  "2024-12-01-preview",
				Model:       "gpt-4o",
				Temperature: 0.3,
				TopP:        1.0,
				MaxTokens:   250,
				TimeoutMS:   10000,
			},
			Prompt:         DefaultPrompt,
			MaxLengthRatio: 3.0,
		},
		Corrections: CorrectionsConfig{
			Path:  "corrections.json",
			Watch: true,
		},
		Grammar: GrammarConfig{
			URL:       "http://localhost:8081",
			Language:  "en-US",
			TimeoutMS: 3000,
		},
		Output: OutputConfig{
			Backend:       "paste",
			TrailingSpace: true,
			PasteShortcut: "CTRL,V",
			Clipboard:     mustCommand(clipboard),
			TypeCmd:       mustCommand(typeCmd),
		},
		Hotkey: HotkeyConfig{
			Backend: "hypr",
			Toggle:  "Shift_R",
			Cancel:  "Escape",
		},
		Indicator: IndicatorConfig{
			Enable:          true,
			Backend:         "hypr",
			DesktopAppName:  "wisp-indicator",
			SoundEnable:     true,
			FlashIntervalMS: 500,
			ErrorTimeoutMS:  1600,
		},
		Performance: PerformanceConfig{
			Path: "transcription_performance.csv",
		},
		Events: EventsConfig{
			Addr: "127.0.0.1:7878",
		},
	}
}
