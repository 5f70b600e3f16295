package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

type jsoncConfig struct {
	Audio       *jsoncAudio       `json:"audio"`
	ASR         *jsoncASR         `json:"asr"`
	Enhance     *jsoncEnhance     `json:"enhance"`
	Corrections *jsoncCorrections `json:"corrections"`
	Grammar     *jsoncGrammar     `json:"grammar"`
	Output      *jsoncOutput      `json:"output"`
	Hotkey      *jsoncHotkey      `json:"hotkey"`
	Indicator   *jsoncIndicator   `json:"indicator"`
	Performance *jsoncPerformance `json:"performance"`
	Events      *jsoncEvents      `json:"events"`
	Debug       *jsoncDebug       `json:"debug"`
	Silent      *bool             `json:"silent"`
}

type jsoncAudio struct {
	Backend  *string `json:"backend"`
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncASR struct {
	Backend  *string       `json:"backend"`
	Model    *string       `json:"model"`
	ModelDir *string       `json:"model_dir"`
	Binary   *string       `json:"binary"`
	Language *string       `json:"language"`
	Threads  *int          `json:"threads"`
	GPU      *bool         `json:"gpu"`
	HTTP     *jsoncASRHTTP `json:"http"`
}

type jsoncASRHTTP struct {
	URL       *string `json:"url"`
	APIKeyEnv *string `json:"api_key_env"`
	TimeoutMS *int    `json:"timeout_ms"`
}

type jsoncEnhance struct {
	Ollama         *jsoncOllama `json:"ollama"`
	Azure          *jsoncAzure  `json:"azure"`
	Prompt         *string      `json:"prompt"`
	MaxLengthRatio *float64     `json:"max_length_ratio"`
}

type jsoncOllama struct {
	Enable         *bool    `json:"enable"`
	URL            *string  `json:"url"`
	Model          *string  `json:"model"`
	Temperature    *float64 `json:"temperature"`
	MaxTokens      *int     `json:"max_tokens"`
	ProbeTimeoutMS *int     `json:"probe_timeout_ms"`
	TimeoutMS      *int     `json:"timeout_ms"`
}

type jsoncAzure struct {
	Enable      *bool    `json:"enable"`
	Endpoint    *string  `json:"endpoint"`
	APIVersion  *string  `json:"api_version"`
	Deployment  *string  `json:"deployment"`
	Model       *string  `json:"model"`
	Temperature *float64 `json:"temperature"`
	TopP        *float64 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	TimeoutMS   *int     `json:"timeout_ms"`
}

type jsoncCorrections struct {
	Path  *string `json:"path"`
	Watch *bool   `json:"watch"`
}

type jsoncGrammar struct {
	Enable    *bool   `json:"enable"`
	URL       *string `json:"url"`
	Language  *string `json:"language"`
	TimeoutMS *int    `json:"timeout_ms"`
}

type jsoncOutput struct {
	Backend       *string `json:"backend"`
	TrailingSpace *bool   `json:"trailing_space"`
	PasteShortcut *string `json:"paste_shortcut"`
	ClipboardCmd  *string `json:"clipboard_cmd"`
	PasteCmd      *string `json:"paste_cmd"`
	TypeCmd       *string `json:"type_cmd"`
}

type jsoncHotkey struct {
	Backend *string `json:"backend"`
	Toggle  *string `json:"toggle"`
	Cancel  *string `json:"cancel"`
}

type jsoncIndicator struct {
	Enable          *bool   `json:"enable"`
	Backend         *string `json:"backend"`
	DesktopAppName  *string `json:"desktop_app_name"`
	SoundEnable     *bool   `json:"sound_enable"`
	FlashIntervalMS *int    `json:"flash_interval_ms"`
	ErrorTimeoutMS  *int    `json:"error_timeout_ms"`
}

type jsoncPerformance struct {
	Enable *bool   `json:"enable"`
	Path   *string `json:"path"`
}

type jsoncEvents struct {
	Enable *bool   `json:"enable"`
	Addr   *string `json:"addr"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	if a := payload.Audio; a != nil {
		setTrimmed(&cfg.Audio.Backend, a.Backend)
		setTrimmed(&cfg.Audio.Input, a.Input)
		setTrimmed(&cfg.Audio.Fallback, a.Fallback)
	}

	if a := payload.ASR; a != nil {
		setTrimmed(&cfg.ASR.Backend, a.Backend)
		setTrimmed(&cfg.ASR.Model, a.Model)
		setTrimmed(&cfg.ASR.ModelDir, a.ModelDir)
		setTrimmed(&cfg.ASR.Binary, a.Binary)
		setTrimmed(&cfg.ASR.Language, a.Language)
		set(&cfg.ASR.Threads, a.Threads)
		set(&cfg.ASR.GPU, a.GPU)
		if h := a.HTTP; h != nil {
			setTrimmed(&cfg.ASR.HTTP.URL, h.URL)
			setTrimmed(&cfg.ASR.HTTP.APIKeyEnv, h.APIKeyEnv)
			set(&cfg.ASR.HTTP.TimeoutMS, h.TimeoutMS)
		}
	}

	if e := payload.Enhance; e != nil {
		set(&cfg.Enhance.Prompt, e.Prompt)
		set(&cfg.Enhance.MaxLengthRatio, e.MaxLengthRatio)
		if o := e.Ollama; o != nil {
			set(&cfg.Enhance.Ollama.Enable, o.Enable)
			setTrimmed(&cfg.Enhance.Ollama.URL, o.URL)
			setTrimmed(&cfg.Enhance.Ollama.Model, o.Model)
			set(&cfg.Enhance.Ollama.Temperature, o.Temperature)
			set(&cfg.Enhance.Ollama.MaxTokens, o.MaxTokens)
			set(&cfg.Enhance.Ollama.ProbeTimeoutMS, o.ProbeTimeoutMS)
			set(&cfg.Enhance.Ollama.TimeoutMS, o.TimeoutMS)
		}
		if az := e.Azure; az != nil {
			set(&cfg.Enhance.Azure.Enable, az.Enable)
			setTrimmed(&cfg.Enhance.Azure.Endpoint, az.Endpoint)
			setTrimmed(&cfg.Enhance.Azure.APIVersion, az.APIVersion)
			setTrimmed(&cfg.Enhance.Azure.Deployment, az.Deployment)
			setTrimmed(&cfg.Enhance.Azure.Model, az.Model)
			set(&cfg.Enhance.Azure.Temperature, az.Temperature)
			set(&cfg.Enhance.Azure.TopP, az.TopP)
			set(&cfg.Enhance.Azure.MaxTokens, az.MaxTokens)
			set(&cfg.Enhance.Azure.TimeoutMS, az.TimeoutMS)
		}
	}

	if c := payload.Corrections; c != nil {
		setTrimmed(&cfg.Corrections.Path, c.Path)
		set(&cfg.Corrections.Watch, c.Watch)
	}

	if g := payload.Grammar; g != nil {
		set(&cfg.Grammar.Enable, g.Enable)
		setTrimmed(&cfg.Grammar.URL, g.URL)
		setTrimmed(&cfg.Grammar.Language, g.Language)
		set(&cfg.Grammar.TimeoutMS, g.TimeoutMS)
	}

	if o := payload.Output; o != nil {
		setTrimmed(&cfg.Output.Backend, o.Backend)
		set(&cfg.Output.TrailingSpace, o.TrailingSpace)
		setTrimmed(&cfg.Output.PasteShortcut, o.PasteShortcut)
		if err := setCommand(&cfg.Output.Clipboard, o.ClipboardCmd, "output.clipboard_cmd"); err != nil {
			return err
		}
		if err := setCommand(&cfg.Output.PasteCmd, o.PasteCmd, "output.paste_cmd"); err != nil {
			return err
		}
		if err := setCommand(&cfg.Output.TypeCmd, o.TypeCmd, "output.type_cmd"); err != nil {
			return err
		}
	}

	if h := payload.Hotkey; h != nil {
		setTrimmed(&cfg.Hotkey.Backend, h.Backend)
		setTrimmed(&cfg.Hotkey.Toggle, h.Toggle)
		setTrimmed(&cfg.Hotkey.Cancel, h.Cancel)
	}

	if i := payload.Indicator; i != nil {
		set(&cfg.Indicator.Enable, i.Enable)
		setTrimmed(&cfg.Indicator.Backend, i.Backend)
		setTrimmed(&cfg.Indicator.DesktopAppName, i.DesktopAppName)
		set(&cfg.Indicator.SoundEnable, i.SoundEnable)
		set(&cfg.Indicator.FlashIntervalMS, i.FlashIntervalMS)
		set(&cfg.Indicator.ErrorTimeoutMS, i.ErrorTimeoutMS)
	}

	if p := payload.Performance; p != nil {
		set(&cfg.Performance.Enable, p.Enable)
		setTrimmed(&cfg.Performance.Path, p.Path)
	}

	if ev := payload.Events; ev != nil {
		set(&cfg.Events.Enable, ev.Enable)
		setTrimmed(&cfg.Events.Addr, ev.Addr)
	}

	if d := payload.Debug; d != nil {
		set(&cfg.Debug.AudioDump, d.AudioDump)
	}

	set(&cfg.Silent, payload.Silent)
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setTrimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setCommand(dst *CommandConfig, raw *string, key string) error {
	if raw == nil {
		return nil
	}
	cmd, err := ParseCommand(*raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = cmd
	return nil
}
