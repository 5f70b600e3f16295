package config

import (
	"errors"
	"strings"
)

// ErrEnhanceConflict reports that both enhancement backends were requested on the command line.
var ErrEnhanceConflict = errors.New("--llm-enhance-ollama and --llm-enhance-azure-openai are mutually exclusive")

// Overrides carries command-line values that take precedence over the config file.
type Overrides struct {
	Model           string
	LogPerformance  bool
	Silent          bool
	EnhanceOllama   bool
	EnhanceAzure    bool
	OllamaModel     string
	OllamaURL       string
	CorrectionsPath string
}

// Apply overlays o onto cfg and revalidates the result.
func (o Overrides) Apply(cfg Config) (Config, []Warning, error) {
	if o.EnhanceOllama && o.EnhanceAzure {
		return Config{}, nil, ErrEnhanceConflict
	}

	if v := strings.TrimSpace(o.Model); v != "" {
		cfg.ASR.Model = v
	}
	if o.LogPerformance {
		cfg.Performance.Enable = true
	}
	if o.Silent {
		cfg.Silent = true
	}
	if o.EnhanceOllama {
		cfg.Enhance.Ollama.Enable = true
		cfg.Enhance.Azure.Enable = false
	}
	if o.EnhanceAzure {
		cfg.Enhance.Azure.Enable = true
		cfg.Enhance.Ollama.Enable = false
	}
	if v := strings.TrimSpace(o.OllamaModel); v != "" {
		cfg.Enhance.Ollama.Model = v
	}
	if v := strings.TrimSpace(o.OllamaURL); v != "" {
		cfg.Enhance.Ollama.URL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(o.CorrectionsPath); v != "" {
		cfg.Corrections.Path = v
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}
