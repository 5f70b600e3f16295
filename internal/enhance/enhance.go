// Package enhance rewrites transcriptions through an optional language model.
//
// Enhancement never fails the pipeline: every error path returns the input.
package enhance

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/rbright/wisp/internal/config"
)

// Backend identifies the active enhancement provider.
type Backend string

const (
	BackendNone   Backend = "none"
	BackendOllama Backend = "ollama"
	BackendAzure  Backend = "azure"
)

// Enhancer rewrites text. Implementations return the original text on any failure.
type Enhancer interface {
	Enhance(ctx context.Context, text string) string
}

// None is the disabled enhancer.
type None struct{}

// Enhance returns text unchanged.
func (None) Enhance(_ context.Context, text string) string { return text }

// Select builds the configured backend, probing Ollama for model availability.
// Ollama wins when both backends are enabled. Unusable backends degrade to None
// with a warning.
func Select(ctx context.Context, cfg config.EnhanceConfig, logger *slog.Logger) (Enhancer, Backend) {
	switch {
	case cfg.Ollama.Enable:
		client := NewOllama(cfg, logger)
		if err := client.Probe(ctx); err != nil {
			if logger != nil {
				logger.Warn("ollama enhancement disabled", "url", cfg.Ollama.URL, "model", cfg.Ollama.Model, "error", err.Error())
			}
			return None{}, BackendNone
		}
		return client, BackendOllama
	case cfg.Azure.Enable:
		client, err := NewAzure(cfg, logger)
		if err != nil {
			if logger != nil {
				logger.Warn("azure openai enhancement disabled", "error", err.Error())
			}
			return None{}, BackendNone
		}
		return client, BackendAzure
	default:
		return None{}, BackendNone
	}
}

// Accept applies the length guard to a model reply.
//
// The trimmed candidate is accepted iff it is non-empty and shorter than
// ratio times the original, counted in runes.
func Accept(original string, candidate string, ratio float64) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return original, false
	}
	if float64(utf8.RuneCountInString(candidate)) >= ratio*float64(utf8.RuneCountInString(original)) {
		return original, false
	}
	return candidate, true
}

func guardRatio(ratio float64) float64 {
	if ratio <= 0 {
		return 3.0
	}
	return ratio
}
