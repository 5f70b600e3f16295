package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rbright/wisp/internal/config"
	"github.com/rbright/wisp/internal/httpclient"
)

// ErrModelUnavailable reports that the Ollama server does not have the requested model.
var ErrModelUnavailable = errors.New("ollama model not available")

// Ollama enhances text through a local Ollama server.
type Ollama struct {
	baseURL      string
	model        string
	prompt       string
	temperature  float64
	maxTokens    int
	ratio        float64
	probeTimeout time.Duration
	client       *http.Client
	logger       *slog.Logger
}

// NewOllama builds the client without touching the network.
func NewOllama(cfg config.EnhanceConfig, logger *slog.Logger) *Ollama {
	return &Ollama{
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.Ollama.URL), "/"),
		model:        cfg.Ollama.Model,
		prompt:       cfg.Prompt,
		temperature:  cfg.Ollama.Temperature,
		maxTokens:    cfg.Ollama.MaxTokens,
		ratio:        guardRatio(cfg.MaxLengthRatio),
		probeTimeout: httpclient.Millis(cfg.Ollama.ProbeTimeoutMS, 5*time.Second),
		client:       httpclient.New(httpclient.Millis(cfg.Ollama.TimeoutMS, 10*time.Second)),
		logger:       logger,
	}
}

type ollamaTags struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Probe checks that the server is up and lists the configured model.
func (o *Ollama) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, o.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("build ollama probe: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama not reachable (start it with `ollama serve`): %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama probe status %d", resp.StatusCode)
	}

	var tags ollamaTags
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("decode ollama tags: %w", err)
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		if m.Name == o.model {
			if o.logger != nil {
				o.logger.Info("ollama enhancement ready", "model", o.model)
			}
			return nil
		}
		names = append(names, m.Name)
	}
	return fmt.Errorf("%w: %q (available: %s; install with `ollama pull %s`)",
		ErrModelUnavailable, o.model, strings.Join(names, ", "), o.model)
}

type ollamaGenerateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// Enhance asks the model for a rewrite and applies the length guard.
func (o *Ollama) Enhance(ctx context.Context, text string) string {
	candidate, err := o.generate(ctx, text)
	if err != nil {
		o.warn("ollama enhancement failed; using original text", err)
		return text
	}
	accepted, ok := Accept(text, candidate, o.ratio)
	if !ok {
		o.warn("ollama reply rejected by length guard; using original text", nil)
	}
	return accepted
}

func (o *Ollama) generate(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:       o.model,
		Prompt:      o.prompt + "\n\n" + text,
		Stream:      false,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ollama status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var decoded ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	return decoded.Response, nil
}

func (o *Ollama) warn(msg string, err error) {
	if o.logger == nil {
		return
	}
	if err != nil {
		o.logger.Warn(msg, "model", o.model, "error", err.Error())
		return
	}
	o.logger.Warn(msg, "model", o.model)
}
