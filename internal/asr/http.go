package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rbright/wisp/internal/audio"
	"github.com/rbright/wisp/internal/config"
	"github.com/rbright/wisp/internal/httpclient"
)

// HTTP posts clips to an OpenAI-compatible /v1/audio/transcriptions endpoint.
type HTTP struct {
	baseURL   string
	model     string
	language  string
	apiKeyEnv string
	client    *http.Client
	logger    *slog.Logger
}

// NewHTTP builds the HTTP backend from config. The API key is read from the
// configured environment variable on every request.
func NewHTTP(cfg config.ASRConfig, logger *slog.Logger) *HTTP {
	return &HTTP{
		baseURL:   strings.TrimRight(strings.TrimSpace(cfg.HTTP.URL), "/"),
		model:     cfg.Model,
		language:  cfg.Language,
		apiKeyEnv: cfg.HTTP.APIKeyEnv,
		client:    httpclient.New(httpclient.Millis(cfg.HTTP.TimeoutMS, 60*time.Second)),
		logger:    logger,
	}
}

// Name identifies the backend.
func (h *HTTP) Name() string { return "http" }

// Model returns the requested model name.
func (h *HTTP) Model() string { return h.model }

// Load probes GET /v1/models. An unreachable server only warns; the first
// transcription will surface the real error.
func (h *HTTP) Load(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, h.baseURL+"/v1/models", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	h.authorize(req)

	resp, err := h.client.Do(req)
	if err != nil {
		h.logWarn("transcription server probe failed", "url", h.baseURL, "error", err.Error())
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		h.logWarn("transcription server probe returned non-200", "url", h.baseURL, "status", resp.StatusCode)
	}
	return nil
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads clip as WAV multipart form data.
func (h *HTTP) Transcribe(ctx context.Context, clip audio.Clip) (string, error) {
	if clip.Empty() {
		return "", nil
	}

	wavPath, err := audio.WriteTempWAV("", clip)
	if err != nil {
		return "", err
	}
	defer os.Remove(wavPath)

	body, contentType, err := h.multipartBody(wavPath)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/v1/audio/transcriptions", body)
	if err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	h.authorize(req)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcription response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail := strings.TrimSpace(string(payload))
		if IsOutOfMemoryOutput(detail) {
			return "", fmt.Errorf("%w: %s", ErrOutOfMemory, outOfMemoryLine(detail))
		}
		return "", fmt.Errorf("transcription status %d: %s", resp.StatusCode, truncate(detail, 300))
	}

	var decoded transcriptionResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}
	return strings.TrimSpace(decoded.Text), nil
}

func (h *HTTP) multipartBody(wavPath string) (*bytes.Buffer, string, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return nil, "", fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "clip.wav")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copy wav: %w", err)
	}
	if err := writer.WriteField("model", h.model); err != nil {
		return nil, "", fmt.Errorf("write model field: %w", err)
	}
	if h.language != "" {
		if err := writer.WriteField("language", h.language); err != nil {
			return nil, "", fmt.Errorf("write language field: %w", err)
		}
	}
	if err := writer.WriteField("response_format", "json"); err != nil {
		return nil, "", fmt.Errorf("write response_format field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

func (h *HTTP) authorize(req *http.Request) {
	if h.apiKeyEnv == "" {
		return
	}
	if key := strings.TrimSpace(os.Getenv(h.apiKeyEnv)); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
}

func (h *HTTP) logWarn(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Warn(msg, args...)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

var _ Engine = (*HTTP)(nil)
