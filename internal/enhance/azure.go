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
	"net/url"
	"strings"
	"time"

	"github.com/rbright/wisp/internal/config"
	"github.com/rbright/wisp/internal/httpclient"
)

// ErrMissingCredentials reports an incomplete Azure OpenAI configuration.
var ErrMissingCredentials = errors.New("azure openai credentials incomplete")

// Azure enhances text through an Azure OpenAI chat deployment.
type Azure struct {
	endpoint    string
	apiKey      string
	apiVersion  string
	deployment  string
	model       string
	prompt      string
	temperature float64
	topP        float64
	maxTokens   int
	ratio       float64
	client      *http.Client
	logger      *slog.Logger
}

// NewAzure validates credentials; key, endpoint, and deployment are required.
func NewAzure(cfg config.EnhanceConfig, logger *slog.Logger) (*Azure, error) {
	az := cfg.Azure
	missing := make([]string, 0, 3)
	if strings.TrimSpace(az.APIKey) == "" {
		missing = append(missing, config.EnvAzureAPIKey)
	}
	if strings.TrimSpace(az.Endpoint) == "" {
		missing = append(missing, config.EnvAzureEndpoint)
	}
	if strings.TrimSpace(az.Deployment) == "" {
		missing = append(missing, config.EnvAzureDeployment)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: set %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}

	return &Azure{
		endpoint:    strings.TrimRight(strings.TrimSpace(az.Endpoint), "/"),
		apiKey:      strings.TrimSpace(az.APIKey),
		apiVersion:  az.APIVersion,
		deployment:  az.Deployment,
		model:       az.Model,
		prompt:      cfg.Prompt,
		temperature: az.Temperature,
		topP:        az.TopP,
		maxTokens:   az.MaxTokens,
		ratio:       guardRatio(cfg.MaxLengthRatio),
		client:      httpclient.New(httpclient.Millis(az.TimeoutMS, 10*time.Second)),
		logger:      logger,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Model       string        `json:"model,omitempty"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Enhance sends the prompt as the system message and the text as the user message.
func (a *Azure) Enhance(ctx context.Context, text string) string {
	candidate, err := a.complete(ctx, text)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("azure openai enhancement failed; using original text", "deployment", a.deployment, "error", err.Error())
		}
		return text
	}
	accepted, ok := Accept(text, candidate, a.ratio)
	if !ok && a.logger != nil {
		a.logger.Warn("azure openai reply rejected by length guard; using original text", "deployment", a.deployment)
	}
	return accepted
}

func (a *Azure) completionsURL() string {
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		a.endpoint, url.PathEscape(a.deployment), url.QueryEscape(a.apiVersion))
}

func (a *Azure) complete(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: a.prompt},
			{Role: "user", Content: text},
		},
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
		TopP:        a.topP,
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.completionsURL(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	var decoded chatResponse
	decodeErr := json.Unmarshal(payload, &decoded)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && decoded.Error != nil {
			return "", fmt.Errorf("chat status %d: %s: %s", resp.StatusCode, decoded.Error.Code, decoded.Error.Message)
		}
		return "", fmt.Errorf("chat status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode chat response: %w", decodeErr)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("chat response has no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}
