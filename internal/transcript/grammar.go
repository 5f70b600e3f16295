package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/rbright/wisp/internal/httpclient"
)

// Grammar is an optional post-substitution rewrite pass.
type Grammar interface {
	Check(ctx context.Context, text string) (string, error)
}

// LanguageTool checks text against a LanguageTool HTTP server.
type LanguageTool struct {
	endpoint string
	language string
	client   *http.Client
}

// NewLanguageTool targets {baseURL}/v2/check.
func NewLanguageTool(baseURL string, language string, timeout time.Duration) *LanguageTool {
	return &LanguageTool{
		endpoint: strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/v2/check",
		language: language,
		client:   httpclient.New(timeout),
	}
}

type languageToolResponse struct {
	Matches []languageToolMatch `json:"matches"`
}

type languageToolMatch struct {
	Offset       int `json:"offset"`
	Length       int `json:"length"`
	Replacements []struct {
		Value string `json:"value"`
	} `json:"replacements"`
}

// Check applies the first suggested replacement of every match.
func (l *LanguageTool) Check(ctx context.Context, text string) (string, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("language", l.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build languagetool request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("languagetool request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("languagetool status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload languageToolResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode languagetool response: %w", err)
	}
	return applyMatches(text, payload.Matches), nil
}

// applyMatches rewrites from the end so earlier offsets stay valid.
// LanguageTool offsets count UTF-16 code units.
func applyMatches(text string, matches []languageToolMatch) string {
	usable := make([]languageToolMatch, 0, len(matches))
	for _, m := range matches {
		if len(m.Replacements) > 0 && m.Offset >= 0 && m.Length >= 0 {
			usable = append(usable, m)
		}
	}
	if len(usable) == 0 {
		return text
	}
	sort.SliceStable(usable, func(i, j int) bool { return usable[i].Offset > usable[j].Offset })

	units := utf16.Encode([]rune(text))
	limit := len(units)
	for _, m := range usable {
		end := m.Offset + m.Length
		if end > limit {
			continue
		}
		replacement := utf16.Encode([]rune(m.Replacements[0].Value))
		next := make([]uint16, 0, len(units)-m.Length+len(replacement))
		next = append(next, units[:m.Offset]...)
		next = append(next, replacement...)
		next = append(next, units[end:]...)
		units = next
		limit = m.Offset
	}
	return string(utf16.Decode(units))
}
