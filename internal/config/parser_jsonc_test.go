package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseJSONCOverridesNestedSections(t *testing.T) {
	cfg, warnings, err := parseJSONC(`{
  // local whisper server instead of the CLI
  "asr": {
    "backend": "http",
    "model": "distil-large-v3",
    "http": {"url": "http://127.0.0.1:9000", "timeout_ms": 30000},
  },
  "enhance": {
    "ollama": {"enable": true, "model": "llama3.2:3b"},
    "max_length_ratio": 2.5,
  },
  "corrections": {"path": "/tmp/corrections.json", "watch": false},
  "performance": {"enable": true},
  "debug": {"audio_dump": true},
  "silent": true,
}`, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, "http", cfg.ASR.Backend)
	require.Equal(t, "distil-large-v3", cfg.ASR.Model)
	require.Equal(t, "http://127.0.0.1:9000", cfg.ASR.HTTP.URL)
	require.Equal(t, 30000, cfg.ASR.HTTP.TimeoutMS)
	require.True(t, cfg.Enhance.Ollama.Enable)
	require.Equal(t, "llama3.2:3b", cfg.Enhance.Ollama.Model)
	require.Equal(t, "http://localhost:11434", cfg.Enhance.Ollama.URL)
	require.InDelta(t, 2.5, cfg.Enhance.MaxLengthRatio, 1e-9)
	require.Equal(t, "/tmp/corrections.json", cfg.Corrections.Path)
	require.False(t, cfg.Corrections.Watch)
	require.True(t, cfg.Performance.Enable)
	require.True(t, cfg.Debug.AudioDump)
	require.True(t, cfg.Silent)
}

func TestParseJSONCRejectsInvalidCommandArgv(t *testing.T) {
	_, _, err := parseJSONC(`{"output":{"clipboard_cmd":"unterminated ' quote"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid output.clipboard_cmd")

	_, _, err = parseJSONC(`{"output":{"type_cmd":"unterminated ' quote"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid output.type_cmd")
}

func TestParseJSONCTrimsIndicatorAndOutputFields(t *testing.T) {
	cfg, _, err := parseJSONC(`{
  "output": {"paste_shortcut": "  CTRL,V  "},
  "indicator": {
    "backend": " desktop ",
    "desktop_app_name": "  wisp-indicator  "
  }
}`, Default())
	require.NoError(t, err)
	require.Equal(t, "CTRL,V", cfg.Output.PasteShortcut)
	require.Equal(t, "desktop", cfg.Indicator.Backend)
	require.Equal(t, "wisp-indicator", cfg.Indicator.DesktopAppName)
}

func TestParseJSONCRejectsUnknownField(t *testing.T) {
	_, _, err := parseJSONC(`{"vosk":{"url":"127.0.0.1:2700"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

func TestParseJSONCRejectsMultipleTopLevelValues(t *testing.T) {
	_, _, err := parseJSONC(`{"silent":false}{"silent":true}`, Default())
	require.Error(t, err)
	require.True(
		t,
		strings.Contains(err.Error(), "multiple JSON values") || strings.Contains(err.Error(), "unknown field"),
		"unexpected error: %v",
		err,
	)
}

func TestParseJSONCTypeErrorIncludesLocation(t *testing.T) {
	_, _, err := parseJSONC(`{
  "asr": {"threads": "four"}
}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line")
	require.Contains(t, err.Error(), "column")
}

func TestParseJSONCWarnsWhenBothEnhancersEnabled(t *testing.T) {
	_, warnings, err := parseJSONC(`{"enhance":{"ollama":{"enable":true},"azure":{"enable":true}}}`, Default())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "using ollama")
}
