// Package config resolves, parses, validates, and defaults wisp configuration.
package config

// Config is the fully materialized runtime configuration used by wisp.
type Config struct {
	Audio       AudioConfig
	ASR         ASRConfig
	Enhance     EnhanceConfig
	Corrections CorrectionsConfig
	Grammar     GrammarConfig
	Output      OutputConfig
	Hotkey      HotkeyConfig
	Indicator   IndicatorConfig
	Performance PerformanceConfig
	Events      EventsConfig
	Debug       DebugConfig
	Silent      bool
}

// AudioConfig controls the capture backend and input-source selection.
type AudioConfig struct {
	Backend  string
	Input    string
	Fallback string
}

// ASRConfig controls the speech-to-text engine.
type ASRConfig struct {
	Backend  string
	Model    string
	ModelDir string
	Binary   string
	Language string
	Threads  int
	GPU      bool
	HTTP     ASRHTTPConfig
}

// ASRHTTPConfig configures an OpenAI-compatible transcription endpoint.
type ASRHTTPConfig struct {
	URL       string
	APIKeyEnv string
	TimeoutMS int
}

// EnhanceConfig controls optional language-model rewriting.
type EnhanceConfig struct {
	Ollama         OllamaConfig
	Azure          AzureConfig
	Prompt         string
	MaxLengthRatio float64
}

// OllamaConfig configures the local Ollama backend.
type OllamaConfig struct {
	Enable         bool
	URL            string
	Model          string
	Temperature    float64
	MaxTokens      int
	ProbeTimeoutMS int
	TimeoutMS      int
}

// AzureConfig configures the hosted Azure OpenAI backend.
type AzureConfig struct {
	Enable      bool
	Endpoint    string
	APIKey      string
	APIVersion  string
	Deployment  string
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
	TimeoutMS   int
}

// CorrectionsConfig locates the user-editable substitution table.
type CorrectionsConfig struct {
	Path  string
	Watch bool
}

// GrammarConfig controls the optional LanguageTool pass.
type GrammarConfig struct {
	Enable    bool
	URL       string
	Language  string
	TimeoutMS int
}

// OutputConfig controls how final text reaches the focused window.
type OutputConfig struct {
	Backend       string
	TrailingSpace bool
	PasteShortcut string
	Clipboard     CommandConfig
	PasteCmd      CommandConfig
	TypeCmd       CommandConfig
}

// HotkeyConfig controls how toggle/cancel key presses reach the daemon.
type HotkeyConfig struct {
	Backend string
	Toggle  string
	Cancel  string
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable          bool
	Backend         string
	DesktopAppName  string
	SoundEnable     bool
	FlashIntervalMS int
	ErrorTimeoutMS  int
}

// PerformanceConfig controls the CSV performance log.
type PerformanceConfig struct {
	Enable bool
	Path   string
}

// EventsConfig controls the state event websocket server.
type EventsConfig struct {
	Enable bool
	Addr   string
}

// DebugConfig controls local debug artifacts.
type DebugConfig struct {
	AudioDump bool
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
