// Package cli parses wisp's command line.
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rbright/wisp/internal/asr"
	"github.com/rbright/wisp/internal/config"
)

type Command string

const (
	CommandRun     Command = "run"
	CommandToggle  Command = "toggle"
	CommandCancel  Command = "cancel"
	CommandStatus  Command = "status"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandMonitor Command = "monitor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandRun:     {},
	CommandToggle:  {},
	CommandCancel:  {},
	CommandStatus:  {},
	CommandDevices: {},
	CommandDoctor:  {},
	CommandMonitor: {},
	CommandVersion: {},
	CommandHelp:    {},
}

// Parsed is the result of a successful parse.
type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool
	Overrides  config.Overrides
}

// Parse reads flags and at most one command. Flags may appear on either side
// of the command; "--flag=value" and "--flag value" are both accepted.
func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandRun}
	sawCommand := false

	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, inline, hasInline := strings.Cut(arg, "=")
		if !strings.HasPrefix(arg, "--") || !hasInline {
			name, inline, hasInline = arg, "", false
		}

		value := func() (string, error) {
			if hasInline {
				return inline, nil
			}
			i++
			if i >= len(args) {
				return "", fmt.Errorf("%s requires a value", name)
			}
			return args[i], nil
		}

		var err error
		switch name {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.Command = CommandVersion
		case "--config":
			parsed.ConfigPath, err = value()
		case "-m", "--model":
			parsed.Overrides.Model, err = value()
		case "-l", "--log-performance":
			parsed.Overrides.LogPerformance = true
		case "-s", "--silent":
			parsed.Overrides.Silent = true
		case "-e", "--llm-enhance-ollama":
			parsed.Overrides.EnhanceOllama = true
		case "-a", "--llm-enhance-azure-openai":
			parsed.Overrides.EnhanceAzure = true
		case "--ollama-model":
			parsed.Overrides.OllamaModel, err = value()
		case "--ollama-url":
			parsed.Overrides.OllamaURL, err = value()
		case "--corrections-config":
			parsed.Overrides.CorrectionsPath, err = value()
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}
			if sawCommand {
				return Parsed{}, fmt.Errorf("unexpected argument %q after command", arg)
			}
			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}
			sawCommand = true
			if !parsed.ShowHelp && parsed.Command != CommandVersion {
				parsed.Command = cmd
			}
		}
		if err != nil {
			return Parsed{}, err
		}
	}

	if parsed.Overrides.EnhanceOllama && parsed.Overrides.EnhanceAzure {
		return Parsed{}, config.ErrEnhanceConflict
	}
	if parsed.Command == CommandHelp {
		parsed.ShowHelp = true
	}
	return parsed, nil
}

// IsUsageError reports errors that should exit with status 2.
func IsUsageError(err error) bool {
	return errors.Is(err, config.ErrEnhanceConflict)
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [flags] [command]

Hotkey-driven dictation: press the toggle key to record, press it again to
transcribe and type the text into the focused window.

Commands:
  run       Start the dictation daemon (default)
  toggle    Start recording, or stop and transcribe when recording
  cancel    Discard the active recording
  status    Print the daemon state
  devices   List audio input devices
  doctor    Check configuration and external tools
  monitor   Show a live status dashboard
  version   Print version information
  help      Show this help

Flags:
  -m, --model NAME                 Whisper model (default: turbo)
                                   one of: %[2]s
  -l, --log-performance            Append timings to transcription_performance.csv
  -s, --silent                     Only print warnings and errors
  -e, --llm-enhance-ollama         Rewrite transcripts with a local Ollama model
  -a, --llm-enhance-azure-openai   Rewrite transcripts with Azure OpenAI
                                   (-e and -a are mutually exclusive)
      --ollama-model NAME          Ollama model (default: gemma3:12b)
      --ollama-url URL             Ollama server (default: http://localhost:11434)
      --corrections-config PATH    Corrections table (default: corrections.json)
      --config PATH                Config file (default: $XDG_CONFIG_HOME/wisp/config.jsonc)
  -h, --help                       Show help
      --version                    Show version
`, binaryName, strings.Join(asr.ModelAliases, ", "))
}
