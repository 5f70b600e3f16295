package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Sources names every input layered by Resolve, lowest precedence first.
type Sources struct {
	// ConfigPath is the --config value; empty selects the XDG location.
	ConfigPath string
	// DotEnvPath is a KEY=value file merged into the environment before AZUREAI_* lookup.
	DotEnvPath string
	// Overrides are the command-line flags.
	Overrides Overrides
}

// Resolve builds the effective configuration: defaults, then the config
// file, then .env and AZUREAI_* variables, then command-line overrides.
func Resolve(src Sources) (Loaded, error) {
	loaded, err := Load(src.ConfigPath)
	if err != nil {
		return Loaded{}, err
	}

	if src.DotEnvPath != "" {
		if err := LoadDotEnv(src.DotEnvPath); err != nil {
			loaded.Warnings = append(loaded.Warnings, Warning{Message: err.Error()})
		}
	}

	cfg, warnings, err := src.Overrides.Apply(ApplyEnv(loaded.Config))
	if err != nil {
		return Loaded{}, err
	}
	loaded.Config = cfg
	loaded.Warnings = appendUnique(loaded.Warnings, warnings)
	return loaded, nil
}

// Load reads and validates the config file alone. A missing file yields
// defaults and a warning.
func Load(explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return Loaded{
			Path:     path,
			Config:   Default(),
			Warnings: []Warning{{Message: fmt.Sprintf("config file %q not found; using defaults", path)}},
		}, nil
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	}

	cfg, warnings, err := Parse(string(content), Default())
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	return Loaded{Path: path, Config: cfg, Warnings: warnings, Exists: true}, nil
}

// appendUnique adds the warnings from extra whose message is not yet in base.
// Validation runs once per layer, so the same finding can surface twice.
func appendUnique(base, extra []Warning) []Warning {
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, w := range base {
		seen[w.Message] = struct{}{}
	}
	for _, w := range extra {
		if _, dup := seen[w.Message]; dup {
			continue
		}
		seen[w.Message] = struct{}{}
		base = append(base, w)
	}
	return base
}
