package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// clearEnv unsets keys for the duration of the test.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestResolvePathPrecedence(t *testing.T) {
	resolved, err := ResolvePath("/etc/wisp/custom.jsonc")
	require.NoError(t, err)
	require.Equal(t, "/etc/wisp/custom.jsonc", resolved)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	resolved, err = ResolvePath("  ")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdg, "wisp", "config.jsonc"), resolved)

	t.Setenv("XDG_CONFIG_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "wisp", "config.jsonc"), resolved)
}

func TestExpandUserPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	for raw, want := range map[string]string{
		"~":               home,
		"~/models":        filepath.Join(home, "models"),
		"/abs/models":     "/abs/models",
		"  ":              "",
		"~other/models":   "~other/models",
		" ~/corrections ": filepath.Join(home, "corrections"),
	} {
		require.Equal(t, want, ExpandUserPath(raw), raw)
	}
}

func TestLoadMissingConfigUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.jsonc")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, loaded.Path)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.Len(t, loaded.Warnings, 1)
	require.Contains(t, loaded.Warnings[0].Message, "not found; using defaults")
}

func TestLoadParsesFile(t *testing.T) {
	path := writeConfig(t, `{
  // clipboard-only setups skip the paste keystroke
  "audio": {"backend": "portaudio"},
  "output": {"backend": "clipboard", "trailing_space": false},
}`)

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, "portaudio", loaded.Config.Audio.Backend)
	require.Equal(t, "clipboard", loaded.Config.Output.Backend)
	require.False(t, loaded.Config.Output.TrailingSpace)
}

func TestLoadParseErrorIncludesPath(t *testing.T) {
	path := writeConfig(t, "{ not-json }")

	_, err := Load(path)
	require.ErrorContains(t, err, "parse config")
	require.ErrorContains(t, err, path)
}

func TestResolveLayersFileEnvAndFlags(t *testing.T) {
	clearEnv(t, EnvAzureAPIKey, EnvAzureEndpoint, EnvAzureAPIVersion, EnvAzureDeployment, EnvAzureModel)

	path := writeConfig(t, `{
  "asr": {"model": "small.en"},
  "enhance": {"azure": {"deployment": "from-file"}}
}`)
	dotEnv := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dotEnv, []byte(
		"export AZUREAI_API_KEY=\"secret\"\nAZUREAI_DEPLOYMENT_NAME=from-env\nAZUREAI_MODEL='gpt-4o-mini'\n",
	), 0o600))

	loaded, err := Resolve(Sources{
		ConfigPath: path,
		DotEnvPath: dotEnv,
		Overrides:  Overrides{Model: "tiny.en", EnhanceAzure: true},
	})
	require.NoError(t, err)
	require.Equal(t, "tiny.en", loaded.Config.ASR.Model)
	require.True(t, loaded.Config.Enhance.Azure.Enable)
	require.Equal(t, "secret", loaded.Config.Enhance.Azure.APIKey)
	require.Equal(t, "from-file", loaded.Config.Enhance.Azure.Deployment)
	require.Equal(t, "gpt-4o-mini", loaded.Config.Enhance.Azure.Model)
}

func TestResolveMissingDotEnvIsIgnored(t *testing.T) {
	path := writeConfig(t, "{}")

	loaded, err := Resolve(Sources{ConfigPath: path, DotEnvPath: filepath.Join(t.TempDir(), ".env")})
	require.NoError(t, err)
	require.Empty(t, loaded.Warnings)
}

func TestResolveReportsRevalidationWarningsOnce(t *testing.T) {
	path := writeConfig(t, `{"enhance": {"ollama": {"enable": true}, "azure": {"enable": true}}}`)

	loaded, err := Resolve(Sources{ConfigPath: path})
	require.NoError(t, err)
	require.Len(t, loaded.Warnings, 1)
	require.Contains(t, loaded.Warnings[0].Message, "both enabled")
}

func TestResolveRejectsConflictingFlags(t *testing.T) {
	path := writeConfig(t, "{}")

	_, err := Resolve(Sources{ConfigPath: path, Overrides: Overrides{EnhanceOllama: true, EnhanceAzure: true}})
	require.ErrorIs(t, err, ErrEnhanceConflict)
}
