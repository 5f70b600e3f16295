package config

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	reExport = regexp.MustCompile(`^\s*export\s+([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.*)\s*$`)
	reAssign = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.*)\s*$`)
)

// Azure OpenAI environment variable names.
const (
	EnvAzureAPIKey     = "AZUREAI_API_KEY"
	EnvAzureEndpoint   = "AZUREAI_ENDPOINT"
	EnvAzureAPIVersion = "AZUREAI_API_VERSION"
	EnvAzureDeployment = "AZUREAI_DEPLOYMENT_NAME"
	EnvAzureModel      = "AZUREAI_MODEL"
)

// LoadDotEnv loads shell-style KEY=value lines into the process environment.
//
// Variables already present in the environment win. A missing file is not an error.
func LoadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open env file %q: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := parseEnvLine(scanner.Text())
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read env file %q: %w", path, err)
	}
	return nil
}

func parseEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}

	var key, val string
	if m := reExport.FindStringSubmatch(line); m != nil {
		key, val = m[1], m[2]
	} else if m := reAssign.FindStringSubmatch(line); m != nil {
		key, val = m[1], m[2]
	} else {
		return "", "", false
	}

	val = strings.TrimSpace(val)
	switch {
	case len(val) >= 2 && strings.HasPrefix(val, `"`) && strings.HasSuffix(val, `"`):
		val = val[1 : len(val)-1]
		val = strings.ReplaceAll(val, `\"`, `"`)
		val = strings.ReplaceAll(val, `\\`, `\`)
	case len(val) >= 2 && strings.HasPrefix(val, "'") && strings.HasSuffix(val, "'"):
		val = val[1 : len(val)-1]
	}
	return key, val, true
}

// ApplyEnv fills Azure credentials from AZUREAI_* variables.
//
// The API key only ever comes from the environment. Other fields keep file values when set.
func ApplyEnv(cfg Config) Config {
	azure := &cfg.Enhance.Azure
	azure.APIKey = strings.TrimSpace(os.Getenv(EnvAzureAPIKey))
	if v := strings.TrimSpace(os.Getenv(EnvAzureEndpoint)); v != "" && azure.Endpoint == "" {
		azure.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAzureAPIVersion)); v != "" {
		azure.APIVersion = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAzureDeployment)); v != "" && azure.Deployment == "" {
		azure.Deployment = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAzureModel)); v != "" {
		azure.Model = v
	}
	return cfg
}
