package transport

import (
	"fmt"
	"strings"
)

var backendKeyEnv = map[string]string{
	"cerebras":   "CEREBRAS_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
	"gemini":     "GOOGLE_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
}

// APIKeyEnv returns the environment variable holding the API key for a
// backend. Unlisted backends use "<BACKEND>_API_KEY".
func APIKeyEnv(backend string) string {
	if env, ok := backendKeyEnv[strings.ToLower(backend)]; ok {
		return env
	}
	return strings.ToUpper(backend) + "_API_KEY"
}

// ResolveAPIKey returns the explicit key when set, otherwise the key from the
// backend's environment variable, read through lookup (usually os.LookupEnv).
func ResolveAPIKey(backend, explicit string, lookup func(string) (string, bool)) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	env := APIKeyEnv(backend)
	if key, ok := lookup(env); ok && key != "" {
		return key, nil
	}
	return "", fmt.Errorf("API key required for %s: provide one or set %s", backend, env)
}
