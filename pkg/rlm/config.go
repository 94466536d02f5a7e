package rlm

import "strings"

// RunConfig holds the static parameters of a run, captured from the
// producer's metadata event.
type RunConfig struct {
	RootModel         string         `json:"rootModel"`
	MaxDepth          int            `json:"maxDepth"`
	MaxIterations     int            `json:"maxIterations"`
	Backend           string         `json:"backend"`
	BackendKwargs     map[string]any `json:"backendKwargs"`
	EnvironmentType   string         `json:"environmentType"`
	EnvironmentKwargs map[string]any `json:"environmentKwargs"`
	OtherBackends     []string       `json:"otherBackends"`
}

// Redacted is the placeholder stored in place of credential values.
const Redacted = "[redacted]"

var credentialKeys = map[string]struct{}{
	"api_key":       {},
	"apikey":        {},
	"access_token":  {},
	"accesstoken":   {},
	"auth_token":    {},
	"authtoken":     {},
	"secret":        {},
	"client_secret": {},
	"password":      {},
}

// IsCredentialKey reports whether a kwargs key names a credential.
func IsCredentialKey(key string) bool {
	_, ok := credentialKeys[strings.ToLower(key)]
	return ok
}

// RedactKwargs returns a copy of kwargs with credential values replaced by
// Redacted. Nested objects are redacted recursively.
func RedactKwargs(kwargs map[string]any) map[string]any {
	out := make(map[string]any, len(kwargs))
	for k, v := range kwargs {
		switch {
		case IsCredentialKey(k) && v != nil:
			out[k] = Redacted
		default:
			if nested, ok := v.(map[string]any); ok {
				out[k] = RedactKwargs(nested)
				continue
			}
			out[k] = v
		}
	}
	return out
}
