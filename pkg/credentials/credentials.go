// Package credentials reads provider API credentials from the process
// environment into an explicit, read-only Set.
package credentials

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvGoogleAPIKey     = "GOOGLE_API_KEY"
	EnvHuggingFaceToken = "HUGGINGFACEHUB_API_TOKEN"
	EnvHFToken          = "HF_TOKEN"
)

// Set holds the credentials for every supported provider. Empty fields mean
// the credential was not found.
type Set struct {
	GeminiAPIKey     string
	HuggingFaceToken string
}

// Presence reports whether one provider's credential was found.
type Presence struct {
	Provider string
	Present  bool
}

// String renders "<Provider> exists: True|False".
func (p Presence) String() string {
	state := "False"
	if p.Present {
		state = "True"
	}
	return fmt.Sprintf("%s exists: %s", p.Provider, state)
}

// LoadDotEnv loads variables from a .env file into the process environment.
// Variables already set are not overridden. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("credentials: load %s: %w", path, err)
	}
	return nil
}

// FromEnv reads the Set from the process environment.
func FromEnv() Set {
	return FromLookup(os.LookupEnv)
}

// FromLookup reads the Set through lookup. Empty values count as absent.
func FromLookup(lookup func(string) (string, bool)) Set {
	get := func(names ...string) string {
		for _, n := range names {
			if v, ok := lookup(n); ok && v != "" {
				return v
			}
		}
		return ""
	}

	return Set{
		GeminiAPIKey:     get(EnvGoogleAPIKey),
		HuggingFaceToken: get(EnvHuggingFaceToken, EnvHFToken),
	}
}

// Presence lists each provider's credential presence, Gemini first.
func (s Set) Presence() []Presence {
	return []Presence{
		{Provider: "Google API Key", Present: s.GeminiAPIKey != ""},
		{Provider: "Hugging Face Token", Present: s.HuggingFaceToken != ""},
	}
}

// ForKind returns the credential used by a provider kind, or "" for kinds
// that need none.
func (s Set) ForKind(kind string) string {
	switch kind {
	case "gemini":
		return s.GeminiAPIKey
	case "huggingface":
		return s.HuggingFaceToken
	}
	return ""
}
