package engine

import (
	"fmt"
	"sync"

	"github.com/germanamz/promptchain/pkg/credentials"
	"github.com/germanamz/promptchain/pkg/modeladapter"
	"github.com/germanamz/promptchain/pkg/providers/gemini"
	"github.com/germanamz/promptchain/pkg/providers/huggingface"
	"github.com/germanamz/promptchain/pkg/providers/mock"
)

// ProviderFactory creates a Generator from a BackendConfig. The api key has
// already been resolved from the credential set when the config left it empty.
type ProviderFactory func(cfg BackendConfig) (modeladapter.Generator, error)

var (
	factoryMu   sync.RWMutex
	factories   = map[string]ProviderFactory{}
	defaultsReg sync.Once
)

func ensureDefaults() {
	defaultsReg.Do(func() {
		factories["gemini"] = newGemini
		factories["huggingface"] = newHuggingFace
		factories["mock"] = newMock
	})
}

// RegisterProvider registers a custom provider factory under the given kind.
// It can be called before New to extend the engine with additional providers.
func RegisterProvider(kind string, factory ProviderFactory) {
	ensureDefaults()

	factoryMu.Lock()
	defer factoryMu.Unlock()

	factories[kind] = factory
}

// getFactory returns the factory for the given kind.
func getFactory(kind string) (ProviderFactory, bool) {
	ensureDefaults()

	factoryMu.RLock()
	defer factoryMu.RUnlock()

	f, ok := factories[kind]
	return f, ok
}

func newGemini(cfg BackendConfig) (modeladapter.Generator, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = gemini.DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = gemini.DefaultModel
	}

	a := gemini.New(baseURL, cfg.APIKey, model)
	a.Temperature = cfg.Temperature
	if cfg.MaxTokens > 0 {
		a.MaxTokens = cfg.MaxTokens
	}

	return a, nil
}

func newHuggingFace(cfg BackendConfig) (modeladapter.Generator, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = huggingface.DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = huggingface.DefaultModel
	}

	a := huggingface.New(baseURL, cfg.APIKey, model)
	a.Temperature = cfg.Temperature
	if cfg.MaxTokens > 0 {
		a.MaxTokens = cfg.MaxTokens
	}

	return a, nil
}

func newMock(cfg BackendConfig) (modeladapter.Generator, error) {
	if cfg.Response == "" {
		return mock.NewHandler(func(prompt string) (string, error) {
			return "[mock " + cfg.Name + "] " + prompt, nil
		}), nil
	}

	return mock.New(cfg.Response), nil
}

// buildGenerator creates a Generator from a BackendConfig using the registered
// factory for its Kind, filling in the credential from creds when the config
// has none.
func buildGenerator(cfg BackendConfig, creds credentials.Set) (modeladapter.Generator, error) {
	factory, ok := getFactory(cfg.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = creds.ForKind(cfg.Kind)
	}

	return factory(cfg)
}
