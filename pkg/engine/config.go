package engine

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/germanamz/promptchain/pkg/chain"
	"github.com/germanamz/promptchain/pkg/prompt"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultConfigYAML []byte

// Config is the top-level engine configuration.
type Config struct {
	Backends []BackendConfig   `yaml:"backends"`
	Chains   []ChainConfig     `yaml:"chains"`
	Parallel []ParallelConfig  `yaml:"parallel"`
	Bindings map[string]string `yaml:"bindings"` // Default bindings for demos and `run`.
}

// BackendConfig describes one text-generation backend.
type BackendConfig struct {
	Name        string  `yaml:"name"`
	Kind        string  `yaml:"kind"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	APIKey      string  `yaml:"api_key"`  //nolint:gosec // configuration field, not a hardcoded secret
	Timeout     string  `yaml:"timeout"`  // Per-call deadline as a duration string (e.g. "30s"). Empty means none.
	Response    string  `yaml:"response"` // Canned reply for the mock kind.
}

// ChainConfig describes a template bound to a backend.
type ChainConfig struct {
	Name       string `yaml:"name"`
	Backend    string `yaml:"backend"`
	Template   string `yaml:"template"`
	Normalizer string `yaml:"normalizer"` // identity (default), trim, json_field.
	Field      string `yaml:"field"`      // Field name for json_field.
}

// ParallelConfig groups chains that run concurrently. Each chain's name is
// its output name in the result record.
type ParallelConfig struct {
	Name   string   `yaml:"name"`
	Chains []string `yaml:"chains"`
}

// LoadConfig reads a YAML file and returns a Config.
// Environment variables referenced as ${VAR} or $VAR in the YAML are expanded
// before parsing. This allows API keys and other secrets to be kept in
// environment variables (e.g. loaded from a .env file) rather than committed
// in the config.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("engine: load config: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig expands environment variables in data and decodes it.
func ParseConfig(data []byte) (Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("engine: parse config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns the built-in configuration for the demo flows.
func DefaultConfig() (Config, error) {
	return ParseConfig(defaultConfigYAML)
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if len(c.Backends) == 0 {
		return fmt.Errorf("engine: config: at least one backend is required")
	}

	backendNames := make(map[string]struct{}, len(c.Backends))
	for _, b := range c.Backends {
		if b.Name == "" {
			return fmt.Errorf("engine: config: backend name is required")
		}
		if b.Kind == "" {
			return fmt.Errorf("engine: config: backend %q: kind is required", b.Name)
		}
		if _, dup := backendNames[b.Name]; dup {
			return fmt.Errorf("engine: config: duplicate backend name %q", b.Name)
		}
		if b.Timeout != "" {
			if _, err := time.ParseDuration(b.Timeout); err != nil {
				return fmt.Errorf("engine: config: backend %q: invalid timeout %q: %w", b.Name, b.Timeout, err)
			}
		}
		if b.MaxTokens < 0 {
			return fmt.Errorf("engine: config: backend %q: max_tokens must not be negative", b.Name)
		}
		backendNames[b.Name] = struct{}{}
	}

	chainNames := make(map[string]struct{}, len(c.Chains))
	for _, ch := range c.Chains {
		if ch.Name == "" {
			return fmt.Errorf("engine: config: chain name is required")
		}
		if _, dup := chainNames[ch.Name]; dup {
			return fmt.Errorf("engine: config: duplicate chain name %q", ch.Name)
		}
		chainNames[ch.Name] = struct{}{}

		if _, ok := backendNames[ch.Backend]; !ok {
			return fmt.Errorf("engine: config: chain %q: unknown backend %q", ch.Name, ch.Backend)
		}
		if _, err := prompt.New(ch.Template); err != nil {
			return fmt.Errorf("engine: config: chain %q: %w", ch.Name, err)
		}
		if _, err := chain.NormalizerByName(ch.Normalizer, ch.Field); err != nil {
			return fmt.Errorf("engine: config: chain %q: %w", ch.Name, err)
		}
	}

	groupNames := make(map[string]struct{}, len(c.Parallel))
	for _, g := range c.Parallel {
		if g.Name == "" {
			return fmt.Errorf("engine: config: parallel group name is required")
		}
		if _, dup := groupNames[g.Name]; dup {
			return fmt.Errorf("engine: config: duplicate parallel group name %q", g.Name)
		}
		if _, clash := chainNames[g.Name]; clash {
			return fmt.Errorf("engine: config: parallel group %q: name already used by a chain", g.Name)
		}
		groupNames[g.Name] = struct{}{}

		if len(g.Chains) == 0 {
			return fmt.Errorf("engine: config: parallel group %q: at least one chain is required", g.Name)
		}

		members := make(map[string]struct{}, len(g.Chains))
		for _, name := range g.Chains {
			if _, ok := chainNames[name]; !ok {
				return fmt.Errorf("engine: config: parallel group %q: unknown chain %q", g.Name, name)
			}
			if _, dup := members[name]; dup {
				return fmt.Errorf("engine: config: parallel group %q: chain %q listed twice", g.Name, name)
			}
			members[name] = struct{}{}
		}
	}

	return nil
}
