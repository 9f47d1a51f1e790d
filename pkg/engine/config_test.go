package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
backends:
  - name: hf
    kind: huggingface
    api_key: hf-test
    model: org/model
    temperature: 0.2
    max_tokens: 128
    timeout: 30s

chains:
  - name: recipe
    backend: hf
    template: "Generate a recipe for {dish} in a {tone} tone."
    normalizer: trim
  - name: macros
    backend: hf
    template: "Nutrition for {dish} as JSON."
    normalizer: json_field
    field: calories

parallel:
  - name: meal
    chains: [recipe, macros]

bindings:
  dish: Dal
`

func writeConfig(t *testing.T, data string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	return path
}

func validConfig() Config {
	return Config{
		Backends: []BackendConfig{{Name: "b1", Kind: "mock"}},
		Chains:   []ChainConfig{{Name: "c1", Backend: "b1", Template: "{x}"}},
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Len(t, cfg.Backends, 1)
	b := cfg.Backends[0]
	assert.Equal(t, "hf", b.Name)
	assert.Equal(t, "huggingface", b.Kind)
	assert.Equal(t, "hf-test", b.APIKey)
	assert.Equal(t, "org/model", b.Model)
	assert.InDelta(t, 0.2, b.Temperature, 1e-9)
	assert.Equal(t, 128, b.MaxTokens)
	assert.Equal(t, "30s", b.Timeout)

	require.Len(t, cfg.Chains, 2)
	assert.Equal(t, "trim", cfg.Chains[0].Normalizer)
	assert.Equal(t, "calories", cfg.Chains[1].Field)

	require.Len(t, cfg.Parallel, 1)
	assert.Equal(t, []string{"recipe", "macros"}, cfg.Parallel[0].Chains)
	assert.Equal(t, map[string]string{"dish": "Dal"}, cfg.Bindings)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/no/such/file.yaml")
	assert.ErrorContains(t, err, "engine: load config")
}

func TestParseConfig_InvalidYAML(t *testing.T) {
	_, err := ParseConfig([]byte("backends: [unclosed"))
	assert.ErrorContains(t, err, "engine: parse config")
}

func TestLoadConfig_ExpandsEnvVars(t *testing.T) {
	t.Setenv("PROMPTCHAIN_TEST_API_KEY", "key-from-env")

	path := writeConfig(t, `
backends:
  - name: g
    kind: gemini
    api_key: ${PROMPTCHAIN_TEST_API_KEY}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "key-from-env", cfg.Backends[0].APIKey)
}

func TestLoadConfig_UnsetEnvVarExpandsToEmpty(t *testing.T) {
	path := writeConfig(t, `
backends:
  - name: g
    kind: gemini
    api_key: ${PROMPTCHAIN_TEST_UNSET_VAR_12345}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Backends[0].APIKey)
}

func TestDefaultConfig(t *testing.T) {
	cfg, err := DefaultConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	names := make([]string, 0, len(cfg.Chains))
	for _, c := range cfg.Chains {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"gemini_recipe", "recipe", "nutrition"}, names)

	require.Len(t, cfg.Parallel, 1)
	assert.Equal(t, "meal", cfg.Parallel[0].Name)
	assert.Equal(t, map[string]string{"dish": "Chicken Biryani", "tone": "funny"}, cfg.Bindings)
}

func TestConfig_Validate_Valid(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no backends", func(c *Config) { c.Backends = nil }, "at least one backend"},
		{"backend name", func(c *Config) { c.Backends[0].Name = "" }, "backend name is required"},
		{"backend kind", func(c *Config) { c.Backends[0].Kind = "" }, "kind is required"},
		{"duplicate backend", func(c *Config) {
			c.Backends = append(c.Backends, BackendConfig{Name: "b1", Kind: "mock"})
		}, "duplicate backend name"},
		{"bad timeout", func(c *Config) { c.Backends[0].Timeout = "soon" }, "invalid timeout"},
		{"negative max tokens", func(c *Config) { c.Backends[0].MaxTokens = -1 }, "max_tokens"},
		{"chain name", func(c *Config) { c.Chains[0].Name = "" }, "chain name is required"},
		{"duplicate chain", func(c *Config) { c.Chains = append(c.Chains, c.Chains[0]) }, "duplicate chain name"},
		{"unknown backend", func(c *Config) { c.Chains[0].Backend = "nope" }, "unknown backend"},
		{"bad template", func(c *Config) { c.Chains[0].Template = "{open" }, "chain \"c1\""},
		{"unknown normalizer", func(c *Config) { c.Chains[0].Normalizer = "upper" }, "unknown normalizer"},
		{"group name", func(c *Config) {
			c.Parallel = []ParallelConfig{{Chains: []string{"c1"}}}
		}, "parallel group name is required"},
		{"duplicate group", func(c *Config) {
			c.Parallel = []ParallelConfig{{Name: "g", Chains: []string{"c1"}}, {Name: "g", Chains: []string{"c1"}}}
		}, "duplicate parallel group name"},
		{"group clashes with chain", func(c *Config) {
			c.Parallel = []ParallelConfig{{Name: "c1", Chains: []string{"c1"}}}
		}, "already used by a chain"},
		{"empty group", func(c *Config) {
			c.Parallel = []ParallelConfig{{Name: "g"}}
		}, "at least one chain"},
		{"unknown chain", func(c *Config) {
			c.Parallel = []ParallelConfig{{Name: "g", Chains: []string{"nope"}}}
		}, "unknown chain"},
		{"chain listed twice", func(c *Config) {
			c.Parallel = []ParallelConfig{{Name: "g", Chains: []string{"c1", "c1"}}}
		}, "listed twice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
