// Package chain composes a prompt template, a text generator and an output
// normalizer into a single callable, and runs several such chains
// concurrently against one set of bindings.
package chain

import (
	"context"
	"fmt"

	"github.com/germanamz/promptchain/pkg/modeladapter"
	"github.com/germanamz/promptchain/pkg/prompt"
)

// Runner maps bindings to output text.
type Runner interface {
	Run(ctx context.Context, bindings map[string]string) (string, error)
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context, bindings map[string]string) (string, error)

// Run calls the underlying function.
func (f RunnerFunc) Run(ctx context.Context, bindings map[string]string) (string, error) {
	return f(ctx, bindings)
}

var _ Runner = (*Chain)(nil)

// Chain is normalize(generate(render(bindings))). It holds no mutable state
// and is safe for concurrent use when its Generator is.
type Chain struct {
	name      string
	template  prompt.Template
	generator modeladapter.Generator
	normalize Normalizer
}

// Option configures a Chain.
type Option func(*Chain)

// WithNormalizer sets the output normalizer (default Identity).
func WithNormalizer(n Normalizer) Option {
	return func(c *Chain) { c.normalize = n }
}

// WithName labels the chain in error messages.
func WithName(name string) Option {
	return func(c *Chain) { c.name = name }
}

// New assembles a Chain. A nil generator is a programming error and panics.
func New(t prompt.Template, g modeladapter.Generator, opts ...Option) *Chain {
	if g == nil {
		panic("chain: nil generator")
	}

	c := &Chain{template: t, generator: g, normalize: Identity}
	for _, o := range opts {
		o(c)
	}

	if c.normalize == nil {
		c.normalize = Identity
	}

	return c
}

// Name returns the chain's label, possibly empty.
func (c *Chain) Name() string { return c.name }

// Template returns the chain's prompt template.
func (c *Chain) Template() prompt.Template { return c.template }

// Run renders the template, makes exactly one Generate call and normalizes
// the result. Render and backend errors are returned wrapped, never recovered.
// An empty normalized result is a modeladapter.ErrBackendRejected error.
func (c *Chain) Run(ctx context.Context, bindings map[string]string) (string, error) {
	rendered, err := c.template.Render(bindings)
	if err != nil {
		return "", c.wrap(err)
	}

	raw, err := c.generator.Generate(ctx, rendered)
	if err != nil {
		return "", c.wrap(err)
	}

	out, err := c.normalize(raw)
	if err != nil {
		return "", c.wrap(fmt.Errorf("normalize: %w", err))
	}

	if out == "" {
		return "", c.wrap(errEmptyCompletion())
	}

	return out, nil
}

// errEmptyCompletion reports a successful call that produced no text.
func errEmptyCompletion() error {
	return &modeladapter.BackendError{Kind: modeladapter.ErrBackendRejected, Body: "empty completion"}
}

func (c *Chain) wrap(err error) error {
	if c.name == "" {
		return fmt.Errorf("chain: %w", err)
	}
	return fmt.Errorf("chain %q: %w", c.name, err)
}
