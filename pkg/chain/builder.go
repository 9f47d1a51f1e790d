package chain

import (
	"errors"

	"github.com/germanamz/promptchain/pkg/modeladapter"
	"github.com/germanamz/promptchain/pkg/prompt"
)

// Builder assembles a Chain from named parts.
//
//	c, err := chain.Build().
//		Name("recipe").
//		Template(tmpl).
//		Generator(gen).
//		Normalizer(chain.TrimSpace).
//		Chain()
type Builder struct {
	name      string
	template  *prompt.Template
	generator modeladapter.Generator
	normalize Normalizer
}

// Build starts a new Builder.
func Build() *Builder { return &Builder{} }

// Name sets the chain label.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

// Template sets the prompt template.
func (b *Builder) Template(t prompt.Template) *Builder {
	b.template = &t
	return b
}

// Generator sets the backend.
func (b *Builder) Generator(g modeladapter.Generator) *Builder {
	b.generator = g
	return b
}

// Normalizer sets the output normalizer.
func (b *Builder) Normalizer(n Normalizer) *Builder {
	b.normalize = n
	return b
}

// Chain validates the parts and returns the assembled Chain.
func (b *Builder) Chain() (*Chain, error) {
	if b.template == nil {
		return nil, errors.New("chain: builder: template is required")
	}
	if b.generator == nil {
		return nil, errors.New("chain: builder: generator is required")
	}

	return New(*b.template, b.generator, WithName(b.name), WithNormalizer(b.normalize)), nil
}
