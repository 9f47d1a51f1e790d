// Package mock provides an offline Generator with canned or computed replies.
package mock

import (
	"context"
	"sync"

	"github.com/germanamz/promptchain/pkg/modeladapter"
)

var _ modeladapter.Generator = (*Generator)(nil)

// Generator answers every prompt without a network call. It records the
// prompts it received and is safe for concurrent use.
type Generator struct {
	Response string
	Err      error
	Handler  func(prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

// New creates a Generator with a fixed response.
func New(response string) *Generator {
	return &Generator{Response: response}
}

// NewHandler creates a Generator whose reply is computed from the prompt.
func NewHandler(handler func(prompt string) (string, error)) *Generator {
	return &Generator{Handler: handler}
}

// NewFailing creates a Generator that always returns err.
func NewFailing(err error) *Generator {
	return &Generator{Err: err}
}

// Generate returns the canned response, the handler result, or Err.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := modeladapter.CheckPrompt(prompt); err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	switch {
	case g.Err != nil:
		return "", g.Err
	case g.Handler != nil:
		return g.Handler(prompt)
	}

	return g.Response, nil
}

// Prompts returns a copy of every prompt received so far.
func (g *Generator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]string(nil), g.prompts...)
}
