package engine

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/germanamz/promptchain/pkg/chain"
	"github.com/germanamz/promptchain/pkg/credentials"
	"github.com/germanamz/promptchain/pkg/modeladapter"
	"github.com/germanamz/promptchain/pkg/modeladapter/usage"
	"github.com/germanamz/promptchain/pkg/prompt"
)

// Engine holds every component built from a Config. It is read-only after
// New returns and safe for concurrent use.
type Engine struct {
	cfg      Config
	log      *slog.Logger
	raw      map[string]modeladapter.Generator // Unwrapped, for usage reporting.
	backends map[string]modeladapter.Generator
	chains   map[string]*chain.Chain
	groups   map[string]*chain.Parallel
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the backend middleware.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New validates cfg and builds backends, chains and parallel groups.
// Missing credentials are not an error here; they surface as
// modeladapter.ErrAuthenticationFailed on the first call.
func New(cfg Config, creds credentials.Set, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		raw:      make(map[string]modeladapter.Generator, len(cfg.Backends)),
		backends: make(map[string]modeladapter.Generator, len(cfg.Backends)),
		chains:   make(map[string]*chain.Chain, len(cfg.Chains)),
		groups:   make(map[string]*chain.Parallel, len(cfg.Parallel)),
	}
	for _, o := range opts {
		o(e)
	}

	for _, bc := range cfg.Backends {
		g, err := buildGenerator(bc, creds)
		if err != nil {
			return nil, fmt.Errorf("engine: backend %q: %w", bc.Name, err)
		}
		e.raw[bc.Name] = g

		// Validate already checked the duration.
		timeout, _ := time.ParseDuration(bc.Timeout)

		e.backends[bc.Name] = modeladapter.Wrap(g,
			modeladapter.Logger(e.log, bc.Name),
			modeladapter.Recovery(),
			modeladapter.Timeout(timeout),
		)
	}

	for _, cc := range cfg.Chains {
		c, err := e.buildChain(cc)
		if err != nil {
			return nil, err
		}
		e.chains[cc.Name] = c
	}

	for _, pc := range cfg.Parallel {
		runners := make(map[string]chain.Runner, len(pc.Chains))
		for _, name := range pc.Chains {
			runners[name] = e.chains[name]
		}

		p, err := chain.NewParallel(runners)
		if err != nil {
			return nil, fmt.Errorf("engine: parallel group %q: %w", pc.Name, err)
		}
		e.groups[pc.Name] = p
	}

	return e, nil
}

func (e *Engine) buildChain(cc ChainConfig) (*chain.Chain, error) {
	tmpl, err := prompt.New(cc.Template)
	if err != nil {
		return nil, fmt.Errorf("engine: chain %q: %w", cc.Name, err)
	}

	norm, err := chain.NormalizerByName(cc.Normalizer, cc.Field)
	if err != nil {
		return nil, fmt.Errorf("engine: chain %q: %w", cc.Name, err)
	}

	return chain.Build().
		Name(cc.Name).
		Template(tmpl).
		Generator(e.backends[cc.Backend]).
		Normalizer(norm).
		Chain()
}

// Config returns the configuration the engine was built from.
func (e *Engine) Config() Config { return e.cfg }

// Backend returns the named backend, wrapped with logging and recovery.
func (e *Engine) Backend(name string) (modeladapter.Generator, bool) {
	g, ok := e.backends[name]
	return g, ok
}

// Chain returns the named chain.
func (e *Engine) Chain(name string) (*chain.Chain, bool) {
	c, ok := e.chains[name]
	return c, ok
}

// Parallel returns the named parallel group.
func (e *Engine) Parallel(name string) (*chain.Parallel, bool) {
	p, ok := e.groups[name]
	return p, ok
}

// ChainNames returns all chain names in sorted order.
func (e *Engine) ChainNames() []string {
	return slices.Sorted(maps.Keys(e.chains))
}

// ParallelNames returns all parallel group names in sorted order.
func (e *Engine) ParallelNames() []string {
	return slices.Sorted(maps.Keys(e.groups))
}

// Placeholders returns the union of placeholders used by a parallel group's
// chains, in sorted order.
func (e *Engine) Placeholders(group string) []string {
	p, ok := e.groups[group]
	if !ok {
		return nil
	}

	set := make(map[string]struct{})
	for _, name := range p.Names() {
		for _, ph := range e.chains[name].Template().Placeholders() {
			set[ph] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(set))
}

// Bindings returns a copy of the configured default bindings.
func (e *Engine) Bindings() map[string]string {
	return maps.Clone(e.cfg.Bindings)
}

// Usage returns the token usage recorded by the named backend. The bool is
// false for unknown backends and backends that have recorded nothing.
func (e *Engine) Usage(name string) (usage.TokenCount, bool) {
	ur, ok := e.raw[name].(modeladapter.UsageReporter)
	if !ok || ur.UsageTracker().Count() == 0 {
		return usage.TokenCount{}, false
	}
	return ur.UsageTracker().Total(), true
}
