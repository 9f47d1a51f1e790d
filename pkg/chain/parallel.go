package chain

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Record maps each output name to the text its chain produced.
type Record map[string]string

// Names returns the record's keys in sorted order.
func (r Record) Names() []string {
	return slices.Sorted(maps.Keys(r))
}

// ErrNoChains is returned when a Parallel is created without chains.
var ErrNoChains = errors.New("chain: parallel: at least one chain is required")

// Parallel runs a fixed set of named runners against the same bindings.
type Parallel struct {
	runners map[string]Runner
	names   []string
}

// NewParallel creates a Parallel over the given runners. The map is copied.
func NewParallel(runners map[string]Runner) (*Parallel, error) {
	if len(runners) == 0 {
		return nil, ErrNoChains
	}

	for name, r := range runners {
		if name == "" {
			return nil, errors.New("chain: parallel: output name is required")
		}
		if r == nil {
			return nil, fmt.Errorf("chain: parallel: %q: nil runner", name)
		}
	}

	rs := maps.Clone(runners)

	return &Parallel{runners: rs, names: slices.Sorted(maps.Keys(rs))}, nil
}

// Names returns the configured output names in sorted order.
func (p *Parallel) Names() []string {
	return slices.Clone(p.names)
}

// RunAll launches every runner concurrently and waits for all of them. On
// success the Record holds exactly the configured names, each non-empty. If any runner fails
// RunAll returns a nil Record and the first error; the shared context is
// cancelled so the remaining runners can stop early.
func (p *Parallel) RunAll(ctx context.Context, bindings map[string]string) (Record, error) {
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	rec := make(Record, len(p.names))

	for _, name := range p.names {
		r := p.runners[name]

		g.Go(func() error {
			out, err := r.Run(ctx, bindings)
			if err == nil && out == "" {
				err = errEmptyCompletion()
			}
			if err != nil {
				return fmt.Errorf("parallel %q: %w", name, err)
			}

			mu.Lock()
			rec[name] = out
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return rec, nil
}
