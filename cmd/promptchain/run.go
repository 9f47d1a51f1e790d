package main

import (
	"context"
	"fmt"
	"maps"
	"strings"
)

// runTarget runs the chain or parallel group named target. Bindings come from
// the configuration, then key=value arguments, then the interactive form.
func runTarget(ctx context.Context, a *app, target string, args []string) error {
	overrides, err := parseBindings(args)
	if err != nil {
		return err
	}

	if c, ok := a.engine.Chain(target); ok {
		bindings, err := a.targetBindings(c.Template().Placeholders(), overrides)
		if err != nil {
			return err
		}

		out, err := c.Run(ctx, bindings)
		if err != nil {
			a.printer.Failure(0, fmt.Sprintf("Chain %s failed", target), err)
			return err
		}
		a.printer.Success(0, fmt.Sprintf("Chain %s completed", target), out)

		return nil
	}

	if p, ok := a.engine.Parallel(target); ok {
		bindings, err := a.targetBindings(a.engine.Placeholders(target), overrides)
		if err != nil {
			return err
		}

		rec, err := p.RunAll(ctx, bindings)
		if err != nil {
			a.printer.Failure(0, fmt.Sprintf("Parallel group %s failed", target), err)
			return err
		}
		a.printer.Success(0, fmt.Sprintf("Parallel group %s completed", target))
		a.printer.Record(rec)

		return nil
	}

	return fmt.Errorf("run: no chain or parallel group named %q (chains: %v, groups: %v)",
		target, a.engine.ChainNames(), a.engine.ParallelNames())
}

// targetBindings merges the configured bindings with overrides and, when
// running interactively, the answers for names.
func (a *app) targetBindings(names []string, overrides map[string]string) (map[string]string, error) {
	// Command-line values become the form defaults.
	saved := a.engine.Bindings()
	if saved == nil {
		saved = make(map[string]string, len(overrides))
	}
	maps.Copy(saved, overrides)

	if a.opts.interactive && len(names) > 0 {
		answers, err := a.askBindings(names, saved)
		if err != nil {
			return nil, fmt.Errorf("read bindings: %w", err)
		}
		maps.Copy(saved, answers)
	}

	return saved, nil
}

// parseBindings turns key=value arguments into a map.
func parseBindings(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid binding %q: want key=value: %w", arg, errUsage)
		}
		out[k] = v
	}
	return out, nil
}
