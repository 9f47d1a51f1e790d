package main

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/huh"
	"github.com/germanamz/promptchain/pkg/console"
	"github.com/germanamz/promptchain/pkg/credentials"
	"github.com/germanamz/promptchain/pkg/engine"
	"github.com/google/uuid"
)

// app bundles what every command needs.
type app struct {
	opts    options
	creds   credentials.Set
	engine  *engine.Engine
	printer *console.Printer
	log     *slog.Logger

	// askBindings fills in bindings interactively; replaced in tests.
	askBindings func(names []string, defaults map[string]string) (map[string]string, error)
}

func newApp(opts options, stdout, stderr io.Writer) (*app, error) {
	if err := credentials.LoadDotEnv(opts.envFile); err != nil {
		return nil, err
	}
	creds := credentials.FromEnv()

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	log := newLogger(stderr, opts.verbose)

	eng, err := engine.New(cfg, creds, engine.WithLogger(log))
	if err != nil {
		return nil, err
	}

	return &app{
		opts:        opts,
		creds:       creds,
		engine:      eng,
		printer:     console.New(stdout, opts.markdown),
		log:         log,
		askBindings: askBindings,
	}, nil
}

func loadConfig(path string) (engine.Config, error) {
	if path == "" {
		return engine.DefaultConfig()
	}
	return engine.LoadConfig(path)
}

// newLogger returns a text logger on w tagged with a fresh run id.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})

	return slog.New(h).With("run_id", uuid.NewString())
}

// bindings returns the configured default bindings, asking the user for
// names when running interactively.
func (a *app) bindings(names []string) (map[string]string, error) {
	return a.targetBindings(names, nil)
}

// logUsage reports the tokens a backend consumed, when it tracks them.
func (a *app) logUsage(backend string) {
	if u, ok := a.engine.Usage(backend); ok {
		a.log.Info("token usage", "backend", backend, "usage", u.String(), "total", u.Total())
	}
}

// askBindings shows one input per placeholder, prefilled with its default.
func askBindings(names []string, defaults map[string]string) (map[string]string, error) {
	values := make([]string, len(names))
	fields := make([]huh.Field, len(names))

	for i, n := range names {
		values[i] = defaults[n]
		fields[i] = huh.NewInput().Title(n).Value(&values[i])
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(names))
	for i, n := range names {
		out[n] = values[i]
	}

	return out, nil
}
