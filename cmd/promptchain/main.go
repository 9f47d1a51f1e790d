package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

var errUsage = errors.New("usage")

const usageText = `Usage: promptchain <command> [flags] [args]

Commands:
  demo gemini                     Run the sequential Gemini recipe demo
  demo parallel                   Run the recipe and nutrition chains in parallel
  run <chain|group> [key=value]   Run one configured chain or parallel group
  serve-mcp                       Serve chains and groups as MCP tools over stdio

Run "promptchain <command> -h" for the flags of a command.
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := dispatch(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	cancel()

	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
	case errors.Is(err, errUsage):
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// dispatch routes args to a subcommand.
func dispatch(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "demo":
		if len(args) < 2 {
			return errUsage
		}

		var demo func(context.Context, *app) error
		switch args[1] {
		case "gemini":
			demo = runGeminiDemo
		case "parallel":
			demo = runParallelDemo
		default:
			return fmt.Errorf("unknown demo %q: %w", args[1], errUsage)
		}

		opts, _, err := parseFlags("demo "+args[1], args[2:], stderr)
		if err != nil {
			return err
		}

		a, err := newApp(opts, stdout, stderr)
		if err != nil {
			return err
		}

		return demo(ctx, a)

	case "run":
		opts, rest, err := parseFlags("run", args[1:], stderr)
		if err != nil {
			return err
		}
		if len(rest) == 0 {
			return fmt.Errorf("run: target name is required: %w", errUsage)
		}

		a, err := newApp(opts, stdout, stderr)
		if err != nil {
			return err
		}

		return runTarget(ctx, a, rest[0], rest[1:])

	case "serve-mcp":
		opts, _, err := parseFlags("serve-mcp", args[1:], stderr)
		if err != nil {
			return err
		}

		a, err := newApp(opts, stdout, stderr)
		if err != nil {
			return err
		}

		return serveMCP(ctx, a, stdin, stdout)

	case "help", "-h", "-help", "--help":
		_, _ = io.WriteString(stdout, usageText)
		return nil
	}

	return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
}

type options struct {
	envFile     string
	configPath  string
	markdown    bool
	interactive bool
	verbose     bool
}

// parseFlags parses the flags shared by every command and returns the
// remaining positional arguments.
func parseFlags(name string, args []string, stderr io.Writer) (options, []string, error) {
	var opts options

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: promptchain %s [flags]\n\nFlags:\n", name)
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.envFile, "env", ".env", "path to .env file (ignored if missing)")
	fs.StringVar(&opts.configPath, "config", "", "path to configuration file (default: built-in demo config)")
	fs.BoolVar(&opts.markdown, "markdown", false, "render model output as markdown")
	fs.BoolVar(&opts.interactive, "interactive", false, "prompt for template bindings")
	fs.BoolVar(&opts.verbose, "verbose", false, "log every backend call")

	if err := fs.Parse(args); err != nil {
		return options{}, nil, err
	}

	return opts, fs.Args(), nil
}
