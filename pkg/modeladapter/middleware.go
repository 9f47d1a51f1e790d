package modeladapter

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Middleware wraps a Generator, returning a new Generator with added behaviour.
type Middleware func(next Generator) Generator

// Wrap applies middlewares to g. The first middleware is the outermost.
func Wrap(g Generator, mws ...Middleware) Generator {
	for i := len(mws) - 1; i >= 0; i-- {
		g = mws[i](g)
	}
	return g
}

// --- Timeout middleware ---

// Timeout returns a Middleware that bounds each call with a deadline.
// A non-positive d leaves calls unbounded.
func Timeout(d time.Duration) Middleware {
	return func(next Generator) Generator {
		if d <= 0 {
			return next
		}

		return GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			return next.Generate(ctx, prompt)
		})
	}
}

// --- Recovery middleware ---

// Recovery returns a Middleware that catches panics and converts them to errors.
func Recovery() Middleware {
	return func(next Generator) Generator {
		return GeneratorFunc(func(ctx context.Context, prompt string) (out string, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("generator panicked: %v", r)
				}
			}()

			return next.Generate(ctx, prompt)
		})
	}
}

// --- Logger middleware ---

// Logger returns a Middleware that logs each call's duration and outcome.
func Logger(log *slog.Logger, name string) Middleware {
	return func(next Generator) Generator {
		return GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
			log.DebugContext(ctx, "generate started", "backend", name, "prompt_chars", len(prompt))

			start := time.Now()

			out, err := next.Generate(ctx, prompt)

			duration := time.Since(start)

			if err != nil {
				log.ErrorContext(ctx, "generate failed",
					"backend", name,
					"duration", duration,
					"error", err,
				)
			} else {
				log.InfoContext(ctx, "generate finished",
					"backend", name,
					"duration", duration,
					"output_chars", len(out),
				)
			}

			return out, err
		})
	}
}
