package main

import (
	"context"
	"fmt"

	"github.com/germanamz/promptchain/pkg/credentials"
)

// Names the demos look up in the configuration.
const (
	geminiBackend    = "gemini"
	geminiChain      = "gemini_recipe"
	parallelBackend  = "huggingface"
	parallelGroup    = "meal"
	connectionPrompt = "Hello! Reply with exactly 5 words."
)

// runGeminiDemo walks through the sequential flow one step at a time. Remote
// failures are printed and the demo continues; only a configuration without
// the demo's backend or chain is an error.
func runGeminiDemo(ctx context.Context, a *app) error {
	a.printer.Presence(credentials.Presence{Provider: "Google API Key", Present: a.creds.GeminiAPIKey != ""})

	llm, ok := a.engine.Backend(geminiBackend)
	if !ok {
		return fmt.Errorf("demo gemini: backend %q is not configured", geminiBackend)
	}
	a.printer.Success(1, "Google Gemini LLM initialized")

	recipe, ok := a.engine.Chain(geminiChain)
	if !ok {
		return fmt.Errorf("demo gemini: chain %q is not configured", geminiChain)
	}
	tmpl := recipe.Template()
	a.printer.Success(2, "Recipe prompt created")

	if out, err := llm.Generate(ctx, connectionPrompt); err != nil {
		a.printer.Failure(3, "LLM test failed", err)
	} else {
		a.printer.Success(3, "LLM test successful: "+out)
	}

	bindings, err := a.bindings(tmpl.Placeholders())
	if err != nil {
		return err
	}

	// Formatting and invocation fail together as step 5.
	rendered, err := tmpl.Render(bindings)
	if err != nil {
		a.printer.Failure(5, "Direct LLM invocation failed", err)
		return nil
	}
	a.printer.Success(4, "Prompt formatting successful", "Formatted recipe prompt:\n"+rendered)

	out, err := llm.Generate(ctx, rendered)
	if err != nil {
		a.printer.Failure(5, "Direct LLM invocation failed", err)
		return nil
	}
	a.printer.Success(5, "LLM direct invocation successful", "Recipe result:\n"+out)

	a.logUsage(geminiBackend)

	return nil
}

// runParallelDemo runs the recipe and nutrition chains concurrently over the
// same bindings and prints both outputs.
func runParallelDemo(ctx context.Context, a *app) error {
	a.printer.Presence(credentials.Presence{Provider: "Hugging Face Token", Present: a.creds.HuggingFaceToken != ""})

	if _, ok := a.engine.Backend(parallelBackend); !ok {
		return fmt.Errorf("demo parallel: backend %q is not configured", parallelBackend)
	}
	a.printer.Success(1, "Hugging Face LLM initialized")

	group, ok := a.engine.Parallel(parallelGroup)
	if !ok {
		return fmt.Errorf("demo parallel: parallel group %q is not configured", parallelGroup)
	}
	a.printer.Success(2, fmt.Sprintf("Parallel chains created: %v", group.Names()))

	bindings, err := a.bindings(a.engine.Placeholders(parallelGroup))
	if err != nil {
		return err
	}

	rec, err := group.RunAll(ctx, bindings)
	if err != nil {
		a.printer.Failure(3, "Parallel chain failed", err)
		return nil
	}
	a.printer.Success(3, "Parallel chain completed")
	a.printer.Record(rec)

	a.logUsage(parallelBackend)

	return nil
}
