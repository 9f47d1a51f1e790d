// Package huggingface provides a Generator implementation for the Hugging Face
// Inference API text-generation task.
package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/germanamz/promptchain/pkg/modeladapter"
)

// DefaultBaseURL routes requests to the serverless hf-inference provider.
const DefaultBaseURL = "https://router.huggingface.co/hf-inference"

// DefaultModel is a small instruction-tuned model served by hf-inference.
const DefaultModel = "HuggingFaceH4/zephyr-7b-beta"

var _ modeladapter.Generator = (*Adapter)(nil)

// Adapter implements modeladapter.Generator for Hugging Face text generation.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter for the given model. The token is sent as a bearer
// credential; an empty token sends anonymous requests.
func New(baseURL, token, model string) *Adapter {
	a := &Adapter{ModelAdapter: modeladapter.New(baseURL, modeladapter.Auth{Key: token}, nil)}
	a.Name = model
	a.MaxTokens = 512

	return a
}

// Generate posts the prompt to the model endpoint and returns the generated
// continuation without the echoed prompt.
func (a *Adapter) Generate(ctx context.Context, prompt string) (string, error) {
	if err := modeladapter.CheckPrompt(prompt); err != nil {
		return "", fmt.Errorf("huggingface: %w", err)
	}

	var raw json.RawMessage
	if err := a.PostJSON(ctx, modelPath(a.Name), a.buildRequest(prompt), &raw); err != nil {
		return "", fmt.Errorf("huggingface: %w", err)
	}

	text, err := parseResponse(raw)
	if err != nil {
		return "", fmt.Errorf("huggingface: %w", err)
	}

	return text, nil
}

// --- request types ---

type apiRequest struct {
	Inputs     string        `json:"inputs"`
	Parameters apiParameters `json:"parameters"`
}

type apiParameters struct {
	Temperature    *float64 `json:"temperature,omitempty"`
	MaxNewTokens   int      `json:"max_new_tokens,omitempty"`
	ReturnFullText bool     `json:"return_full_text"`
}

// --- response types ---

type apiGeneration struct {
	GeneratedText *string `json:"generated_text"`
	Error         string  `json:"error"`
}

func (a *Adapter) buildRequest(prompt string) apiRequest {
	req := apiRequest{
		Inputs: prompt,
		Parameters: apiParameters{
			MaxNewTokens: a.MaxTokens,
		},
	}

	if a.Temperature != 0 {
		t := a.Temperature
		req.Parameters.Temperature = &t
	}

	return req
}

// parseResponse accepts both the list form ([{"generated_text": ...}]) and the
// single-object form some deployments return.
func parseResponse(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))

	var gens []apiGeneration
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &gens); err != nil {
			return "", rejected(fmt.Errorf("decode response: %w", err))
		}
	} else {
		var g apiGeneration
		if err := json.Unmarshal(raw, &g); err != nil {
			return "", rejected(fmt.Errorf("decode response: %w", err))
		}
		gens = []apiGeneration{g}
	}

	if len(gens) == 0 {
		return "", rejected(errors.New("empty generations in response"))
	}

	first := gens[0]
	if first.Error != "" {
		return "", rejected(errors.New(first.Error))
	}

	if first.GeneratedText == nil {
		return "", rejected(errors.New("response has no generated_text"))
	}

	return *first.GeneratedText, nil
}

// modelPath escapes each segment of an "org/name" model id.
func modelPath(model string) string {
	segs := strings.Split(model, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return "/models/" + strings.Join(segs, "/")
}

func rejected(err error) error {
	return &modeladapter.BackendError{Kind: modeladapter.ErrBackendRejected, Err: err}
}
