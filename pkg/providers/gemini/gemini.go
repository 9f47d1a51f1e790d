// Package gemini provides a Generator implementation for the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/germanamz/promptchain/pkg/modeladapter"
	"github.com/germanamz/promptchain/pkg/modeladapter/usage"
)

// DefaultBaseURL is the public Gemini API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// DefaultModel is the fast free-tier model.
const DefaultModel = "gemini-1.5-flash"

var _ modeladapter.Generator = (*Adapter)(nil)

// Adapter implements modeladapter.Generator for the Google Gemini API.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter configured for the Gemini API.
// The baseURL should be "https://generativelanguage.googleapis.com" (no trailing slash).
func New(baseURL, apiKey, model string) *Adapter {
	a := &Adapter{ModelAdapter: modeladapter.New(baseURL, modeladapter.Auth{
		Key:    apiKey,
		Header: "x-goog-api-key",
	}, nil)}
	a.Name = model
	a.MaxTokens = 8192

	return a
}

// Generate sends a single-turn prompt to the Gemini API and returns the text
// of the first candidate.
func (a *Adapter) Generate(ctx context.Context, prompt string) (string, error) {
	if err := modeladapter.CheckPrompt(prompt); err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateContent", url.PathEscape(a.Name))

	var resp apiResponse
	if err := a.PostJSON(ctx, path, a.buildRequest(prompt), &resp); err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	a.Usage.Add(usage.TokenCount{
		InputTokens:  resp.UsageMetadata.PromptTokenCount,
		OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
	})

	if len(resp.Candidates) == 0 {
		reason := "empty candidates in response"
		if r := resp.PromptFeedback.BlockReason; r != "" {
			reason = "prompt blocked: " + r
		}

		return "", fmt.Errorf("gemini: %w", &modeladapter.BackendError{
			Kind: modeladapter.ErrBackendRejected,
			Body: reason,
		})
	}

	return candidateText(resp.Candidates[0]), nil
}

// --- request types ---

type apiRequest struct {
	Contents         []apiContent     `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type apiContent struct {
	Role  string    `json:"role"`
	Parts []apiPart `json:"parts"`
}

type apiPart struct {
	Text string `json:"text,omitempty"`
}

type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

// --- response types ---

type apiResponse struct {
	Candidates     []apiCandidate    `json:"candidates"`
	PromptFeedback apiPromptFeedback `json:"promptFeedback"`
	UsageMetadata  apiUsageMeta      `json:"usageMetadata"`
}

type apiCandidate struct {
	Content      apiContent `json:"content"`
	FinishReason string     `json:"finishReason"`
}

type apiPromptFeedback struct {
	BlockReason string `json:"blockReason"`
}

type apiUsageMeta struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// --- conversion helpers ---

func (a *Adapter) buildRequest(prompt string) apiRequest {
	req := apiRequest{
		Contents: []apiContent{{
			Role:  "user",
			Parts: []apiPart{{Text: prompt}},
		}},
		GenerationConfig: generationConfig{
			MaxOutputTokens: a.MaxTokens,
		},
	}

	if a.Temperature != 0 {
		t := a.Temperature
		req.GenerationConfig.Temperature = &t
	}

	return req
}

func candidateText(c apiCandidate) string {
	var b strings.Builder
	for _, p := range c.Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}
