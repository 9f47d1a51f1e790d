// Package providers groups the concrete text-generation backends.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/promptchain/pkg/providers/gemini]: Google Gemini generateContent API
//   - [github.com/germanamz/promptchain/pkg/providers/huggingface]: Hugging Face Inference API text generation
//   - [github.com/germanamz/promptchain/pkg/providers/mock]: offline canned replies for tests and dry runs
//
// Every adapter satisfies [github.com/germanamz/promptchain/pkg/modeladapter.Generator];
// shared HTTP, auth and error classification live in modeladapter.
package providers
