// Package modeladapter defines the interface and shared plumbing for hosted
// text-generation backends.
//
// It contains:
//   - [Generator] interface and the [GeneratorFunc] adapter
//   - embeddable [ModelAdapter] base struct with HTTP helpers, auth, and custom headers
//   - the backend error taxonomy ([ErrBackendUnavailable], [ErrAuthenticationFailed], [ErrBackendRejected])
//   - [Middleware] wrappers for logging, panic recovery and deadlines
//   - [github.com/germanamz/promptchain/pkg/modeladapter/usage]: thread-safe token usage tracker
//
// Model configuration (name, temperature, max tokens) is inlined directly on
// the ModelAdapter struct. Concrete adapters live in separate packages under
// pkg/providers.
package modeladapter
