package modeladapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/germanamz/promptchain/pkg/modeladapter"
	"github.com/germanamz/promptchain/pkg/modeladapter/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Generator interface tests ---

// Compile-time interface checks.
var (
	_ modeladapter.Generator = (*mockGenerator)(nil)
	_ modeladapter.Generator = (*modeladapter.ModelAdapter)(nil)
	_ modeladapter.Generator = modeladapter.GeneratorFunc(nil)
)

type mockGenerator struct {
	out string
	err error
}

func (m *mockGenerator) Generate(_ context.Context, _ string) (string, error) {
	return m.out, m.err
}

func TestGenerator_Success(t *testing.T) {
	g := &mockGenerator{out: "hello back"}

	got, err := g.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello back", got)
}

func TestGeneratorFunc(t *testing.T) {
	g := modeladapter.GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		return "echo: " + prompt, nil
	})

	got, err := g.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", got)
}

// --- ModelAdapter struct (base) tests ---

func TestModelAdapter_StubGenerate(t *testing.T) {
	var a modeladapter.ModelAdapter

	_, err := a.Generate(context.Background(), "hi")
	assert.EqualError(t, err, "adapter: Generate not implemented")
}

func TestNew_DefaultClient(t *testing.T) {
	a := modeladapter.New("https://api.example.com", modeladapter.Auth{}, nil)
	assert.Nil(t, a.Client)
}

func TestUsageTracker_SharesAdapterState(t *testing.T) {
	a := modeladapter.New("https://api.example.com", modeladapter.Auth{}, nil)
	a.Usage.Add(usage.TokenCount{InputTokens: 4, OutputTokens: 2})

	var ur modeladapter.UsageReporter = &a
	assert.Equal(t, 1, ur.UsageTracker().Count())
	assert.Equal(t, 6, ur.UsageTracker().Total().Total())
}

func TestCheckPrompt(t *testing.T) {
	assert.NoError(t, modeladapter.CheckPrompt("hi"))
	assert.ErrorIs(t, modeladapter.CheckPrompt(""), modeladapter.ErrEmptyPrompt)
	assert.ErrorIs(t, modeladapter.CheckPrompt(" \n\t"), modeladapter.ErrEmptyPrompt)
}

func TestNewRequest_BearerAuth(t *testing.T) {
	a := modeladapter.New("https://api.example.com", modeladapter.Auth{Key: "hf-test"}, nil)

	req, err := a.NewRequest(context.Background(), http.MethodGet, "/models/x", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/models/x", req.URL.String())
	assert.Equal(t, "Bearer hf-test", req.Header.Get("Authorization"))
}

func TestNewRequest_CustomHeader(t *testing.T) {
	auth := modeladapter.Auth{Key: "goog-test", Header: "x-goog-api-key"}
	a := modeladapter.New("https://api.example.com", auth, nil)

	req, err := a.NewRequest(context.Background(), http.MethodGet, "/v1beta/models", nil)
	require.NoError(t, err)
	assert.Equal(t, "goog-test", req.Header.Get("x-goog-api-key"))
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestNewRequest_CustomHeaderWithScheme(t *testing.T) {
	auth := modeladapter.Auth{Key: "sk-test", Header: "x-api-key", Scheme: "Token"}
	a := modeladapter.New("https://api.example.com", auth, nil)

	req, err := a.NewRequest(context.Background(), http.MethodGet, "/v1/chat", nil)
	require.NoError(t, err)
	assert.Equal(t, "Token sk-test", req.Header.Get("x-api-key"))
}

func TestNewRequest_NoAuth(t *testing.T) {
	a := modeladapter.New("https://api.example.com", modeladapter.Auth{}, nil)

	req, err := a.NewRequest(context.Background(), http.MethodGet, "/v1/chat", nil)
	require.NoError(t, err)
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestNewRequest_ExtraHeaders(t *testing.T) {
	a := modeladapter.New("https://api.example.com", modeladapter.Auth{}, nil)
	a.Headers = map[string]string{"x-custom": "value"}

	req, err := a.NewRequest(context.Background(), http.MethodGet, "/v1/chat", nil)
	require.NoError(t, err)
	assert.Equal(t, "value", req.Header.Get("x-custom"))
}

func TestDo_Passthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	a := modeladapter.New(srv.URL, modeladapter.Auth{}, srv.Client())

	req, err := a.NewRequest(context.Background(), http.MethodGet, "/ping", nil)
	require.NoError(t, err)

	resp, err := a.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestPostJSON_Success(t *testing.T) {
	type reqBody struct {
		Inputs string `json:"inputs"`
	}
	type respBody struct {
		Text string `json:"generated_text"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got reqBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "Hello", got.Inputs)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(respBody{Text: "World"})
	}))
	defer srv.Close()

	a := modeladapter.New(srv.URL, modeladapter.Auth{Key: "hf-test"}, srv.Client())

	var dest respBody
	err := a.PostJSON(context.Background(), "/models/x", reqBody{Inputs: "Hello"}, &dest)
	require.NoError(t, err)
	assert.Equal(t, "World", dest.Text)
}

func TestPostJSON_StatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		key    string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad token"}`, "k", modeladapter.ErrAuthenticationFailed},
		{"forbidden", http.StatusForbidden, `{}`, "k", modeladapter.ErrAuthenticationFailed},
		{"bad request mentions key", http.StatusBadRequest, `API key not valid. Please pass a valid API key.`, "k", modeladapter.ErrAuthenticationFailed},
		{"bad request without key", http.StatusBadRequest, `missing`, "", modeladapter.ErrAuthenticationFailed},
		{"bad request with key", http.StatusBadRequest, `bad field`, "k", modeladapter.ErrBackendRejected},
		{"not found", http.StatusNotFound, `model not found`, "k", modeladapter.ErrBackendRejected},
		{"quota", http.StatusTooManyRequests, `quota exceeded`, "k", modeladapter.ErrBackendRejected},
		{"server error", http.StatusInternalServerError, `boom`, "k", modeladapter.ErrBackendUnavailable},
		{"loading", http.StatusServiceUnavailable, `model is loading`, "k", modeladapter.ErrBackendUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			a := modeladapter.New(srv.URL, modeladapter.Auth{Key: tt.key}, srv.Client())

			err := a.PostJSON(context.Background(), "/x", map[string]string{}, nil)
			require.ErrorIs(t, err, tt.want)

			var be *modeladapter.BackendError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, tt.status, be.Status)
			assert.Contains(t, err.Error(), tt.body)
		})
	}
}

func TestPostJSON_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	a := modeladapter.New(url, modeladapter.Auth{Key: "k"}, nil)

	err := a.PostJSON(context.Background(), "/x", map[string]string{}, nil)
	assert.ErrorIs(t, err, modeladapter.ErrBackendUnavailable)
}

func TestPostJSON_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := modeladapter.New(srv.URL, modeladapter.Auth{}, srv.Client())

	err := a.PostJSON(ctx, "/x", map[string]string{}, nil)
	assert.ErrorIs(t, err, modeladapter.ErrBackendUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPostJSON_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	a := modeladapter.New(srv.URL, modeladapter.Auth{}, srv.Client())

	var dest map[string]any
	err := a.PostJSON(context.Background(), "/x", map[string]string{}, &dest)
	assert.ErrorIs(t, err, modeladapter.ErrBackendRejected)
	assert.ErrorContains(t, err, "decode response")
}

func TestPostJSON_MarshalError(t *testing.T) {
	a := modeladapter.New("https://api.example.com", modeladapter.Auth{}, nil)

	err := a.PostJSON(context.Background(), "/v1/chat", make(chan int), nil)
	assert.ErrorContains(t, err, "marshal payload")
}

func TestPostJSON_NilDest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	a := modeladapter.New(srv.URL, modeladapter.Auth{}, srv.Client())

	err := a.PostJSON(context.Background(), "/v1/chat", map[string]string{"model": "x"}, nil)
	assert.NoError(t, err)
}

func TestBackendError_Message(t *testing.T) {
	err := &modeladapter.BackendError{Kind: modeladapter.ErrBackendRejected, Status: 404, Body: "no such model"}
	assert.Equal(t, "backend rejected request (status 404): no such model", err.Error())

	wrapped := &modeladapter.BackendError{Kind: modeladapter.ErrBackendUnavailable, Err: errors.New("dial tcp: refused")}
	assert.Equal(t, "backend unavailable: dial tcp: refused", wrapped.Error())
}
