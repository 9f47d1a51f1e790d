package modeladapter

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrBackendUnavailable covers network failures, timeouts and 5xx responses.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrAuthenticationFailed covers missing or invalid credentials.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrBackendRejected covers invalid model identifiers, exhausted quota and
	// any other request the provider refused or answered unintelligibly.
	ErrBackendRejected = errors.New("backend rejected request")
	// ErrEmptyPrompt is returned before any network call when the prompt is blank.
	ErrEmptyPrompt = errors.New("empty prompt")
)

// BackendError describes a failed remote call. Kind is one of the sentinel
// errors above, so errors.Is(err, ErrBackendRejected) works through wrapping.
type BackendError struct {
	Kind   error
	Status int    // HTTP status, zero when no response was received.
	Body   string // Truncated response body, if any.
	Err    error  // Underlying transport or decode error, if any.
}

func (e *BackendError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())

	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}

	switch {
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	case e.Body != "":
		b.WriteString(": ")
		b.WriteString(e.Body)
	}

	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying error.
func (e *BackendError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// ClassifyStatus maps a non-2xx HTTP response onto the error taxonomy.
// hasKey reports whether the request carried a credential; providers that
// answer a missing key with 400 are treated as authentication failures.
func ClassifyStatus(status int, body string, hasKey bool) *BackendError {
	kind := ErrBackendRejected

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = ErrAuthenticationFailed
	case status == http.StatusBadRequest && mentionsAPIKey(body):
		kind = ErrAuthenticationFailed
	case status == http.StatusBadRequest && !hasKey:
		kind = ErrAuthenticationFailed
	case status == http.StatusRequestTimeout || status >= 500:
		kind = ErrBackendUnavailable
	}

	return &BackendError{Kind: kind, Status: status, Body: strings.TrimSpace(body)}
}

func mentionsAPIKey(body string) bool {
	l := strings.ToLower(body)
	return strings.Contains(l, "api key") || strings.Contains(l, "api_key_invalid")
}
