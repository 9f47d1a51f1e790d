package chain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Normalizer post-processes raw model output.
type Normalizer func(raw string) (string, error)

// Identity returns the output unchanged.
func Identity(raw string) (string, error) { return raw, nil }

// TrimSpace strips leading and trailing whitespace.
func TrimSpace(raw string) (string, error) { return strings.TrimSpace(raw), nil }

// JSONField extracts a string field from a JSON object in the output. A
// surrounding ```json fence is tolerated. Non-string values are returned in
// their JSON encoding.
func JSONField(field string) Normalizer {
	return func(raw string) (string, error) {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(stripFence(raw)), &obj); err != nil {
			return "", fmt.Errorf("json field %q: %w", field, err)
		}

		v, ok := obj[field]
		if !ok {
			return "", fmt.Errorf("json field %q: %w", field, errFieldMissing)
		}

		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s, nil
		}

		return string(v), nil
	}
}

var errFieldMissing = errors.New("field not present")

// stripFence removes a markdown code fence around the payload, if present.
func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}

// NormalizerByName resolves the names used in configuration files:
// "", "identity", "trim" and "json_field" (which needs field).
func NormalizerByName(name, field string) (Normalizer, error) {
	switch name {
	case "", "identity":
		return Identity, nil
	case "trim":
		return TrimSpace, nil
	case "json_field":
		if field == "" {
			return nil, errors.New("chain: normalizer json_field requires a field")
		}
		return JSONField(field), nil
	}

	return nil, fmt.Errorf("chain: unknown normalizer %q", name)
}
