// Package prompt implements parameterized instruction text with named
// placeholders written as {name}. Doubled braces ({{ and }}) render as
// literal braces.
package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingBinding is matched by every MissingBindingError.
var ErrMissingBinding = errors.New("missing binding")

// MissingBindingError names the placeholder that had no value at render time.
type MissingBindingError struct {
	Name string
}

func (e *MissingBindingError) Error() string {
	return fmt.Sprintf("prompt: missing binding for placeholder %q", e.Name)
}

// Is reports whether target is ErrMissingBinding.
func (e *MissingBindingError) Is(target error) bool {
	return target == ErrMissingBinding
}

// segment is either literal text or a placeholder reference.
type segment struct {
	text        string
	placeholder bool
}

// Template is an immutable parsed prompt. The zero value renders as "".
type Template struct {
	segments []segment
	names    []string
}

// New parses text into a Template.
func New(text string) (Template, error) {
	segs, err := parse(text)
	if err != nil {
		return Template{}, err
	}

	return fromSegments(segs), nil
}

// MustNew is like New but panics on a parse error. Use it for templates
// embedded as constants.
func MustNew(text string) Template {
	t, err := New(text)
	if err != nil {
		panic(err)
	}
	return t
}

func fromSegments(segs []segment) Template {
	seen := make(map[string]struct{})

	var names []string
	for _, s := range segs {
		if !s.placeholder {
			continue
		}
		if _, dup := seen[s.text]; dup {
			continue
		}
		seen[s.text] = struct{}{}
		names = append(names, s.text)
	}

	return Template{segments: segs, names: names}
}

// Placeholders returns the placeholder names in order of first appearance.
func (t Template) Placeholders() []string {
	return append([]string(nil), t.names...)
}

// Text returns the template source, with literal braces escaped again.
func (t Template) Text() string {
	var b strings.Builder
	for _, s := range t.segments {
		if s.placeholder {
			b.WriteString("{" + s.text + "}")
			continue
		}
		b.WriteString(strings.NewReplacer("{", "{{", "}", "}}").Replace(s.text))
	}
	return b.String()
}

// Render substitutes every placeholder with its binding. Bindings that the
// template does not reference are ignored. It fails with a
// *MissingBindingError naming the first placeholder without a binding.
func (t Template) Render(bindings map[string]string) (string, error) {
	var b strings.Builder
	for _, s := range t.segments {
		if !s.placeholder {
			b.WriteString(s.text)
			continue
		}

		v, ok := bindings[s.text]
		if !ok {
			return "", &MissingBindingError{Name: s.text}
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

// Partial returns a new Template with the given placeholders replaced by
// their values. Placeholders without a binding stay open.
func (t Template) Partial(bindings map[string]string) Template {
	segs := make([]segment, 0, len(t.segments))
	for _, s := range t.segments {
		if s.placeholder {
			if v, ok := bindings[s.text]; ok {
				s = segment{text: v}
			}
		}

		// Merge adjacent literals so Text round-trips cleanly.
		if n := len(segs); n > 0 && !s.placeholder && !segs[n-1].placeholder {
			segs[n-1].text += s.text
			continue
		}
		segs = append(segs, s)
	}

	return fromSegments(segs)
}
