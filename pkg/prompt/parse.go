package prompt

import (
	"fmt"
	"strings"
)

func parse(text string) ([]segment, error) {
	var (
		segs []segment
		lit  strings.Builder
	)

	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]

		switch c {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}

			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("prompt: unclosed placeholder at offset %d", i)
			}

			name := text[i+1 : i+1+end]
			if !validName(name) {
				return nil, fmt.Errorf("prompt: invalid placeholder name %q at offset %d", name, i)
			}

			flush()
			segs = append(segs, segment{text: name, placeholder: true})
			i += end + 1
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, fmt.Errorf("prompt: single '}' at offset %d (use '}}' for a literal brace)", i)
		default:
			lit.WriteByte(c)
		}
	}

	flush()

	return segs, nil
}

// validName reports whether s is an identifier: a letter or underscore
// followed by letters, digits or underscores.
func validName(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}

	return true
}
