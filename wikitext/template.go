package wikitext

import (
	"strconv"
	"strings"
)

// template is one {{...}} transclusion found in page text.
type template struct {
	raw  string // full marker including braces
	name string
	args []string // raw argument segments, in source order
}

// arg resolves positional argument n. Unnamed segments count as
// positions 1, 2, ...; an explicit "n=value" segment addresses the same
// slot, and a later assignment wins, matching MediaWiki behaviour.
func (t template) arg(n int) string {
	key := strconv.Itoa(n)
	pos := 0
	val := ""
	for _, a := range t.args {
		k, v, named := splitNamed(a)
		if named {
			if k == key {
				val = v
			}
			continue
		}
		pos++
		if pos == n {
			val = a
		}
	}
	return val
}

// scanTemplates finds every transclusion in text, including ones nested
// inside another transclusion's arguments. Unbalanced braces are skipped
// rather than treated as errors.
func scanTemplates(text string) []template {
	var out []template
	for i := 0; i+1 < len(text); {
		if text[i] != '{' || text[i+1] != '{' {
			i++
			continue
		}
		end := matchBraces(text, i)
		if end < 0 {
			i++
			continue
		}
		raw := text[i:end]
		out = append(out, parseTemplate(raw))
		out = append(out, scanTemplates(raw[2:len(raw)-2])...)
		i = end
	}
	return out
}

// matchBraces returns the index just past the "}}" closing the "{{" at
// start, or -1 if the braces never balance.
func matchBraces(text string, start int) int {
	depth := 0
	for i := start; i+1 < len(text); {
		switch {
		case text[i] == '{' && text[i+1] == '{':
			depth++
			i += 2
		case text[i] == '}' && text[i+1] == '}':
			depth--
			i += 2
			if depth == 0 {
				return i
			}
		default:
			i++
		}
	}
	return -1
}

func parseTemplate(raw string) template {
	inner := raw[2 : len(raw)-2]
	parts := splitTopLevel(inner, '|')
	t := template{raw: raw, name: parts[0]}
	if len(parts) > 1 {
		t.args = parts[1:]
	}
	return t
}

// splitTopLevel splits s on sep, ignoring separators inside nested
// {{...}} and [[...]] so captions containing links stay whole.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(s); {
		switch {
		case i+1 < len(s) && (s[i] == '{' && s[i+1] == '{' || s[i] == '[' && s[i+1] == '['):
			depth++
			i += 2
		case i+1 < len(s) && (s[i] == '}' && s[i+1] == '}' || s[i] == ']' && s[i+1] == ']'):
			depth--
			i += 2
		case s[i] == sep && depth == 0:
			parts = append(parts, s[last:i])
			i++
			last = i
		default:
			i++
		}
	}
	return append(parts, s[last:])
}

// splitNamed splits "key=value" at the first top-level equals sign.
// Segments without one are positional.
func splitNamed(s string) (key, value string, named bool) {
	depth := 0
	for i := 0; i < len(s); {
		switch {
		case i+1 < len(s) && (s[i] == '{' && s[i+1] == '{' || s[i] == '[' && s[i+1] == '['):
			depth++
			i += 2
		case i+1 < len(s) && (s[i] == '}' && s[i+1] == '}' || s[i] == ']' && s[i+1] == ']'):
			depth--
			i += 2
		case s[i] == '=' && depth == 0:
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
		default:
			i++
		}
	}
	return "", "", false
}
