// Package render formats prompt templates against a run context.
//
// The syntax is a brace-delimited field language: {key}, nested {key.attr}
// and {key[0]} lookups, and {{ }} escapes.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/idside/pkg/domain"
)

// Format substitutes {field} markers in template with values from vars.
//
// Supported syntax:
//   - {key} inserts vars[key]
//   - {key.name} and {key[name]} walk nested maps; {key[0]} indexes lists
//   - {{ and }} produce literal braces
//
// An absent key fails with *domain.MissingInputKeyError naming the full field path.
// Malformed markers fail with *domain.TemplateError.
func Format(template string, vars map[string]any) (string, error) {
	var sb strings.Builder
	sb.Grow(len(template))

	for i := 0; i < len(template); {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				sb.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", templateErr(template, "unmatched '{' at offset %d", i)
			}
			field := template[i+1 : i+1+end]
			if strings.ContainsRune(field, '{') {
				return "", templateErr(template, "unexpected '{' in field %q", field)
			}
			val, err := resolveField(template, field, vars)
			if err != nil {
				return "", err
			}
			sb.WriteString(formatValue(val))
			i += end + 2
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				sb.WriteByte('}')
				i += 2
				continue
			}
			return "", templateErr(template, "single '}' at offset %d", i)
		default:
			sb.WriteByte(c)
			i++
		}
	}

	return sb.String(), nil
}

// Fields lists the top-level context keys referenced by template, in order of first use.
func Fields(template string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for i := 0; i < len(template); i++ {
		switch template[i] {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				i++
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return nil, templateErr(template, "unmatched '{' at offset %d", i)
			}
			root, _, err := splitField(template, template[i+1:i+1+end])
			if err != nil {
				return nil, err
			}
			if !seen[root] {
				seen[root] = true
				out = append(out, root)
			}
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				i++
				continue
			}
			return nil, templateErr(template, "single '}' at offset %d", i)
		}
	}
	return out, nil
}

func resolveField(template, field string, vars map[string]any) (any, error) {
	root, path, err := splitField(template, field)
	if err != nil {
		return nil, err
	}

	cur, ok := vars[root]
	if !ok {
		return nil, &domain.MissingInputKeyError{Key: root}
	}

	walked := root
	for _, seg := range path {
		walked += seg.raw
		next, ok := lookup(cur, seg)
		if !ok {
			return nil, &domain.MissingInputKeyError{Key: walked}
		}
		cur = next
	}
	return cur, nil
}

type segment struct {
	key   string
	index bool // bracketed segment
	raw   string
}

// splitField parses "root.a[b][0]" into its root name and path segments.
func splitField(template, field string) (string, []segment, error) {
	if field == "" {
		return "", nil, templateErr(template, "empty field {} is not supported; name a context key")
	}
	if strings.ContainsAny(field, ":!") {
		return "", nil, templateErr(template, "conversions and format specs are not supported in field %q", field)
	}

	cut := strings.IndexAny(field, ".[")
	root := field
	rest := ""
	if cut >= 0 {
		root, rest = field[:cut], field[cut:]
	}
	if root == "" {
		return "", nil, templateErr(template, "field %q has no key name", field)
	}
	if _, err := strconv.Atoi(root); err == nil {
		return "", nil, templateErr(template, "positional field %q is not supported; name a context key", field)
	}

	var path []segment
	for rest != "" {
		switch rest[0] {
		case '.':
			end := strings.IndexAny(rest[1:], ".[")
			name := rest[1:]
			if end >= 0 {
				name = rest[1 : 1+end]
			}
			if name == "" {
				return "", nil, templateErr(template, "empty attribute in field %q", field)
			}
			path = append(path, segment{key: name, raw: "." + name})
			rest = rest[1+len(name):]
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return "", nil, templateErr(template, "missing ']' in field %q", field)
			}
			name := rest[1:end]
			if name == "" {
				return "", nil, templateErr(template, "empty index in field %q", field)
			}
			path = append(path, segment{key: name, index: true, raw: rest[:end+1]})
			rest = rest[end+1:]
		default:
			return "", nil, templateErr(template, "unexpected %q in field %q", rest[0], field)
		}
	}
	return root, path, nil
}

func lookup(v any, seg segment) (any, bool) {
	switch m := v.(type) {
	case map[string]any:
		out, ok := m[seg.key]
		return out, ok
	case domain.Result:
		out, ok := m[seg.key]
		return out, ok
	case []any:
		if !seg.index {
			return nil, false
		}
		n, err := strconv.Atoi(seg.key)
		if err != nil || n < 0 || n >= len(m) {
			return nil, false
		}
		return m[n], true
	default:
		return nil, false
	}
}

func formatValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func templateErr(template, format string, args ...any) error {
	return &domain.TemplateError{Template: template, Reason: fmt.Sprintf(format, args...)}
}
