// internal/template/binder.go
//
// Placeholder substitution for connection and table-name templates.
//
// Context
// -------
// Driver configuration carries template strings such as
// "{prefix}_{id}_migrations" or "tenant_{entity.slug}".  At resolution
// time the orchestrator binds those templates against a tenant's
// flattened attribute map (see internal/tenant).  Bind is a pure
// function: no I/O, no shared state.
//
// Missing paths fail fast with ErrMissingPath rather than leaving the
// placeholder literal.  A half-bound table name would silently route a
// tenant's migration history to the wrong table, so the error surfaces
// immediately.
//
// Notes
// -----
//   - A template with no brace characters is returned unchanged, and the
//     attribute map is never consulted.
//   - Oxford commas, two spaces after periods.
package template

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingPath is returned when a template references an attribute path
// that is absent from the supplied map.  Callers can match it with
// errors.Is and report the offending path from the wrapped message.
var ErrMissingPath = errors.New("template: attribute path not found")

// Bind substitutes every {dotted.path} occurrence in tpl with the value
// stored under that path in attrs.  Values are rendered with fmt.Sprint,
// so numeric attribute values bind cleanly into names.
//
// The empty template binds to the empty string.  A template containing
// neither "{" nor "}" is the identity, no lookups performed.
func Bind(tpl string, attrs map[string]any) (string, error) {
	if !strings.ContainsAny(tpl, "{}") {
		return tpl, nil
	}

	var b strings.Builder
	b.Grow(len(tpl))

	rest := tpl
	for {
		open := strings.IndexByte(rest, '{')
		if open == -1 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.IndexByte(rest[open:], '}')
		if end == -1 {
			return "", fmt.Errorf("template: unterminated placeholder in %q", tpl)
		}
		end += open

		b.WriteString(rest[:open])
		path := rest[open+1 : end]

		val, ok := attrs[path]
		if !ok {
			return "", fmt.Errorf("%w: %q in template %q", ErrMissingPath, path, tpl)
		}
		b.WriteString(fmt.Sprint(val))

		rest = rest[end+1:]
	}
}
