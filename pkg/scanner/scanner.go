// Package scanner extracts {{...}} references from flow payload values.
//
// Grounded on the teacher's dotted-path navigation helpers in
// pkg/resolver/resolver.go (pattern only — that file's flattened
// "nodeId-/path[idx]" key scheme is not reused here).
package scanner

import "regexp"

// tokenPattern matches {{ identifier(.identifier)* }} allowing leading and
// trailing whitespace inside the braces, per spec §3's reference grammar.
var tokenPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)((?:\.[A-Za-z_][A-Za-z0-9_]*)*)\s*\}\}`)

// Reference is one {{...}} occurrence: a head identifier plus an optional
// dotted tail, carrying the full original token for substitution/diagnostics.
type Reference struct {
	Full string
	Head string
	Tail []string
}

// FindAll returns every {{...}} occurrence within a single string.
func FindAll(s string) []Reference {
	matches := tokenPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	refs := make([]Reference, 0, len(matches))
	for _, m := range matches {
		ref := Reference{Full: m[0], Head: m[1]}
		if m[2] != "" {
			ref.Tail = splitTail(m[2])
		}
		refs = append(refs, ref)
	}
	return refs
}

// IsSingleReference reports whether s is, modulo surrounding whitespace,
// exactly one reference token — the single-reference-vs-template-mode test
// from spec §4.4/§9.
var singlePattern = regexp.MustCompile(`^\s*\{\{[^}]+\}\}\s*$`)

func IsSingleReference(s string) bool {
	return singlePattern.MatchString(s)
}

func splitTail(dotted string) []string {
	var parts []string
	cur := ""
	for _, r := range dotted {
		if r == '.' {
			if cur != "" {
				parts = append(parts, cur)
				cur = ""
			}
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		parts = append(parts, cur)
	}
	return parts
}

// Walk recursively visits every string leaf in a JSON-like value decoded
// via encoding/json (maps, slices, strings, and other scalars pass through).
func Walk(v interface{}, visit func(string)) {
	switch t := v.(type) {
	case string:
		visit(t)
	case map[string]interface{}:
		for _, val := range t {
			Walk(val, visit)
		}
	case []interface{}:
		for _, val := range t {
			Walk(val, visit)
		}
	default:
		// scalars (number, bool, nil) carry no references.
	}
}

// ScanValue collects every reference found anywhere within a decoded
// JSON-like value.
func ScanValue(v interface{}) []Reference {
	var refs []Reference
	Walk(v, func(s string) {
		refs = append(refs, FindAll(s)...)
	})
	return refs
}

// ReplaceTokens substitutes every {{...}} occurrence in s with the string
// resolve returns; a reference resolve reports unresolved (ok=false) is
// left as its original literal token, per §4.4's diagnosability rule.
func ReplaceTokens(s string, resolve func(head string, tail []string) (string, bool)) string {
	return tokenPattern.ReplaceAllStringFunc(s, func(token string) string {
		m := tokenPattern.FindStringSubmatch(token)
		if m == nil {
			return token
		}
		head := m[1]
		var tail []string
		if m[2] != "" {
			tail = splitTail(m[2])
		}
		if replacement, ok := resolve(head, tail); ok {
			return replacement
		}
		return token
	})
}
