// Package resolver implements the Variable Resolver (§4.4): given a value
// and a registry view, produces either a type-preserving single-reference
// result or a string-substituted template result, recursing through arrays
// and keyed collections.
//
// Adapted from the teacher's pkg/resolver/resolver.go, which solved a
// structurally different problem (blob-backed, NATS field-mapping
// resolution against a flattened "nodeId-/path[idx]" output scheme); the
// distinguishing single-reference-vs-template test and the recursive
// walk-leaves-pass-through shape are kept, the resolution mechanics are
// replaced with the registry.View lookup this spec defines.
package resolver

import (
	"encoding/json"

	"github.com/flowforge/flowrun/pkg/registry"
	"github.com/flowforge/flowrun/pkg/scanner"
)

// Resolve walks v and resolves every reference against view. Strings that
// are, modulo whitespace, exactly one {{...}} token resolve in single-
// reference mode (preserving the underlying type); other strings resolve
// in template mode (string substitution, unresolved references left
// literal). Arrays and objects are walked recursively; other leaves pass
// through unchanged.
func Resolve(v interface{}, view registry.View) interface{} {
	switch t := v.(type) {
	case string:
		return resolveString(t, view)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = Resolve(val, view)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = Resolve(val, view)
		}
		return out
	default:
		return v
	}
}

func resolveString(s string, view registry.View) interface{} {
	if scanner.IsSingleReference(s) {
		refs := scanner.FindAll(s)
		if len(refs) != 1 {
			return s
		}
		resolved, ok := view.ResolveExpression(refs[0].Head, refs[0].Tail)
		if !ok {
			return nil
		}
		return resolved
	}

	return scanner.ReplaceTokens(s, func(head string, tail []string) (string, bool) {
		resolved, ok := view.ResolveExpression(head, tail)
		if !ok {
			return "", false
		}
		return Stringify(resolved), true
	})
}

// Stringify renders a resolved value for template-mode substitution:
// strings pass through verbatim, everything else is JSON-encoded.
func Stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
