// Package validator implements the five-pass flow validator (§4.2):
// structural shape, scope-aware reference resolution, dependency-graph
// topological ordering, optional provider availability, and advisory
// semantic checks.
//
// Grounded on the teacher's pkg/schema/validator.go for the structural/
// type-checking pass style and samgonzalez27-script-weaver's
// internal/graph/validate.go for the shape of a closed-taxonomy,
// multi-pass validation result (the topological-sort algorithm itself is
// this spec's own, not borrowed from either).
package validator

import (
	"github.com/flowforge/flowrun/pkg/flow"
)

// AvailableProviders reports, for a provider category (llm/embedding/
// vector), which provider names are configured. A nil AvailableProviders
// skips pass 4 entirely, per §4.2's "optional, only when a provider
// configuration is supplied".
type AvailableProviders map[string]map[string]bool

func (p AvailableProviders) has(category, name string) bool {
	if p == nil {
		return true
	}
	names, ok := p[category]
	if !ok {
		return false
	}
	return names[name]
}

// Result is the validator's output: a flag, an ordered error list with
// stable codes, advisory warnings, and (when valid) the top-level
// execution order Flow Executor drives.
type Result struct {
	Valid    bool
	Errors   []*flow.Error
	Warnings []string
	Order    []string
}

func (r *Result) addError(e *flow.Error) {
	r.Valid = false
	r.Errors = append(r.Errors, e)
}

// Validate runs all five passes against f, in order. Later passes still
// run even when an earlier one fails, except pass 3 (graph) and pass 4
// (providers), which are skipped when pass 1/2 already produced errors —
// a malformed or unresolvable flow has no meaningful dependency graph.
func Validate(f *flow.Flow, providers AvailableProviders) *Result {
	r := &Result{Valid: true}

	nodeIDs, varIDs := validateStructural(f, r)
	validateReferences(f, nodeIDs, varIDs, r)

	if r.Valid {
		order := validateGraph(f, r)
		if r.Valid {
			r.Order = order
			validateProviders(f, providers, r)
		}
	}

	validateSemantic(f, r)

	return r
}
