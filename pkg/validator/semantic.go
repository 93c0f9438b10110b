package validator

import (
	"strconv"

	"github.com/flowforge/flowrun/pkg/flow"
)

// validateSemantic is pass 5: advisory warnings only — empty bodies and a
// node-count complexity bucket. Never fails validation.
func validateSemantic(f *flow.Flow, r *Result) {
	all := f.AllNodes()

	for _, n := range all {
		switch n.Type {
		case flow.KindForEach:
			if len(n.EachNodes) == 0 {
				r.Warnings = append(r.Warnings, n.ID+": FOR_EACH body is empty")
			}
		case flow.KindCondition:
			for name, b := range n.Branches {
				if len(b.Nodes) == 0 {
					r.Warnings = append(r.Warnings, n.ID+": branch "+name+" has no nodes")
				}
			}
		}
	}

	count := len(all)
	bucket := "low"
	switch {
	case count > 30:
		bucket = "high"
	case count >= 10:
		bucket = "medium"
	}
	r.Warnings = append(r.Warnings, "complexity: "+bucket+" ("+strconv.Itoa(count)+" nodes)")
}
