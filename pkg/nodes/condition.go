package nodes

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/flowforge/flowrun/pkg/flow"
	"github.com/flowforge/flowrun/pkg/registry"
)

// execCondition implements the Condition Executor (§4.6): the first
// branch (in sorted branch-name order, "default" skipped) whose operator
// and value evaluate true against switch_value fires; otherwise "default"
// fires if present. The order in which branches appear in the flow
// document is not kept, so it does not affect which branch fires. The firing branch's body runs against the same
// registry view, with no scope overlay.
func execCondition(ctx context.Context, fac *Factory, n *flow.Node, view registry.View) (interface{}, error) {
	input, err := resolveInputObject(n, view)
	if err != nil {
		return nil, err
	}
	switchValue := input["switch_value"]

	// Branches decode from a JSON object into a Go map, which does not
	// retain key order; sorted name order stands in for declaration
	// order so iteration is at least deterministic across runs.
	names := make([]string, 0, len(n.Branches))
	for name := range n.Branches {
		if name == "default" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	matched := ""
	for _, name := range names {
		b := n.Branches[name]
		var value interface{}
		if len(b.Value) > 0 {
			if err := json.Unmarshal(b.Value, &value); err != nil {
				return nil, flow.NewError(flow.CodeInvalidFormat, n.ID, "branch value is not valid JSON", err)
			}
		}
		ok, err := evaluateOperator(b.Condition, switchValue, value)
		if err != nil {
			return nil, flow.RuntimeError(n.ID, "branch condition evaluation failed", err)
		}
		if ok {
			matched = name
			break
		}
	}
	if matched == "" {
		if _, hasDefault := n.Branches["default"]; hasDefault {
			matched = "default"
		}
	}
	if matched == "" {
		return map[string]interface{}{"matched_branch": nil, "results": map[string]interface{}{}}, nil
	}

	results := map[string]interface{}{}
	for _, child := range n.Branches[matched].Nodes {
		child := child
		out, err := fac.Execute(ctx, &child, view)
		if err != nil {
			return nil, err
		}
		view.SetNodeOutput(child.ID, out)
		results[child.ID] = out
	}

	return map[string]interface{}{"matched_branch": matched, "results": results}, nil
}
