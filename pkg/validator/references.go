package validator

import (
	"encoding/json"

	"github.com/flowforge/flowrun/pkg/flow"
	"github.com/flowforge/flowrun/pkg/scanner"
)

// refSite is one {{...}} occurrence found while walking a flow, carrying
// enough context to validate it (pass 2) or fold it into a dependency
// edge (pass 3).
type refSite struct {
	Head       string
	Tail       []string
	Scope      *scanner.Scope
	NodeID     string
	TopLevelID string
}

// walkRefs scans every reference in nodes, recursing into FOR_EACH bodies
// under an enriched scope and CONDITION branches under the unchanged
// scope, per §4.1. parentTop is the id of the nearest flow.Nodes-level
// ancestor; top-level callers pass "" so each node's own id is used.
func walkRefs(nodes []flow.Node, scope *scanner.Scope, parentTop string, visit func(refSite)) {
	for i := range nodes {
		n := &nodes[i]
		top := parentTop
		if top == "" {
			top = n.ID
		}
		scanNodeOwnFields(n, scope, top, visit)

		switch n.Type {
		case flow.KindForEach:
			eachKey, _ := n.Config["each_key"].(string)
			child := scope.Enrich(eachKey, allNestedIDs(n.EachNodes))
			walkRefs(n.EachNodes, child, top, visit)
		case flow.KindCondition:
			for _, b := range n.Branches {
				walkRefs(b.Nodes, scope, top, visit)
			}
		}
	}
}

func scanNodeOwnFields(n *flow.Node, scope *scanner.Scope, top string, visit func(refSite)) {
	emit := func(raw json.RawMessage) {
		if len(raw) == 0 {
			return
		}
		var v interface{}
		if err := json.Unmarshal(raw, &v); err != nil {
			return
		}
		for _, ref := range scanner.ScanValue(v) {
			visit(refSite{Head: ref.Head, Tail: ref.Tail, Scope: scope, NodeID: n.ID, TopLevelID: top})
		}
	}

	for _, ref := range scanner.ScanValue(configToValue(n.Config)) {
		visit(refSite{Head: ref.Head, Tail: ref.Tail, Scope: scope, NodeID: n.ID, TopLevelID: top})
	}
	emit(n.Messages)
	emit(n.Document)
	emit(n.Input)
	emit(n.Value)
	for _, b := range n.Branches {
		emit(b.Value)
	}
}

func configToValue(cfg map[string]interface{}) interface{} {
	if cfg == nil {
		return nil
	}
	out := make(map[string]interface{}, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}
	return out
}

// allNestedIDs flattens the ids of nodes and everything nested beneath
// them (FOR_EACH bodies, CONDITION branches), transitively.
func allNestedIDs(nodes []flow.Node) []string {
	var ids []string
	var walk func([]flow.Node)
	walk = func(ns []flow.Node) {
		for _, n := range ns {
			ids = append(ids, n.ID)
			if n.Type == flow.KindForEach {
				walk(n.EachNodes)
			}
			if n.Type == flow.KindCondition {
				for _, b := range n.Branches {
					walk(b.Nodes)
				}
			}
		}
	}
	walk(nodes)
	return ids
}

// validateReferences is pass 2: every reference head must resolve to an
// active scope key, a body-scope node id, a global node id, or — only
// when the reference carries no tail — a declared variable.
func validateReferences(f *flow.Flow, nodeIDs, varIDs map[string]bool, r *Result) {
	walkRefs(f.Nodes, scanner.NewRootScope(), "", func(rs refSite) {
		if rs.Scope.IsScopeKey(rs.Head) {
			return
		}
		if rs.Scope.IsBodyNodeID(rs.Head) {
			return
		}
		if nodeIDs[rs.Head] {
			return
		}
		if len(rs.Tail) == 0 && varIDs[rs.Head] {
			return
		}
		r.addError(flow.NewError(flow.CodeInvalidVariableRef, rs.NodeID, "unresolvable reference head "+rs.Head, nil))
	})
}
