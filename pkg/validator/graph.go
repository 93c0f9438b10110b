package validator

import (
	"github.com/flowforge/flowrun/pkg/flow"
	"github.com/flowforge/flowrun/pkg/scanner"
)

// validateGraph is pass 3: build the dependency graph over the flow's
// top-level nodes (an edge A→B iff B's subtree — including nested loop
// bodies and branches — contains a reference whose head is A's id and
// whose tail begins with "output") and run Kahn's algorithm, breaking
// ties by declaration order. On unresolved in-degree, reports
// circular-dependency and returns no order.
func validateGraph(f *flow.Flow, r *Result) []string {
	topIDs := make(map[string]bool, len(f.Nodes))
	for _, n := range f.Nodes {
		topIDs[n.ID] = true
	}

	inDegree := make(map[string]int, len(f.Nodes))
	adj := make(map[string][]string, len(f.Nodes))
	for _, n := range f.Nodes {
		inDegree[n.ID] = 0
	}

	walkRefs(f.Nodes, scanner.NewRootScope(), "", func(rs refSite) {
		if len(rs.Tail) == 0 || rs.Tail[0] != "output" {
			return
		}
		if !topIDs[rs.Head] || rs.Head == rs.TopLevelID {
			return
		}
		adj[rs.Head] = append(adj[rs.Head], rs.TopLevelID)
		inDegree[rs.TopLevelID]++
	})

	var order []string
	visited := make(map[string]bool, len(f.Nodes))
	for len(order) < len(f.Nodes) {
		picked := ""
		for _, n := range f.Nodes {
			if visited[n.ID] {
				continue
			}
			if inDegree[n.ID] == 0 {
				picked = n.ID
				break
			}
		}
		if picked == "" {
			r.addError(flow.NewError(flow.CodeCircularDependency, "", "dependency cycle detected among flow nodes", nil))
			return nil
		}
		order = append(order, picked)
		visited[picked] = true
		for _, to := range adj[picked] {
			inDegree[to]--
		}
	}
	return order
}
