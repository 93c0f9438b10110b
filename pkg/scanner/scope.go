package scanner

// Scope records which bare heads are valid reference targets at a given
// point in the flow: the enclosing scope's node ids/variables (tracked by
// the validator, not here) plus, inside a FOR_EACH body, the loop's
// each_key, its "_index" companion, and every node id nested in the body.
type Scope struct {
	EachKey      string
	EachIndexKey string
	BodyNodeIDs  map[string]bool
	Parent       *Scope
}

// NewRootScope returns the outermost (non-iteration) scope.
func NewRootScope() *Scope {
	return &Scope{}
}

// Enrich builds the scope in effect for a FOR_EACH body: the loop's
// each_key and its _index companion, plus the ids of every node nested in
// the body (including transitively nested loop bodies), layered over the
// enclosing scope so nested loops can still see their outer loop's keys.
func (s *Scope) Enrich(eachKey string, bodyNodeIDs []string) *Scope {
	ids := make(map[string]bool, len(bodyNodeIDs))
	for _, id := range bodyNodeIDs {
		ids[id] = true
	}
	return &Scope{
		EachKey:      eachKey,
		EachIndexKey: eachKey + "_index",
		BodyNodeIDs:  ids,
		Parent:       s,
	}
}

// IsScopeKey reports whether head names an active iteration scope key or
// its _index companion, at this scope or any enclosing one.
func (s *Scope) IsScopeKey(head string) bool {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.EachKey != "" && (head == cur.EachKey || head == cur.EachIndexKey) {
			return true
		}
	}
	return false
}

// IsBodyNodeID reports whether head names a node id local to the nearest
// enclosing FOR_EACH body (or any ancestor body).
func (s *Scope) IsBodyNodeID(head string) bool {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.BodyNodeIDs != nil && cur.BodyNodeIDs[head] {
			return true
		}
	}
	return false
}
