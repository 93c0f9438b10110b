package registry

// View is the subset of Registry's surface that node executors and the
// resolver depend on, satisfied by both a bare Registry and a ScopedView.
type View interface {
	GetVariable(id string) (interface{}, bool)
	SetVariable(id string, v interface{}) error
	HasVariable(id string) bool
	GetNodeOutput(id string) (interface{}, bool)
	SetNodeOutput(id string, v interface{})
	HasNodeOutput(id string) bool
	ResolveExpression(head string, tail []string) (interface{}, bool)
}

// ScopedView is the per-iteration overlay a FOR_EACH executor constructs
// for each element, per §4.8. It delegates reads and writes to the parent
// view except for the scope-key bindings (each_key / each_key_index) and a
// private node-output store scoped to this iteration alone.
type ScopedView struct {
	parent       View
	eachKey      string
	eachIndexKey string
	item         interface{}
	index        int
	local        map[string]interface{}
}

// NewScopedView constructs the overlay for iteration index over item.
func NewScopedView(parent View, eachKey string, item interface{}, index int) *ScopedView {
	return &ScopedView{
		parent:       parent,
		eachKey:      eachKey,
		eachIndexKey: eachKey + "_index",
		item:         item,
		index:        index,
		local:        make(map[string]interface{}),
	}
}

// GetVariable returns the current element for each_key and the iteration
// index for each_key_index; every other id delegates unchanged to the
// parent, so variable mutations inside a loop are globally visible.
func (s *ScopedView) GetVariable(id string) (interface{}, bool) {
	if id == s.eachKey {
		return s.item, true
	}
	if id == s.eachIndexKey {
		return s.index, true
	}
	return s.parent.GetVariable(id)
}

// SetVariable delegates unchanged to the parent.
func (s *ScopedView) SetVariable(id string, v interface{}) error { return s.parent.SetVariable(id, v) }

// HasVariable delegates unchanged to the parent.
func (s *ScopedView) HasVariable(id string) bool { return s.parent.HasVariable(id) }

// SetNodeOutput writes to both the local store and the parent, so sibling-
// body nodes see each other within the iteration while outer visibility is
// preserved for diagnostics and end-of-flow output collection.
func (s *ScopedView) SetNodeOutput(id string, v interface{}) {
	s.local[id] = v
	s.parent.SetNodeOutput(id, v)
}

// GetNodeOutput checks the local store first, then falls back to the
// parent (a node outside the body that ran before the loop).
func (s *ScopedView) GetNodeOutput(id string) (interface{}, bool) {
	if v, ok := s.local[id]; ok {
		return v, true
	}
	return s.parent.GetNodeOutput(id)
}

// HasNodeOutput mirrors GetNodeOutput's lookup order.
func (s *ScopedView) HasNodeOutput(id string) bool {
	if _, ok := s.local[id]; ok {
		return true
	}
	return s.parent.HasNodeOutput(id)
}

// ResolveExpression implements §4.8's per-iteration resolution order:
// scope key / _index companion, then the local node-output store, then the
// parent registry.
func (s *ScopedView) ResolveExpression(head string, tail []string) (interface{}, bool) {
	if head == s.eachKey {
		return navigate(s.item, tail)
	}
	if head == s.eachIndexKey {
		if len(tail) > 0 {
			return nil, false
		}
		return s.index, true
	}
	if out, ok := s.local[head]; ok {
		return navigate(out, stripOutputKeyword(tail))
	}
	return s.parent.ResolveExpression(head, tail)
}
