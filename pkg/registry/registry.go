// Package registry implements the per-flow State Registry: the vars/outputs
// maps a running flow reads and writes, with declared-type validation on
// writes and the node-output-then-variable resolution order the Variable
// Resolver depends on.
//
// Grounded on the teacher's NodeOutputStore (pkg/embedded/runtime/types.go)
// for the shape of a mutex-protected per-flow output map, simplified to the
// spec's own vars/outputs model rather than that file's flattened
// "nodeId-/path[idx]" iteration-aware key scheme.
package registry

import (
	"encoding/json"
	"sync"

	"github.com/flowforge/flowrun/pkg/flow"
)

// FileRegistrar is the subset of the File collaborator contract the
// registry needs to auto-register filesystem paths assigned to file-typed
// variables.
type FileRegistrar interface {
	HasFile(id string) bool
	RegisterFile(path string) (id string, err error)
}

// Registry is the State Registry for a single flow run. The spec's single-
// threaded-per-flow discipline (§5) means no locking is required for vars/
// outputs; the mutex guards only the rare case of a caller inspecting the
// registry concurrently with execution (e.g. from a lifecycle hook).
type Registry struct {
	mu            sync.RWMutex
	vars          map[string]interface{}
	outputs       map[string]interface{}
	declaredTypes map[string]flow.VarType
	files         FileRegistrar
}

// New creates a registry seeded with each declared variable's default
// value (nil if undeclared), ready to be overlaid with caller-supplied
// inputs.
func New(decls []flow.VariableDeclaration, files FileRegistrar) *Registry {
	r := &Registry{
		vars:          make(map[string]interface{}, len(decls)),
		outputs:       make(map[string]interface{}),
		declaredTypes: make(map[string]flow.VarType, len(decls)),
		files:         files,
	}
	for _, d := range decls {
		if d.Type != "" {
			r.declaredTypes[d.ID] = d.Type
		}
		if len(d.Default) > 0 {
			var v interface{}
			if err := json.Unmarshal(d.Default, &v); err == nil {
				r.vars[d.ID] = v
			}
		}
	}
	return r
}

// SetVariable type-validates against the declared type (if any) and writes
// the variable, per §4.3.
func (r *Registry) SetVariable(id string, value interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setVariableLocked(id, value)
}

func (r *Registry) setVariableLocked(id string, value interface{}) error {
	t, declared := r.declaredTypes[id]
	if !declared {
		r.vars[id] = value
		return nil
	}

	if t == flow.TypeFile {
		if s, ok := value.(string); ok {
			if r.files == nil {
				return flow.NewError(flow.CodeInvalidValue, id, "file variable requires a file collaborator", nil)
			}
			if !r.files.HasFile(s) {
				newID, err := r.files.RegisterFile(s)
				if err != nil {
					return flow.NewError(flow.CodeInvalidValue, id, "failed to register file path", err)
				}
				r.vars[id] = newID
				return nil
			}
		}
		r.vars[id] = value
		return nil
	}

	if !typeMatches(t, value) {
		return flow.NewError(flow.CodeInvalidValue, id, "value does not match declared variable type "+string(t), nil)
	}
	r.vars[id] = value
	return nil
}

func typeMatches(t flow.VarType, v interface{}) bool {
	switch t {
	case flow.TypeString:
		_, ok := v.(string)
		return ok
	case flow.TypeNumber:
		switch v.(type) {
		case float64, float32, int, int64, int32:
			return true
		}
		return false
	case flow.TypeBoolean:
		_, ok := v.(bool)
		return ok
	case flow.TypeArray:
		_, ok := v.([]interface{})
		return ok
	case flow.TypeObject:
		if _, isArray := v.([]interface{}); isArray {
			return false
		}
		_, ok := v.(map[string]interface{})
		return ok
	default:
		return true
	}
}

// GetVariable returns a variable's value.
func (r *Registry) GetVariable(id string) (interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vars[id]
	return v, ok
}

// HasVariable reports whether id names a variable, declared or mutated.
func (r *Registry) HasVariable(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.vars[id]; ok {
		return true
	}
	_, declared := r.declaredTypes[id]
	return declared
}

// SetNodeOutput records a node's execution output.
func (r *Registry) SetNodeOutput(id string, value interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs[id] = value
}

// GetNodeOutput returns a node's recorded output.
func (r *Registry) GetNodeOutput(id string) (interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.outputs[id]
	return v, ok
}

// HasNodeOutput reports whether a node's output has been recorded.
func (r *Registry) HasNodeOutput(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.outputs[id]
	return ok
}

// ResolveExpression implements the §3/§4.3 resolution order for a bare
// registry view (no active iteration scope): node output beats variable.
// A leading "output" tail segment is the node-navigation keyword and is
// dropped before navigating into the stored output value.
func (r *Registry) ResolveExpression(head string, tail []string) (interface{}, bool) {
	if out, ok := r.GetNodeOutput(head); ok {
		return navigate(out, stripOutputKeyword(tail))
	}
	if v, ok := r.GetVariable(head); ok {
		return navigate(v, tail)
	}
	return nil, false
}

func stripOutputKeyword(tail []string) []string {
	if len(tail) > 0 && tail[0] == "output" {
		return tail[1:]
	}
	return tail
}

// navigate walks a dotted tail of plain identifiers into a decoded JSON-like
// value (nested map[string]interface{} lookups).
func navigate(v interface{}, tail []string) (interface{}, bool) {
	cur := v
	for _, seg := range tail {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		next, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}
