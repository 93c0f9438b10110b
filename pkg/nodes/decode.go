package nodes

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/flowforge/flowrun/pkg/flow"
	"github.com/flowforge/flowrun/pkg/registry"
	"github.com/flowforge/flowrun/pkg/resolver"
)

// resolveRaw decodes raw JSON and resolves every reference within it
// against view (§4.4), returning the resolved value.
func resolveRaw(raw json.RawMessage, view registry.View) (interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return resolver.Resolve(v, view), nil
}

// resolveInputObject decodes a node's input field and resolves it,
// requiring the result to be a JSON object.
func resolveInputObject(n *flow.Node, view registry.View) (map[string]interface{}, error) {
	v, err := resolveRaw(n.Input, view)
	if err != nil {
		return nil, flow.NewError(flow.CodeInvalidFormat, n.ID, "input is not valid JSON", err)
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, flow.NewError(flow.CodeInvalidType, n.ID, "input must be an object", nil)
	}
	return obj, nil
}

// asSequence type-asserts v as an ordered sequence, the shape §4.5's
// sequence-consuming operations require.
func asSequence(v interface{}) ([]interface{}, bool) {
	seq, ok := v.([]interface{})
	return seq, ok
}

// navigatePath walks a dotted field path (e.g. "metadata.text") into a
// decoded JSON-like value, used by pick/omit/extract/map/filter.
// Grounded on the teacher's jsonops processor, which resolves the same
// kind of dotted path via gjson rather than a hand-rolled walker.
func navigatePath(v interface{}, path string) (interface{}, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	res := gjson.GetBytes(b, path)
	if !res.Exists() {
		return nil, false
	}
	return res.Value(), true
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}
