package nodes

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/sjson"

	"github.com/flowforge/flowrun/pkg/schema"
)

// applyUpdateOp implements the eleven Update-Variable operations'
// precise semantics from §4.5's table. A shape error from the op itself
// (wrong target/payload type, bad field path, ...) is wrapped in a
// schema.TransformError so callers can tell a transform failure apart
// from an unrecognized op name.
func applyUpdateOp(op string, target, payload interface{}, config map[string]interface{}, stringifyOutput bool) (interface{}, error) {
	var (
		out interface{}
		err error
	)
	switch op {
	case "update":
		return payload, nil
	case "join":
		out, err = opJoin(target, payload, config, stringifyOutput)
	case "append":
		out, err = opAppend(target, payload, stringifyOutput)
	case "extract":
		out, err = opExtract(payload, config)
	case "pick":
		out, err = opPick(payload, config)
	case "omit":
		out, err = opOmit(payload, config)
	case "map":
		out, err = opMap(payload, config)
	case "filter":
		out, err = opFilter(payload, config)
	case "slice":
		out, err = opSlice(payload, config)
	case "flatten":
		out, err = opFlatten(payload)
	case "concat":
		out, err = opConcat(target, payload)
	default:
		return nil, fmt.Errorf("unrecognized update-variable operation %q", op)
	}
	if err != nil {
		return nil, schema.TransformError(op, err)
	}
	return out, nil
}

func stringifyValue(v interface{}, stringify bool) string {
	if s, ok := v.(string); ok {
		return s
	}
	if !stringify {
		return fmt.Sprintf("%v", v)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func opJoin(target, payload interface{}, config map[string]interface{}, stringifyOutput bool) (interface{}, error) {
	sep, _ := config["join_str"].(string)
	base := ""
	if target != nil {
		base = stringifyValue(target, stringifyOutput)
	}
	addition := stringifyValue(payload, stringifyOutput)
	if base == "" {
		return addition, nil
	}
	return base + sep + addition, nil
}

func opAppend(target, payload interface{}, stringifyOutput bool) (interface{}, error) {
	seq, ok := asSequence(target)
	if !ok {
		if target == nil {
			seq = nil
		} else {
			return nil, fmt.Errorf("append requires target to be an ordered sequence")
		}
	}
	value := payload
	if _, isMap := payload.(map[string]interface{}); isMap && stringifyOutput {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		value = string(b)
	}
	return append(seq, value), nil
}

func opExtract(payload interface{}, config map[string]interface{}) (interface{}, error) {
	seq, ok := asSequence(payload)
	if !ok {
		return nil, fmt.Errorf("extract requires payload to be a sequence")
	}
	fieldPath, _ := config["field_path"].(string)
	out := make([]interface{}, 0, len(seq))
	for _, item := range seq {
		v, found := navigatePath(item, fieldPath)
		if !found {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func fieldsFrom(config map[string]interface{}) []string {
	raw, _ := config["fields"].([]interface{})
	fields := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			fields = append(fields, s)
		}
	}
	return fields
}

func opPick(payload interface{}, config map[string]interface{}) (interface{}, error) {
	fields := fieldsFrom(config)
	pickOne := func(obj map[string]interface{}) map[string]interface{} {
		out := make(map[string]interface{}, len(fields))
		for _, path := range fields {
			if v, found := navigatePath(obj, path); found {
				out[finalSegment(path)] = v
			}
		}
		return out
	}

	if seq, ok := asSequence(payload); ok {
		out := make([]interface{}, len(seq))
		for i, item := range seq {
			obj, _ := item.(map[string]interface{})
			out[i] = pickOne(obj)
		}
		return out, nil
	}
	obj, ok := payload.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("pick requires payload to be an object or sequence of objects")
	}
	return pickOne(obj), nil
}

func opOmit(payload interface{}, config map[string]interface{}) (interface{}, error) {
	fields := fieldsFrom(config)
	omitOne := func(obj map[string]interface{}) map[string]interface{} {
		return deleteNestedPaths(obj, fields)
	}

	if seq, ok := asSequence(payload); ok {
		out := make([]interface{}, len(seq))
		for i, item := range seq {
			obj, _ := item.(map[string]interface{})
			out[i] = omitOne(obj)
		}
		return out, nil
	}
	obj, ok := payload.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("omit requires payload to be an object or sequence of objects")
	}
	return omitOne(obj), nil
}

// deleteNestedPaths removes every listed dotted path from obj in one
// pass, via the teacher's sjson.DeleteBytes (jsonops processor).
func deleteNestedPaths(obj map[string]interface{}, paths []string) map[string]interface{} {
	b, err := json.Marshal(obj)
	if err != nil {
		return obj
	}
	for _, path := range paths {
		b, err = sjson.DeleteBytes(b, path)
		if err != nil {
			return obj
		}
	}
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return obj
	}
	return out
}

func finalSegment(path string) string {
	segs := splitPath(path)
	if len(segs) == 0 {
		return path
	}
	return segs[len(segs)-1]
}

func opMap(payload interface{}, config map[string]interface{}) (interface{}, error) {
	seq, ok := asSequence(payload)
	if !ok {
		return nil, fmt.Errorf("map requires payload to be a sequence")
	}
	mapping, _ := config["mapping"].(map[string]interface{})

	out := make([]interface{}, len(seq))
	for i, item := range seq {
		built := make(map[string]interface{}, len(mapping))
		for key, spec := range mapping {
			path, isPath := spec.(string)
			if !isPath {
				built[key] = spec
				continue
			}
			if v, found := navigatePath(item, path); found {
				built[key] = v
			} else {
				built[key] = nil
			}
		}
		out[i] = built
	}
	return out, nil
}

func opFilter(payload interface{}, config map[string]interface{}) (interface{}, error) {
	seq, ok := asSequence(payload)
	if !ok {
		return nil, fmt.Errorf("filter requires payload to be a sequence")
	}
	cond, _ := config["condition"].(map[string]interface{})
	field, _ := cond["field"].(string)
	operator, _ := cond["operator"].(string)
	value := cond["value"]

	out := make([]interface{}, 0, len(seq))
	for _, item := range seq {
		fieldValue, _ := navigatePath(item, field)
		ok, err := evaluateOperator(operator, fieldValue, value)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func opSlice(payload interface{}, config map[string]interface{}) (interface{}, error) {
	seq, ok := asSequence(payload)
	if !ok {
		return nil, fmt.Errorf("slice requires payload to be a sequence")
	}
	start := 0
	if v, ok := config["slice_start"].(float64); ok {
		start = int(v)
	}
	end := len(seq)
	if v, ok := config["slice_end"].(float64); ok {
		end = int(v)
	}
	if start < 0 {
		start = 0
	}
	if end > len(seq) {
		end = len(seq)
	}
	if start > end {
		return []interface{}{}, nil
	}
	return seq[start:end], nil
}

func opFlatten(payload interface{}) (interface{}, error) {
	seq, ok := asSequence(payload)
	if !ok {
		return nil, fmt.Errorf("flatten requires payload to be a sequence")
	}
	out := make([]interface{}, 0, len(seq))
	for _, item := range seq {
		if inner, ok := asSequence(item); ok {
			out = append(out, inner...)
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func opConcat(target, payload interface{}) (interface{}, error) {
	targetSeq, ok := asSequence(target)
	if !ok {
		return nil, fmt.Errorf("concat requires target to be a sequence")
	}
	payloadSeq, ok := asSequence(payload)
	if !ok {
		return nil, fmt.Errorf("concat requires payload to be a sequence")
	}
	out := make([]interface{}, 0, len(targetSeq)+len(payloadSeq))
	out = append(out, targetSeq...)
	out = append(out, payloadSeq...)
	return out, nil
}
