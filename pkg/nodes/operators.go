package nodes

import (
	"fmt"
	"strings"
)

// evaluateOperator implements the Condition/filter comparison operators
// (§4.7): equals/not_equals are strict structural equality (type and
// value, no coercion — objects and arrays compare field-by-field rather
// than by Go's `==`, which panics on uncomparable dynamic types),
// greater_than and less_than coerce both sides to float64, and contains
// checks substring membership for strings or element membership for
// sequences.
func evaluateOperator(operator string, left, right interface{}) (bool, error) {
	switch operator {
	case "equals":
		return structurallyEqual(left, right), nil
	case "not_equals":
		return !structurallyEqual(left, right), nil
	case "greater_than":
		l, okl := asFloat(left)
		r, okr := asFloat(right)
		if !okl || !okr {
			return false, nil
		}
		return l > r, nil
	case "less_than":
		l, okl := asFloat(left)
		r, okr := asFloat(right)
		if !okl || !okr {
			return false, nil
		}
		return l < r, nil
	case "contains":
		return evaluateContains(left, right), nil
	default:
		return false, fmt.Errorf("unrecognized comparison operator %q", operator)
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(t, "%g", &f); err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func evaluateContains(left, right interface{}) bool {
	if s, ok := left.(string); ok {
		sub, ok := right.(string)
		if !ok {
			return false
		}
		return strings.Contains(s, sub)
	}
	if seq, ok := asSequence(left); ok {
		for _, item := range seq {
			if structurallyEqual(item, right) {
				return true
			}
		}
		return false
	}
	return false
}

// structurallyEqual implements §4.7's "strict structural equality (value-
// level; type coercion forbidden)": scalars compare by Go equality once
// their JSON-decoded types match, and objects/arrays recurse field-by-
// field and element-by-element. Resolved references can hold
// map[string]interface{} or []interface{} (§4.1/§9 — a switch_value or a
// filter condition's value may itself be an object or array), and Go's
// native == panics comparing two interface{} values whose dynamic type is
// uncomparable, so every composite shape is handled explicitly rather
// than falling through to ==.
func structurallyEqual(left, right interface{}) bool {
	switch l := left.(type) {
	case map[string]interface{}:
		r, ok := right.(map[string]interface{})
		if !ok || len(l) != len(r) {
			return false
		}
		for k, lv := range l {
			rv, ok := r[k]
			if !ok || !structurallyEqual(lv, rv) {
				return false
			}
		}
		return true
	case []interface{}:
		r, ok := right.([]interface{})
		if !ok || len(l) != len(r) {
			return false
		}
		for i := range l {
			if !structurallyEqual(l[i], r[i]) {
				return false
			}
		}
		return true
	default:
		return left == right
	}
}
