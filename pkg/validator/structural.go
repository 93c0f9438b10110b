package validator

import (
	"encoding/json"

	"github.com/flowforge/flowrun/pkg/flow"
)

// validateStructural is pass 1: required header fields, the closed node-
// kind enum, kind-specific required payload, and duplicate id detection.
// Returns the global node-id and declared-variable-id sets pass 2 needs.
func validateStructural(f *flow.Flow, r *Result) (nodeIDs, varIDs map[string]bool) {
	nodeIDs = make(map[string]bool)
	varIDs = make(map[string]bool)

	if f.Name == "" {
		r.addError(flow.NewError(flow.CodeMissingRequiredField, "", "flow name is required", nil))
	}
	if f.Version == "" {
		r.addError(flow.NewError(flow.CodeMissingRequiredField, "", "flow version is required", nil))
	} else if !isSemVer(f.Version) {
		r.addError(flow.NewError(flow.CodeInvalidFormat, "", "version is not valid semantic versioning", nil))
	}

	for _, v := range f.Variables {
		if v.ID == "" {
			r.addError(flow.NewError(flow.CodeMissingRequiredField, "variables", "variable id is required", nil))
			continue
		}
		if varIDs[v.ID] {
			r.addError(flow.NewError(flow.CodeDuplicateVariableID, v.ID, "duplicate variable id", nil))
			continue
		}
		varIDs[v.ID] = true
		if v.Type != "" && !validVarType(v.Type) {
			r.addError(flow.NewError(flow.CodeInvalidType, v.ID, "unrecognized variable type "+string(v.Type), nil))
		}
	}

	for _, id := range f.Input {
		if !varIDs[id] {
			r.addError(flow.NewError(flow.CodeInvalidVariableRef, id, "declared input is not a declared variable", nil))
		}
	}
	for _, id := range f.Output {
		if !varIDs[id] {
			r.addError(flow.NewError(flow.CodeInvalidVariableRef, id, "declared output is not a declared variable", nil))
		}
	}

	validateNodeList(f.Nodes, nodeIDs, r)
	return nodeIDs, varIDs
}

// validateNodeList walks nodes recursively (FOR_EACH bodies, CONDITION
// branch node lists) so that node-id uniqueness is checked globally, per
// §3's "unique across the whole flow, including nodes nested inside loops
// and branches" invariant.
func validateNodeList(nodes []flow.Node, nodeIDs map[string]bool, r *Result) {
	for i := range nodes {
		validateNode(&nodes[i], nodeIDs, r)
	}
}

func validateNode(n *flow.Node, nodeIDs map[string]bool, r *Result) {
	if n.ID == "" {
		r.addError(flow.NewError(flow.CodeMissingRequiredField, "", "node id is required", nil))
	} else if nodeIDs[n.ID] {
		r.addError(flow.NewError(flow.CodeDuplicateNodeID, n.ID, "duplicate node id", nil))
	} else {
		nodeIDs[n.ID] = true
	}

	if n.Name == "" {
		r.addError(flow.NewError(flow.CodeMissingRequiredField, n.ID, "node name is required", nil))
	}
	if !flow.ValidKinds[n.Type] {
		r.addError(flow.NewError(flow.CodeInvalidNodeType, n.ID, "unrecognized node type "+string(n.Type), nil))
		return
	}

	switch n.Type {
	case flow.KindLLM:
		validateLLMPayload(n, r)
	case flow.KindDocumentSplitter:
		validateSplitterPayload(n, r)
	case flow.KindTextEmbedding:
		validateEmbeddingPayload(n, r)
	case flow.KindVectorInsert, flow.KindVectorSearch, flow.KindVectorUpdate, flow.KindVectorDelete:
		validateVectorPayload(n, r)
	case flow.KindUpdateVariable:
		validateUpdateVariablePayload(n, r)
	case flow.KindCondition:
		validateConditionPayload(n, r)
		for _, b := range n.Branches {
			validateNodeList(b.Nodes, nodeIDs, r)
		}
	case flow.KindForEach:
		validateForEachPayload(n, r)
		validateNodeList(n.EachNodes, nodeIDs, r)
	case flow.KindScript:
		validateScriptPayload(n, r)
	}
}

func validateLLMPayload(n *flow.Node, r *Result) {
	requireConfigString(n, "provider", r)
	requireConfigString(n, "model", r)
	if len(n.Messages) == 0 {
		r.addError(flow.NewError(flow.CodeMissingRequiredField, n.ID, "LLM node requires non-empty messages", nil))
	} else {
		var msgs []interface{}
		if err := json.Unmarshal(n.Messages, &msgs); err != nil || len(msgs) == 0 {
			r.addError(flow.NewError(flow.CodeInvalidFormat, n.ID, "messages must be a non-empty array", nil))
		}
	}
	if len(n.Output) == 0 {
		r.addError(flow.NewError(flow.CodeMissingRequiredField, n.ID, "LLM node requires an output schema", nil))
	}
}

func validateSplitterPayload(n *flow.Node, r *Result) {
	quality, _ := n.Config["image_quality"].(string)
	if quality != "low" && quality != "medium" && quality != "high" {
		r.addError(flow.NewError(flow.CodeInvalidValue, n.ID, "image_quality must be low, medium or high", nil))
	}
	if _, ok := n.Config["dpi"]; !ok {
		r.addError(flow.NewError(flow.CodeMissingRequiredField, n.ID, "dpi is required", nil))
	}
	format, _ := n.Config["image_format"].(string)
	if format != "png" && format != "jpg" && format != "webp" {
		r.addError(flow.NewError(flow.CodeInvalidValue, n.ID, "image_format must be png, jpg or webp", nil))
	}
	if len(n.Document) == 0 {
		r.addError(flow.NewError(flow.CodeMissingRequiredField, n.ID, "document is required", nil))
	}
}

func validateEmbeddingPayload(n *flow.Node, r *Result) {
	requireConfigString(n, "provider", r)
	requireConfigString(n, "model", r)
	if len(n.Input) == 0 {
		r.addError(flow.NewError(flow.CodeMissingRequiredField, n.ID, "input is required", nil))
		return
	}
	var in map[string]interface{}
	if err := json.Unmarshal(n.Input, &in); err != nil {
		r.addError(flow.NewError(flow.CodeInvalidFormat, n.ID, "input must be an object", nil))
		return
	}
	if in["text"] == nil && in["texts"] == nil && in["items"] == nil {
		r.addError(flow.NewError(flow.CodeMissingRequiredField, n.ID, "input requires text, texts or items", nil))
	}
}

func validateVectorPayload(n *flow.Node, r *Result) {
	requireConfigString(n, "provider", r)
	requireConfigString(n, "index_name", r)
	if len(n.Input) == 0 {
		r.addError(flow.NewError(flow.CodeMissingRequiredField, n.ID, "input is required", nil))
	}
}

func validateUpdateVariablePayload(n *flow.Node, r *Result) {
	requireConfigString(n, "variable_id", r)
	op, _ := n.Config["type"].(string)
	if op == "" {
		r.addError(flow.NewError(flow.CodeMissingRequiredField, n.ID, "type (operation) is required", nil))
	} else if !validUpdateOp(op) {
		r.addError(flow.NewError(flow.CodeInvalidValue, n.ID, "unrecognized update-variable operation "+op, nil))
	}
	if len(n.Value) == 0 {
		r.addError(flow.NewError(flow.CodeMissingRequiredField, n.ID, "value is required", nil))
	}
}

func validateConditionPayload(n *flow.Node, r *Result) {
	if len(n.Input) == 0 {
		r.addError(flow.NewError(flow.CodeMissingRequiredField, n.ID, "switch_value input is required", nil))
	} else {
		var in map[string]interface{}
		if err := json.Unmarshal(n.Input, &in); err != nil || in["switch_value"] == nil {
			r.addError(flow.NewError(flow.CodeMissingRequiredField, n.ID, "switch_value input is required", nil))
		}
	}
	if len(n.Branches) == 0 {
		r.addError(flow.NewError(flow.CodeMissingRequiredField, n.ID, "at least one branch is required", nil))
	}
}

func validateForEachPayload(n *flow.Node, r *Result) {
	requireConfigString(n, "each_key", r)
	if len(n.Input) == 0 {
		r.addError(flow.NewError(flow.CodeMissingRequiredField, n.ID, "items input is required", nil))
	} else {
		var in map[string]interface{}
		if err := json.Unmarshal(n.Input, &in); err != nil || in["items"] == nil {
			r.addError(flow.NewError(flow.CodeMissingRequiredField, n.ID, "items input is required", nil))
		}
	}
	if len(n.EachNodes) == 0 {
		r.addError(flow.NewError(flow.CodeMissingRequiredField, n.ID, "each_nodes body is required", nil))
	}
}

func validateScriptPayload(n *flow.Node, r *Result) {
	if n.Script == "" {
		r.addError(flow.NewError(flow.CodeMissingRequiredField, n.ID, "script source is required", nil))
	}
}

func requireConfigString(n *flow.Node, key string, r *Result) {
	v, ok := n.Config[key]
	if !ok {
		r.addError(flow.NewError(flow.CodeMissingRequiredField, n.ID, key+" is required", nil))
		return
	}
	if s, ok := v.(string); !ok || s == "" {
		r.addError(flow.NewError(flow.CodeInvalidType, n.ID, key+" must be a non-empty string", nil))
	}
}

func validVarType(t flow.VarType) bool {
	switch t {
	case flow.TypeString, flow.TypeNumber, flow.TypeBoolean, flow.TypeFile, flow.TypeArray, flow.TypeObject:
		return true
	}
	return false
}

func validUpdateOp(op string) bool {
	switch op {
	case "update", "join", "append", "extract", "pick", "omit", "map", "filter", "slice", "flatten", "concat":
		return true
	}
	return false
}

// isSemVer checks for a bare major.minor.patch shape; pre-release and
// build metadata suffixes are accepted but not parsed further.
func isSemVer(v string) bool {
	core := v
	for i, c := range v {
		if c == '-' || c == '+' {
			core = v[:i]
			break
		}
	}
	parts := splitDots(core)
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for _, c := range p {
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}

func splitDots(s string) []string {
	var parts []string
	cur := ""
	for _, c := range s {
		if c == '.' {
			parts = append(parts, cur)
			cur = ""
			continue
		}
		cur += string(c)
	}
	parts = append(parts, cur)
	return parts
}
