// Package flow defines the data model for flow documents: the flow header,
// variable declarations, nodes, and the closed set of node kinds and
// operators the rest of the engine dispatches on.
package flow

import "encoding/json"

// NodeKind is the closed tag identifying which executor handles a node.
type NodeKind string

const (
	KindLLM              NodeKind = "LLM"
	KindDocumentSplitter  NodeKind = "DOCUMENT_SPLITTER"
	KindTextEmbedding     NodeKind = "TEXT_EMBEDDING"
	KindVectorInsert      NodeKind = "VECTOR_INSERT"
	KindVectorSearch      NodeKind = "VECTOR_SEARCH"
	KindVectorUpdate      NodeKind = "VECTOR_UPDATE"
	KindVectorDelete      NodeKind = "VECTOR_DELETE"
	KindUpdateVariable    NodeKind = "UPDATE_VARIABLE"
	KindCondition         NodeKind = "CONDITION"
	KindForEach           NodeKind = "FOR_EACH"
	KindScript            NodeKind = "SCRIPT"
)

// ValidKinds lists the closed node-kind enum for structural validation.
var ValidKinds = map[NodeKind]bool{
	KindLLM: true, KindDocumentSplitter: true, KindTextEmbedding: true,
	KindVectorInsert: true, KindVectorSearch: true, KindVectorUpdate: true,
	KindVectorDelete: true, KindUpdateVariable: true, KindCondition: true,
	KindForEach: true, KindScript: true,
}

// VarType is the closed set of declarable variable types.
type VarType string

const (
	TypeString  VarType = "string"
	TypeNumber  VarType = "number"
	TypeBoolean VarType = "boolean"
	TypeFile    VarType = "file"
	TypeArray   VarType = "array"
	TypeObject  VarType = "object"
)

// VariableDeclaration is a single entry in a flow's variables[] list.
type VariableDeclaration struct {
	ID      string          `json:"id"`
	Type    VarType         `json:"type,omitempty"`
	Default json.RawMessage `json:"default,omitempty"`
}

// Node is a single step in a flow's nodes[] list. Payload is kept as raw
// JSON plus a generic map so that each node-kind handler can decode the
// fields it needs without the core data model knowing every kind's shape.
type Node struct {
	ID   string   `json:"id"`
	Type NodeKind `json:"type"`
	Name string   `json:"name"`

	Config      map[string]interface{} `json:"config,omitempty"`
	Messages    json.RawMessage        `json:"messages,omitempty"`
	Output      map[string]OutputField `json:"output,omitempty"`
	Document    json.RawMessage        `json:"document,omitempty"`
	Input       json.RawMessage        `json:"input,omitempty"`
	Value       json.RawMessage        `json:"value,omitempty"`
	EachNodes   []Node                 `json:"each_nodes,omitempty"`
	Branches    map[string]Branch      `json:"branches,omitempty"`
	Script      string                 `json:"script,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// OutputField describes one entry of an LLM node's declared output schema.
type OutputField struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Items       *OutputField           `json:"items,omitempty"`
	Structure   map[string]OutputField `json:"structure,omitempty"`
}

// Branch is one entry of a CONDITION node's branches map.
type Branch struct {
	Condition string          `json:"condition,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
	Nodes     []Node          `json:"nodes,omitempty"`
}

// Flow is the parsed, immutable-after-validation root document.
type Flow struct {
	Name        string                `json:"name"`
	Version     string                `json:"version"`
	Description string                `json:"description,omitempty"`
	Author      string                `json:"author,omitempty"`
	Variables   []VariableDeclaration `json:"variables"`
	Input       []string              `json:"input"`
	Output      []string              `json:"output"`
	Nodes       []Node                `json:"nodes"`
}

// ParseFlow decodes a flow document, preserving each node's raw JSON for
// the scanner and kind-specific decoders.
func ParseFlow(data []byte) (*Flow, error) {
	var raw struct {
		Name        string                 `json:"name"`
		Version     string                 `json:"version"`
		Description string                 `json:"description"`
		Author      string                 `json:"author"`
		Variables   []VariableDeclaration  `json:"variables"`
		Input       []string               `json:"input"`
		Output      []string               `json:"output"`
		Nodes       []json.RawMessage      `json:"nodes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NewError(CodeInvalidFormat, "", "malformed flow document", err)
	}

	f := &Flow{
		Name:        raw.Name,
		Version:     raw.Version,
		Description: raw.Description,
		Author:      raw.Author,
		Variables:   raw.Variables,
		Input:       raw.Input,
		Output:      raw.Output,
	}

	for _, rn := range raw.Nodes {
		var n Node
		if err := json.Unmarshal(rn, &n); err != nil {
			return nil, NewError(CodeInvalidFormat, "", "malformed node", err)
		}
		n.Raw = rn
		f.Nodes = append(f.Nodes, n)
	}
	return f, nil
}

// AllNodes returns every node in the flow including bodies nested inside
// FOR_EACH loops and CONDITION branches, depth-first.
func (f *Flow) AllNodes() []Node {
	var out []Node
	var walk func([]Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			out = append(out, n)
			if n.Type == KindForEach {
				walk(n.EachNodes)
			}
			if n.Type == KindCondition {
				for _, b := range n.Branches {
					walk(b.Nodes)
				}
			}
		}
	}
	walk(f.Nodes)
	return out
}
