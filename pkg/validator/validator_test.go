package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/flowrun/pkg/flow"
)

func parse(t *testing.T, doc string) *flow.Flow {
	t.Helper()
	f, err := flow.ParseFlow([]byte(doc))
	require.NoError(t, err)
	return f
}

func hasCode(r *Result, code flow.Code) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

func TestValidateMinimalValidFlow(t *testing.T) {
	doc := `{
		"name": "flow1",
		"version": "1.0.0",
		"variables": [{"id": "greeting", "type": "string"}],
		"input": [],
		"output": ["greeting"],
		"nodes": [
			{"id": "set", "type": "UPDATE_VARIABLE", "name": "set", "config": {"variable_id": "greeting", "type": "update"}, "value": "\"hi\""}
		]
	}`
	r := Validate(parse(t, doc), nil)
	require.True(t, r.Valid, "errors: %v", r.Errors)
	assert.Equal(t, []string{"set"}, r.Order)
}

func TestValidateStructuralErrors(t *testing.T) {
	t.Run("missing header fields", func(t *testing.T) {
		doc := `{"nodes": []}`
		r := Validate(parse(t, doc), nil)
		assert.False(t, r.Valid)
		assert.True(t, hasCode(r, flow.CodeMissingRequiredField))
	})

	t.Run("invalid semver", func(t *testing.T) {
		doc := `{"name":"f","version":"not-a-version","nodes":[]}`
		r := Validate(parse(t, doc), nil)
		assert.True(t, hasCode(r, flow.CodeInvalidFormat))
	})

	t.Run("duplicate variable id", func(t *testing.T) {
		doc := `{"name":"f","version":"1.0.0","variables":[{"id":"x"},{"id":"x"}],"nodes":[]}`
		r := Validate(parse(t, doc), nil)
		assert.True(t, hasCode(r, flow.CodeDuplicateVariableID))
	})

	t.Run("duplicate node id including nested body", func(t *testing.T) {
		doc := `{
			"name": "f", "version": "1.0.0",
			"variables": [{"id": "items", "type": "array"}],
			"nodes": [
				{"id": "dup", "type": "UPDATE_VARIABLE", "name": "a", "config": {"variable_id": "items", "type": "update"}, "value": "[]"},
				{"id": "loop", "type": "FOR_EACH", "name": "loop", "config": {"each_key": "item"}, "input": {"items": "{{items}}"},
				 "each_nodes": [{"id": "dup", "type": "UPDATE_VARIABLE", "name": "b", "config": {"variable_id": "items", "type": "update"}, "value": "[]"}]}
			]
		}`
		r := Validate(parse(t, doc), nil)
		assert.True(t, hasCode(r, flow.CodeDuplicateNodeID))
	})

	t.Run("unrecognized node type", func(t *testing.T) {
		doc := `{"name":"f","version":"1.0.0","nodes":[{"id":"n1","name":"n1","type":"BOGUS"}]}`
		r := Validate(parse(t, doc), nil)
		assert.True(t, hasCode(r, flow.CodeInvalidNodeType))
	})

	t.Run("update variable requires value and known op", func(t *testing.T) {
		doc := `{"name":"f","version":"1.0.0","variables":[{"id":"x"}],"nodes":[
			{"id":"n1","name":"n1","type":"UPDATE_VARIABLE","config":{"variable_id":"x","type":"not-a-real-op"},"value":"1"}
		]}`
		r := Validate(parse(t, doc), nil)
		assert.True(t, hasCode(r, flow.CodeInvalidValue))
	})
}

func TestValidateReferencesPass(t *testing.T) {
	t.Run("unresolvable bare head is rejected", func(t *testing.T) {
		doc := `{"name":"f","version":"1.0.0","variables":[{"id":"x"}],"nodes":[
			{"id":"n1","name":"n1","type":"UPDATE_VARIABLE","config":{"variable_id":"x","type":"update"},"value":"{{nonexistent}}"}
		]}`
		r := Validate(parse(t, doc), nil)
		assert.True(t, hasCode(r, flow.CodeInvalidVariableRef))
	})

	t.Run("node id with output tail resolves without a declared variable", func(t *testing.T) {
		doc := `{"name":"f","version":"1.0.0","variables":[{"id":"y"}],"nodes":[
			{"id":"n1","name":"n1","type":"UPDATE_VARIABLE","config":{"variable_id":"y","type":"update"},"value":"1"},
			{"id":"n2","name":"n2","type":"UPDATE_VARIABLE","config":{"variable_id":"y","type":"update"},"value":"{{n1.output}}"}
		]}`
		r := Validate(parse(t, doc), nil)
		assert.True(t, r.Valid, "errors: %v", r.Errors)
	})

	t.Run("each_key is visible inside for_each body only", func(t *testing.T) {
		doc := `{"name":"f","version":"1.0.0","variables":[{"id":"items","type":"array"},{"id":"x"}],"nodes":[
			{"id":"loop","name":"loop","type":"FOR_EACH","config":{"each_key":"item"},"input":{"items":"{{items}}"},
			 "each_nodes":[{"id":"inner","name":"inner","type":"UPDATE_VARIABLE","config":{"variable_id":"x","type":"update"},"value":"{{item}}"}]},
			{"id":"n2","name":"n2","type":"UPDATE_VARIABLE","config":{"variable_id":"x","type":"update"},"value":"{{item}}"}
		]}`
		r := Validate(parse(t, doc), nil)
		assert.True(t, hasCode(r, flow.CodeInvalidVariableRef), "each_key should not leak outside the loop body")
	})
}

func TestValidateGraphPass(t *testing.T) {
	t.Run("topological order follows output dependencies", func(t *testing.T) {
		doc := `{"name":"f","version":"1.0.0","variables":[{"id":"a"},{"id":"b"}],"nodes":[
			{"id":"second","name":"second","type":"UPDATE_VARIABLE","config":{"variable_id":"b","type":"update"},"value":"{{first.output}}"},
			{"id":"first","name":"first","type":"UPDATE_VARIABLE","config":{"variable_id":"a","type":"update"},"value":"1"}
		]}`
		r := Validate(parse(t, doc), nil)
		require.True(t, r.Valid, "errors: %v", r.Errors)
		assert.Equal(t, []string{"first", "second"}, r.Order)
	})

	t.Run("circular dependency is detected", func(t *testing.T) {
		doc := `{"name":"f","version":"1.0.0","variables":[{"id":"a"},{"id":"b"}],"nodes":[
			{"id":"n1","name":"n1","type":"UPDATE_VARIABLE","config":{"variable_id":"a","type":"update"},"value":"{{n2.output}}"},
			{"id":"n2","name":"n2","type":"UPDATE_VARIABLE","config":{"variable_id":"b","type":"update"},"value":"{{n1.output}}"}
		]}`
		r := Validate(parse(t, doc), nil)
		assert.False(t, r.Valid)
		assert.True(t, hasCode(r, flow.CodeCircularDependency))
		assert.Nil(t, r.Order)
	})

	t.Run("declaration order tie-break among independent nodes", func(t *testing.T) {
		doc := `{"name":"f","version":"1.0.0","variables":[{"id":"a"},{"id":"b"},{"id":"c"}],"nodes":[
			{"id":"c","name":"c","type":"UPDATE_VARIABLE","config":{"variable_id":"c","type":"update"},"value":"1"},
			{"id":"b","name":"b","type":"UPDATE_VARIABLE","config":{"variable_id":"b","type":"update"},"value":"1"},
			{"id":"a","name":"a","type":"UPDATE_VARIABLE","config":{"variable_id":"a","type":"update"},"value":"1"}
		]}`
		r := Validate(parse(t, doc), nil)
		require.True(t, r.Valid)
		assert.Equal(t, []string{"c", "b", "a"}, r.Order)
	})
}

func TestValidateProvidersPass(t *testing.T) {
	doc := `{"name":"f","version":"1.0.0","variables":[{"id":"out"}],"nodes":[
		{"id":"n1","name":"n1","type":"LLM","config":{"provider":"openai","model":"gpt"},"messages":[{"role":"user","content":"hi"}],"output":{"answer":{"type":"string"}}}
	]}`

	t.Run("nil providers skips the pass", func(t *testing.T) {
		r := Validate(parse(t, doc), nil)
		assert.True(t, r.Valid, "errors: %v", r.Errors)
	})

	t.Run("configured provider passes", func(t *testing.T) {
		r := Validate(parse(t, doc), AvailableProviders{"llm": {"openai": true}})
		assert.True(t, r.Valid, "errors: %v", r.Errors)
	})

	t.Run("missing provider fails", func(t *testing.T) {
		r := Validate(parse(t, doc), AvailableProviders{"llm": {"anthropic": true}})
		assert.False(t, r.Valid)
		assert.True(t, hasCode(r, flow.CodeMissingProviderConfig))
	})
}

func TestValidateSemanticWarningsNeverFailValidation(t *testing.T) {
	doc := `{"name":"f","version":"1.0.0","variables":[{"id":"items","type":"array"}],"nodes":[
		{"id":"loop","name":"loop","type":"FOR_EACH","config":{"each_key":"item"},"input":{"items":"[]"},"each_nodes":[
			{"id":"inner","name":"inner","type":"UPDATE_VARIABLE","config":{"variable_id":"items","type":"update"},"value":"1"}
		]}
	]}`
	r := Validate(parse(t, doc), nil)
	require.True(t, r.Valid)
	found := false
	for _, w := range r.Warnings {
		if w == "complexity: low (2 nodes)" {
			found = true
		}
	}
	assert.True(t, found, "warnings: %v", r.Warnings)
}
