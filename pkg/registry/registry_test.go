package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/flowrun/pkg/flow"
)

type fakeFiles struct {
	known map[string]bool
	next  string
	err   error
}

func (f *fakeFiles) HasFile(id string) bool { return f.known[id] }

func (f *fakeFiles) RegisterFile(path string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.next, nil
}

func decls() []flow.VariableDeclaration {
	return []flow.VariableDeclaration{
		{ID: "name", Type: flow.TypeString},
		{ID: "count", Type: flow.TypeNumber, Default: json.RawMessage(`5`)},
		{ID: "doc", Type: flow.TypeFile},
		{ID: "items", Type: flow.TypeArray},
		{ID: "untyped"},
	}
}

func TestNewSeedsDefaults(t *testing.T) {
	r := New(decls(), nil)
	v, ok := r.GetVariable("count")
	require.True(t, ok)
	assert.Equal(t, float64(5), v)

	_, ok = r.GetVariable("name")
	assert.False(t, ok)
	assert.True(t, r.HasVariable("name"), "declared but unset variable should still be 'known'")
}

func TestSetVariableTypeValidation(t *testing.T) {
	r := New(decls(), nil)

	require.NoError(t, r.SetVariable("name", "hi"))
	assert.Error(t, r.SetVariable("name", 5))

	require.NoError(t, r.SetVariable("items", []interface{}{1, 2}))
	assert.Error(t, r.SetVariable("items", map[string]interface{}{}))

	require.NoError(t, r.SetVariable("untyped", 42), "undeclared variables accept any value")
}

func TestSetVariableFileRegistration(t *testing.T) {
	t.Run("already known file id passes through", func(t *testing.T) {
		files := &fakeFiles{known: map[string]bool{"file-1": true}}
		r := New(decls(), files)
		require.NoError(t, r.SetVariable("doc", "file-1"))
		v, _ := r.GetVariable("doc")
		assert.Equal(t, "file-1", v)
	})

	t.Run("unknown path gets registered", func(t *testing.T) {
		files := &fakeFiles{known: map[string]bool{}, next: "file-new"}
		r := New(decls(), files)
		require.NoError(t, r.SetVariable("doc", "/tmp/upload.bin"))
		v, _ := r.GetVariable("doc")
		assert.Equal(t, "file-new", v)
	})

	t.Run("no file collaborator is fatal", func(t *testing.T) {
		r := New(decls(), nil)
		err := r.SetVariable("doc", "/tmp/upload.bin")
		require.Error(t, err)
		ferr, ok := err.(*flow.Error)
		require.True(t, ok)
		assert.Equal(t, flow.CodeInvalidValue, ferr.Code)
	})
}

func TestNodeOutputStorage(t *testing.T) {
	r := New(nil, nil)
	assert.False(t, r.HasNodeOutput("n1"))
	r.SetNodeOutput("n1", map[string]interface{}{"field": "v"})
	assert.True(t, r.HasNodeOutput("n1"))
	v, ok := r.GetNodeOutput("n1")
	require.True(t, ok)
	assert.Equal(t, "v", v.(map[string]interface{})["field"])
}

func TestResolveExpressionPrefersNodeOutputOverVariable(t *testing.T) {
	r := New(decls(), nil)
	require.NoError(t, r.SetVariable("name", "var-value"))
	r.SetNodeOutput("name", map[string]interface{}{"field": "out-value"})

	v, ok := r.ResolveExpression("name", []string{"output", "field"})
	require.True(t, ok)
	assert.Equal(t, "out-value", v, "output keyword tail segment should be stripped before navigation")

	v, ok = r.ResolveExpression("count", nil)
	require.True(t, ok)
	assert.Equal(t, float64(5), v)

	_, ok = r.ResolveExpression("missing", nil)
	assert.False(t, ok)
}

func TestScopedViewResolutionOrder(t *testing.T) {
	parent := New(decls(), nil)
	require.NoError(t, parent.SetVariable("name", "world"))
	parent.SetNodeOutput("outerNode", "outer-output")

	scoped := NewScopedView(parent, "item", "banana", 2)

	v, ok := scoped.ResolveExpression("item", nil)
	require.True(t, ok)
	assert.Equal(t, "banana", v)

	v, ok = scoped.ResolveExpression("item_index", nil)
	require.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = scoped.ResolveExpression("name", nil)
	require.True(t, ok)
	assert.Equal(t, "world", v, "variables fall through to the parent")

	v, ok = scoped.ResolveExpression("outerNode", nil)
	require.True(t, ok)
	assert.Equal(t, "outer-output", v, "node output from before the loop is visible")

	scoped.SetNodeOutput("innerNode", "inner-output")
	v, ok = scoped.ResolveExpression("innerNode", nil)
	require.True(t, ok)
	assert.Equal(t, "inner-output", v)

	v, ok = parent.ResolveExpression("innerNode", nil)
	require.True(t, ok, "scoped writes should also be visible on the parent for output collection")
	assert.Equal(t, "inner-output", v)
}

func TestScopedViewIndexTailIsInvalid(t *testing.T) {
	parent := New(nil, nil)
	scoped := NewScopedView(parent, "item", "x", 0)
	_, ok := scoped.ResolveExpression("item_index", []string{"anything"})
	assert.False(t, ok)
}
