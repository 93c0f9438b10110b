package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/flowrun/pkg/flow"
	"github.com/flowforge/flowrun/pkg/registry"
)

func TestExecForEachRunsBodySequentiallyPerItem(t *testing.T) {
	fac := testFactory(t)
	view := registry.New([]flow.VariableDeclaration{{ID: "log", Type: flow.TypeString}}, nil)
	require.NoError(t, view.SetVariable("log", ""))

	n := &flow.Node{
		ID:     "loop",
		Type:   flow.KindForEach,
		Config: map[string]interface{}{"each_key": "item"},
		Input:  raw(t, map[string]interface{}{"items": []interface{}{"a", "b", "c"}}),
		EachNodes: []flow.Node{
			{
				ID:     "append",
				Type:   flow.KindUpdateVariable,
				Config: map[string]interface{}{"variable_id": "log", "type": "join", "join_str": ","},
				Value:  raw(t, "{{item}}"),
			},
		},
	}

	out, err := execForEach(context.Background(), fac, n, view)
	require.NoError(t, err)

	result := out.(map[string]interface{})
	assert.Equal(t, 3, result["total_items"])
	assert.Equal(t, 3, result["processed_items"])

	v, _ := view.GetVariable("log")
	assert.Equal(t, "a,b,c", v, "each iteration should see its own item and accumulate sequentially")
}

func TestExecForEachRejectsNonSequenceItems(t *testing.T) {
	fac := testFactory(t)
	view := registry.New(nil, nil)

	n := &flow.Node{
		ID:     "loop",
		Type:   flow.KindForEach,
		Config: map[string]interface{}{"each_key": "item"},
		Input:  raw(t, map[string]interface{}{"items": "not-a-sequence"}),
	}

	_, err := execForEach(context.Background(), fac, n, view)
	require.Error(t, err)
	ferr, ok := err.(*flow.Error)
	require.True(t, ok)
	assert.Equal(t, flow.CodeInvalidType, ferr.Code)
}

func TestExecForEachExposesIndexViaEachKeySuffix(t *testing.T) {
	fac := testFactory(t)
	view := registry.New([]flow.VariableDeclaration{{ID: "lastIndex", Type: flow.TypeNumber}}, nil)

	n := &flow.Node{
		ID:     "loop",
		Type:   flow.KindForEach,
		Config: map[string]interface{}{"each_key": "item"},
		Input:  raw(t, map[string]interface{}{"items": []interface{}{"x", "y"}}),
		EachNodes: []flow.Node{
			{
				ID:     "recordIndex",
				Type:   flow.KindUpdateVariable,
				Config: map[string]interface{}{"variable_id": "lastIndex", "type": "update"},
				Value:  raw(t, "{{item_index}}"),
			},
		},
	}

	_, err := execForEach(context.Background(), fac, n, view)
	require.NoError(t, err)

	v, _ := view.GetVariable("lastIndex")
	assert.Equal(t, 1, v, "last iteration's index should be 1 for a two-item sequence")
}
