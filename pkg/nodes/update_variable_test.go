package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/flowrun/pkg/flow"
	"github.com/flowforge/flowrun/pkg/registry"
)

func TestExecUpdateVariableUpdateOp(t *testing.T) {
	fac := testFactory(t)
	view := registry.New([]flow.VariableDeclaration{{ID: "greeting", Type: flow.TypeString}}, nil)

	n := &flow.Node{
		ID:     "n1",
		Type:   flow.KindUpdateVariable,
		Config: map[string]interface{}{"variable_id": "greeting", "type": "update"},
		Value:  raw(t, "hello"),
	}

	out, err := execUpdateVariable(context.Background(), fac, n, view)
	require.NoError(t, err)

	result := out.(map[string]interface{})
	assert.Equal(t, "hello", result["new_value"])
	assert.Nil(t, result["previous_value"])

	v, ok := view.GetVariable("greeting")
	require.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestExecUpdateVariableResolvesSingleReferenceValue(t *testing.T) {
	fac := testFactory(t)
	view := registry.New([]flow.VariableDeclaration{{ID: "count", Type: flow.TypeNumber}, {ID: "out"}}, nil)
	require.NoError(t, view.SetVariable("count", float64(7)))

	n := &flow.Node{
		ID:     "n1",
		Type:   flow.KindUpdateVariable,
		Config: map[string]interface{}{"variable_id": "out", "type": "update"},
		Value:  raw(t, "{{count}}"),
	}

	out, err := execUpdateVariable(context.Background(), fac, n, view)
	require.NoError(t, err)
	result := out.(map[string]interface{})
	assert.Equal(t, float64(7), result["new_value"], "single reference should preserve the numeric type")
}

func TestExecUpdateVariableDefaultStringifyOutput(t *testing.T) {
	fac := testFactory(t)
	view := registry.New([]flow.VariableDeclaration{{ID: "log", Type: flow.TypeString}}, nil)
	require.NoError(t, view.SetVariable("log", "start"))

	n := &flow.Node{
		ID:     "n1",
		Type:   flow.KindUpdateVariable,
		Config: map[string]interface{}{"variable_id": "log", "type": "join", "join_str": " - "},
		Value:  raw(t, "next"),
	}

	out, err := execUpdateVariable(context.Background(), fac, n, view)
	require.NoError(t, err)
	result := out.(map[string]interface{})
	assert.Equal(t, "start - next", result["new_value"])
}

func TestExecUpdateVariableUnknownTargetLogsAndProceeds(t *testing.T) {
	fac := testFactory(t)
	view := registry.New(nil, nil)

	n := &flow.Node{
		ID:     "n1",
		Type:   flow.KindUpdateVariable,
		Config: map[string]interface{}{"variable_id": "brandNew", "type": "update"},
		Value:  raw(t, "v1"),
	}

	_, err := execUpdateVariable(context.Background(), fac, n, view)
	require.NoError(t, err)
	v, ok := view.GetVariable("brandNew")
	require.True(t, ok)
	assert.Equal(t, "v1", v)
}
