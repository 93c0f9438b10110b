package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/flowrun/pkg/flow"
	"github.com/flowforge/flowrun/pkg/registry"
)

func TestExecuteDispatchesToTheRegisteredHandler(t *testing.T) {
	fac := testFactory(t)
	view := registry.New([]flow.VariableDeclaration{{ID: "y"}}, nil)

	n := &flow.Node{
		ID:     "n1",
		Type:   flow.KindUpdateVariable,
		Config: map[string]interface{}{"variable_id": "y", "type": "update"},
		Value:  raw(t, "hello"),
	}

	out, err := fac.Execute(context.Background(), n, view)
	require.NoError(t, err)
	assert.Equal(t, "hello", out.(map[string]interface{})["new_value"])

	v, _ := view.GetVariable("y")
	assert.Equal(t, "hello", v)
}

func TestExecuteUnknownKindErrors(t *testing.T) {
	fac := testFactory(t)
	view := registry.New(nil, nil)
	n := &flow.Node{ID: "n1", Type: flow.NodeKind("BOGUS")}

	_, err := fac.Execute(context.Background(), n, view)
	require.Error(t, err)
	var flowErr *flow.Error
	require.ErrorAs(t, err, &flowErr)
	assert.Equal(t, flow.CodeRuntime, flowErr.Code)
}

func TestNewFactoryDefaultsNilLoggerToNoOp(t *testing.T) {
	fac := NewFactory(&Env{FlowID: "f1"})
	assert.NotNil(t, fac.Env.Logger)
}
