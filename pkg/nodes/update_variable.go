package nodes

import (
	"context"
	"encoding/json"

	"github.com/flowforge/flowrun/pkg/flow"
	"github.com/flowforge/flowrun/pkg/logging"
	"github.com/flowforge/flowrun/pkg/registry"
	"github.com/flowforge/flowrun/pkg/resolver"
)

// execUpdateVariable implements the Update-Variable Executor (§4.5): the
// resolved payload (object-mode when the raw value was a single
// reference, template-mode otherwise) is applied to the target variable
// via one of the eleven closed operations.
func execUpdateVariable(ctx context.Context, fac *Factory, n *flow.Node, view registry.View) (interface{}, error) {
	targetID, _ := n.Config["variable_id"].(string)
	op, _ := n.Config["type"].(string)

	var rawValue interface{}
	if err := json.Unmarshal(n.Value, &rawValue); err != nil {
		return nil, flow.NewError(flow.CodeInvalidFormat, n.ID, "value is not valid JSON", err)
	}
	payload := resolver.Resolve(rawValue, view)

	previous, existed := view.GetVariable(targetID)
	if !existed {
		fac.Env.Logger.Warn("update-variable target does not exist, creating it",
			logging.F("nodeId", n.ID), logging.F("variableId", targetID))
	}

	stringifyOutput := defaultStringifyOutput(op)
	if v, ok := n.Config["stringify_output"].(bool); ok {
		stringifyOutput = v
	}

	newValue, err := applyUpdateOp(op, previous, payload, n.Config, stringifyOutput)
	if err != nil {
		return nil, flow.RuntimeError(n.ID, "update-variable operation failed", err)
	}

	if err := view.SetVariable(targetID, newValue); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"variable_id":    targetID,
		"previous_value": previous,
		"new_value":      newValue,
		"operation":      op,
		"resolved_input": payload,
	}, nil
}

// defaultStringifyOutput mirrors §4.5's table: join/append stringify
// object results by default, every other operation does not.
func defaultStringifyOutput(op string) bool {
	return op == "join" || op == "append"
}
