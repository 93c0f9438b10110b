package nodes

import (
	"context"
	"time"

	"github.com/flowforge/flowrun/pkg/flow"
	"github.com/flowforge/flowrun/pkg/registry"
)

// execForEach implements the For-Each Executor (§4.8): items resolves
// in single-reference mode to an ordered sequence, and the body runs
// sequentially, ascending by index, each iteration wrapped in a fresh
// registry.ScopedView.
func execForEach(ctx context.Context, fac *Factory, n *flow.Node, view registry.View) (interface{}, error) {
	eachKey, _ := n.Config["each_key"].(string)

	itemsRaw, err := resolveInputObject(n, view)
	if err != nil {
		return nil, err
	}
	items, ok := asSequence(itemsRaw["items"])
	if !ok {
		return nil, flow.NewError(flow.CodeInvalidType, n.ID, "items must resolve to an ordered sequence", nil)
	}

	delay := 0
	if v, ok := n.Config["delay_between"].(float64); ok && v > 0 {
		delay = int(v)
	}

	results := make([]interface{}, 0, len(items))
	for i, item := range items {
		scoped := registry.NewScopedView(view, eachKey, item, i)

		childResults := map[string]interface{}{}
		for _, child := range n.EachNodes {
			child := child
			out, err := fac.Execute(ctx, &child, scoped)
			if err != nil {
				return nil, err
			}
			scoped.SetNodeOutput(child.ID, out)
			childResults[child.ID] = out
		}

		results = append(results, map[string]interface{}{
			"item":    item,
			"index":   i,
			"results": childResults,
		})

		if delay > 0 && i < len(items)-1 {
			select {
			case <-time.After(time.Duration(delay) * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return map[string]interface{}{
		"total_items":     len(items),
		"processed_items": len(results),
		"results":         results,
	}, nil
}
