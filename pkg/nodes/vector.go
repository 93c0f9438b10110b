package nodes

import (
	"context"

	"github.com/flowforge/flowrun/pkg/flow"
	"github.com/flowforge/flowrun/pkg/provider"
	"github.com/flowforge/flowrun/pkg/registry"
)

func vectorClientFor(fac *Factory, n *flow.Node) (provider.VectorClient, error) {
	providerName, _ := n.Config["provider"].(string)
	client, ok := fac.Env.Providers.VectorFor(providerName)
	if !ok {
		return nil, flow.NewError(flow.CodeMissingProviderConfig, n.ID, "vector provider not configured: "+providerName, nil)
	}
	return client, nil
}

func execVectorInsert(ctx context.Context, fac *Factory, n *flow.Node, view registry.View) (interface{}, error) {
	client, err := vectorClientFor(fac, n)
	if err != nil {
		return nil, err
	}
	in, err := resolveInputObject(n, view)
	if err != nil {
		return nil, err
	}
	out, err := client.Insert(ctx, n.Config, in)
	if err != nil {
		return nil, flow.RuntimeError(n.ID, "vector insert failed", err)
	}
	return out, nil
}

func execVectorSearch(ctx context.Context, fac *Factory, n *flow.Node, view registry.View) (interface{}, error) {
	client, err := vectorClientFor(fac, n)
	if err != nil {
		return nil, err
	}
	in, err := resolveInputObject(n, view)
	if err != nil {
		return nil, err
	}
	out, err := client.Search(ctx, n.Config, in)
	if err != nil {
		return nil, flow.RuntimeError(n.ID, "vector search failed", err)
	}
	return out, nil
}

func execVectorUpdate(ctx context.Context, fac *Factory, n *flow.Node, view registry.View) (interface{}, error) {
	client, err := vectorClientFor(fac, n)
	if err != nil {
		return nil, err
	}
	in, err := resolveInputObject(n, view)
	if err != nil {
		return nil, err
	}
	out, err := client.Update(ctx, n.Config, in)
	if err != nil {
		return nil, flow.RuntimeError(n.ID, "vector update failed", err)
	}
	return out, nil
}

func execVectorDelete(ctx context.Context, fac *Factory, n *flow.Node, view registry.View) (interface{}, error) {
	client, err := vectorClientFor(fac, n)
	if err != nil {
		return nil, err
	}
	in, err := resolveInputObject(n, view)
	if err != nil {
		return nil, err
	}
	out, err := client.Delete(ctx, n.Config, in)
	if err != nil {
		return nil, flow.RuntimeError(n.ID, "vector delete failed", err)
	}
	return out, nil
}
