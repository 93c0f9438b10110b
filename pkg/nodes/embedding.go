package nodes

import (
	"context"
	"errors"

	"github.com/flowforge/flowrun/pkg/flow"
	"github.com/flowforge/flowrun/pkg/provider"
	"github.com/flowforge/flowrun/pkg/registry"
)

var errMissingEmbeddingInput = errors.New("input requires text, texts or items")

// execEmbedding resolves a TEXT_EMBEDDING node's input (a single text, a
// batch of texts, or a batch of items each carrying text) and returns the
// provider's embeddings, shaped to match whichever input form was given.
func execEmbedding(ctx context.Context, fac *Factory, n *flow.Node, view registry.View) (interface{}, error) {
	providerName, _ := n.Config["provider"].(string)
	client, ok := fac.Env.Providers.EmbeddingFor(providerName)
	if !ok {
		return nil, flow.NewError(flow.CodeMissingProviderConfig, n.ID, "embedding provider not configured: "+providerName, nil)
	}

	in, err := resolveInputObject(n, view)
	if err != nil {
		return nil, err
	}

	if text, ok := in["text"].(string); ok {
		out, err := client.Embed(ctx, n.Config, provider.EmbeddingInput{Texts: []string{text}})
		if err != nil {
			return nil, flow.RuntimeError(n.ID, "embedding provider call failed", err)
		}
		var vec []float64
		if len(out.Vectors) > 0 {
			vec = out.Vectors[0]
		}
		return map[string]interface{}{"vector": vec}, nil
	}

	texts, srcItems, err := embeddingTextsFrom(in)
	if err != nil {
		return nil, flow.NewError(flow.CodeMissingRequiredField, n.ID, err.Error(), nil)
	}

	out, err := client.Embed(ctx, n.Config, provider.EmbeddingInput{Texts: texts})
	if err != nil {
		return nil, flow.RuntimeError(n.ID, "embedding provider call failed", err)
	}

	vectors := make([]interface{}, len(out.Vectors))
	for i, v := range out.Vectors {
		vectors[i] = v
	}
	result := map[string]interface{}{"vectors": vectors}
	if srcItems != nil {
		result["items"] = srcItems
	}
	return result, nil
}

func embeddingTextsFrom(in map[string]interface{}) ([]string, []interface{}, error) {
	if rawTexts, ok := in["texts"].([]interface{}); ok {
		texts := make([]string, 0, len(rawTexts))
		for _, t := range rawTexts {
			s, _ := t.(string)
			texts = append(texts, s)
		}
		return texts, nil, nil
	}
	if items, ok := in["items"].([]interface{}); ok {
		texts := make([]string, 0, len(items))
		for _, item := range items {
			m, _ := item.(map[string]interface{})
			s, _ := m["text"].(string)
			texts = append(texts, s)
		}
		return texts, items, nil
	}
	return nil, nil, errMissingEmbeddingInput
}
