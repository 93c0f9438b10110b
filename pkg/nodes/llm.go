package nodes

import (
	"context"
	"encoding/json"

	"github.com/flowforge/flowrun/pkg/flow"
	"github.com/flowforge/flowrun/pkg/provider"
	"github.com/flowforge/flowrun/pkg/registry"
	"github.com/flowforge/flowrun/pkg/resolver"
	"github.com/flowforge/flowrun/pkg/schema"
)

// execLLM resolves an LLM node's messages and config, invokes the
// configured provider, and validates the parsed reply against the node's
// declared output schema (§6, §9's strict-prompt + post-parse-validation
// contract).
func execLLM(ctx context.Context, fac *Factory, n *flow.Node, view registry.View) (interface{}, error) {
	providerName, _ := n.Config["provider"].(string)
	client, ok := fac.Env.Providers.LLMFor(providerName)
	if !ok {
		return nil, flow.NewError(flow.CodeMissingProviderConfig, n.ID, "llm provider not configured: "+providerName, nil)
	}

	messages, err := resolveMessages(n.Messages, view, fac.Env.Files)
	if err != nil {
		return nil, flow.RuntimeError(n.ID, "failed to resolve messages", err)
	}

	maxTokens := 0
	if v, ok := n.Config["max_tokens"].(float64); ok {
		maxTokens = int(v)
	}
	temperature := 0.0
	if v, ok := n.Config["temperature"].(float64); ok {
		temperature = v
	}

	outputSchema := make(map[string]interface{}, len(n.Output))
	for name, field := range n.Output {
		outputSchema[name] = field
	}

	in := provider.LLMInput{
		Messages:     messages,
		MaxTokens:    maxTokens,
		Temperature:  temperature,
		OutputSchema: outputSchema,
		Tools:        n.Config["tools"],
		MCPServers:   n.Config["mcp_servers"],
	}

	out, err := client.Complete(ctx, n.Config, in)
	if err != nil {
		return nil, flow.RuntimeError(n.ID, "llm provider call failed", err)
	}

	sc := schema.FromOutputFields(n.Output)
	result := schema.NewValidator().Validate(out.Fields, sc)
	if !result.Valid {
		return nil, flow.RuntimeError(n.ID, "llm output does not match declared schema", schema.ValidationFailedError(result.Errors))
	}

	fields := make(map[string]interface{}, len(out.Fields))
	for k, v := range out.Fields {
		fields[k] = v
	}
	return fields, nil
}

// resolveMessages resolves every {{...}} occurrence in the node's raw
// messages array against view, and renders file-typed content entries
// that name a registered image as an inline data URL.
func resolveMessages(raw json.RawMessage, view registry.View, files FileRegistrar) ([]provider.Message, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var decoded []interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}

	msgs := make([]provider.Message, 0, len(decoded))
	for _, item := range decoded {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		role, _ := obj["role"].(string)
		content := resolver.Resolve(obj["content"], view)
		content = renderImageContent(content, files)
		msgs = append(msgs, provider.Message{Role: role, Content: content})
	}
	return msgs, nil
}

// renderImageContent replaces a bare file-id string content with a data
// URL when the id names a registered image, otherwise passes content
// through unchanged (plain text, or a caller-supplied structured
// multimodal payload).
func renderImageContent(content interface{}, files FileRegistrar) interface{} {
	id, ok := content.(string)
	if !ok || files == nil || !files.HasFile(id) || !files.IsImage(id) {
		return content
	}
	dataURL, err := files.GetFileDataUrl(id)
	if err != nil {
		return content
	}
	return dataURL
}
