package validator

import "github.com/flowforge/flowrun/pkg/flow"

// providerCategory maps a node kind to the provider category key used in
// the host configuration's providers map, per SPEC_FULL §2's provider
// category enum.
func providerCategory(k flow.NodeKind) string {
	switch k {
	case flow.KindLLM:
		return "llm"
	case flow.KindTextEmbedding:
		return "embedding"
	case flow.KindVectorInsert, flow.KindVectorSearch, flow.KindVectorUpdate, flow.KindVectorDelete:
		return "vector"
	default:
		return ""
	}
}

// validateProviders is pass 4: when a provider configuration has been
// supplied, every node whose payload names a provider must find it
// configured. Skipped entirely (providers == nil) per §4.2.
func validateProviders(f *flow.Flow, providers AvailableProviders, r *Result) {
	if providers == nil {
		return
	}
	for _, n := range f.AllNodes() {
		category := providerCategory(n.Type)
		if category == "" {
			continue
		}
		name, _ := n.Config["provider"].(string)
		if name == "" {
			continue
		}
		if !providers.has(category, name) {
			r.addError(flow.NewError(flow.CodeMissingProviderConfig, n.ID, "provider not configured: "+name, nil))
		}
	}
}
