// Package provider defines the external-collaborator contracts for LLM,
// embedding, and vector-store providers (§4.10/§6): given a node's config
// and resolved input, return a typed result or an error. The core engine
// never knows a provider's transport details.
//
// Grounded on the teacher's pkg/client (JetStream connection wrapper) and
// pkg/storage (azure_blob_client.go) for the shape of a small,
// context-aware adapter interface backed by a concrete transport rather
// than a hand-rolled mock as the default instance.
package provider

import "context"

// Message is one LLM conversation turn; Content may be plain text or a
// structured multimodal payload (image references etc.), passed through
// verbatim to the transport.
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// LLMInput is a resolved LLM node invocation.
type LLMInput struct {
	Messages     []Message
	MaxTokens    int
	Temperature  float64
	OutputSchema map[string]interface{}
	Tools        interface{}
	MCPServers   interface{}
}

// LLMOutput is the parsed structured result, keyed to match the node's
// declared output schema field names.
type LLMOutput struct {
	Fields map[string]interface{}
}

// LLMClient invokes a language model.
type LLMClient interface {
	Complete(ctx context.Context, config map[string]interface{}, in LLMInput) (LLMOutput, error)
}

// EmbeddingInput is a resolved TEXT_EMBEDDING node invocation.
type EmbeddingInput struct {
	Texts []string
}

// EmbeddingOutput carries one vector per input text, in order.
type EmbeddingOutput struct {
	Vectors [][]float64
}

// EmbeddingClient produces text embeddings.
type EmbeddingClient interface {
	Embed(ctx context.Context, config map[string]interface{}, in EmbeddingInput) (EmbeddingOutput, error)
}

// VectorClient performs the four vector-store operations. Input/output
// shapes are kind-specific (§6) so are passed through as decoded JSON
// objects rather than typed structs.
type VectorClient interface {
	Insert(ctx context.Context, config, input map[string]interface{}) (map[string]interface{}, error)
	Search(ctx context.Context, config, input map[string]interface{}) (map[string]interface{}, error)
	Update(ctx context.Context, config, input map[string]interface{}) (map[string]interface{}, error)
	Delete(ctx context.Context, config, input map[string]interface{}) (map[string]interface{}, error)
}

// RasterizedPage is one page produced by a Rasterizer.
type RasterizedPage struct {
	ImagePath string
	Width     int
	Height    int
}

// Rasterizer is the out-of-scope PDF rasterization collaborator (§1, §6):
// given a document path and output settings, returns ordered pages each
// carrying an image path and dimensions. The core never decodes PDF
// content itself.
type Rasterizer interface {
	Rasterize(ctx context.Context, documentPath string, dpi int, format, quality string) ([]RasterizedPage, error)
}
