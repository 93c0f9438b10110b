package provider

import "context"

// NoopClient satisfies LLMClient, EmbeddingClient and VectorClient with
// deterministic, side-effect-free results. It is the default for tests
// and for flows that never reach a real provider category.
type NoopClient struct{}

func (NoopClient) Complete(_ context.Context, _ map[string]interface{}, in LLMInput) (LLMOutput, error) {
	fields := make(map[string]interface{}, len(in.OutputSchema))
	for name := range in.OutputSchema {
		fields[name] = nil
	}
	return LLMOutput{Fields: fields}, nil
}

func (NoopClient) Embed(_ context.Context, _ map[string]interface{}, in EmbeddingInput) (EmbeddingOutput, error) {
	vectors := make([][]float64, len(in.Texts))
	for i := range vectors {
		vectors[i] = []float64{}
	}
	return EmbeddingOutput{Vectors: vectors}, nil
}

func (NoopClient) Insert(context.Context, map[string]interface{}, map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"inserted": 0}, nil
}

func (NoopClient) Search(context.Context, map[string]interface{}, map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"matches": []interface{}{}}, nil
}

func (NoopClient) Update(context.Context, map[string]interface{}, map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"updated": 0}, nil
}

func (NoopClient) Delete(context.Context, map[string]interface{}, map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"deleted": 0}, nil
}

func (NoopClient) Rasterize(context.Context, string, int, string, string) ([]RasterizedPage, error) {
	return nil, nil
}
