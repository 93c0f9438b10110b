package provider

// Set is the resolved collection of provider clients a Flow Executor run
// has available, keyed by category then provider name, matching the host
// configuration's `providers` map (§6).
type Set struct {
	LLM        map[string]LLMClient
	Embedding  map[string]EmbeddingClient
	Vector     map[string]VectorClient
	Rasterizer Rasterizer
}

// NewSet builds an empty Set; callers register clients with the With*
// methods before handing it to the executor. Rasterizer defaults to
// NoopClient, since PDF rasterization is explicitly out of scope (§1).
func NewSet() *Set {
	return &Set{
		LLM:        make(map[string]LLMClient),
		Embedding:  make(map[string]EmbeddingClient),
		Vector:     make(map[string]VectorClient),
		Rasterizer: NoopClient{},
	}
}

func (s *Set) WithLLM(name string, c LLMClient) *Set {
	s.LLM[name] = c
	return s
}

func (s *Set) WithEmbedding(name string, c EmbeddingClient) *Set {
	s.Embedding[name] = c
	return s
}

func (s *Set) WithVector(name string, c VectorClient) *Set {
	s.Vector[name] = c
	return s
}

// LLMFor resolves a named LLM client, falling back to NoopClient when the
// provider category has no registered clients at all (a library caller
// who never wired providers), and erroring when the specific name is
// simply missing from an otherwise-populated set.
func (s *Set) LLMFor(name string) (LLMClient, bool) {
	if s == nil || len(s.LLM) == 0 {
		return NoopClient{}, true
	}
	c, ok := s.LLM[name]
	return c, ok
}

func (s *Set) EmbeddingFor(name string) (EmbeddingClient, bool) {
	if s == nil || len(s.Embedding) == 0 {
		return NoopClient{}, true
	}
	c, ok := s.Embedding[name]
	return c, ok
}

func (s *Set) VectorFor(name string) (VectorClient, bool) {
	if s == nil || len(s.Vector) == 0 {
		return NoopClient{}, true
	}
	c, ok := s.Vector[name]
	return c, ok
}
