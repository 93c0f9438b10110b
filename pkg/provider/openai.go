package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultBaseURL is used when a node's config omits base_url.
const defaultBaseURL = "https://api.openai.com/v1"

// OpenAIClient is the concrete HTTP-backed adapter for the "openai"-shaped
// provider name, satisfying both LLMClient and EmbeddingClient. Config is
// read per call from the node's config map plus the host-supplied apiKey,
// so a single client instance serves every node using this provider.
type OpenAIClient struct {
	HTTP   *http.Client
	APIKey string
}

// NewOpenAIClient builds a client with a bounded default timeout,
// mirroring the teacher's transport clients never leaving http.Client's
// timeout unset.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		HTTP:   &http.Client{Timeout: 60 * time.Second},
		APIKey: apiKey,
	}
}

func (c *OpenAIClient) baseURL(config map[string]interface{}) string {
	if v, ok := config["base_url"].(string); ok && v != "" {
		return v
	}
	return defaultBaseURL
}

func (c *OpenAIClient) do(ctx context.Context, url string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("provider: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("provider: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("provider: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("provider: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("provider: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("provider: decode response: %w", err)
	}
	return nil
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete issues a chat-completion call and parses the model's reply as
// JSON matching the node's declared output schema (§9's strict-prompt +
// post-parse-validation contract; a disobedient provider surfaces its
// parse failure as a Runtime-class error, per the "throw" default).
func (c *OpenAIClient) Complete(ctx context.Context, config map[string]interface{}, in LLMInput) (LLMOutput, error) {
	model, _ := config["model"].(string)
	messages := in.Messages
	if len(in.OutputSchema) > 0 {
		schemaJSON, err := json.Marshal(in.OutputSchema)
		if err != nil {
			return LLMOutput{}, fmt.Errorf("provider: encode output schema: %w", err)
		}
		instruction := Message{Role: "system", Content: "Respond with only a JSON object matching this schema: " + string(schemaJSON)}
		messages = append([]Message{instruction}, messages...)
	}
	req := chatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   in.MaxTokens,
		Temperature: in.Temperature,
	}

	var resp chatCompletionResponse
	if err := c.do(ctx, c.baseURL(config)+"/chat/completions", req, &resp); err != nil {
		return LLMOutput{}, err
	}
	if len(resp.Choices) == 0 {
		return LLMOutput{}, fmt.Errorf("provider: empty completion response")
	}

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &fields); err != nil {
		return LLMOutput{}, fmt.Errorf("provider: model output did not match declared schema: %w", err)
	}
	return LLMOutput{Fields: fields}, nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed issues an embeddings call for a batch of texts.
func (c *OpenAIClient) Embed(ctx context.Context, config map[string]interface{}, in EmbeddingInput) (EmbeddingOutput, error) {
	model, _ := config["model"].(string)
	req := embeddingRequest{Model: model, Input: in.Texts}

	var resp embeddingResponse
	if err := c.do(ctx, c.baseURL(config)+"/embeddings", req, &resp); err != nil {
		return EmbeddingOutput{}, err
	}

	vectors := make([][]float64, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return EmbeddingOutput{Vectors: vectors}, nil
}
