package embeddings

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIDriver encodes text with OpenAI's hosted embedding API. The v3
// models accept a dimensions parameter, so output is pinned to the corpus
// width regardless of the model's native size.
type OpenAIDriver struct {
	client     *openai.Client
	model      string
	dimensions int
	batchSize  int
}

// OpenAIOption configures the OpenAI driver.
type OpenAIOption func(*OpenAIDriver)

// WithOpenAIDimensions overrides the requested vector width.
func WithOpenAIDimensions(dims int) OpenAIOption {
	return func(d *OpenAIDriver) { d.dimensions = dims }
}

// WithOpenAIBatchSize sets the max texts per Embed call.
func WithOpenAIBatchSize(size int) OpenAIOption {
	return func(d *OpenAIDriver) { d.batchSize = size }
}

// NewOpenAIDriver creates an OpenAI embedding driver. The model defaults
// to text-embedding-3-small when the configured name is a local
// sentence-transformer the hosted API does not know.
func NewOpenAIDriver(apiKey, model string, opts ...OpenAIOption) *OpenAIDriver {
	switch model {
	case "", "all-mpnet-base-v2", "all-minilm", "all-MiniLM-L6-v2":
		model = string(openai.SmallEmbedding3)
	}
	d := &OpenAIDriver{
		client:     openai.NewClient(apiKey),
		model:      model,
		dimensions: 768,
		batchSize:  256,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *OpenAIDriver) Kind() string      { return "openai" }
func (d *OpenAIDriver) ModelName() string { return d.model }
func (d *OpenAIDriver) Dimensions() int   { return d.dimensions }
func (d *OpenAIDriver) MaxBatchSize() int { return d.batchSize }

// Embed encodes each text through the embeddings API.
func (d *OpenAIDriver) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := validateTexts(texts); err != nil {
		return nil, err
	}
	if len(texts) > d.batchSize {
		return nil, fmt.Errorf("batch size %d exceeds max %d", len(texts), d.batchSize)
	}

	resp, err := d.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(d.model),
		Dimensions: d.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrUnavailable, len(texts), len(resp.Data))
	}

	out := make([][]float32, len(resp.Data))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(out) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", ErrUnavailable, item.Index)
		}
		out[item.Index] = item.Embedding
	}
	return out, nil
}

// HealthCheck verifies credentials with a single tiny embedding.
func (d *OpenAIDriver) HealthCheck(ctx context.Context) error {
	_, err := d.Embed(ctx, []string{"health check"})
	return err
}
