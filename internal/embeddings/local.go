package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// LocalDriver talks to the sentence-transformers embedding microservice
// deployed next to the recommendation service. It is the default driver:
// the corpus was ingested with all-mpnet-base-v2 (768d), so queries must
// be encoded with the very same model revision.
type LocalDriver struct {
	endpoint   string // e.g. http://localhost:8081
	model      string
	dimensions int
	batchSize  int
	client     *http.Client
}

// LocalOption configures the local driver.
type LocalOption func(*LocalDriver)

// WithLocalBatchSize sets the max texts per Embed call.
func WithLocalBatchSize(size int) LocalOption {
	return func(d *LocalDriver) { d.batchSize = size }
}

// NewLocalDriver creates a driver for the embedding microservice.
func NewLocalDriver(endpoint, model string, opts ...LocalOption) *LocalDriver {
	if endpoint == "" {
		endpoint = "http://localhost:8081"
	}
	d := &LocalDriver{
		endpoint:   endpoint,
		model:      model,
		dimensions: dimensionsFor(model),
		batchSize:  64,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *LocalDriver) Kind() string      { return "local" }
func (d *LocalDriver) ModelName() string { return d.model }
func (d *LocalDriver) Dimensions() int   { return d.dimensions }
func (d *LocalDriver) MaxBatchSize() int { return d.batchSize }

type localEmbedRequest struct {
	Model string   `json:"model"`
	Texts []string `json:"texts"`
}

type localEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed encodes each text via POST /embed.
func (d *LocalDriver) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := validateTexts(texts); err != nil {
		return nil, err
	}
	if len(texts) > d.batchSize {
		return nil, fmt.Errorf("batch size %d exceeds max %d", len(texts), d.batchSize)
	}

	body, err := json.Marshal(localEmbedRequest{Model: d.model, Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := d.endpoint + "/embed"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: embed API returned %d: %s", ErrUnavailable, resp.StatusCode, string(respBody))
	}

	var result localEmbedResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%w: unmarshal response: %v", ErrUnavailable, err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrUnavailable, len(texts), len(result.Embeddings))
	}
	for i, v := range result.Embeddings {
		if len(v) != d.dimensions {
			return nil, fmt.Errorf("%w: embedding %d has %d dims, want %d", ErrUnavailable, i, len(v), d.dimensions)
		}
	}
	return result.Embeddings, nil
}

// HealthCheck verifies the microservice is reachable and serving the model.
func (d *LocalDriver) HealthCheck(ctx context.Context) error {
	_, err := d.Embed(ctx, []string{"health check"})
	return err
}
