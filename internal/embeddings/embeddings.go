// Package embeddings provides the text-encoding drivers behind query
// search. One driver is selected at startup and shared process-wide;
// all drivers are safe for the executor's parallel fan-out.
package embeddings

import (
	"errors"
	"fmt"

	"github.com/forkcast/forkcast/internal/config"
	"github.com/forkcast/forkcast/pkg/contracts"
)

var (
	// ErrUnavailable marks transport or model failures. Callers skip the
	// affected work item; at startup it is fatal.
	ErrUnavailable = errors.New("embeddings: provider unavailable")
	// ErrEmptyText rejects empty input, which would embed to garbage.
	ErrEmptyText = errors.New("embeddings: empty text")
)

// New builds the embedding driver selected by configuration.
func New(cfg config.EmbeddingsConfig) (contracts.EmbeddingProvider, error) {
	switch cfg.Provider {
	case "local":
		return NewLocalDriver(cfg.ServiceURL, cfg.ModelName), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai embeddings require EMBEDDING_API_KEY")
		}
		return NewOpenAIDriver(cfg.APIKey, cfg.ModelName), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q (want local or openai)", cfg.Provider)
	}
}

// dimensionsFor maps a sentence-transformer model name onto its vector
// width. Unknown models default to 768, the corpus width.
func dimensionsFor(model string) int {
	switch model {
	case "all-mpnet-base-v2", "nomic-embed-text":
		return 768
	case "all-minilm", "all-MiniLM-L6-v2":
		return 384
	case "mxbai-embed-large":
		return 1024
	}
	return 768
}

func validateTexts(texts []string) error {
	for i, text := range texts {
		if text == "" {
			return fmt.Errorf("%w: text %d", ErrEmptyText, i)
		}
	}
	return nil
}
