// Package contracts defines the collaborator interfaces of the Forkcast
// recommendation service.
//
// The recommendation pipeline (analyzer, planner, search executor,
// orchestrator) depends only on these three leaf contracts. The production
// wiring (pkg/server) plugs in concrete drivers chosen by configuration;
// tests plug in stubs. Swapping an embedding backend or an LLM vendor is
// a single line change in the wiring code.
package contracts

import (
	"context"

	"github.com/forkcast/forkcast/pkg/models"
)

// ── Embedding Provider ──────────────────────────────────────

// EmbeddingProvider encodes text into fixed-width dense vectors.
// Production implementations: local HTTP microservice, OpenAI embeddings.
// The operation must be deterministic for a given model revision and safe
// for concurrent invocation.
type EmbeddingProvider interface {
	// Kind returns the driver identifier (e.g., "local", "openai").
	Kind() string

	// ModelName returns the embedding model this driver encodes with.
	ModelName() string

	// Dimensions returns the width of vectors produced by this driver.
	Dimensions() int

	// MaxBatchSize returns the largest number of texts accepted per call.
	MaxBatchSize() int

	// Embed encodes each input text into one vector. Every text must be
	// non-empty; the returned slice has one vector per input, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// HealthCheck verifies the backend is reachable.
	HealthCheck(ctx context.Context) error
}

// ── Vector Searcher ─────────────────────────────────────────

// VectorSearcher performs k-nearest-neighbor search within one named
// collection. Similarity is cosine, exposed on [0,1] where 1 means
// identical direction. Implementations must be safe for the executor's
// parallel fan-out.
// Production implementations: Qdrant HTTP, pgvector, embedded in-memory.
type VectorSearcher interface {
	// Kind returns the driver identifier (e.g., "qdrant", "pgvector").
	Kind() string

	// Search returns up to k hits from the collection, ordered by
	// descending similarity. Each hit carries the full recipe payload.
	Search(ctx context.Context, collection string, vector []float32, k int) ([]models.Hit, error)

	// CollectionExists reports whether the named collection is present.
	CollectionExists(ctx context.Context, collection string) (bool, error)

	// CollectionSize returns the point count of a collection, best-effort.
	CollectionSize(ctx context.Context, collection string) (int, error)

	// HealthCheck verifies the store is reachable.
	HealthCheck(ctx context.Context) error
}

// ── Completion Client ───────────────────────────────────────

// CompletionClient sends one prompt to an LLM and returns the raw text
// completion. No retry happens at this layer: the analyzer and planner
// decide whether to retry or fall back, since blind retries of an LLM
// are cost-sensitive. In json mode the returned string is expected to be
// a single JSON document; parsing stays with the caller.
// Production implementations: Gemini, OpenAI.
type CompletionClient interface {
	// Kind returns the provider identifier (e.g., "gemini", "openai").
	Kind() string

	// ModelName returns the completion model in use.
	ModelName() string

	// Complete sends the prompt and returns the completion text.
	Complete(ctx context.Context, prompt string, opts models.CompletionOptions) (string, error)

	// HealthCheck verifies credentials and reachability with a tiny call.
	HealthCheck(ctx context.Context) error
}
