// Package vectorstore provides the recipe-corpus search drivers.
// Shipped drivers: qdrant (HTTP API), pgvector (user-provided PostgreSQL),
// and embedded (in-memory brute force, for development and tests).
// The driver is selected by the VECTOR_STORE_URL scheme and wrapped in a
// retry decorator so transient faults never surface as single-shot errors.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/forkcast/forkcast/pkg/contracts"
)

var (
	// ErrUnavailable marks transport failures that survived the retry
	// policy. The executor skips the affected work item; at startup the
	// server treats it as fatal.
	ErrUnavailable = errors.New("vectorstore: store unavailable")
	// ErrCollectionMissing marks a search against an unknown collection.
	// Not retried; the executor logs it at WARN and records zero hits.
	ErrCollectionMissing = errors.New("vectorstore: collection missing")
)

// clampScore pins a driver's cosine score onto [0,1]. Qdrant and
// pgvector both report cosine on [-1,1]; anti-directional matches are
// worthless for ranking, so they floor at 0.
func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Open builds the driver for the given URL and applies the retry policy.
//
//	http:// or https://  → Qdrant
//	postgres://          → pgvector
//	memory://            → embedded
func Open(ctx context.Context, rawURL string, dimensions int) (contracts.VectorSearcher, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("vector store URL is empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse vector store URL: %w", err)
	}

	var driver contracts.VectorSearcher
	switch u.Scheme {
	case "http", "https":
		driver = NewQdrantStore(rawURL)
	case "postgres", "postgresql":
		pg, err := NewPgvectorStore(ctx, rawURL, dimensions)
		if err != nil {
			return nil, err
		}
		driver = pg
	case "memory":
		driver = NewEmbeddedStore()
	default:
		return nil, fmt.Errorf("unsupported vector store scheme %q (want http, postgres, or memory)", u.Scheme)
	}
	return WithRetry(driver), nil
}
