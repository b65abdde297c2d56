package vectorstore

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/forkcast/forkcast/pkg/contracts"
	"github.com/forkcast/forkcast/pkg/models"
)

// Retry policy for transient store faults: up to 3 retries after the
// initial attempt, exponential backoff from 100 ms with factor 2 and
// ±25% jitter. Missing collections and canceled contexts are permanent.
const (
	maxRetries      = 3
	initialInterval = 100 * time.Millisecond
	backoffFactor   = 2
	jitterFraction  = 0.25
)

type retrySearcher struct {
	inner contracts.VectorSearcher
}

// WithRetry wraps a driver with the transient-fault retry policy.
// All read operations are covered; health checks pass through so probes
// report the store's momentary state.
func WithRetry(inner contracts.VectorSearcher) contracts.VectorSearcher {
	return &retrySearcher{inner: inner}
}

func (r *retrySearcher) Kind() string { return r.inner.Kind() }

func (r *retrySearcher) Search(ctx context.Context, collection string, vector []float32, k int) ([]models.Hit, error) {
	var hits []models.Hit
	err := r.retry(ctx, collection, "search", func() error {
		var err error
		hits, err = r.inner.Search(ctx, collection, vector, k)
		return err
	})
	if err != nil {
		return nil, err
	}
	return hits, nil
}

func (r *retrySearcher) CollectionExists(ctx context.Context, collection string) (bool, error) {
	var exists bool
	err := r.retry(ctx, collection, "exists", func() error {
		var err error
		exists, err = r.inner.CollectionExists(ctx, collection)
		return err
	})
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *retrySearcher) CollectionSize(ctx context.Context, collection string) (int, error) {
	var size int
	err := r.retry(ctx, collection, "size", func() error {
		var err error
		size, err = r.inner.CollectionSize(ctx, collection)
		return err
	})
	if err != nil {
		return 0, err
	}
	return size, nil
}

func (r *retrySearcher) HealthCheck(ctx context.Context) error {
	return r.inner.HealthCheck(ctx)
}

func (r *retrySearcher) retry(ctx context.Context, collection, op string, fn func() error) error {
	attempt := 0
	wrapped := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrCollectionMissing) ||
			errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		log.Debug().Err(err).
			Str("collection", collection).
			Str("op", op).
			Int("attempt", attempt).
			Msg("Vector store call failed, backing off")
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialInterval
	b.Multiplier = backoffFactor
	b.RandomizationFactor = jitterFraction
	b.MaxElapsedTime = 0 // bounded by retry count, not wall clock

	return backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx))
}
