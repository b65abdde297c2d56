// Package search fans a query plan out across the recipe collections,
// then merges, deduplicates, and ranks the hits. Individual search
// failures degrade the result set instead of failing the request.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/forkcast/forkcast/internal/catalog"
	"github.com/forkcast/forkcast/internal/vectorstore"
	"github.com/forkcast/forkcast/pkg/contracts"
	"github.com/forkcast/forkcast/pkg/models"
)

const (
	// KPerQuery is how many hits each individual search contributes.
	KPerQuery = 2

	// DefaultMaxParallel bounds concurrent searches when the config
	// does not say otherwise.
	DefaultMaxParallel = 16

	// ingredientsPreviewLen caps the preview copied onto a hit.
	ingredientsPreviewLen = 5
)

// Executor runs the fan-out stage of the pipeline.
type Executor struct {
	embedder    contracts.EmbeddingProvider
	store       contracts.VectorSearcher
	library     *catalog.Library
	maxParallel int
}

// NewExecutor wires an executor. library may be nil; hits then carry
// empty metadata.
func NewExecutor(embedder contracts.EmbeddingProvider, store contracts.VectorSearcher, library *catalog.Library, maxParallel int) *Executor {
	if maxParallel <= 0 {
		maxParallel = DefaultMaxParallel
	}
	return &Executor{
		embedder:    embedder,
		store:       store,
		library:     library,
		maxParallel: maxParallel,
	}
}

type workItem struct {
	collection string
	query      string
}

// Execute runs every (collection, query) pair in the plan with bounded
// parallelism and returns ranked, deduplicated recommendations. Failed
// items are skipped with a log line; when everything fails the result
// is simply empty. The returned error is non-nil only when the context
// expired mid-flight, in which case the recommendations gathered so far
// are still returned.
func (e *Executor) Execute(ctx context.Context, plan models.QueryPlan) ([]models.Recommendation, error) {
	items := make([]workItem, 0, plan.QueryCount())
	for _, collection := range plan.Collections() {
		for _, query := range plan[collection] {
			items = append(items, workItem{collection: collection, query: query})
		}
	}
	if len(items) == 0 {
		return []models.Recommendation{}, nil
	}

	var (
		mu   sync.Mutex
		hits []models.Hit
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxParallel)

	for _, item := range items {
		item := item
		g.Go(func() error {
			found, err := e.searchOne(gctx, item)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logSkip(item, err)
				return nil
			}
			mu.Lock()
			hits = append(hits, found...)
			mu.Unlock()
			return nil
		})
	}

	waitErr := g.Wait()

	merged := dedupe(hits)
	sortHits(merged)
	recs := e.toRecommendations(merged)

	if waitErr != nil {
		log.Warn().Err(waitErr).Int("hits_gathered", len(recs)).Msg("Search fan-out cut short")
		return recs, waitErr
	}
	return recs, nil
}

func (e *Executor) searchOne(ctx context.Context, item workItem) ([]models.Hit, error) {
	vectors, err := e.embedder.Embed(ctx, []string{item.query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors, want 1", len(vectors))
	}
	return e.store.Search(ctx, item.collection, vectors[0], KPerQuery)
}

func logSkip(item workItem, err error) {
	if errors.Is(err, vectorstore.ErrCollectionMissing) {
		log.Warn().
			Str("collection", item.collection).
			Str("query", item.query).
			Msg("Collection missing, skipping its query")
		return
	}
	log.Warn().
		Err(err).
		Str("collection", item.collection).
		Str("query", item.query).
		Msg("Search item failed, skipping")
}

// ── Merge and rank ──────────────────────────────────────────

// dedupe keeps one hit per recipe_id: the highest similarity wins, then
// the highest confidence, then the earlier collection name.
func dedupe(hits []models.Hit) []models.Hit {
	best := make(map[string]models.Hit, len(hits))
	for _, h := range hits {
		cur, seen := best[h.RecipeID]
		if !seen || better(h, cur) {
			best[h.RecipeID] = h
		}
	}
	out := make([]models.Hit, 0, len(best))
	for _, h := range best {
		out = append(out, h)
	}
	return out
}

func better(a, b models.Hit) bool {
	if a.SimilarityScore != b.SimilarityScore {
		return a.SimilarityScore > b.SimilarityScore
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.Collection < b.Collection
}

// sortHits orders by similarity descending, recipe_id ascending on ties.
func sortHits(hits []models.Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].SimilarityScore != hits[j].SimilarityScore {
			return hits[i].SimilarityScore > hits[j].SimilarityScore
		}
		return hits[i].RecipeID < hits[j].RecipeID
	})
}

// toRecommendations enriches hits from the classified-recipes table.
// Recipes absent from the table still ship, just with empty metadata.
func (e *Executor) toRecommendations(hits []models.Hit) []models.Recommendation {
	recs := make([]models.Recommendation, 0, len(hits))
	for _, h := range hits {
		rec := models.Recommendation{Hit: h, Metadata: map[string]any{}}
		if e.library != nil {
			if meta, ok := e.library.Lookup(h.RecipeID); ok {
				rec.Metadata["original_data"] = meta
				if rec.Title == "" {
					rec.Title = meta.Title
				}
				if rec.Confidence == 0 {
					rec.Confidence = meta.Confidence
				}
				if len(rec.IngredientsPreview) == 0 {
					rec.IngredientsPreview = previewIngredients(meta.Ingredients)
				}
			}
		}
		recs = append(recs, rec)
	}
	return recs
}

func previewIngredients(ingredients []string) []string {
	if len(ingredients) <= ingredientsPreviewLen {
		return ingredients
	}
	return ingredients[:ingredientsPreviewLen]
}
