package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/forkcast/forkcast/pkg/models"
)

// DefaultMaxVectors is the capacity cap for the embedded store (50K).
const DefaultMaxVectors = 50_000

// EmbeddedStore is a lightweight in-memory store using brute-force cosine
// search. Suitable for development and tests; production deployments use
// Qdrant or pgvector.
type EmbeddedStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*embeddedPoint // collection → recipe_id
	maxVectors  int
	count       int
}

type embeddedPoint struct {
	vector []float32
	hit    models.Hit
}

// EmbeddedOption configures the embedded store.
type EmbeddedOption func(*EmbeddedStore)

// WithMaxVectors sets the capacity cap (default 50K).
func WithMaxVectors(max int) EmbeddedOption {
	return func(s *EmbeddedStore) { s.maxVectors = max }
}

// NewEmbeddedStore creates an empty in-memory store.
func NewEmbeddedStore(opts ...EmbeddedOption) *EmbeddedStore {
	s := &EmbeddedStore{
		collections: make(map[string]map[string]*embeddedPoint),
		maxVectors:  DefaultMaxVectors,
	}
	for _, opt := range opts {
		opt(s)
	}
	log.Info().Int("max_vectors", s.maxVectors).Msg("Embedded vector store initialized")
	return s
}

func (s *EmbeddedStore) Kind() string { return "embedded" }

// Add seeds one point. The hit's collection field is overwritten with the
// target collection; an empty recipe ID gets a generated one.
func (s *EmbeddedStore) Add(collection string, hit models.Hit, vector []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if hit.RecipeID == "" {
		hit.RecipeID = uuid.NewString()
	}
	hit.Collection = collection

	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[string]*embeddedPoint)
		s.collections[collection] = coll
	}
	if _, exists := coll[hit.RecipeID]; !exists {
		if s.count+1 > s.maxVectors {
			return fmt.Errorf("embedded store capacity exceeded: %d (use qdrant or pgvector for real corpora)", s.maxVectors)
		}
		s.count++
		if s.count > int(float64(s.maxVectors)*0.9) {
			log.Warn().Int("count", s.count).Int("max", s.maxVectors).
				Msg("Embedded store nearing capacity")
		}
	}
	coll[hit.RecipeID] = &embeddedPoint{vector: vector, hit: hit}
	return nil
}

// Search brute-forces cosine similarity over one collection. Negative
// similarities clamp to zero so scores stay on [0,1].
func (s *EmbeddedStore) Search(_ context.Context, collection string, vector []float32, k int) ([]models.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionMissing, collection)
	}

	type scored struct {
		point *embeddedPoint
		score float64
	}
	candidates := make([]scored, 0, len(coll))
	for _, p := range coll {
		if len(p.vector) != len(vector) {
			continue
		}
		score := clampScore(cosineSimilarity(vector, p.vector))
		candidates = append(candidates, scored{point: p, score: score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].point.hit.RecipeID < candidates[j].point.hit.RecipeID
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	hits := make([]models.Hit, k)
	for i := 0; i < k; i++ {
		hit := candidates[i].point.hit
		hit.SimilarityScore = candidates[i].score
		hits[i] = hit
	}
	return hits, nil
}

// CollectionExists reports whether the collection has been seeded.
func (s *EmbeddedStore) CollectionExists(_ context.Context, collection string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[collection]
	return ok, nil
}

// CollectionSize returns the seeded point count.
func (s *EmbeddedStore) CollectionSize(_ context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection]), nil
}

func (s *EmbeddedStore) HealthCheck(_ context.Context) error {
	return nil // always healthy — it's in-memory
}

// ── Helpers ─────────────────────────────────────────────────

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
