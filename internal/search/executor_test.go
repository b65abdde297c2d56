package search_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/forkcast/forkcast/internal/catalog"
	"github.com/forkcast/forkcast/internal/search"
	"github.com/forkcast/forkcast/pkg/models"
)

type stubEmbedder struct {
	err   error
	calls atomic.Int64
}

func (s *stubEmbedder) Kind() string      { return "stub" }
func (s *stubEmbedder) ModelName() string { return "stub-embed" }
func (s *stubEmbedder) Dimensions() int   { return 3 }
func (s *stubEmbedder) MaxBatchSize() int { return 64 }
func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}
func (s *stubEmbedder) HealthCheck(ctx context.Context) error { return s.err }

type stubStore struct {
	mu       sync.Mutex
	inflight int
	peak     int
	searchFn func(collection string, k int) ([]models.Hit, error)
}

func (s *stubStore) Kind() string { return "stub" }
func (s *stubStore) Search(ctx context.Context, collection string, vector []float32, k int) ([]models.Hit, error) {
	s.mu.Lock()
	s.inflight++
	if s.inflight > s.peak {
		s.peak = s.inflight
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
	}()
	return s.searchFn(collection, k)
}
func (s *stubStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	return true, nil
}
func (s *stubStore) CollectionSize(ctx context.Context, collection string) (int, error) {
	return 0, nil
}
func (s *stubStore) HealthCheck(ctx context.Context) error { return nil }

func fullPlan() models.QueryPlan {
	plan := make(models.QueryPlan)
	for _, name := range catalog.Names() {
		plan[name] = []string{name + " one", name + " two"}
	}
	return plan
}

func TestExecuteMergesAndRanks(t *testing.T) {
	store := &stubStore{searchFn: func(collection string, k int) ([]models.Hit, error) {
		base := 0.5
		if collection == catalog.DessertsSweets {
			base = 0.9
		}
		var hits []models.Hit
		for i := 0; i < k; i++ {
			hits = append(hits, models.Hit{
				RecipeID:        fmt.Sprintf("%s-%d", collection, i),
				Collection:      collection,
				SimilarityScore: base - 0.01*float64(i),
			})
		}
		return hits, nil
	}}
	e := search.NewExecutor(&stubEmbedder{}, store, nil, 4)

	recs, err := e.Execute(context.Background(), fullPlan())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	// 8 collections × 2 hits, duplicates across the two queries collapse.
	if len(recs) != 16 {
		t.Fatalf("len(recs) = %d, want 16", len(recs))
	}
	if recs[0].Collection != catalog.DessertsSweets {
		t.Errorf("top collection = %q, want %q", recs[0].Collection, catalog.DessertsSweets)
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].SimilarityScore > recs[i-1].SimilarityScore {
			t.Fatalf("ranking broken at %d", i)
		}
		if recs[i].SimilarityScore == recs[i-1].SimilarityScore && recs[i].RecipeID < recs[i-1].RecipeID {
			t.Fatalf("tie-break broken at %d: %q after %q", i, recs[i].RecipeID, recs[i-1].RecipeID)
		}
	}
	if store.peak > 4 {
		t.Errorf("peak parallel searches = %d, want <= 4", store.peak)
	}
}

func TestExecuteDedupeKeepsBestScore(t *testing.T) {
	store := &stubStore{searchFn: func(collection string, k int) ([]models.Hit, error) {
		score := 0.80
		if collection == catalog.ComfortCooked {
			score = 0.85
		}
		return []models.Hit{{RecipeID: "same", Collection: collection, SimilarityScore: score}}, nil
	}}
	e := search.NewExecutor(&stubEmbedder{}, store, nil, 0)

	plan := models.QueryPlan{
		catalog.ProteinMains:  {"hearty mains"},
		catalog.ComfortCooked: {"comfort classics"},
	}
	recs, err := e.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}
	if recs[0].Collection != catalog.ComfortCooked || recs[0].SimilarityScore != 0.85 {
		t.Errorf("kept hit = %+v, want comfort-cooked at 0.85", recs[0].Hit)
	}
}

func TestExecutePartialFailuresAreSkipped(t *testing.T) {
	store := &stubStore{searchFn: func(collection string, k int) ([]models.Hit, error) {
		if collection == catalog.BakedBreads {
			return nil, errors.New("shard down")
		}
		return []models.Hit{{RecipeID: collection, Collection: collection, SimilarityScore: 0.7}}, nil
	}}
	e := search.NewExecutor(&stubEmbedder{}, store, nil, 0)

	plan := models.QueryPlan{
		catalog.BakedBreads: {"bread"},
		catalog.QuickLight:  {"light"},
	}
	recs, err := e.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(recs) != 1 || recs[0].Collection != catalog.QuickLight {
		t.Errorf("recs = %v, want only the healthy shard's hit", recs)
	}
}

func TestExecuteAllFailuresReturnEmptyNotError(t *testing.T) {
	e := search.NewExecutor(&stubEmbedder{err: errors.New("encoder down")}, &stubStore{
		searchFn: func(string, int) ([]models.Hit, error) { return nil, errors.New("unreachable") },
	}, nil, 0)

	recs, err := e.Execute(context.Background(), fullPlan())
	if err != nil {
		t.Fatalf("Execute() error = %v, want graceful empty set", err)
	}
	if len(recs) != 0 {
		t.Errorf("len(recs) = %d, want 0", len(recs))
	}
}

func TestExecuteEmptyPlan(t *testing.T) {
	e := search.NewExecutor(&stubEmbedder{}, &stubStore{
		searchFn: func(string, int) ([]models.Hit, error) { return nil, nil },
	}, nil, 0)

	recs, err := e.Execute(context.Background(), models.QueryPlan{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("len(recs) = %d, want 0", len(recs))
	}
}

func TestExecuteCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := search.NewExecutor(&stubEmbedder{err: context.Canceled}, &stubStore{
		searchFn: func(string, int) ([]models.Hit, error) { return nil, context.Canceled },
	}, nil, 0)

	recs, err := e.Execute(ctx, fullPlan())
	if err == nil {
		t.Fatal("Execute() error = nil, want context error")
	}
	if len(recs) != 0 {
		t.Errorf("len(recs) = %d, want 0", len(recs))
	}
}
