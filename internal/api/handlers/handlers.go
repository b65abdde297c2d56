// Package handlers implements the HTTP handlers of the Forkcast
// recommendation service: the recommendation endpoint itself plus the
// health, version, and collections surfaces around it.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/forkcast/forkcast/internal/catalog"
	"github.com/forkcast/forkcast/internal/recommend"
	"github.com/forkcast/forkcast/pkg/contracts"
	"github.com/forkcast/forkcast/pkg/models"
)

// healthProbeTimeout caps each collaborator probe during GET /health.
const healthProbeTimeout = 5 * time.Second

// Handlers holds all handler dependencies.
type Handlers struct {
	Recommender *recommend.Service
	Embedder    contracts.EmbeddingProvider
	Store       contracts.VectorSearcher
	LLM         contracts.CompletionClient // nil in heuristic-only mode
	Library     *catalog.Library
	Version     string
}

// New creates a Handlers instance. llm may be nil.
func New(svc *recommend.Service, emb contracts.EmbeddingProvider, store contracts.VectorSearcher, llm contracts.CompletionClient, lib *catalog.Library, version string) *Handlers {
	return &Handlers{
		Recommender: svc,
		Embedder:    emb,
		Store:       store,
		LLM:         llm,
		Library:     lib,
		Version:     version,
	}
}

// ── Recommendations ──────────────────────────────────────────

// PostRecommendations handles POST /api/v1/recommendations.
func (h *Handlers) PostRecommendations(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.Recommender.Recommend(r.Context(), req)
	if err != nil {
		if errors.Is(err, recommend.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		// The service folds everything else into the response shape;
		// reaching here means a wiring bug.
		log.Error().Err(err).Msg("Recommendation service returned an unexpected error")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// ── Collections ──────────────────────────────────────────────

// ListCollections handles GET /api/v1/collections. Point counts are
// live and best-effort: -1 when the store could not say.
func (h *Handlers) ListCollections(w http.ResponseWriter, r *http.Request) {
	out := make([]models.CollectionInfo, 0, 8)
	for _, c := range catalog.Collections() {
		count, err := h.Store.CollectionSize(r.Context(), c.Name)
		if err != nil {
			count = -1
		}
		out = append(out, models.CollectionInfo{
			Name:          c.Name,
			Description:   c.Description,
			ExpectedCount: c.ExpectedCount,
			PointCount:    count,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"collections": out})
}

// ── Health & Version ─────────────────────────────────────────

// GetHealth handles GET /health: per-component status, always 200 so
// callers read the body instead of the code.
func (h *Handlers) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	components := map[string]string{
		"embeddings":   probe(ctx, h.Embedder.HealthCheck),
		"vector_store": probe(ctx, h.Store.HealthCheck),
	}
	if h.LLM != nil {
		components["llm"] = probe(ctx, h.LLM.HealthCheck)
	} else {
		components["llm"] = "heuristic"
	}

	status := "healthy"
	for _, s := range components {
		if s == "error" {
			status = "degraded"
			break
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":     status,
		"service":    "forkcast",
		"components": components,
		"recipes":    h.Library.Size(),
	})
}

func probe(ctx context.Context, check func(context.Context) error) string {
	if err := check(ctx); err != nil {
		return "error"
	}
	return "ok"
}

// GetVersion handles GET /version.
func (h *Handlers) GetVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"service": "forkcast",
		"version": h.Version,
	})
}

// ── Helpers ──────────────────────────────────────────────────

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
