// Package server provides the public entry point for initializing the
// Forkcast recommendation server.
//
// The wiring rules live here: the embedding provider and the vector
// store are hard dependencies and fail startup when unreachable; the
// LLM is optional and its absence switches the whole pipeline into
// heuristic mode.
//
// Usage:
//
//	srv, err := server.New(ctx)
//	http.ListenAndServe(":8080", srv.Handler)
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/forkcast/forkcast/internal/analyzer"
	"github.com/forkcast/forkcast/internal/api"
	"github.com/forkcast/forkcast/internal/api/handlers"
	"github.com/forkcast/forkcast/internal/catalog"
	"github.com/forkcast/forkcast/internal/config"
	"github.com/forkcast/forkcast/internal/embeddings"
	"github.com/forkcast/forkcast/internal/llm"
	"github.com/forkcast/forkcast/internal/planner"
	"github.com/forkcast/forkcast/internal/recommend"
	"github.com/forkcast/forkcast/internal/search"
	"github.com/forkcast/forkcast/internal/telemetry"
	"github.com/forkcast/forkcast/internal/vectorstore"
	"github.com/forkcast/forkcast/pkg/contracts"
)

// startupProbeTimeout caps each collaborator check during bootstrap.
const startupProbeTimeout = 10 * time.Second

// Server holds the initialized Forkcast recommendation service.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Config is the loaded service configuration.
	Config *config.Config

	// Port is the port the server should listen on.
	Port int

	// HeuristicOnly reports whether the service started without an LLM.
	HeuristicOnly bool

	// ShutdownFunc should be called on graceful shutdown to flush telemetry.
	ShutdownFunc func(context.Context) error
}

// New initializes all components from the environment and returns a
// ready Server.
func New(ctx context.Context) (*Server, error) {
	return NewWithConfig(ctx, config.Load())
}

// NewWithConfig initializes the service with an explicit configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	shutdown, err := telemetry.Init(cfg.Telemetry, cfg.Version)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	// Classified recipes: required, fatal when unreadable.
	library, err := catalog.Load(cfg.Catalog.ClassifiedRecipesPath)
	if err != nil {
		return nil, fmt.Errorf("load classified recipes: %w", err)
	}

	// Embeddings: hard dependency, fail fast when unreachable.
	embedder, err := embeddings.New(cfg.Embeddings)
	if err != nil {
		return nil, fmt.Errorf("init embeddings: %w", err)
	}
	if err := probeStartup(ctx, embedder.HealthCheck); err != nil {
		return nil, fmt.Errorf("embedding provider unreachable: %w", err)
	}
	log.Info().
		Str("provider", embedder.Kind()).
		Str("model", embedder.ModelName()).
		Int("dimensions", embedder.Dimensions()).
		Msg("✅ Embedding provider ready")

	// Vector store: hard dependency, fail fast when unreachable.
	store, err := vectorstore.Open(ctx, cfg.Store.URL, embedder.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	if err := probeStartup(ctx, store.HealthCheck); err != nil {
		return nil, fmt.Errorf("vector store unreachable: %w", err)
	}
	auditCollections(ctx, store)
	log.Info().Str("driver", store.Kind()).Msg("✅ Vector store ready")

	// LLM: optional. No key means heuristic-only mode, never a crash.
	var completion contracts.CompletionClient
	if cfg.HeuristicOnly() {
		log.Warn().Msg("⚠️  LLM_API_KEY not set — running in HEURISTIC-ONLY mode: keyword intent analysis and static query plans")
	} else {
		completion, err = llm.New(ctx, cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("init llm client: %w", err)
		}
		log.Info().
			Str("provider", completion.Kind()).
			Str("model", completion.ModelName()).
			Msg("✅ LLM client ready")
	}

	// Pipeline wiring.
	executor := search.NewExecutor(embedder, store, library, cfg.Limits.MaxParallelSearches)
	svc := recommend.New(
		analyzer.New(completion),
		planner.New(completion),
		executor,
		time.Duration(cfg.Limits.RequestTimeoutMs)*time.Millisecond,
	)

	h := handlers.New(svc, embedder, store, completion, library, cfg.Version)
	router := api.NewRouter(cfg, h)

	return &Server{
		Handler:       router,
		Config:        cfg,
		Port:          cfg.Port,
		HeuristicOnly: cfg.HeuristicOnly(),
		ShutdownFunc:  shutdown,
	}, nil
}

func probeStartup(ctx context.Context, check func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, startupProbeTimeout)
	defer cancel()
	return check(ctx)
}

// auditCollections warns about corpus partitions the store does not
// know. Searches against a missing collection return empty, so this is
// an operator hint, not a startup failure.
func auditCollections(ctx context.Context, store contracts.VectorSearcher) {
	for _, name := range catalog.Names() {
		exists, err := store.CollectionExists(ctx, name)
		if err != nil {
			log.Warn().Err(err).Str("collection", name).Msg("Collection audit failed")
			continue
		}
		if !exists {
			log.Warn().Str("collection", name).Msg("Collection missing from vector store, its searches will return empty")
		}
	}
}
