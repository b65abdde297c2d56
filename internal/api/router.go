// Package api assembles the HTTP surface of the recommendation service.
package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/forkcast/forkcast/internal/api/handlers"
	"github.com/forkcast/forkcast/internal/api/middleware"
	"github.com/forkcast/forkcast/internal/config"
)

// NewRouter creates the HTTP router with all API routes.
func NewRouter(cfg *config.Config, h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.Logger)
	r.Use(middleware.InflightLimiter(cfg.Limits.MaxInflightRequests))
	r.Use(middleware.Telemetry)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health & info
	r.Get("/health", h.GetHealth)
	r.Get("/version", h.GetVersion)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/recommendations", h.PostRecommendations)
		r.Get("/collections", h.ListCollections)
	})

	// Bare-path alias for clients speaking the minimal surface.
	r.Post("/recommendations", h.PostRecommendations)

	return r
}
