// Package recommend is the public entry point of the recommendation
// pipeline. The service sequences analysis, query planning, the search
// fan-out, and dietary filtering, and shapes the response with full
// provenance. Everything past input validation degrades instead of
// failing: LLM trouble falls back to heuristics, search trouble shrinks
// the result set, a blown request budget ships whatever completed.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/forkcast/forkcast/internal/analyzer"
	"github.com/forkcast/forkcast/internal/catalog"
	"github.com/forkcast/forkcast/internal/planner"
	"github.com/forkcast/forkcast/internal/search"
	"github.com/forkcast/forkcast/pkg/models"
)

// ErrInvalidInput marks a malformed request: empty dialogue, unknown
// message roles, or an out-of-range max_results. The HTTP layer maps it
// to 400; nothing else in this package surfaces as an error.
var ErrInvalidInput = errors.New("recommend: invalid input")

var tracer = otel.Tracer("forkcast-recommend")

// DefaultRequestTimeout caps one request's wall clock when the config
// does not say otherwise.
const DefaultRequestTimeout = 30 * time.Second

// Service orchestrates one recommendation request end to end.
type Service struct {
	analyzer *analyzer.Analyzer
	planner  *planner.Planner
	executor *search.Executor
	timeout  time.Duration
}

// New wires the pipeline. timeout <= 0 selects the 30 s default.
func New(a *analyzer.Analyzer, p *planner.Planner, e *search.Executor, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Service{analyzer: a, planner: p, executor: e, timeout: timeout}
}

// Recommend runs the full pipeline for one request. The returned error
// is non-nil only for invalid input; pipeline trouble is folded into the
// response status per the degradation policy.
func (s *Service) Recommend(ctx context.Context, req models.RecommendationRequest) (resp *models.RecommendationResponse, err error) {
	start := time.Now()

	if verr := validate(req); verr != nil {
		return nil, verr
	}
	maxResults := req.MaxResults
	if maxResults == 0 {
		maxResults = models.DefaultMaxResults
	}

	// The orchestrator promises an error-shaped response for anything
	// unhandled below; a panic in a collaborator must not escape the
	// request.
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recommendation pipeline panicked")
			resp = errorResponse(fmt.Sprintf("%v", r), start)
			err = nil
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "recommend")
	defer span.End()

	// Stage 1: intent. Never fails for LLM reasons.
	actx, aspan := tracer.Start(ctx, "recommend.analyze")
	intent, err := s.analyzer.Analyze(actx, req.ConversationHistory)
	aspan.End()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// Stage 2: query plan, always covering every collection.
	pctx, pspan := tracer.Start(ctx, "recommend.plan")
	plan := s.planner.Plan(pctx, req.ConversationHistory, intent)
	pspan.End()

	// Optional whitelist: keep only the requested collections.
	if req.Collections != nil {
		plan = restrict(plan, req.Collections)
	}
	analysis := models.QueryAnalysis{
		DetectedPreferences:  intent.Preferences,
		DetectedRestrictions: intent.Restrictions,
		MealContext:          intent.MealContext,
		GeneratedQueries:     plan,
		CollectionsSearched:  plan.Collections(),
	}
	if len(plan) == 0 {
		analysis.ProcessingTimeMs = time.Since(start).Milliseconds()
		return &models.RecommendationResponse{
			Recommendations: []models.Recommendation{},
			QueryAnalysis:   analysis,
			TotalResults:    0,
			Status:          models.StatusSuccess,
		}, nil
	}

	// Stage 3: fan-out. A non-nil error here means the budget expired
	// mid-flight; recs still holds whatever completed.
	sctx, sspan := tracer.Start(ctx, "recommend.search")
	recs, searchErr := s.executor.Execute(sctx, plan)
	sspan.SetAttributes(attribute.Int("hits", len(recs)))
	sspan.End()

	// Stage 4: hard dietary constraints.
	if req.UserPreferences != nil {
		recs = Filter(recs, *req.UserPreferences)
	}

	total := len(recs)
	if len(recs) > maxResults {
		recs = recs[:maxResults]
	}

	status := models.StatusSuccess
	if searchErr != nil {
		status = models.StatusPartial
		log.Warn().Err(searchErr).Int("results", len(recs)).Msg("Request budget expired, returning partial results")
	}

	analysis.ProcessingTimeMs = time.Since(start).Milliseconds()
	log.Info().
		Int("results", len(recs)).
		Int("total", total).
		Str("status", status).
		Str("meal_context", intent.MealContext).
		Dur("elapsed", time.Since(start)).
		Msg("Recommendation request complete")

	return &models.RecommendationResponse{
		Recommendations: recs,
		QueryAnalysis:   analysis,
		TotalResults:    total,
		Status:          status,
	}, nil
}

func validate(req models.RecommendationRequest) error {
	if len(req.ConversationHistory) == 0 {
		return fmt.Errorf("%w: conversation_history is empty", ErrInvalidInput)
	}
	if err := req.ConversationHistory.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if req.MaxResults < 0 || req.MaxResults > models.MaxResultsCeiling {
		return fmt.Errorf("%w: max_results %d outside [1, %d]", ErrInvalidInput, req.MaxResults, models.MaxResultsCeiling)
	}
	return nil
}

// restrict drops every plan key outside the whitelist. Unknown names in
// the whitelist are ignored, so an all-unknown list empties the plan.
func restrict(plan models.QueryPlan, whitelist []string) models.QueryPlan {
	keep := make(map[string]bool, len(whitelist))
	for _, name := range whitelist {
		if catalog.IsCollection(name) {
			keep[name] = true
		}
	}
	out := plan.Clone()
	for name := range out {
		if !keep[name] {
			delete(out, name)
		}
	}
	return out
}

// errorResponse is the error shape: empty results, the message carried
// in the status, best-effort provenance.
func errorResponse(msg string, start time.Time) *models.RecommendationResponse {
	return &models.RecommendationResponse{
		Recommendations: []models.Recommendation{},
		QueryAnalysis: models.QueryAnalysis{
			DetectedPreferences:  []string{},
			DetectedRestrictions: []string{},
			MealContext:          models.MealContextNone,
			GeneratedQueries:     models.QueryPlan{},
			CollectionsSearched:  []string{},
			ProcessingTimeMs:     time.Since(start).Milliseconds(),
		},
		TotalResults: 0,
		Status:       models.ErrorStatus(msg),
	}
}
