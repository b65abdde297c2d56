package models

import (
	"fmt"
	"sort"
	"time"
)

// ── Dialogue ─────────────────────────────────────────────────

// Role identifies the author of a dialogue turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether the role is one of the recognized dialogue roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message is one immutable dialogue turn.
type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Dialogue is an ordered sequence of messages, oldest first.
type Dialogue []Message

// Tail returns the last n messages (all of them if the dialogue is shorter).
func (d Dialogue) Tail(n int) Dialogue {
	if len(d) <= n {
		return d
	}
	return d[len(d)-n:]
}

// LatestUserContent returns the content of the most recent user turn.
// If the dialogue has no user turns it falls back to the last message,
// since an assistant turn may still echo the user's constraints.
func (d Dialogue) LatestUserContent() string {
	for i := len(d) - 1; i >= 0; i-- {
		if d[i].Role == RoleUser {
			return d[i].Content
		}
	}
	if len(d) > 0 {
		return d[len(d)-1].Content
	}
	return ""
}

// Validate checks that every turn carries a recognized role.
func (d Dialogue) Validate() error {
	for i, m := range d {
		if !m.Role.Valid() {
			return fmt.Errorf("message %d: unknown role %q", i, m.Role)
		}
	}
	return nil
}

// ── Intent ───────────────────────────────────────────────────

// MealContextNone marks a dialogue with no detectable meal context.
const MealContextNone = "none"

// Intent is the structured summary of what the user wants, extracted
// from free-form dialogue by the conversation analyzer.
type Intent struct {
	Preferences          []string `json:"preferences"`
	Restrictions         []string `json:"restrictions"`
	MealContext          string   `json:"meal_context"`
	CookingPreferences   []string `json:"cooking_preferences,omitempty"`
	IngredientsMentioned []string `json:"ingredients_mentioned,omitempty"`
	CuisinePreferences   []string `json:"cuisine_preferences,omitempty"`
}

// EmptyIntent returns an intent with all sets empty and no meal context.
func EmptyIntent() Intent {
	return Intent{
		Preferences:  []string{},
		Restrictions: []string{},
		MealContext:  MealContextNone,
	}
}

// HasPreference reports whether the given keyword appears among the
// detected preferences (exact, case-sensitive — the analyzer lowercases).
func (i Intent) HasPreference(keyword string) bool {
	for _, p := range i.Preferences {
		if p == keyword {
			return true
		}
	}
	return false
}

// HasRestriction reports whether the given dietary restriction was detected.
func (i Intent) HasRestriction(keyword string) bool {
	for _, r := range i.Restrictions {
		if r == keyword {
			return true
		}
	}
	return false
}

// ── Query Plan ───────────────────────────────────────────────

// QueryPlan maps a collection name to the 1–2 search queries that will be
// issued against it. The planner guarantees keys cover the full collection
// set (or the caller-requested subset) and each value has length 1 or 2.
type QueryPlan map[string][]string

// Collections returns the plan's collection names in ascending order.
func (p QueryPlan) Collections() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// QueryCount returns the total number of queries across all collections.
func (p QueryPlan) QueryCount() int {
	n := 0
	for _, qs := range p {
		n += len(qs)
	}
	return n
}

// Clone returns a deep copy. Plans are mutated during whitelist
// restriction and fallback customization; the original stays intact.
func (p QueryPlan) Clone() QueryPlan {
	out := make(QueryPlan, len(p))
	for name, qs := range p {
		cp := make([]string, len(qs))
		copy(cp, qs)
		out[name] = cp
	}
	return out
}

// ── Recipes & Search Results ─────────────────────────────────

// RecipeMeta is one entry of the classified-recipes file: the full
// ingestion-time metadata for a recipe, keyed by recipe ID.
type RecipeMeta struct {
	Title        string   `json:"title"`
	Collection   string   `json:"collection"`
	Confidence   float64  `json:"confidence"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`
}

// Hit is one raw vector-search result from one collection for one query.
// The payload copies (title, summary, ingredients preview, confidence)
// spare the caller a second lookup.
type Hit struct {
	RecipeID           string   `json:"recipe_id"`
	Collection         string   `json:"collection"`
	SimilarityScore    float64  `json:"similarity_score"`
	Title              string   `json:"title"`
	Summary            string   `json:"summary"`
	IngredientsPreview []string `json:"ingredients_preview"`
	Confidence         float64  `json:"confidence"`
}

// Recommendation is a deduplicated hit surfaced to the caller, enriched
// with whatever the classified-recipes table knows about the recipe.
// Metadata is empty (never nil) when the recipe is missing from the table.
type Recommendation struct {
	Hit
	Metadata map[string]any `json:"metadata"`
}

// ── Completion Options ───────────────────────────────────────

// ResponseFormat hints how the LLM should shape its completion.
type ResponseFormat string

const (
	FormatFree ResponseFormat = "free"
	FormatJSON ResponseFormat = "json"
)

// CompletionOptions tune one LLM completion call.
type CompletionOptions struct {
	Temperature     float32        `json:"temperature"`
	MaxOutputTokens int            `json:"max_output_tokens,omitempty"`
	ResponseFormat  ResponseFormat `json:"response_format"`
	Timeout         time.Duration  `json:"timeout"`
}

// DefaultCompletionOptions returns the defaults: temperature 0.7,
// free-form output, 30 s cap.
func DefaultCompletionOptions() CompletionOptions {
	return CompletionOptions{
		Temperature:    0.7,
		ResponseFormat: FormatFree,
		Timeout:        30 * time.Second,
	}
}

// ── Recommendation API ───────────────────────────────────────

// Preferences are the caller-supplied hard constraints and (reserved)
// soft preferences applied after ranking.
type Preferences struct {
	// DietaryRestrictions recognized values: vegan, vegetarian,
	// gluten-free, dairy-free, nut-free. Unrecognized values are ignored.
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty"`
	// PreferredCuisines is reserved; it neither drops nor reorders results.
	PreferredCuisines []string `json:"preferred_cuisines,omitempty"`
	// MaxCookingTime is reserved pending structured time metadata.
	MaxCookingTime int `json:"max_cooking_time,omitempty"`
}

// RecommendationRequest is the body of POST /recommendations.
type RecommendationRequest struct {
	ConversationHistory Dialogue     `json:"conversation_history"`
	MaxResults          int          `json:"max_results,omitempty"` // 1–50, default 10
	Collections         []string     `json:"collections,omitempty"` // optional whitelist
	UserPreferences     *Preferences `json:"user_preferences,omitempty"`
}

// DefaultMaxResults applies when the request leaves max_results unset.
const DefaultMaxResults = 10

// MaxResultsCeiling is the largest permitted max_results value.
const MaxResultsCeiling = 50

// QueryAnalysis is response-level provenance: what the analyzer detected
// and what the planner actually searched.
type QueryAnalysis struct {
	DetectedPreferences  []string  `json:"detected_preferences"`
	DetectedRestrictions []string  `json:"detected_restrictions"`
	MealContext          string    `json:"meal_context"`
	GeneratedQueries     QueryPlan `json:"generated_queries"`
	CollectionsSearched  []string  `json:"collections_searched"`
	ProcessingTimeMs     int64     `json:"processing_time_ms"`
}

// Response status values. Error statuses carry the message inline,
// built with ErrorStatus.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
)

// ErrorStatus formats the error-shaped response status.
func ErrorStatus(msg string) string {
	return "error: " + msg
}

// RecommendationResponse is the body returned by POST /recommendations.
// TotalResults counts matches after deduplication and dietary filtering
// but before max_results truncation.
type RecommendationResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
	QueryAnalysis   QueryAnalysis    `json:"query_analysis"`
	TotalResults    int              `json:"total_results"`
	Status          string           `json:"status"`
}

// ── Collections API ──────────────────────────────────────────

// CollectionInfo describes one corpus partition for GET /collections.
// PointCount is live and best-effort; -1 means the store could not say.
type CollectionInfo struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	ExpectedCount int    `json:"expected_count"`
	PointCount    int    `json:"point_count"`
}
