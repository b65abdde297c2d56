// Package planner synthesizes the per-collection search queries for one
// request. The LLM writes 1–2 queries per collection; a validation pass
// guarantees the plan always covers every collection, patching gaps from
// static fallbacks. With no LLM at all the static plan ships as-is, so
// planning never fails.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/forkcast/forkcast/internal/catalog"
	"github.com/forkcast/forkcast/internal/llm"
	"github.com/forkcast/forkcast/pkg/contracts"
	"github.com/forkcast/forkcast/pkg/models"
)

// maxQueriesPerCollection caps each collection's query list.
const maxQueriesPerCollection = 2

// fallbackQueries are the generic per-collection pairs used when the LLM
// is unavailable or leaves a collection out of its plan.
var fallbackQueries = map[string][]string{
	catalog.BakedBreads:      {"fresh baked bread", "homemade baking"},
	catalog.QuickLight:       {"quick easy meals", "light dishes"},
	catalog.ProteinMains:     {"hearty main course", "protein rich dinner"},
	catalog.ComfortCooked:    {"comfort food classics", "slow cooked meals"},
	catalog.DessertsSweets:   {"sweet treats", "dessert recipes"},
	catalog.BreakfastMorning: {"breakfast favorites", "morning meal ideas"},
	catalog.PlantBased:       {"vegetarian dishes", "plant based meals"},
	catalog.FreshCold:        {"fresh salads", "cold dishes"},
}

// customizations sharpen a collection's queries when the intent names a
// matching keyword and the plan still carries that collection's generic
// pair. A last-mile safety net: LLM-written queries are never overridden.
var customizations = []struct {
	collection string
	queries    []string
	applies    func(models.Intent) bool
}{
	{
		collection: catalog.QuickLight,
		queries:    []string{"healthy quick meals", "nutritious light dishes"},
		applies:    func(i models.Intent) bool { return i.HasPreference("healthy") },
	},
	{
		collection: catalog.DessertsSweets,
		queries:    []string{"indulgent sweet desserts", "sweet baked treats"},
		applies: func(i models.Intent) bool {
			return i.HasPreference("sweet") || strings.Contains(i.MealContext, "dessert")
		},
	},
	{
		collection: catalog.ComfortCooked,
		queries:    []string{"hearty comfort food", "cozy homestyle cooking"},
		applies:    func(i models.Intent) bool { return i.HasPreference("comfort") },
	},
	{
		collection: catalog.PlantBased,
		queries:    []string{"vegan friendly dishes", "hearty plant based meals"},
		applies: func(i models.Intent) bool {
			return i.HasRestriction("vegan") || i.HasRestriction("vegetarian")
		},
	},
	{
		collection: catalog.BreakfastMorning,
		queries:    []string{"hearty breakfast plates", "quick morning meals"},
		applies:    func(i models.Intent) bool { return strings.Contains(i.MealContext, "breakfast") },
	},
}

const planPrompt = `You are planning vector searches over a recipe corpus partitioned into these collections:

%s
The user's latest message:
%q

Detected intent: %s

For EVERY collection above, write 1-2 short search queries tuned to this user.
Queries are embedded and matched against recipe summaries, so use concrete
culinary phrases, not questions. If the user's message explicitly rules out a
category ("no salads"), you may omit that collection.

Respond with only a JSON object mapping collection names to query lists, e.g.
{"quick-light": ["healthy quick meals", "light lunch"]}`

// Planner writes the query plan for one request.
type Planner struct {
	llm contracts.CompletionClient // nil in heuristic-only mode
}

// New creates a planner. A nil client selects heuristic-only mode.
func New(client contracts.CompletionClient) *Planner {
	return &Planner{llm: client}
}

// Plan produces a query plan covering every collection. It cannot fail:
// LLM trouble degrades to the static fallback plan.
func (p *Planner) Plan(ctx context.Context, dialogue models.Dialogue, intent models.Intent) models.QueryPlan {
	if p.llm == nil {
		return p.staticPlan(intent)
	}

	plan, err := p.planLLM(ctx, dialogue, intent)
	if err != nil {
		log.Warn().Err(err).Msg("Query planning failed, falling back to static plan")
		return p.staticPlan(intent)
	}
	return plan
}

// ── LLM path ────────────────────────────────────────────────

func (p *Planner) planLLM(ctx context.Context, dialogue models.Dialogue, intent models.Intent) (models.QueryPlan, error) {
	prompt := fmt.Sprintf(planPrompt, collectionLines(), dialogue.LatestUserContent(), intentSummary(intent))

	raw, err := p.llm.Complete(ctx, prompt, models.CompletionOptions{
		Temperature:     0.3,
		MaxOutputTokens: 1024,
		ResponseFormat:  models.FormatJSON,
	})
	if err != nil {
		return nil, err
	}

	cleaned, err := llm.ExtractJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("plan response: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, fmt.Errorf("parse plan JSON: %w", err)
	}

	plan := make(models.QueryPlan, len(fallbackQueries))
	for name, rawQueries := range doc {
		if !catalog.IsCollection(name) {
			log.Debug().Str("collection", name).Msg("Planner ignored unknown collection key")
			continue
		}
		plan[name] = coerceQueries(rawQueries)
	}

	p.validate(plan)
	p.customize(plan, intent)
	return plan, nil
}

// coerceQueries accepts a list of strings or a single bare string.
func coerceQueries(raw json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return cleanQueries(list)
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return cleanQueries([]string{single})
	}
	return nil
}

func cleanQueries(queries []string) []string {
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q != "" {
			out = append(out, q)
		}
	}
	return out
}

// validate patches the plan in place so it covers every collection with
// 1–2 queries: missing keys take the full fallback pair, overlong lists
// are trimmed, empty lists are padded from the fallback.
func (p *Planner) validate(plan models.QueryPlan) {
	for _, name := range catalog.Names() {
		queries, ok := plan[name]
		if !ok {
			fb := fallbackQueries[name]
			cp := make([]string, len(fb))
			copy(cp, fb)
			plan[name] = cp
			continue
		}
		if len(queries) > maxQueriesPerCollection {
			queries = queries[:maxQueriesPerCollection]
		}
		for _, fb := range fallbackQueries[name] {
			if len(queries) >= 1 {
				break
			}
			queries = append(queries, fb)
		}
		plan[name] = queries
	}
}

// ── Static path ─────────────────────────────────────────────

func (p *Planner) staticPlan(intent models.Intent) models.QueryPlan {
	plan := make(models.QueryPlan, len(fallbackQueries))
	for name, queries := range fallbackQueries {
		cp := make([]string, len(queries))
		copy(cp, queries)
		plan[name] = cp
	}
	p.customize(plan, intent)
	return plan
}

// customize applies the intent-driven replacements wherever the plan
// still carries a collection's generic pair.
func (p *Planner) customize(plan models.QueryPlan, intent models.Intent) {
	for _, c := range customizations {
		if !c.applies(intent) {
			continue
		}
		if !equalQueries(plan[c.collection], fallbackQueries[c.collection]) {
			continue
		}
		cp := make([]string, len(c.queries))
		copy(cp, c.queries)
		plan[c.collection] = cp
	}
}

// ── Helpers ─────────────────────────────────────────────────

func collectionLines() string {
	var sb strings.Builder
	for _, c := range catalog.Collections() {
		fmt.Fprintf(&sb, "- %s: %s\n", c.Name, c.Description)
	}
	return sb.String()
}

func intentSummary(intent models.Intent) string {
	parts := []string{
		"preferences: " + joinOrNone(intent.Preferences),
		"restrictions: " + joinOrNone(intent.Restrictions),
		"meal context: " + intent.MealContext,
	}
	if len(intent.CuisinePreferences) > 0 {
		parts = append(parts, "cuisines: "+strings.Join(intent.CuisinePreferences, ", "))
	}
	if len(intent.IngredientsMentioned) > 0 {
		parts = append(parts, "ingredients mentioned: "+strings.Join(intent.IngredientsMentioned, ", "))
	}
	return strings.Join(parts, "; ")
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}

func equalQueries(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
