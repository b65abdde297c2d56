// Package analyzer extracts structured intent from free-form dialogue.
// It asks the LLM for a JSON intent document and falls back to keyword
// heuristics whenever the LLM is missing, slow, or returns junk. LLM
// failure never propagates to the caller.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/forkcast/forkcast/internal/llm"
	"github.com/forkcast/forkcast/pkg/contracts"
	"github.com/forkcast/forkcast/pkg/models"
)

const (
	// maxLLMMessages bounds the dialogue tail sent to the LLM.
	maxLLMMessages = 10
	// maxHeuristicMessages bounds the tail scanned by keyword fallback.
	maxHeuristicMessages = 5
)

// Heuristic vocabularies. Keyword scanning is deliberately narrow: it
// is the degraded mode, not the product.
var (
	heuristicPreferences  = []string{"spicy", "sweet", "healthy", "comfort"}
	heuristicRestrictions = []string{"vegan", "vegetarian", "gluten-free", "dairy-free"}
	heuristicMealContexts = []string{"breakfast", "lunch", "dinner", "snack"}
)

const intentPrompt = `Analyze this conversation between a user and a cooking assistant.
Extract the user's dining intent.

Conversation:
%s

Respond with only a JSON object in exactly this shape:
{
  "preferences": ["flavor or style words such as spicy, sweet, healthy, comfort"],
  "restrictions": ["dietary restrictions such as vegan, vegetarian, gluten-free, dairy-free"],
  "meal_context": "one of breakfast, lunch, dinner, snack, dessert, or none",
  "cooking_preferences": ["cooking methods such as baked, grilled, slow-cooked"],
  "ingredients_mentioned": ["ingredients the user named"],
  "cuisine_preferences": ["cuisines such as italian, thai, mexican"]
}

Use lowercase values, empty arrays when nothing applies, and "none" when no meal is implied.`

// Analyzer turns a dialogue into an Intent.
type Analyzer struct {
	llm contracts.CompletionClient // nil in heuristic-only mode
}

// New creates an analyzer. A nil client selects heuristic-only mode.
func New(client contracts.CompletionClient) *Analyzer {
	return &Analyzer{llm: client}
}

// Analyze extracts intent from the dialogue. The only error it returns
// is a malformed dialogue; every LLM problem degrades to heuristics.
func (a *Analyzer) Analyze(ctx context.Context, dialogue models.Dialogue) (models.Intent, error) {
	if err := dialogue.Validate(); err != nil {
		return models.Intent{}, err
	}
	if len(dialogue) == 0 {
		return models.EmptyIntent(), nil
	}
	if a.llm == nil {
		return a.heuristic(dialogue), nil
	}

	intent, err := a.analyzeLLM(ctx, dialogue)
	if err != nil {
		log.Warn().Err(err).Msg("Intent extraction failed, falling back to keyword heuristics")
		return a.heuristic(dialogue), nil
	}
	return intent, nil
}

// ── LLM path ────────────────────────────────────────────────

// intentDocument is the decode target for the LLM's JSON. Pointer slices
// distinguish "absent" from "empty": absent required fields mean the
// model ignored the schema and the whole response is discarded.
type intentDocument struct {
	Preferences          *[]string       `json:"preferences"`
	Restrictions         *[]string       `json:"restrictions"`
	MealContext          json.RawMessage `json:"meal_context"`
	CookingPreferences   []string        `json:"cooking_preferences"`
	IngredientsMentioned []string        `json:"ingredients_mentioned"`
	CuisinePreferences   []string        `json:"cuisine_preferences"`
}

func (a *Analyzer) analyzeLLM(ctx context.Context, dialogue models.Dialogue) (models.Intent, error) {
	prompt := fmt.Sprintf(intentPrompt, renderDialogue(dialogue.Tail(maxLLMMessages)))

	raw, err := a.llm.Complete(ctx, prompt, models.CompletionOptions{
		Temperature:     0.2,
		MaxOutputTokens: 512,
		ResponseFormat:  models.FormatJSON,
	})
	if err != nil {
		return models.Intent{}, err
	}

	cleaned, err := llm.ExtractJSON(raw)
	if err != nil {
		return models.Intent{}, fmt.Errorf("intent response: %w", err)
	}

	var doc intentDocument
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return models.Intent{}, fmt.Errorf("parse intent JSON: %w", err)
	}
	if doc.Preferences == nil || doc.Restrictions == nil {
		return models.Intent{}, fmt.Errorf("intent JSON missing required fields")
	}

	return models.Intent{
		Preferences:          normalizeSet(*doc.Preferences),
		Restrictions:         normalizeSet(*doc.Restrictions),
		MealContext:          coerceMealContext(doc.MealContext),
		CookingPreferences:   normalizeSet(doc.CookingPreferences),
		IngredientsMentioned: normalizeSet(doc.IngredientsMentioned),
		CuisinePreferences:   normalizeSet(doc.CuisinePreferences),
	}, nil
}

// coerceMealContext accepts both a string and a list — some models emit
// ["lunch","dinner"] despite the schema. Lists join with ", ".
func coerceMealContext(raw json.RawMessage) string {
	if len(raw) == 0 {
		return models.MealContextNone
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			return models.MealContextNone
		}
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		cleaned := normalizeSet(list)
		if len(cleaned) == 0 {
			return models.MealContextNone
		}
		return strings.Join(cleaned, ", ")
	}
	return models.MealContextNone
}

// ── Heuristic path ──────────────────────────────────────────

// heuristic scans the recent dialogue for vocabulary keywords. Assistant
// turns are scanned too since they often echo the user's constraints.
func (a *Analyzer) heuristic(dialogue models.Dialogue) models.Intent {
	var sb strings.Builder
	for _, m := range dialogue.Tail(maxHeuristicMessages) {
		sb.WriteString(strings.ToLower(m.Content))
		sb.WriteByte(' ')
	}
	text := sb.String()

	intent := models.EmptyIntent()
	for _, kw := range heuristicPreferences {
		if strings.Contains(text, kw) {
			intent.Preferences = append(intent.Preferences, kw)
		}
	}
	for _, kw := range heuristicRestrictions {
		if strings.Contains(text, kw) {
			intent.Restrictions = append(intent.Restrictions, kw)
		}
	}
	for _, kw := range heuristicMealContexts {
		if strings.Contains(text, kw) {
			intent.MealContext = kw
			break
		}
	}
	return intent
}

// ── Helpers ─────────────────────────────────────────────────

func renderDialogue(dialogue models.Dialogue) string {
	var sb strings.Builder
	for _, m := range dialogue {
		sb.WriteString(string(m.Role))
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// normalizeSet lowercases, trims, and dedupes while preserving order.
func normalizeSet(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
