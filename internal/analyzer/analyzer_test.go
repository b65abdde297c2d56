package analyzer_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/forkcast/forkcast/internal/analyzer"
	"github.com/forkcast/forkcast/internal/llm"
	"github.com/forkcast/forkcast/pkg/models"
)

// stubLLM is a canned CompletionClient.
type stubLLM struct {
	response string
	err      error
	calls    int
}

func (s *stubLLM) Kind() string      { return "stub" }
func (s *stubLLM) ModelName() string { return "stub-model" }
func (s *stubLLM) Complete(ctx context.Context, prompt string, opts models.CompletionOptions) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}
func (s *stubLLM) HealthCheck(ctx context.Context) error { return s.err }

func userSays(content string) models.Dialogue {
	return models.Dialogue{{Role: models.RoleUser, Content: content}}
}

// ─── LLM path ────────────────────────────────────────────────

func TestAnalyzeLLMIntent(t *testing.T) {
	stub := &stubLLM{response: "```json\n" + `{
		"preferences": ["Healthy", "spicy", "healthy"],
		"restrictions": ["Gluten-Free"],
		"meal_context": "Lunch",
		"cooking_preferences": ["grilled"],
		"ingredients_mentioned": ["chicken"],
		"cuisine_preferences": ["thai"]
	}` + "\n```"}
	a := analyzer.New(stub)

	intent, err := a.Analyze(context.Background(), userSays("something healthy and spicy for lunch"))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if want := []string{"healthy", "spicy"}; !reflect.DeepEqual(intent.Preferences, want) {
		t.Errorf("Preferences = %v, want %v", intent.Preferences, want)
	}
	if want := []string{"gluten-free"}; !reflect.DeepEqual(intent.Restrictions, want) {
		t.Errorf("Restrictions = %v, want %v", intent.Restrictions, want)
	}
	if intent.MealContext != "lunch" {
		t.Errorf("MealContext = %q, want lunch", intent.MealContext)
	}
	if want := []string{"thai"}; !reflect.DeepEqual(intent.CuisinePreferences, want) {
		t.Errorf("CuisinePreferences = %v, want %v", intent.CuisinePreferences, want)
	}
}

func TestAnalyzeCoercesMealContextList(t *testing.T) {
	stub := &stubLLM{response: `{"preferences": [], "restrictions": [], "meal_context": ["Lunch", "Dinner"]}`}
	a := analyzer.New(stub)

	intent, err := a.Analyze(context.Background(), userSays("lunch or dinner, surprise me"))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if intent.MealContext != "lunch, dinner" {
		t.Errorf("MealContext = %q, want %q", intent.MealContext, "lunch, dinner")
	}
}

// ─── Heuristic fallbacks ─────────────────────────────────────

func TestAnalyzeFallsBackWhenLLMFails(t *testing.T) {
	stub := &stubLLM{err: llm.ErrUnavailable}
	a := analyzer.New(stub)

	intent, err := a.Analyze(context.Background(), userSays("I want something HEALTHY for lunch"))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if want := []string{"healthy"}; !reflect.DeepEqual(intent.Preferences, want) {
		t.Errorf("Preferences = %v, want %v", intent.Preferences, want)
	}
	if intent.MealContext != "lunch" {
		t.Errorf("MealContext = %q, want lunch", intent.MealContext)
	}
}

func TestAnalyzeFallsBackOnNonJSON(t *testing.T) {
	stub := &stubLLM{response: "Sorry, I can't produce structured output today."}
	a := analyzer.New(stub)

	intent, err := a.Analyze(context.Background(), userSays("vegan comfort food for dinner"))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if want := []string{"comfort"}; !reflect.DeepEqual(intent.Preferences, want) {
		t.Errorf("Preferences = %v, want %v", intent.Preferences, want)
	}
	if want := []string{"vegan"}; !reflect.DeepEqual(intent.Restrictions, want) {
		t.Errorf("Restrictions = %v, want %v", intent.Restrictions, want)
	}
	if intent.MealContext != "dinner" {
		t.Errorf("MealContext = %q, want dinner", intent.MealContext)
	}
}

func TestAnalyzeFallsBackOnMissingRequiredFields(t *testing.T) {
	stub := &stubLLM{response: `{"meal_context": "lunch"}`}
	a := analyzer.New(stub)

	intent, err := a.Analyze(context.Background(), userSays("something sweet"))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	// Heuristic result, not the partial LLM document.
	if want := []string{"sweet"}; !reflect.DeepEqual(intent.Preferences, want) {
		t.Errorf("Preferences = %v, want %v", intent.Preferences, want)
	}
	if intent.MealContext != models.MealContextNone {
		t.Errorf("MealContext = %q, want none", intent.MealContext)
	}
}

func TestAnalyzeHeuristicOnlyMode(t *testing.T) {
	a := analyzer.New(nil)

	intent, err := a.Analyze(context.Background(), userSays("gluten-free breakfast, nothing spicy... actually spicy is fine"))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if want := []string{"spicy"}; !reflect.DeepEqual(intent.Preferences, want) {
		t.Errorf("Preferences = %v, want %v", intent.Preferences, want)
	}
	if want := []string{"gluten-free"}; !reflect.DeepEqual(intent.Restrictions, want) {
		t.Errorf("Restrictions = %v, want %v", intent.Restrictions, want)
	}
	if intent.MealContext != "breakfast" {
		t.Errorf("MealContext = %q, want breakfast", intent.MealContext)
	}
}

func TestAnalyzeHeuristicWindowIsFiveMessages(t *testing.T) {
	a := analyzer.New(nil)

	dialogue := models.Dialogue{
		{Role: models.RoleUser, Content: "I only eat vegan food"}, // outside the window
		{Role: models.RoleAssistant, Content: "Noted!"},
		{Role: models.RoleUser, Content: "What about pasta?"},
		{Role: models.RoleAssistant, Content: "Plenty of options."},
		{Role: models.RoleUser, Content: "Something quick."},
		{Role: models.RoleAssistant, Content: "Sure."},
		{Role: models.RoleUser, Content: "For dinner please"},
	}

	intent, err := a.Analyze(context.Background(), dialogue)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(intent.Restrictions) != 0 {
		t.Errorf("Restrictions = %v, want empty (vegan mention is outside the 5-message window)", intent.Restrictions)
	}
	if intent.MealContext != "dinner" {
		t.Errorf("MealContext = %q, want dinner", intent.MealContext)
	}
}

func TestAnalyzeAssistantOnlyDialogue(t *testing.T) {
	a := analyzer.New(nil)

	dialogue := models.Dialogue{
		{Role: models.RoleAssistant, Content: "You mentioned you need dairy-free lunch ideas."},
	}
	intent, err := a.Analyze(context.Background(), dialogue)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if want := []string{"dairy-free"}; !reflect.DeepEqual(intent.Restrictions, want) {
		t.Errorf("Restrictions = %v, want %v", intent.Restrictions, want)
	}
}

// ─── Edge cases ──────────────────────────────────────────────

func TestAnalyzeEmptyDialogue(t *testing.T) {
	stub := &stubLLM{response: "should never be called"}
	a := analyzer.New(stub)

	intent, err := a.Analyze(context.Background(), models.Dialogue{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(intent.Preferences) != 0 || len(intent.Restrictions) != 0 {
		t.Errorf("intent = %+v, want empty sets", intent)
	}
	if intent.MealContext != models.MealContextNone {
		t.Errorf("MealContext = %q, want none", intent.MealContext)
	}
	if stub.calls != 0 {
		t.Errorf("LLM called %d times for empty dialogue, want 0", stub.calls)
	}
}

func TestAnalyzeRejectsUnknownRole(t *testing.T) {
	a := analyzer.New(nil)

	_, err := a.Analyze(context.Background(), models.Dialogue{{Role: "robot", Content: "beep"}})
	if err == nil {
		t.Fatal("Analyze() expected error for unknown role, got nil")
	}
}
