// Package catalog holds the static shape of the recipe corpus.
//
// Two pieces live here:
//
//  1. **Collection registry** — the fixed set of eight semantic collections
//     the corpus is partitioned into. Names, one-line descriptions (fed to
//     the query planner's prompt), and expected-cardinality hints.
//
//  2. **Library** — the classified-recipes table produced by the offline
//     ingestion pipeline: recipe_id → title, collection, classifier
//     confidence, full ingredients, instructions. Loaded once at startup
//     and read-only afterwards, so lookups take no lock.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/forkcast/forkcast/pkg/models"
)

// ── Collection Registry ──────────────────────────────────────

// Collection names. Every classified recipe belongs to exactly one.
const (
	BakedBreads      = "baked-breads"
	QuickLight       = "quick-light"
	ProteinMains     = "protein-mains"
	ComfortCooked    = "comfort-cooked"
	DessertsSweets   = "desserts-sweets"
	BreakfastMorning = "breakfast-morning"
	PlantBased       = "plant-based"
	FreshCold        = "fresh-cold"
)

// Collection describes one corpus partition.
type Collection struct {
	Name          string
	Description   string
	ExpectedCount int
}

// collections is the canonical ordered registry. The order is the one
// used in planner prompts and the collections listing.
var collections = []Collection{
	{BakedBreads, "Yeast breads, quick breads, rolls, and other oven-baked doughs", 1100},
	{QuickLight, "Fast, light meals ready in about thirty minutes", 1400},
	{ProteinMains, "Meat, poultry, and seafood centered main courses", 1500},
	{ComfortCooked, "Slow-cooked stews, casseroles, and hearty comfort classics", 1300},
	{DessertsSweets, "Cakes, cookies, pies, and other sweet treats", 1600},
	{BreakfastMorning, "Breakfast and brunch dishes for the morning table", 800},
	{PlantBased, "Vegetarian and vegan dishes built on vegetables, grains, and legumes", 700},
	{FreshCold, "Salads, chilled plates, and no-cook fresh dishes", 600},
}

// Collections returns the eight collection descriptors in canonical order.
// The returned slice is a copy; callers may reorder it freely.
func Collections() []Collection {
	out := make([]Collection, len(collections))
	copy(out, collections)
	return out
}

// Names returns the eight collection names in canonical order.
func Names() []string {
	out := make([]string, len(collections))
	for i, c := range collections {
		out[i] = c.Name
	}
	return out
}

// IsCollection reports whether name is one of the eight known collections.
func IsCollection(name string) bool {
	for _, c := range collections {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Describe returns the descriptor for a collection name.
func Describe(name string) (Collection, bool) {
	for _, c := range collections {
		if c.Name == name {
			return c, true
		}
	}
	return Collection{}, false
}

// ── Classified Recipes Library ───────────────────────────────

// Library is the in-memory classified-recipes table. It is immutable
// after Load; the recommendation path only reads it.
type Library struct {
	recipes map[string]models.RecipeMeta
}

// Load reads the classified-recipes JSON file produced by the ingestion
// pipeline. The file is a single object mapping recipe_id to metadata.
// Any read or decode failure is a startup error.
func Load(path string) (*Library, error) {
	if path == "" {
		return nil, fmt.Errorf("classified recipes path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read classified recipes: %w", err)
	}

	recipes := make(map[string]models.RecipeMeta)
	if err := json.Unmarshal(raw, &recipes); err != nil {
		return nil, fmt.Errorf("parse classified recipes: %w", err)
	}

	byCollection := make(map[string]int)
	for _, meta := range recipes {
		byCollection[meta.Collection]++
	}
	log.Info().
		Str("path", path).
		Int("recipes", len(recipes)).
		Interface("by_collection", byCollection).
		Msg("📚 Classified recipes loaded")

	return &Library{recipes: recipes}, nil
}

// Lookup returns the ingestion-time metadata for a recipe ID.
func (l *Library) Lookup(recipeID string) (models.RecipeMeta, bool) {
	meta, ok := l.recipes[recipeID]
	return meta, ok
}

// Size returns the number of classified recipes.
func (l *Library) Size() int {
	return len(l.recipes)
}
