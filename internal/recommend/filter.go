package recommend

import (
	"strings"

	"github.com/forkcast/forkcast/pkg/models"
)

// Dietary blocklists: a recipe is dropped when any of its ingredients
// contains one of these substrings, case-insensitive. Coarse on purpose —
// this is the safety floor under the vector ranking, so it over-blocks
// ("coconut milk" falls to dairy-free) rather than under-blocks.
var dietaryBlocklists = map[string][]string{
	"vegan": {
		"meat", "chicken", "beef", "pork", "fish", "egg",
		"dairy", "milk", "cheese", "butter", "cream", "honey",
	},
	"vegetarian": {
		"meat", "chicken", "beef", "pork", "fish", "bacon",
		"sausage", "ham", "anchov", "gelatin",
	},
	"gluten-free": {
		"flour", "wheat", "bread", "pasta", "barley", "rye",
		"couscous", "soy sauce", "breadcrumb",
	},
	"dairy-free": {
		"milk", "cheese", "butter", "cream", "yogurt", "whey",
	},
	"nut-free": {
		"almond", "peanut", "cashew", "walnut", "pecan",
		"hazelnut", "pistachio", "macadamia", "nut",
	},
}

// Filter drops recommendations that violate the user's hard dietary
// constraints. Unrecognized restriction values are ignored, as are the
// reserved preference fields (cuisines, cooking time). Order of the
// surviving items is preserved.
func Filter(recs []models.Recommendation, prefs models.Preferences) []models.Recommendation {
	blocked := activeBlocklist(prefs.DietaryRestrictions)
	if len(blocked) == 0 {
		return recs
	}

	out := make([]models.Recommendation, 0, len(recs))
	for _, rec := range recs {
		if violates(rec, blocked) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// activeBlocklist merges the blocklists of every recognized restriction.
func activeBlocklist(restrictions []string) []string {
	var merged []string
	for _, r := range restrictions {
		key := strings.ToLower(strings.TrimSpace(r))
		merged = append(merged, dietaryBlocklists[key]...)
	}
	return merged
}

// violates checks the recipe's full ingestion-time ingredient list when
// the classified-recipes table knows the recipe, and the hit's preview
// otherwise.
func violates(rec models.Recommendation, blocked []string) bool {
	ingredients := rec.IngredientsPreview
	if meta, ok := rec.Metadata["original_data"].(models.RecipeMeta); ok && len(meta.Ingredients) > 0 {
		ingredients = meta.Ingredients
	}
	for _, ingredient := range ingredients {
		lowered := strings.ToLower(ingredient)
		for _, substr := range blocked {
			if strings.Contains(lowered, substr) {
				return true
			}
		}
	}
	return false
}
