package recommend_test

import (
	"testing"

	"github.com/forkcast/forkcast/internal/recommend"
	"github.com/forkcast/forkcast/pkg/models"
)

func rec(id string, ingredients ...string) models.Recommendation {
	return models.Recommendation{
		Hit: models.Hit{RecipeID: id, IngredientsPreview: ingredients},
		Metadata: map[string]any{
			"original_data": models.RecipeMeta{Ingredients: ingredients},
		},
	}
}

func ids(recs []models.Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.RecipeID
	}
	return out
}

func TestFilterDietaryRestrictions(t *testing.T) {
	cases := []struct {
		name         string
		restrictions []string
		recs         []models.Recommendation
		want         []string
	}{
		{
			name:         "vegan drops animal products",
			restrictions: []string{"vegan"},
			recs: []models.Recommendation{
				rec("chicken", "chicken breast", "salt"),
				rec("tofu", "tofu", "rice"),
				rec("cheesy", "cheddar cheese", "macaroni"),
			},
			want: []string{"tofu"},
		},
		{
			name:         "gluten-free drops wheat",
			restrictions: []string{"gluten-free"},
			recs: []models.Recommendation{
				rec("bread", "wheat flour", "yeast"),
				rec("salad", "lettuce", "tomato"),
			},
			want: []string{"salad"},
		},
		{
			name:         "dairy-free over-blocks coconut milk",
			restrictions: []string{"dairy-free"},
			recs: []models.Recommendation{
				rec("curry", "coconut milk", "curry paste"),
			},
			want: []string{},
		},
		{
			name:         "restrictions combine",
			restrictions: []string{"vegan", "nut-free"},
			recs: []models.Recommendation{
				rec("pesto", "basil", "walnut"),
				rec("omelet", "egg", "chives"),
				rec("beans", "black beans", "rice"),
			},
			want: []string{"beans"},
		},
		{
			name:         "unrecognized restriction is ignored",
			restrictions: []string{"keto"},
			recs: []models.Recommendation{
				rec("toast", "bread", "butter"),
			},
			want: []string{"toast"},
		},
		{
			name:         "case-insensitive match",
			restrictions: []string{"vegan"},
			recs: []models.Recommendation{
				rec("roast", "CHICKEN Thighs"),
			},
			want: []string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := recommend.Filter(tc.recs, models.Preferences{DietaryRestrictions: tc.restrictions})
			gotIDs := ids(got)
			if len(gotIDs) != len(tc.want) {
				t.Fatalf("Filter() = %v, want %v", gotIDs, tc.want)
			}
			for i := range tc.want {
				if gotIDs[i] != tc.want[i] {
					t.Errorf("Filter()[%d] = %q, want %q", i, gotIDs[i], tc.want[i])
				}
			}
		})
	}
}

func TestFilterNoRestrictionsKeepsEverything(t *testing.T) {
	recs := []models.Recommendation{rec("a", "chicken"), rec("b", "cheese")}
	got := recommend.Filter(recs, models.Preferences{
		PreferredCuisines: []string{"thai"}, // reserved, must not drop or reorder
		MaxCookingTime:    30,
	})
	if len(got) != 2 || got[0].RecipeID != "a" || got[1].RecipeID != "b" {
		t.Errorf("Filter() = %v, want order preserved", ids(got))
	}
}

func TestFilterFallsBackToPreview(t *testing.T) {
	// No classified-recipes entry: the hit's preview is all we have.
	r := models.Recommendation{
		Hit:      models.Hit{RecipeID: "x", IngredientsPreview: []string{"milk"}},
		Metadata: map[string]any{},
	}
	got := recommend.Filter([]models.Recommendation{r}, models.Preferences{DietaryRestrictions: []string{"dairy-free"}})
	if len(got) != 0 {
		t.Errorf("Filter() kept %v, want drop via preview ingredients", ids(got))
	}
}
