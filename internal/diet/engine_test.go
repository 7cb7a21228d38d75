package diet

import (
	"testing"

	"github.com/flexpro/backend/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestFoodsForMeal(t *testing.T) {
	t.Run("breakfast", func(t *testing.T) {
		suggestion := SuggestFoodsForMeal(MealBreakfast, 40, 50, 15, nil)
		assert.Equal(t, MealBreakfast, suggestion.Meal)
		assert.Equal(t, 40, suggestion.Targets.Protein)
		assert.Contains(t, suggestion.Suggestions.ProteinSources, "eggs")
		assert.Contains(t, suggestion.Suggestions.CarbSources, "oats")
	})

	t.Run("allergyFiltersBySubstring", func(t *testing.T) {
		suggestion := SuggestFoodsForMeal(MealBreakfast, 40, 50, 15, []string{"egg", "CHEESE"})
		assert.NotContains(t, suggestion.Suggestions.ProteinSources, "eggs")
		assert.NotContains(t, suggestion.Suggestions.ProteinSources, "cottage cheese")
		assert.Contains(t, suggestion.Suggestions.ProteinSources, "greek yogurt")
		// carbs untouched by these allergies
		assert.Len(t, suggestion.Suggestions.CarbSources, 3)
	})

	t.Run("unknownMealFallsBackToDefaults", func(t *testing.T) {
		suggestion := SuggestFoodsForMeal(MealSnack1, 20, 30, 10, nil)
		assert.Equal(t, defaultFoodSuggestions.ProteinSources, suggestion.Suggestions.ProteinSources)
		assert.Empty(t, suggestion.Suggestions.Tips)
	})
}

func TestSumMacros(t *testing.T) {
	fiber := 2.0
	oats := catalog.Food{BaseAmount: 100, Calories: 100, Protein: 10, Carbs: 10, Fat: 5, Fiber: &fiber}
	banana := catalog.Food{BaseAmount: 1, Calories: 90, Protein: 1, Carbs: 23, Fat: 0.3}

	totals := SumMacros([]Portion{
		{Food: oats, Amount: 250},
		{Food: banana, Amount: 2},
	})

	assert.Equal(t, 430.0, totals.Calories)
	assert.Equal(t, 27.0, totals.Protein)
	assert.Equal(t, 71.0, totals.Carbs)
	assert.Equal(t, 13.1, totals.Fat)
	assert.Equal(t, 5.0, totals.Fiber)
}

func TestAnalyzeBalance(t *testing.T) {
	t.Run("balanced", func(t *testing.T) {
		analysis := AnalyzeBalance(MacroTotals{
			Calories: 2000, Protein: 150, Carbs: 200, Fat: 60, Fiber: 30,
		})
		require.NotNil(t, analysis.Ratios)
		assert.Equal(t, 30, analysis.Ratios.Protein)
		assert.Equal(t, 40, analysis.Ratios.Carbs)
		assert.Equal(t, 27, analysis.Ratios.Fat)
		assert.Empty(t, analysis.Issues)
		assert.Empty(t, analysis.Suggestions)
	})

	t.Run("everythingWrong", func(t *testing.T) {
		analysis := AnalyzeBalance(MacroTotals{
			Calories: 2000, Protein: 50, Carbs: 125, Fat: 100, Fiber: 10,
		})
		require.NotNil(t, analysis.Ratios)
		assert.Equal(t, 10, analysis.Ratios.Protein)
		assert.Equal(t, 45, analysis.Ratios.Fat)
		assert.Len(t, analysis.Issues, 3)
		assert.Len(t, analysis.Suggestions, 3)
	})

	t.Run("zeroCaloriesSkipsRatios", func(t *testing.T) {
		analysis := AnalyzeBalance(MacroTotals{})
		assert.Nil(t, analysis.Ratios)
		assert.Empty(t, analysis.Issues)
	})
}
