package diet

import (
	"math"
	"strings"

	"github.com/flexpro/backend/internal/catalog"
)

// FoodSuggestions are timing-based source ideas for a single meal.
type FoodSuggestions struct {
	ProteinSources []string `json:"protein_sources"`
	CarbSources    []string `json:"carb_sources"`
	Tips           string   `json:"tips"`
}

type MealSuggestion struct {
	Meal        MealType        `json:"meal"`
	Targets     MacroTargets    `json:"targets"`
	Suggestions FoodSuggestions `json:"suggestions"`
}

type MacroTargets struct {
	Protein int `json:"protein"`
	Carbs   int `json:"carbs"`
	Fat     int `json:"fat"`
}

var foodTimingSuggestions = map[MealType]FoodSuggestions{
	MealBreakfast: {
		ProteinSources: []string{"eggs", "cottage cheese", "greek yogurt"},
		CarbSources:    []string{"oats", "whole grain bread", "fruit"},
		Tips:           "protein-heavy breakfast to kickstart the metabolism",
	},
	MealPreWorkout: {
		ProteinSources: []string{"whey protein", "chicken breast"},
		CarbSources:    []string{"rice", "banana", "honey"},
		Tips:           "1-2 hours before training, medium GI carbs",
	},
	MealPostWorkout: {
		ProteinSources: []string{"whey isolate", "chicken breast"},
		CarbSources:    []string{"white rice", "potato", "banana"},
		Tips:           "right after training, fast protein plus high GI carbs",
	},
	MealDinner: {
		ProteinSources: []string{"fish", "red meat", "chicken"},
		CarbSources:    []string{"vegetables", "salad"},
		Tips:           "light dinner with slow-release protein such as casein",
	},
}

var defaultFoodSuggestions = FoodSuggestions{
	ProteinSources: []string{"chicken breast", "fish", "eggs"},
	CarbSources:    []string{"rice", "bread", "potato"},
}

// SuggestFoodsForMeal returns food source ideas for a meal slot, filtered
// against the athlete's allergies by substring match.
func SuggestFoodsForMeal(meal MealType, targetProtein, targetCarbs, targetFat int, allergies []string) MealSuggestion {
	suggestions, ok := foodTimingSuggestions[meal]
	if !ok {
		suggestions = defaultFoodSuggestions
	}

	if len(allergies) > 0 {
		suggestions.ProteinSources = filterAllergens(suggestions.ProteinSources, allergies)
		suggestions.CarbSources = filterAllergens(suggestions.CarbSources, allergies)
	}

	return MealSuggestion{
		Meal: meal,
		Targets: MacroTargets{
			Protein: targetProtein,
			Carbs:   targetCarbs,
			Fat:     targetFat,
		},
		Suggestions: suggestions,
	}
}

func filterAllergens(foods, allergies []string) []string {
	filtered := make([]string, 0, len(foods))
	for _, food := range foods {
		foodLower := strings.ToLower(food)
		allergic := false
		for _, allergy := range allergies {
			if allergy != "" && strings.Contains(foodLower, strings.ToLower(allergy)) {
				allergic = true
				break
			}
		}
		if !allergic {
			filtered = append(filtered, food)
		}
	}
	return filtered
}

// Portion is a catalog food taken in a concrete amount.
type Portion struct {
	Food   catalog.Food
	Amount float64
}

type MacroTotals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// SumMacros scales every portion to its amount and sums the result.
func SumMacros(portions []Portion) MacroTotals {
	var totals MacroTotals
	for _, p := range portions {
		ratio := p.Amount / p.Food.BaseAmount
		totals.Calories += p.Food.Calories * ratio
		totals.Protein += p.Food.Protein * ratio
		totals.Carbs += p.Food.Carbs * ratio
		totals.Fat += p.Food.Fat * ratio
		if p.Food.Fiber != nil {
			totals.Fiber += *p.Food.Fiber * ratio
		}
	}
	totals.Calories = round1(totals.Calories)
	totals.Protein = round1(totals.Protein)
	totals.Carbs = round1(totals.Carbs)
	totals.Fat = round1(totals.Fat)
	totals.Fiber = round1(totals.Fiber)
	return totals
}

type BalanceRatios struct {
	Protein int `json:"protein"`
	Carbs   int `json:"carbs"`
	Fat     int `json:"fat"`
}

type BalanceAnalysis struct {
	Totals      MacroTotals    `json:"totals"`
	Ratios      *BalanceRatios `json:"ratios,omitempty"`
	Issues      []string       `json:"issues"`
	Suggestions []string       `json:"suggestions"`
}

const minDailyFiberGrams = 25

// AnalyzeBalance checks a day of eating against macro ratio guidelines
// using 4/4/9 kcal per gram.
func AnalyzeBalance(totals MacroTotals) BalanceAnalysis {
	analysis := BalanceAnalysis{
		Totals:      totals,
		Issues:      []string{},
		Suggestions: []string{},
	}
	if totals.Calories <= 0 {
		return analysis
	}

	proteinRatio := totals.Protein * 4 / totals.Calories
	carbsRatio := totals.Carbs * 4 / totals.Calories
	fatRatio := totals.Fat * 9 / totals.Calories

	analysis.Ratios = &BalanceRatios{
		Protein: int(math.Round(proteinRatio * 100)),
		Carbs:   int(math.Round(carbsRatio * 100)),
		Fat:     int(math.Round(fatRatio * 100)),
	}

	if proteinRatio < 0.20 {
		analysis.Issues = append(analysis.Issues, "low protein, under 20% of calories")
		analysis.Suggestions = append(analysis.Suggestions, "add more protein sources")
	}
	if fatRatio > 0.40 {
		analysis.Issues = append(analysis.Issues, "high fat, over 40% of calories")
		analysis.Suggestions = append(analysis.Suggestions, "cut back on oils and fatty foods")
	}
	if totals.Fiber < minDailyFiberGrams {
		analysis.Issues = append(analysis.Issues, "low fiber, under 25 grams")
		analysis.Suggestions = append(analysis.Suggestions, "eat more vegetables and whole grains")
	}

	return analysis
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
