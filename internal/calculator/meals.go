package calculator

import "math"

type MealPlanType string

const (
	MealPlanStandard            MealPlanType = "standard"
	MealPlanPrePostWorkout      MealPlanType = "pre_post_workout"
	MealPlanIntermittentFasting MealPlanType = "intermittent_fasting"
)

const (
	// per meal protein bounds, grams
	minProteinPerMeal = 20
	maxProteinPerMeal = 50
)

type MealMacros struct {
	Meal     string `json:"meal"`
	Calories int    `json:"calories"`
	Protein  int    `json:"protein"`
	Carbs    int    `json:"carbs"`
	Fat      int    `json:"fat"`
}

type mealShare struct {
	meal  string
	ratio float64
}

// meal order matters for the client, so slices instead of maps
var mealDistributions = map[MealPlanType][]mealShare{
	MealPlanStandard: {
		{"breakfast", 0.25},
		{"snack_1", 0.10},
		{"lunch", 0.30},
		{"snack_2", 0.10},
		{"dinner", 0.25},
	},
	MealPlanPrePostWorkout: {
		{"breakfast", 0.20},
		{"pre_workout", 0.15},
		{"post_workout", 0.20},
		{"lunch", 0.25},
		{"dinner", 0.20},
	},
	MealPlanIntermittentFasting: {
		{"lunch", 0.35},
		{"snack_2", 0.15},
		{"dinner", 0.35},
		{"snack_3", 0.15},
	},
}

// DistributeMacros splits daily macro targets over the meals of the chosen
// plan type. Per meal protein is clamped so every meal lands in the
// effective absorption window.
func DistributeMacros(totalCalories, totalProtein, totalCarbs, totalFat int, planType MealPlanType) []MealMacros {
	distribution, ok := mealDistributions[planType]
	if !ok {
		distribution = mealDistributions[MealPlanStandard]
	}

	meals := make([]MealMacros, 0, len(distribution))
	for _, share := range distribution {
		meal := MealMacros{
			Meal:     share.meal,
			Calories: int(math.Round(float64(totalCalories) * share.ratio)),
			Protein:  int(math.Round(float64(totalProtein) * share.ratio)),
			Carbs:    int(math.Round(float64(totalCarbs) * share.ratio)),
			Fat:      int(math.Round(float64(totalFat) * share.ratio)),
		}

		if meal.Protein < minProteinPerMeal {
			meal.Protein = minProteinPerMeal
		} else if meal.Protein > maxProteinPerMeal {
			meal.Protein = maxProteinPerMeal
		}

		meals = append(meals, meal)
	}

	return meals
}
