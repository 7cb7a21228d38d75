package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistributeMacros_Standard(t *testing.T) {
	meals := DistributeMacros(2500, 180, 280, 70, MealPlanStandard)
	require.Len(t, meals, 5)

	// breakfast gets 25%
	assert.Equal(t, "breakfast", meals[0].Meal)
	assert.Equal(t, 625, meals[0].Calories)
	assert.Equal(t, 45, meals[0].Protein)
	assert.Equal(t, 70, meals[0].Carbs)
	assert.Equal(t, 18, meals[0].Fat)

	// lunch is the biggest meal at 30%
	assert.Equal(t, "lunch", meals[2].Meal)
	assert.Equal(t, 750, meals[2].Calories)
}

func TestDistributeMacros_ProteinClamp(t *testing.T) {
	// 10% snacks on a low protein day would drop below 20g without the clamp
	meals := DistributeMacros(2000, 100, 250, 60, MealPlanStandard)
	for _, meal := range meals {
		assert.GreaterOrEqual(t, meal.Protein, 20, meal.Meal)
		assert.LessOrEqual(t, meal.Protein, 50, meal.Meal)
	}

	// very high protein totals are capped at 50g per meal
	high := DistributeMacros(4000, 400, 400, 100, MealPlanStandard)
	for _, meal := range high {
		assert.LessOrEqual(t, meal.Protein, 50, meal.Meal)
	}
}

func TestDistributeMacros_PlanTypes(t *testing.T) {
	fasting := DistributeMacros(2400, 180, 240, 80, MealPlanIntermittentFasting)
	require.Len(t, fasting, 4)
	assert.Equal(t, "lunch", fasting[0].Meal)
	assert.Equal(t, 840, fasting[0].Calories) // 35%

	prePost := DistributeMacros(2400, 180, 240, 80, MealPlanPrePostWorkout)
	require.Len(t, prePost, 5)
	assert.Equal(t, "pre_workout", prePost[1].Meal)
	assert.Equal(t, "post_workout", prePost[2].Meal)

	// unknown plan type falls back to standard
	fallback := DistributeMacros(2400, 180, 240, 80, "whatever")
	standard := DistributeMacros(2400, 180, 240, 80, MealPlanStandard)
	assert.Equal(t, standard, fallback)
}
