package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBMR_MifflinStJeor(t *testing.T) {
	// (10 * 80) + (6.25 * 180) - (5 * 30) + 5 = 1780
	assert.InDelta(t, 1780, BMR(80, 180, 30, GenderMale), 0.001)
	// same inputs, female: -161 instead of +5
	assert.InDelta(t, 1614, BMR(80, 180, 30, GenderFemale), 0.001)
}

func TestBMR_GenderOffset(t *testing.T) {
	// the male and female formulas differ by a constant 166 kcal
	for _, weight := range []float64{50, 75, 120} {
		male := BMR(weight, 175, 25, GenderMale)
		female := BMR(weight, 175, 25, GenderFemale)
		assert.InDelta(t, 166, male-female, 0.001)
	}
}

func TestBMRKatchMcArdle(t *testing.T) {
	// LBM = 90 * (1 - 0.2) = 72, BMR = 370 + 21.6 * 72 = 1925.2
	assert.InDelta(t, 1925.2, BMRKatchMcArdle(90, 20), 0.001)
}

func TestTDEE(t *testing.T) {
	assert.Equal(t, 2136, TDEE(1780, ActivitySedentary))
	assert.Equal(t, 3382, TDEE(1780, ActivityVeryActive))
	// unknown level falls back to moderate
	assert.Equal(t, TDEE(1780, ActivityModerate), TDEE(1780, "unknown"))
}

func TestCalculateMacros(t *testing.T) {
	testCases := []struct {
		name     string
		weight   float64
		tdee     float64
		goal     Goal
		expected Macros
	}{
		{
			name:   "Bulk",
			weight: 80,
			tdee:   2700,
			goal:   GoalBulk,
			// calories 3000, protein 160g (640 kcal), fat 750 kcal -> 83g, carbs (3000-640-750)/4 = 403g
			expected: Macros{Calories: 3000, Protein: 160, Carbs: 403, Fat: 83},
		},
		{
			name:   "Cut",
			weight: 80,
			tdee:   2700,
			goal:   GoalCut,
			// calories 2300, protein 192g (768), fat 575 -> 64g, carbs (2300-768-575)/4 = 239g
			expected: Macros{Calories: 2300, Protein: 192, Carbs: 239, Fat: 64},
		},
		{
			name:   "UnknownGoalFallsBackToMaintain",
			weight: 80,
			tdee:   2700,
			goal:   "whatever",
			// maintain: protein 144g (576), fat 810 -> 90g, carbs (2700-576-810)/4 = 329g (rounded)
			expected: Macros{Calories: 2700, Protein: 144, Carbs: 329, Fat: 90},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CalculateMacros(tc.weight, tc.tdee, tc.goal))
		})
	}
}

func TestCalculateMacros_CarbsFloor(t *testing.T) {
	// heavy lifter on a very low calorie target: carbs never drop below 50g
	macros := CalculateMacros(150, 1200, GoalCut)
	assert.Equal(t, 50, macros.Carbs)
}

func TestGetFullCalculation(t *testing.T) {
	result := GetFullCalculation(FullCalculationParams{
		Weight:        80,
		Height:        180,
		Age:           30,
		Gender:        GenderMale,
		ActivityLevel: ActivityModerate,
		Goal:          GoalMaintain,
	})

	assert.Equal(t, 1780, result.BMR)
	assert.Equal(t, "Mifflin-St Jeor", result.BMRMethod)
	assert.Equal(t, 2759, result.TDEE)
	assert.Equal(t, 1.55, result.ActivityMultiplier)
	assert.Equal(t, result.TDEE, result.Macros.Calories)

	// ratios should roughly add up to 100
	sum := result.MacroRatios.ProteinPercentage +
		result.MacroRatios.CarbsPercentage +
		result.MacroRatios.FatPercentage
	assert.InDelta(t, 100, sum, 3)
}

func TestGetFullCalculation_PrefersKatchMcArdle(t *testing.T) {
	bodyFat := 15.0
	result := GetFullCalculation(FullCalculationParams{
		Weight:        80,
		Height:        180,
		Age:           30,
		Gender:        GenderMale,
		ActivityLevel: ActivityModerate,
		Goal:          GoalMaintain,
		BodyFat:       &bodyFat,
	})
	assert.Equal(t, "Katch-McArdle", result.BMRMethod)
	// 370 + 21.6 * 68 = 1838.8
	assert.Equal(t, 1839, result.BMR)
}

func TestIdealWeight(t *testing.T) {
	// 180cm male: 180/2.54 = 70.87in, ideal = 50 + 2.3 * 10.87 = 75.0
	r := IdealWeight(180, GenderMale)
	assert.InDelta(t, 75.0, r.Ideal, 0.1)
	assert.InDelta(t, r.Ideal*0.9, r.Min, 0.1)
	assert.InDelta(t, r.Ideal*1.1, r.Max, 0.1)

	// female formula starts 4.5kg lower
	f := IdealWeight(180, GenderFemale)
	assert.InDelta(t, 4.5, r.Ideal-f.Ideal, 0.1)
}

func TestBMI(t *testing.T) {
	testCases := []struct {
		name             string
		weight, height   float64
		expectedBMI      float64
		expectedCategory string
	}{
		{"Normal", 70, 175, 22.9, "Normal"},
		{"Underweight", 50, 175, 16.3, "Underweight"},
		{"Overweight", 85, 175, 27.8, "Overweight"},
		{"Obese", 100, 175, 32.7, "Obese"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := BMI(tc.weight, tc.height)
			assert.InDelta(t, tc.expectedBMI, result.BMI, 0.05)
			assert.Equal(t, tc.expectedCategory, result.Category)
		})
	}
}

func TestEstimateBodyFat_Male(t *testing.T) {
	bodyFat, err := EstimateBodyFat(85, 38, 180, GenderMale, nil)
	require.NoError(t, err)
	assert.Greater(t, bodyFat, 3.0)
	assert.Less(t, bodyFat, 40.0)
}

func TestEstimateBodyFat_FemaleNeedsHip(t *testing.T) {
	_, err := EstimateBodyFat(70, 32, 165, GenderFemale, nil)
	assert.ErrorIs(t, err, ErrHipRequired)

	hip := 95.0
	bodyFat, err := EstimateBodyFat(70, 32, 165, GenderFemale, &hip)
	require.NoError(t, err)
	assert.Greater(t, bodyFat, 3.0)
}

func TestEstimateBodyFat_Floor(t *testing.T) {
	// extremely lean measurements still report at least 3%
	bodyFat, err := EstimateBodyFat(60, 45, 200, GenderMale, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, bodyFat, 3.0)
}

func TestCalculateWaterIntake(t *testing.T) {
	// 80kg moderate: 80 * 35 * 1.2 = 3360ml
	w := CalculateWaterIntake(80, ActivityModerate, false)
	assert.Equal(t, 3360, w.DailyMl)
	assert.InDelta(t, 3.4, w.DailyLiters, 0.05)
	assert.Equal(t, 13, w.Glasses)

	// training day adds half a liter
	trainingDay := CalculateWaterIntake(80, ActivityModerate, true)
	assert.Equal(t, 3860, trainingDay.DailyMl)
}
