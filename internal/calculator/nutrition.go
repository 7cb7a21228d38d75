package calculator

import (
	"errors"
	"math"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type Goal string

const (
	GoalBulk      Goal = "bulk"
	GoalCut       Goal = "cut"
	GoalMaintain  Goal = "maintain"
	GoalRecomp    Goal = "recomp"
	GoalStrength  Goal = "strength"
	GoalEndurance Goal = "endurance"
)

type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

var ErrHipRequired = errors.New("hip circumference required for female body fat estimate")

var activityMultipliers = map[ActivityLevel]float64{
	ActivitySedentary:  1.2,
	ActivityLight:      1.375,
	ActivityModerate:   1.55,
	ActivityActive:     1.725,
	ActivityVeryActive: 1.9,
}

type macroPreset struct {
	calorieAdjustment float64
	proteinPerKg      float64
	fatPercentage     float64
}

var macroPresets = map[Goal]macroPreset{
	GoalBulk:     {calorieAdjustment: 300, proteinPerKg: 2.0, fatPercentage: 0.25},
	GoalCut:      {calorieAdjustment: -400, proteinPerKg: 2.4, fatPercentage: 0.25},
	GoalMaintain: {calorieAdjustment: 0, proteinPerKg: 1.8, fatPercentage: 0.30},
	GoalRecomp:   {calorieAdjustment: -100, proteinPerKg: 2.2, fatPercentage: 0.25},
}

// carbs never go below this, regardless of goal
const minCarbsGrams = 50

type Macros struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
}

type MacroRatios struct {
	ProteinPercentage int `json:"protein_percentage"`
	CarbsPercentage   int `json:"carbs_percentage"`
	FatPercentage     int `json:"fat_percentage"`
}

type FullCalculation struct {
	BMR                int         `json:"bmr"`
	BMRMethod          string      `json:"bmr_method"`
	TDEE               int         `json:"tdee"`
	ActivityMultiplier float64     `json:"activity_multiplier"`
	Goal               Goal        `json:"goal"`
	Macros             Macros      `json:"macros"`
	MacroRatios        MacroRatios `json:"macro_ratios"`
}

type IdealWeightRange struct {
	Min   float64 `json:"min"`
	Ideal float64 `json:"ideal"`
	Max   float64 `json:"max"`
}

type BMIResult struct {
	BMI      float64 `json:"bmi"`
	Category string  `json:"category"`
}

type WaterIntake struct {
	DailyMl     int     `json:"daily_ml"`
	DailyLiters float64 `json:"daily_liters"`
	Glasses     int     `json:"glasses"`
}

// BMR estimates the basal metabolic rate with the Mifflin-St Jeor formula.
// Weight in kg, height in cm, result in kcal per day.
func BMR(weight, height float64, age int, gender Gender) float64 {
	base := 10*weight + 6.25*height - 5*float64(age)
	if gender == GenderMale {
		return base + 5
	}
	return base - 161
}

// BMRKatchMcArdle estimates BMR from lean body mass. More accurate when the
// body fat percentage is actually measured, not guessed.
func BMRKatchMcArdle(weight, bodyFatPercentage float64) float64 {
	leanBodyMass := weight * (1 - bodyFatPercentage/100)
	return 370 + 21.6*leanBodyMass
}

func TDEE(bmr float64, activityLevel ActivityLevel) int {
	multiplier, ok := activityMultipliers[activityLevel]
	if !ok {
		multiplier = 1.55
	}
	return int(math.Round(bmr * multiplier))
}

func ActivityMultiplier(activityLevel ActivityLevel) float64 {
	multiplier, ok := activityMultipliers[activityLevel]
	if !ok {
		return 1.55
	}
	return multiplier
}

// CalculateMacros splits the target calories into protein, fat and carbs.
// Protein scales with body weight, fat is a fixed share of calories and
// carbs get whatever calories remain.
func CalculateMacros(weight, tdee float64, goal Goal) Macros {
	preset, ok := macroPresets[goal]
	if !ok {
		preset = macroPresets[GoalMaintain]
	}

	targetCalories := tdee + preset.calorieAdjustment

	proteinGrams := int(math.Round(weight * preset.proteinPerKg))
	proteinCalories := float64(proteinGrams) * 4

	fatCalories := targetCalories * preset.fatPercentage
	fatGrams := int(math.Round(fatCalories / 9))

	remainingCalories := targetCalories - proteinCalories - fatCalories
	carbsGrams := int(math.Round(remainingCalories / 4))
	if carbsGrams < minCarbsGrams {
		carbsGrams = minCarbsGrams
	}

	return Macros{
		Calories: int(math.Round(targetCalories)),
		Protein:  proteinGrams,
		Carbs:    carbsGrams,
		Fat:      fatGrams,
	}
}

type FullCalculationParams struct {
	Weight        float64
	Height        float64
	Age           int
	Gender        Gender
	ActivityLevel ActivityLevel
	Goal          Goal
	BodyFat       *float64
}

// GetFullCalculation runs the whole nutrition pipeline: BMR, TDEE and macros.
// When a body fat percentage is provided, Katch-McArdle is preferred.
func GetFullCalculation(params FullCalculationParams) FullCalculation {
	var bmr float64
	var bmrMethod string
	if params.BodyFat != nil && *params.BodyFat > 0 {
		bmr = BMRKatchMcArdle(params.Weight, *params.BodyFat)
		bmrMethod = "Katch-McArdle"
	} else {
		bmr = BMR(params.Weight, params.Height, params.Age, params.Gender)
		bmrMethod = "Mifflin-St Jeor"
	}

	tdee := TDEE(bmr, params.ActivityLevel)
	macros := CalculateMacros(params.Weight, float64(tdee), params.Goal)

	return FullCalculation{
		BMR:                int(math.Round(bmr)),
		BMRMethod:          bmrMethod,
		TDEE:               tdee,
		ActivityMultiplier: ActivityMultiplier(params.ActivityLevel),
		Goal:               params.Goal,
		Macros:             macros,
		MacroRatios: MacroRatios{
			ProteinPercentage: int(math.Round(float64(macros.Protein) * 4 / float64(macros.Calories) * 100)),
			CarbsPercentage:   int(math.Round(float64(macros.Carbs) * 4 / float64(macros.Calories) * 100)),
			FatPercentage:     int(math.Round(float64(macros.Fat) * 9 / float64(macros.Calories) * 100)),
		},
	}
}

// IdealWeight returns the Devine formula result with a +-10% range.
func IdealWeight(height float64, gender Gender) IdealWeightRange {
	heightInches := height / 2.54

	var ideal float64
	if gender == GenderMale {
		ideal = 50 + 2.3*(heightInches-60)
	} else {
		ideal = 45.5 + 2.3*(heightInches-60)
	}

	return IdealWeightRange{
		Min:   round1(ideal * 0.9),
		Ideal: round1(ideal),
		Max:   round1(ideal * 1.1),
	}
}

func BMI(weight, height float64) BMIResult {
	heightM := height / 100
	bmi := weight / (heightM * heightM)

	var category string
	switch {
	case bmi < 18.5:
		category = "Underweight"
	case bmi < 25:
		category = "Normal"
	case bmi < 30:
		category = "Overweight"
	default:
		category = "Obese"
	}

	return BMIResult{
		BMI:      round1(bmi),
		Category: category,
	}
}

// EstimateBodyFat uses the US Navy circumference method. Measurements in cm.
// Females additionally need the hip circumference.
func EstimateBodyFat(waist, neck, height float64, gender Gender, hip *float64) (float64, error) {
	var bodyFat float64
	if gender == GenderMale {
		bodyFat = 86.010*math.Log10(waist-neck) - 70.041*math.Log10(height) + 36.76
	} else {
		if hip == nil {
			return 0, ErrHipRequired
		}
		bodyFat = 163.205*math.Log10(waist+*hip-neck) - 97.684*math.Log10(height) - 78.387
	}

	if bodyFat < 3 {
		bodyFat = 3
	}
	return round1(bodyFat), nil
}

// CalculateWaterIntake estimates daily water needs from body weight and
// activity, with an extra half liter on training days.
func CalculateWaterIntake(weight float64, activityLevel ActivityLevel, isTrainingDay bool) WaterIntake {
	baseMl := weight * 35

	waterMultipliers := map[ActivityLevel]float64{
		ActivitySedentary:  1.0,
		ActivityLight:      1.1,
		ActivityModerate:   1.2,
		ActivityActive:     1.3,
		ActivityVeryActive: 1.4,
	}
	multiplier, ok := waterMultipliers[activityLevel]
	if !ok {
		multiplier = 1.2
	}

	dailyMl := baseMl * multiplier
	if isTrainingDay {
		dailyMl += 500
	}

	return WaterIntake{
		DailyMl:     int(math.Round(dailyMl)),
		DailyLiters: round1(dailyMl / 1000),
		Glasses:     int(math.Round(dailyMl / 250)),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
