package catalog

import "math"

type ExerciseType string

const (
	ExerciseResistance ExerciseType = "resistance"
	ExerciseCardio     ExerciseType = "cardio"
	ExerciseCorrective ExerciseType = "corrective"
	ExerciseWarmup     ExerciseType = "warmup"
	ExerciseCooldown   ExerciseType = "cooldown"
	ExerciseStretching ExerciseType = "stretching"
	ExercisePlyometric ExerciseType = "plyometric"
)

type Equipment string

const (
	EquipmentBarbell        Equipment = "barbell"
	EquipmentDumbbell       Equipment = "dumbbell"
	EquipmentCable          Equipment = "cable"
	EquipmentMachine        Equipment = "machine"
	EquipmentBodyweight     Equipment = "bodyweight"
	EquipmentKettlebell     Equipment = "kettlebell"
	EquipmentResistanceBand Equipment = "band"
	EquipmentSmithMachine   Equipment = "smith"
	EquipmentTRX            Equipment = "trx"
	EquipmentOther          Equipment = "other"
)

type FoodCategory struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Icon        *string `json:"icon,omitempty"`
	Description *string `json:"description,omitempty"`
	SortOrder   int     `json:"sort_order"`
	IsActive    bool    `json:"is_active"`
}

type FoodCategoryWithFoods struct {
	FoodCategory
	Foods []Food `json:"foods"`
}

// Food holds macros per BaseAmount of Unit, typically per 100 grams.
type Food struct {
	ID         int     `json:"id"`
	CategoryID int     `json:"category_id"`
	Name       string  `json:"name"`
	Unit       string  `json:"unit"`
	BaseAmount float64 `json:"base_amount"`

	Calories float64  `json:"calories"`
	Protein  float64  `json:"protein"`
	Carbs    float64  `json:"carbs"`
	Fat      float64  `json:"fat"`
	Fiber    *float64 `json:"fiber,omitempty"`
	Sugar    *float64 `json:"sugar,omitempty"`
	Sodium   *float64 `json:"sodium,omitempty"`

	Description *string `json:"description,omitempty"`
	IsCustom    bool    `json:"is_custom"`
	IsActive    bool    `json:"is_active"`
}

type CalculatedMacros struct {
	FoodID   int     `json:"food_id"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// CalculateMacros scales the food's macros linearly to the given amount.
func (f *Food) CalculateMacros(amount float64) CalculatedMacros {
	ratio := amount / f.BaseAmount
	return CalculatedMacros{
		FoodID:   f.ID,
		Amount:   amount,
		Unit:     f.Unit,
		Calories: round1(f.Calories * ratio),
		Protein:  round1(f.Protein * ratio),
		Carbs:    round1(f.Carbs * ratio),
		Fat:      round1(f.Fat * ratio),
	}
}

type MuscleGroup struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Icon       *string `json:"icon,omitempty"`
	BodyRegion *string `json:"body_region,omitempty"`
	SortOrder  int     `json:"sort_order"`
}

type MuscleGroupWithExercises struct {
	MuscleGroup
	Exercises []Exercise `json:"exercises"`
}

type Exercise struct {
	ID            int          `json:"id"`
	MuscleGroupID *int         `json:"muscle_group_id,omitempty"`
	Name          string       `json:"name"`
	Type          ExerciseType `json:"type"`
	Equipment     *Equipment   `json:"equipment,omitempty"`
	Difficulty    *string      `json:"difficulty,omitempty"`

	IsCompound   bool `json:"is_compound"`
	IsUnilateral bool `json:"is_unilateral"`
	// IsRisky marks exercises a coach should avoid for injured athletes.
	IsRisky bool `json:"is_risky"`

	SecondaryMuscles *string `json:"secondary_muscles,omitempty"`
	Description      *string `json:"description,omitempty"`
	Instructions     *string `json:"instructions,omitempty"`
	Tips             *string `json:"tips,omitempty"`
	VideoURL         *string `json:"video_url,omitempty"`
	ImageURL         *string `json:"image_url,omitempty"`

	IsCustom bool `json:"is_custom"`
	IsActive bool `json:"is_active"`
}

type SupplementCategory struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Icon        *string `json:"icon,omitempty"`
	Description *string `json:"description,omitempty"`
	SortOrder   int     `json:"sort_order"`
}

type Supplement struct {
	ID         int     `json:"id"`
	CategoryID int     `json:"category_id"`
	Name       string  `json:"name"`
	Brand      *string `json:"brand,omitempty"`

	DefaultDose   *string `json:"default_dose,omitempty"`
	DoseUnit      *string `json:"dose_unit,omitempty"`
	SuggestedTime *string `json:"suggested_time,omitempty"`

	Description       *string `json:"description,omitempty"`
	Benefits          *string `json:"benefits,omitempty"`
	SideEffects       *string `json:"side_effects,omitempty"`
	Contraindications *string `json:"contraindications,omitempty"`

	IsPrescription bool `json:"is_prescription"`
	IsCustom       bool `json:"is_custom"`
	IsActive       bool `json:"is_active"`
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
