package diet

import "time"

type MealType string

const (
	MealBreakfast   MealType = "breakfast"
	MealSnack1      MealType = "snack_1"
	MealLunch       MealType = "lunch"
	MealSnack2      MealType = "snack_2"
	MealDinner      MealType = "dinner"
	MealSnack3      MealType = "snack_3"
	MealPreWorkout  MealType = "pre_workout"
	MealPostWorkout MealType = "post_workout"
)

var knownMealTypes = map[MealType]bool{
	MealBreakfast:   true,
	MealSnack1:      true,
	MealLunch:       true,
	MealSnack2:      true,
	MealDinner:      true,
	MealSnack3:      true,
	MealPreWorkout:  true,
	MealPostWorkout: true,
}

type Plan struct {
	ID        int    `json:"id"`
	AthleteID int    `json:"athlete_id"`
	Name      string `json:"name"`

	Description    *string `json:"description,omitempty"`
	TargetCalories *int    `json:"target_calories,omitempty"`
	TargetProtein  *int    `json:"target_protein,omitempty"`
	TargetCarbs    *int    `json:"target_carbs,omitempty"`
	TargetFat      *int    `json:"target_fat,omitempty"`
	GeneralNotes   *string `json:"general_notes,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []Item `json:"items,omitempty"`
}

// Item is one food entry in a diet plan. Its macros are cached at write
// time so plan reads never have to join the foods catalog.
type Item struct {
	ID     int      `json:"id"`
	PlanID int      `json:"plan_id"`
	FoodID *int     `json:"food_id,omitempty"`
	Order  int      `json:"order"`
	Meal   MealType `json:"meal"`

	CustomName *string `json:"custom_name,omitempty"`
	Amount     float64 `json:"amount"`
	Unit       *string `json:"unit,omitempty"`

	CalculatedCalories *float64 `json:"calculated_calories,omitempty"`
	CalculatedProtein  *float64 `json:"calculated_protein,omitempty"`
	CalculatedCarbs    *float64 `json:"calculated_carbs,omitempty"`
	CalculatedFat      *float64 `json:"calculated_fat,omitempty"`

	Notes *string `json:"notes,omitempty"`
}

type MacroSummary struct {
	TargetCalories *int `json:"target_calories,omitempty"`
	TargetProtein  *int `json:"target_protein,omitempty"`
	TargetCarbs    *int `json:"target_carbs,omitempty"`
	TargetFat      *int `json:"target_fat,omitempty"`

	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

type MealSummary struct {
	Meal       MealType `json:"meal"`
	ItemsCount int      `json:"items_count"`
	Calories   float64  `json:"calories"`
	Protein    float64  `json:"protein"`
	Carbs      float64  `json:"carbs"`
	Fat        float64  `json:"fat"`
}

// Summarize folds the plan's cached item macros into totals next to the
// plan targets.
func (p *Plan) Summarize() MacroSummary {
	summary := MacroSummary{
		TargetCalories: p.TargetCalories,
		TargetProtein:  p.TargetProtein,
		TargetCarbs:    p.TargetCarbs,
		TargetFat:      p.TargetFat,
	}
	for _, item := range p.Items {
		summary.Calories += floatOrZero(item.CalculatedCalories)
		summary.Protein += floatOrZero(item.CalculatedProtein)
		summary.Carbs += floatOrZero(item.CalculatedCarbs)
		summary.Fat += floatOrZero(item.CalculatedFat)
	}
	return summary
}

// SummarizeMeals groups the plan's items per meal, in the order meals
// first appear in the plan.
func (p *Plan) SummarizeMeals() []MealSummary {
	var order []MealType
	byMeal := map[MealType]*MealSummary{}
	for _, item := range p.Items {
		summary, ok := byMeal[item.Meal]
		if !ok {
			summary = &MealSummary{Meal: item.Meal}
			byMeal[item.Meal] = summary
			order = append(order, item.Meal)
		}
		summary.ItemsCount++
		summary.Calories += floatOrZero(item.CalculatedCalories)
		summary.Protein += floatOrZero(item.CalculatedProtein)
		summary.Carbs += floatOrZero(item.CalculatedCarbs)
		summary.Fat += floatOrZero(item.CalculatedFat)
	}

	summaries := make([]MealSummary, 0, len(order))
	for _, meal := range order {
		summaries = append(summaries, *byMeal[meal])
	}
	return summaries
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
