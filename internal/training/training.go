package training

import "time"

type SetType string

const (
	SetNormal    SetType = "normal"
	SetWarmup    SetType = "warmup"
	SetDropset   SetType = "dropset"
	SetSuperset  SetType = "superset"
	SetTriset    SetType = "triset"
	SetGiantset  SetType = "giantset"
	SetRestPause SetType = "rest_pause"
	SetCluster   SetType = "cluster"
)

var knownSetTypes = map[SetType]bool{
	SetNormal:    true,
	SetWarmup:    true,
	SetDropset:   true,
	SetSuperset:  true,
	SetTriset:    true,
	SetGiantset:  true,
	SetRestPause: true,
	SetCluster:   true,
}

type Plan struct {
	ID        int    `json:"id"`
	AthleteID int    `json:"athlete_id"`
	Name      string `json:"name"`

	Description   *string `json:"description,omitempty"`
	DurationWeeks *int    `json:"duration_weeks,omitempty"`
	SplitType     *string `json:"split_type,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Days []Day `json:"days,omitempty"`
}

type Day struct {
	ID        int     `json:"id"`
	PlanID    int     `json:"plan_id"`
	DayNumber int     `json:"day_number"`
	Name      *string `json:"name,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	IsRestDay bool    `json:"is_rest_day"`

	Items []Item `json:"workout_items,omitempty"`
}

// Item is one exercise slot in a training day. Reps is free text so a
// coach can write "8-12" or "to failure".
type Item struct {
	ID         int     `json:"id"`
	DayID      int     `json:"day_id"`
	ExerciseID *int    `json:"exercise_id,omitempty"`
	Order      int     `json:"order"`
	SetType    SetType `json:"set_type"`

	CustomName *string `json:"custom_name,omitempty"`
	Sets       *int    `json:"sets,omitempty"`
	Reps       *string `json:"reps,omitempty"`

	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	Intensity       *string `json:"intensity,omitempty"`

	RestSeconds *int    `json:"rest_seconds,omitempty"`
	Tempo       *string `json:"tempo,omitempty"`
	Notes       *string `json:"notes,omitempty"`

	SupersetGroupID       *string `json:"superset_group_id,omitempty"`
	SecondaryExerciseName *string `json:"secondary_exercise_name,omitempty"`
	TertiaryExerciseName  *string `json:"tertiary_exercise_name,omitempty"`
}

// TotalExercises counts the workout items over all days of the plan.
func (p *Plan) TotalExercises() int {
	total := 0
	for _, day := range p.Days {
		total += len(day.Items)
	}
	return total
}
