package athletes

import (
	"time"

	"github.com/flexpro/backend/internal/calculator"
)

// Athlete is a coached client. Only the owning coach can see or touch it.
type Athlete struct {
	ID      int    `json:"id"`
	CoachID int    `json:"coach_id"`
	Name    string `json:"name"`

	Age             *int                        `json:"age,omitempty"`
	Gender          *calculator.Gender          `json:"gender,omitempty"`
	Height          *float64                    `json:"height,omitempty"`
	Weight          *float64                    `json:"weight,omitempty"`
	Phone           *string                     `json:"phone,omitempty"`
	Email           *string                     `json:"email,omitempty"`
	Goal            *calculator.Goal            `json:"goal,omitempty"`
	ActivityLevel   *calculator.ActivityLevel   `json:"activity_level,omitempty"`
	ExperienceLevel *calculator.ExperienceLevel `json:"experience_level,omitempty"`

	Job               *string `json:"job,omitempty"`
	SleepQuality      *string `json:"sleep_quality,omitempty"`
	Allergies         *string `json:"allergies,omitempty"`
	MedicalConditions *string `json:"medical_conditions,omitempty"`
	Notes             *string `json:"notes,omitempty"`

	SubscriptionStart  *time.Time `json:"subscription_start,omitempty"`
	SubscriptionMonths *int       `json:"subscription_months,omitempty"`
	SubscriptionAmount *int       `json:"subscription_amount,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Injury is tracked so risky exercises can be kept out of training plans.
type Injury struct {
	ID          int        `json:"id"`
	AthleteID   int        `json:"athlete_id"`
	BodyPart    string     `json:"body_part"`
	Description *string    `json:"description,omitempty"`
	Severity    *string    `json:"severity,omitempty"`
	IsHealed    bool       `json:"is_healed"`
	InjuryDate  *time.Time `json:"injury_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Measurement is a dated set of body circumferences, newest first.
type Measurement struct {
	ID         int       `json:"id"`
	AthleteID  int       `json:"athlete_id"`
	RecordedAt time.Time `json:"recorded_at"`

	Weight       *float64 `json:"weight,omitempty"`
	BodyFat      *float64 `json:"body_fat,omitempty"`
	Neck         *float64 `json:"neck,omitempty"`
	Chest        *float64 `json:"chest,omitempty"`
	Shoulders    *float64 `json:"shoulders,omitempty"`
	Waist        *float64 `json:"waist,omitempty"`
	Hip          *float64 `json:"hip,omitempty"`
	ThighRight   *float64 `json:"thigh_right,omitempty"`
	ThighLeft    *float64 `json:"thigh_left,omitempty"`
	ArmRight     *float64 `json:"arm_right,omitempty"`
	ArmLeft      *float64 `json:"arm_left,omitempty"`
	ForearmRight *float64 `json:"forearm_right,omitempty"`
	ForearmLeft  *float64 `json:"forearm_left,omitempty"`
	CalfRight    *float64 `json:"calf_right,omitempty"`
	CalfLeft     *float64 `json:"calf_left,omitempty"`
	Wrist        *float64 `json:"wrist,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
}

// NutritionReport is the full calculated nutrition picture of an athlete.
type NutritionReport struct {
	calculator.FullCalculation
	BMI         calculator.BMIResult        `json:"bmi"`
	IdealWeight calculator.IdealWeightRange `json:"ideal_weight"`
}
