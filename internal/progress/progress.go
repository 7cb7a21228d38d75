package progress

import "time"

// Record is a periodic check-in for an athlete. Everything except the
// date is optional so a coach can log whatever was measured that week.
type Record struct {
	ID         int       `json:"id"`
	AthleteID  int       `json:"athlete_id"`
	RecordedAt time.Time `json:"recorded_at"`

	Weight            *float64 `json:"weight,omitempty"`
	BodyFatPercentage *float64 `json:"body_fat_percentage,omitempty"`
	MuscleMass        *float64 `json:"muscle_mass,omitempty"`

	Squat1RM    *float64 `json:"squat_1rm,omitempty"`
	Bench1RM    *float64 `json:"bench_1rm,omitempty"`
	Deadlift1RM *float64 `json:"deadlift_1rm,omitempty"`
	OHP1RM      *float64 `json:"ohp_1rm,omitempty"`

	CardioTimeMinutes *int     `json:"cardio_time,omitempty"`
	CardioDistanceKM  *float64 `json:"cardio_distance,omitempty"`
	RestingHeartRate  *int     `json:"resting_heart_rate,omitempty"`

	// levels are on a 1 to 10 scale
	EnergyLevel   *int `json:"energy_level,omitempty"`
	SleepQuality  *int `json:"sleep_quality,omitempty"`
	StressLevel   *int `json:"stress_level,omitempty"`
	SorenessLevel *int `json:"soreness_level,omitempty"`

	// adherence is a percentage
	TrainingAdherence *int `json:"training_adherence,omitempty"`
	DietAdherence     *int `json:"diet_adherence,omitempty"`

	Notes    *string `json:"notes,omitempty"`
	PhotoURL *string `json:"photo_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
