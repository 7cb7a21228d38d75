package calculator

import (
	"fmt"
	"math"
	"strings"
)

type ExperienceLevel string

const (
	LevelBeginner     ExperienceLevel = "beginner"
	LevelIntermediate ExperienceLevel = "intermediate"
	LevelAdvanced     ExperienceLevel = "advanced"
	LevelElite        ExperienceLevel = "elite"
)

type SplitType string

const (
	SplitFullBody   SplitType = "full_body"
	SplitUpperLower SplitType = "upper_lower"
	SplitPPL        SplitType = "push_pull_legs"
	SplitBro        SplitType = "bro_split"
	SplitArnold     SplitType = "arnold"
)

type SplitRecommendation struct {
	Split         SplitType `json:"split"`
	DaysPerWeek   int       `json:"days_per_week"`
	SetsPerMuscle int       `json:"sets_per_muscle"`
	RepRange      string    `json:"rep_range"`
	RestSeconds   int       `json:"rest_seconds"`
}

type RepRange struct {
	Min         int    `json:"min"`
	Max         int    `json:"max"`
	Description string `json:"description"`
}

type WorkingWeight struct {
	Weight        float64 `json:"weight"`
	Percentage1RM int     `json:"percentage_1rm"`
	TargetReps    int     `json:"target_reps"`
}

type ProgressionWeek struct {
	Week         int     `json:"week"`
	Weight       float64 `json:"weight"`
	Reps         int     `json:"reps"`
	Estimated1RM float64 `json:"estimated_1rm"`
}

type VolumeRecommendation struct {
	SetsPerWeek    int    `json:"sets_per_week"`
	SetsPerSession int    `json:"sets_per_session"`
	RepRange       string `json:"rep_range"`
	RestSeconds    int    `json:"rest_seconds"`
}

var splitRecommendations = map[ExperienceLevel]SplitRecommendation{
	LevelBeginner: {
		Split:         SplitFullBody,
		DaysPerWeek:   3,
		SetsPerMuscle: 6,
		RepRange:      "8-12",
		RestSeconds:   90,
	},
	LevelIntermediate: {
		Split:         SplitUpperLower,
		DaysPerWeek:   4,
		SetsPerMuscle: 12,
		RepRange:      "6-12",
		RestSeconds:   75,
	},
	LevelAdvanced: {
		Split:         SplitPPL,
		DaysPerWeek:   6,
		SetsPerMuscle: 16,
		RepRange:      "4-15",
		RestSeconds:   60,
	},
	LevelElite: {
		Split:         SplitArnold,
		DaysPerWeek:   6,
		SetsPerMuscle: 20,
		RepRange:      "1-20",
		RestSeconds:   45,
	},
}

var repRangesByGoal = map[Goal]RepRange{
	GoalStrength:  {Min: 1, Max: 5, Description: "pure strength"},
	GoalBulk:      {Min: 6, Max: 12, Description: "hypertrophy"},
	GoalCut:       {Min: 8, Max: 15, Description: "muscle retention while cutting"},
	GoalEndurance: {Min: 15, Max: 25, Description: "muscular endurance"},
}

// injuryExerciseRestrictions maps an affected body part to exercises
// a coach should keep out of the plan.
var injuryExerciseRestrictions = map[string][]string{
	"lower back": {"deadlift", "heavy barbell squat", "good morning", "pull-up"},
	"knee":       {"deep squat", "lunge", "narrow leg press", "box jump"},
	"shoulder":   {"behind-the-neck press", "upright row", "deep dip"},
	"elbow":      {"close-grip bench press", "heavy barbell curl"},
	"wrist":      {"barbell bench press", "knuckle push-up"},
}

var volumeMultipliers = []struct {
	muscleKey  string
	multiplier float64
}{
	{"legs", 1.2}, // big muscles take more volume
	{"back", 1.1},
	{"chest", 1.0},
	{"shoulders", 0.8},
	{"arms", 0.7}, // small muscles take less
}

// SuggestSplit picks a training split for the experience level, then
// adjusts it to the days the athlete can actually train.
func SuggestSplit(level ExperienceLevel, availableDays int) SplitRecommendation {
	rec, ok := splitRecommendations[level]
	if !ok {
		rec = splitRecommendations[LevelBeginner]
	}

	switch {
	case availableDays <= 2:
		rec.Split = SplitFullBody
		rec.DaysPerWeek = 2
	case availableDays == 3:
		if level == LevelBeginner || level == LevelIntermediate {
			rec.Split = SplitFullBody
		} else {
			rec.Split = SplitPPL
		}
		rec.DaysPerWeek = 3
	case availableDays == 4:
		rec.Split = SplitUpperLower
		rec.DaysPerWeek = 4
	case availableDays >= 5:
		if level == LevelAdvanced || level == LevelElite {
			rec.Split = SplitPPL
			if availableDays < 6 {
				rec.DaysPerWeek = availableDays
			} else {
				rec.DaysPerWeek = 6
			}
		}
	}

	return rec
}

func GetRepRange(goal Goal) RepRange {
	if rr, ok := repRangesByGoal[goal]; ok {
		return rr
	}
	return repRangesByGoal[GoalBulk]
}

// GetRestrictedExercises collects all exercises banned by the given
// injuries. Matching is a case insensitive substring check, so an injury
// noted as "chronic lower back pain" still restricts deadlifts.
func GetRestrictedExercises(injuries []string) []string {
	seen := map[string]bool{}
	var restricted []string
	for _, injury := range injuries {
		injuryLower := strings.ToLower(injury)
		for bodyPart, exercises := range injuryExerciseRestrictions {
			if !strings.Contains(injuryLower, bodyPart) {
				continue
			}
			for _, e := range exercises {
				if !seen[e] {
					seen[e] = true
					restricted = append(restricted, e)
				}
			}
		}
	}
	return restricted
}

// CalculateVolume sizes the weekly and per-session training volume
// for a muscle group, given the athlete's level and goal.
func CalculateVolume(level ExperienceLevel, muscleGroup string, goal Goal) VolumeRecommendation {
	base, ok := splitRecommendations[level]
	if !ok {
		base = splitRecommendations[LevelBeginner]
	}
	repRange := GetRepRange(goal)

	multiplier := 1.0
	muscleLower := strings.ToLower(muscleGroup)
	for _, vm := range volumeMultipliers {
		if strings.Contains(muscleLower, vm.muscleKey) {
			multiplier = vm.multiplier
			break
		}
	}

	setsPerWeek := int(math.Round(float64(base.SetsPerMuscle) * multiplier))

	return VolumeRecommendation{
		SetsPerWeek:    setsPerWeek,
		SetsPerSession: int(math.Round(float64(setsPerWeek) / (float64(base.DaysPerWeek) / 2))),
		RepRange:       repRange.String(),
		RestSeconds:    base.RestSeconds,
	}
}

// Calculate1RM estimates the one rep max with the Brzycki formula.
// Above 12 reps Brzycki drifts badly, so a linear estimate is used instead.
func Calculate1RM(weight float64, reps int) float64 {
	if reps == 1 {
		return weight
	}
	if reps > 12 {
		return weight * (1 + 0.025*float64(reps))
	}
	return weight * (36 / (37 - float64(reps)))
}

// percentage of 1RM a lifter can typically move for a given rep count
var repPercentageMap = map[int]int{
	1: 100, 2: 95, 3: 93, 4: 90, 5: 87,
	6: 85, 7: 83, 8: 80, 9: 77, 10: 75,
	11: 73, 12: 70, 15: 65, 20: 60,
}

func CalculateWorkingWeight(oneRM float64, targetReps int) WorkingWeight {
	percentage, ok := repPercentageMap[targetReps]
	if !ok {
		percentage = 70
	}

	return WorkingWeight{
		Weight:        round1(oneRM * float64(percentage) / 100),
		Percentage1RM: percentage,
		TargetReps:    targetReps,
	}
}

// GenerateProgression builds a week by week overload plan. Odd weeks add
// a rep (capped at 12), even weeks add 2.5% weight and drop two reps
// (floored at 6).
func GenerateProgression(currentWeight float64, currentReps, weeks int) []ProgressionWeek {
	progression := make([]ProgressionWeek, 0, weeks)
	weight := currentWeight
	reps := currentReps

	for week := 1; week <= weeks; week++ {
		if week%2 == 1 {
			if reps+1 <= 12 {
				reps++
			} else {
				reps = 12
			}
		} else {
			weight = round1(weight * 1.025)
			if reps-2 >= 6 {
				reps -= 2
			} else {
				reps = 6
			}
		}

		progression = append(progression, ProgressionWeek{
			Week:         week,
			Weight:       weight,
			Reps:         reps,
			Estimated1RM: round1(Calculate1RM(weight, reps)),
		})
	}

	return progression
}

func (rr RepRange) String() string {
	return fmt.Sprintf("%d-%d", rr.Min, rr.Max)
}
