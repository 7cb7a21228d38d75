package calculator

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/flexpro/backend/internal/telemetry/metrics"
	"github.com/flexpro/backend/internal/telemetry/tracing"
	"github.com/flexpro/backend/pkg"

	log "github.com/sirupsen/logrus"
)

type BMRRequest struct {
	Weight  float64  `json:"weight"`
	Height  float64  `json:"height"`
	Age     int      `json:"age"`
	Gender  Gender   `json:"gender"`
	BodyFat *float64 `json:"body_fat,omitempty"`
}

type MacrosRequest struct {
	BMRRequest
	ActivityLevel ActivityLevel `json:"activity_level"`
	Goal          Goal          `json:"goal"`
}

type BMIRequest struct {
	Weight float64 `json:"weight"`
	Height float64 `json:"height"`
}

type IdealWeightRequest struct {
	Height float64 `json:"height"`
	Gender Gender  `json:"gender"`
}

type BodyFatRequest struct {
	Waist  float64  `json:"waist"`
	Neck   float64  `json:"neck"`
	Height float64  `json:"height"`
	Gender Gender   `json:"gender"`
	Hip    *float64 `json:"hip,omitempty"`
}

type WaterIntakeRequest struct {
	Weight        float64       `json:"weight"`
	ActivityLevel ActivityLevel `json:"activity_level"`
	IsTrainingDay bool          `json:"is_training_day"`
}

type OneRMRequest struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

type WorkingWeightRequest struct {
	OneRM      float64 `json:"one_rm"`
	TargetReps int     `json:"target_reps"`
}

type ProgressionRequest struct {
	CurrentWeight float64 `json:"current_weight"`
	CurrentReps   int     `json:"current_reps"`
	Weeks         int     `json:"weeks"`
}

type DistributeMacrosRequest struct {
	TotalCalories int          `json:"total_calories"`
	TotalProtein  int          `json:"total_protein"`
	TotalCarbs    int          `json:"total_carbs"`
	TotalFat      int          `json:"total_fat"`
	MealPlanType  MealPlanType `json:"meal_plan_type"`
}

type BMRResponse struct {
	BMR    int    `json:"bmr"`
	Method string `json:"method"`
	Unit   string `json:"unit"`
}

type TDEEResponse struct {
	BMR           int           `json:"bmr"`
	TDEE          int           `json:"tdee"`
	ActivityLevel ActivityLevel `json:"activity_level"`
	Multiplier    float64       `json:"multiplier"`
}

type BodyFatResponse struct {
	BodyFatPercentage float64 `json:"body_fat_percentage"`
	Method            string  `json:"method"`
}

type OneRMResponse struct {
	Estimated1RM float64            `json:"estimated_1rm"`
	InputWeight  float64            `json:"input_weight"`
	InputReps    int                `json:"input_reps"`
	Method       string             `json:"method"`
	Percentages  map[string]float64 `json:"percentages"`
}

// Handler exposes the stateless fitness calculators. Everything here is
// pure math, no storage involved.
type Handler struct {
	metricsManager *metrics.Manager
}

func NewHandler(metricsManager *metrics.Manager) *Handler {
	return &Handler{
		metricsManager: metricsManager,
	}
}

func (handler *Handler) countCalculation(calcType string) {
	if handler.metricsManager != nil {
		handler.metricsManager.CounterCalculations.WithLabelValues(calcType).Inc()
	}
}

func decodeRequest[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("calculator, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

func (req *BMRRequest) validate() []pkg.FieldError {
	var fieldErrors []pkg.FieldError
	if req.Weight < 30 || req.Weight > 300 {
		fieldErrors = append(fieldErrors, pkg.FieldError{Field: "weight", Message: "weight must be between 30 and 300 kg"})
	}
	if req.Height < 100 || req.Height > 250 {
		fieldErrors = append(fieldErrors, pkg.FieldError{Field: "height", Message: "height must be between 100 and 250 cm"})
	}
	if req.Age < 10 || req.Age > 100 {
		fieldErrors = append(fieldErrors, pkg.FieldError{Field: "age", Message: "age must be between 10 and 100"})
	}
	if req.Gender != GenderMale && req.Gender != GenderFemale {
		fieldErrors = append(fieldErrors, pkg.FieldError{Field: "gender", Message: "gender must be male or female"})
	}
	if req.BodyFat != nil && (*req.BodyFat < 1 || *req.BodyFat > 60) {
		fieldErrors = append(fieldErrors, pkg.FieldError{Field: "body_fat", Message: "body fat must be between 1 and 60 percent"})
	}
	return fieldErrors
}

func (handler *Handler) HandleBMR(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.calculator.bmr")
	defer span.End()

	req, ok := decodeRequest[BMRRequest](w, r)
	if !ok {
		return
	}
	if fieldErrors := req.validate(); len(fieldErrors) > 0 {
		pkg.SendValidationErrors(w, fieldErrors)
		return
	}

	var bmr float64
	var method string
	if req.BodyFat != nil && *req.BodyFat > 0 {
		bmr = BMRKatchMcArdle(req.Weight, *req.BodyFat)
		method = "Katch-McArdle"
	} else {
		bmr = BMR(req.Weight, req.Height, req.Age, req.Gender)
		method = "Mifflin-St Jeor"
	}

	handler.countCalculation("bmr")
	pkg.SendJSON(w, http.StatusOK, BMRResponse{
		BMR:    int(math.Round(bmr)),
		Method: method,
		Unit:   "kcal/day",
	})
}

func (handler *Handler) HandleTDEE(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.calculator.tdee")
	defer span.End()

	req, ok := decodeRequest[MacrosRequest](w, r)
	if !ok {
		return
	}
	if fieldErrors := req.validate(); len(fieldErrors) > 0 {
		pkg.SendValidationErrors(w, fieldErrors)
		return
	}

	var bmr float64
	if req.BodyFat != nil && *req.BodyFat > 0 {
		bmr = BMRKatchMcArdle(req.Weight, *req.BodyFat)
	} else {
		bmr = BMR(req.Weight, req.Height, req.Age, req.Gender)
	}

	handler.countCalculation("tdee")
	pkg.SendJSON(w, http.StatusOK, TDEEResponse{
		BMR:           int(math.Round(bmr)),
		TDEE:          TDEE(bmr, req.ActivityLevel),
		ActivityLevel: req.ActivityLevel,
		Multiplier:    ActivityMultiplier(req.ActivityLevel),
	})
}

func (handler *Handler) HandleMacros(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.calculator.macros")
	defer span.End()

	req, ok := decodeRequest[MacrosRequest](w, r)
	if !ok {
		return
	}
	if fieldErrors := req.validate(); len(fieldErrors) > 0 {
		pkg.SendValidationErrors(w, fieldErrors)
		return
	}

	result := GetFullCalculation(FullCalculationParams{
		Weight:        req.Weight,
		Height:        req.Height,
		Age:           req.Age,
		Gender:        req.Gender,
		ActivityLevel: req.ActivityLevel,
		Goal:          req.Goal,
		BodyFat:       req.BodyFat,
	})

	handler.countCalculation("macros")
	pkg.SendJSON(w, http.StatusOK, result)
}

func (handler *Handler) HandleBMI(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.calculator.bmi")
	defer span.End()

	req, ok := decodeRequest[BMIRequest](w, r)
	if !ok {
		return
	}
	if req.Weight <= 0 || req.Height <= 0 {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "weight", Message: "weight and height must be positive"},
		})
		return
	}

	handler.countCalculation("bmi")
	pkg.SendJSON(w, http.StatusOK, BMI(req.Weight, req.Height))
}

func (handler *Handler) HandleIdealWeight(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.calculator.idealWeight")
	defer span.End()

	req, ok := decodeRequest[IdealWeightRequest](w, r)
	if !ok {
		return
	}
	if req.Height < 100 || req.Height > 250 {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "height", Message: "height must be between 100 and 250 cm"},
		})
		return
	}

	handler.countCalculation("ideal_weight")
	pkg.SendJSON(w, http.StatusOK, IdealWeight(req.Height, req.Gender))
}

func (handler *Handler) HandleBodyFat(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.calculator.bodyFat")
	defer span.End()

	req, ok := decodeRequest[BodyFatRequest](w, r)
	if !ok {
		return
	}
	if req.Waist <= req.Neck {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "waist", Message: "waist must be larger than neck"},
		})
		return
	}

	bodyFat, err := EstimateBodyFat(req.Waist, req.Neck, req.Height, req.Gender, req.Hip)
	if err != nil {
		if errors.Is(err, ErrHipRequired) {
			pkg.SendValidationErrors(w, []pkg.FieldError{
				{Field: "hip", Message: "hip circumference required for females"},
			})
			return
		}
		http.Error(w, "body fat estimate failed", http.StatusInternalServerError)
		return
	}

	handler.countCalculation("body_fat")
	pkg.SendJSON(w, http.StatusOK, BodyFatResponse{
		BodyFatPercentage: bodyFat,
		Method:            "US Navy Method",
	})
}

func (handler *Handler) HandleWaterIntake(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.calculator.waterIntake")
	defer span.End()

	req, ok := decodeRequest[WaterIntakeRequest](w, r)
	if !ok {
		return
	}
	if req.Weight < 30 || req.Weight > 300 {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "weight", Message: "weight must be between 30 and 300 kg"},
		})
		return
	}

	handler.countCalculation("water_intake")
	pkg.SendJSON(w, http.StatusOK, CalculateWaterIntake(req.Weight, req.ActivityLevel, req.IsTrainingDay))
}

func (handler *Handler) HandleOneRM(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.calculator.oneRM")
	defer span.End()

	req, ok := decodeRequest[OneRMRequest](w, r)
	if !ok {
		return
	}
	if req.Weight <= 0 || req.Reps < 1 || req.Reps > 30 {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "reps", Message: "weight must be positive, reps between 1 and 30"},
		})
		return
	}

	oneRM := Calculate1RM(req.Weight, req.Reps)

	handler.countCalculation("one_rm")
	pkg.SendJSON(w, http.StatusOK, OneRMResponse{
		Estimated1RM: round1(oneRM),
		InputWeight:  req.Weight,
		InputReps:    req.Reps,
		Method:       "Brzycki Formula",
		Percentages: map[string]float64{
			"90%": round1(oneRM * 0.9),
			"85%": round1(oneRM * 0.85),
			"80%": round1(oneRM * 0.8),
			"75%": round1(oneRM * 0.75),
			"70%": round1(oneRM * 0.7),
		},
	})
}

func (handler *Handler) HandleWorkingWeight(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.calculator.workingWeight")
	defer span.End()

	req, ok := decodeRequest[WorkingWeightRequest](w, r)
	if !ok {
		return
	}
	if req.OneRM <= 0 || req.TargetReps < 1 || req.TargetReps > 20 {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "target_reps", Message: "one_rm must be positive, target_reps between 1 and 20"},
		})
		return
	}

	handler.countCalculation("working_weight")
	pkg.SendJSON(w, http.StatusOK, CalculateWorkingWeight(req.OneRM, req.TargetReps))
}

func (handler *Handler) HandleProgression(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.calculator.progression")
	defer span.End()

	req, ok := decodeRequest[ProgressionRequest](w, r)
	if !ok {
		return
	}
	if req.Weeks == 0 {
		req.Weeks = 4
	}
	if req.CurrentWeight <= 0 || req.CurrentReps < 1 || req.CurrentReps > 20 || req.Weeks < 1 || req.Weeks > 12 {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "current_reps", Message: "weight must be positive, reps between 1 and 20, weeks between 1 and 12"},
		})
		return
	}

	handler.countCalculation("progression")
	pkg.SendJSON(w, http.StatusOK, GenerateProgression(req.CurrentWeight, req.CurrentReps, req.Weeks))
}

func (handler *Handler) HandleTrainingSplit(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.calculator.trainingSplit")
	defer span.End()

	level := ExperienceLevel(r.URL.Query().Get("experience"))
	if _, ok := splitRecommendations[level]; !ok {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "experience", Message: "experience must be beginner, intermediate, advanced or elite"},
		})
		return
	}

	availableDays := 4
	if daysStr := r.URL.Query().Get("available_days"); daysStr != "" {
		days, err := strconv.Atoi(daysStr)
		if err != nil || days < 2 || days > 7 {
			pkg.SendValidationErrors(w, []pkg.FieldError{
				{Field: "available_days", Message: "available_days must be between 2 and 7"},
			})
			return
		}
		availableDays = days
	}

	handler.countCalculation("training_split")
	pkg.SendJSON(w, http.StatusOK, SuggestSplit(level, availableDays))
}

func (handler *Handler) HandleRepRanges(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.calculator.repRanges")
	defer span.End()

	handler.countCalculation("rep_ranges")
	pkg.SendJSON(w, http.StatusOK, repRangesByGoal)
}

func (handler *Handler) HandleDistributeMacros(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.calculator.distributeMacros")
	defer span.End()

	req, ok := decodeRequest[DistributeMacrosRequest](w, r)
	if !ok {
		return
	}
	if req.TotalCalories < 500 || req.TotalCalories > 10000 {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "total_calories", Message: "total_calories must be between 500 and 10000"},
		})
		return
	}

	handler.countCalculation("distribute_macros")
	pkg.SendJSON(w, http.StatusOK, DistributeMacros(
		req.TotalCalories, req.TotalProtein, req.TotalCarbs, req.TotalFat, req.MealPlanType,
	))
}
