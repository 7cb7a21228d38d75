package athletes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/flexpro/backend/internal/auth"
	"github.com/flexpro/backend/internal/calculator"
	"github.com/flexpro/backend/internal/telemetry/metrics"
	"github.com/flexpro/backend/internal/telemetry/tracing"
	"github.com/flexpro/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type athletesRepo interface {
	Create(ctx context.Context, athlete Athlete) (*Athlete, error)
	Get(ctx context.Context, id, coachID int) (*Athlete, error)
	List(ctx context.Context, params ListParams) ([]Athlete, error)
	Search(ctx context.Context, coachID int, query string, limit int) ([]Athlete, error)
	Update(ctx context.Context, athlete *Athlete) error
	Delete(ctx context.Context, id, coachID int) error
	ToggleActive(ctx context.Context, id, coachID int) (*Athlete, error)
	AddInjury(ctx context.Context, injury Injury) (*Injury, error)
	ListInjuries(ctx context.Context, athleteID int) ([]Injury, error)
	UpdateInjury(ctx context.Context, injuryID, coachID int, isHealed bool) (*Injury, error)
	DeleteInjury(ctx context.Context, injuryID, coachID int) error
	AddMeasurement(ctx context.Context, m Measurement) (*Measurement, error)
	ListMeasurements(ctx context.Context, athleteID, limit int) ([]Measurement, error)
}

type Handler struct {
	repo           athletesRepo
	metricsManager *metrics.Manager
}

func NewHandler(repo athletesRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		metricsManager: metricsManager,
	}
}

func coachIDFromRequest(w http.ResponseWriter, r *http.Request) (int, bool) {
	coachID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return 0, false
	}
	return coachID, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func queryIntOr(r *http.Request, name string, fallback int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.athletes.create")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}

	var athlete Athlete
	if err := json.NewDecoder(r.Body).Decode(&athlete); err != nil {
		log.Tracef("create athlete, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(athlete.Name) == "" {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "name", Message: "name required"},
		})
		return
	}

	athlete.CoachID = coachID
	created, err := handler.repo.Create(ctx, athlete)
	if err != nil {
		log.Errorf("failed to create athlete for coach %d: %s", coachID, err)
		http.Error(w, "create athlete failed", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterAthletesCreated.Inc()
	log.Debugf("new athlete created: %d [%s]", created.ID, created.Name)

	pkg.SendJSON(w, http.StatusCreated, created)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.athletes.list")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}

	limit := queryIntOr(r, "limit", 50)
	if limit < 1 || limit > 100 {
		limit = 50
	}

	list, err := handler.repo.List(ctx, ListParams{
		CoachID:    coachID,
		ActiveOnly: r.URL.Query().Get("active_only") == "true",
		Skip:       queryIntOr(r, "skip", 0),
		Limit:      limit,
	})
	if err != nil {
		log.Errorf("failed to list athletes for coach %d: %s", coachID, err)
		http.Error(w, "list athletes failed", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Athlete{}
	}

	pkg.SendJSON(w, http.StatusOK, list)
}

func (handler *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.athletes.search")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "q", Message: "search query required"},
		})
		return
	}

	limit := queryIntOr(r, "limit", 20)
	if limit < 1 || limit > 50 {
		limit = 20
	}

	found, err := handler.repo.Search(ctx, coachID, query, limit)
	if err != nil {
		log.Errorf("failed to search athletes for coach %d: %s", coachID, err)
		http.Error(w, "search athletes failed", http.StatusInternalServerError)
		return
	}
	if found == nil {
		found = []Athlete{}
	}

	pkg.SendJSON(w, http.StatusOK, found)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.athletes.get")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	athlete, err := handler.repo.Get(ctx, id, coachID)
	if err != nil {
		if errors.Is(err, ErrAthleteNotFound) {
			pkg.SendAPIError(w, http.StatusNotFound, "athlete not found")
			return
		}
		log.Errorf("failed to get athlete %d: %s", id, err)
		http.Error(w, "get athlete failed", http.StatusInternalServerError)
		return
	}

	pkg.SendJSON(w, http.StatusOK, athlete)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.athletes.update")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var athlete Athlete
	if err := json.NewDecoder(r.Body).Decode(&athlete); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(athlete.Name) == "" {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "name", Message: "name required"},
		})
		return
	}

	athlete.ID = id
	athlete.CoachID = coachID
	if err := handler.repo.Update(ctx, &athlete); err != nil {
		if errors.Is(err, ErrAthleteNotFound) {
			pkg.SendAPIError(w, http.StatusNotFound, "athlete not found")
			return
		}
		log.Errorf("failed to update athlete %d: %s", id, err)
		http.Error(w, "update athlete failed", http.StatusInternalServerError)
		return
	}

	updated, err := handler.repo.Get(ctx, id, coachID)
	if err != nil {
		log.Errorf("failed to get updated athlete %d: %s", id, err)
		http.Error(w, "update athlete failed", http.StatusInternalServerError)
		return
	}

	pkg.SendJSON(w, http.StatusOK, updated)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.athletes.delete")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := handler.repo.Delete(ctx, id, coachID); err != nil {
		if errors.Is(err, ErrAthleteNotFound) {
			pkg.SendAPIError(w, http.StatusNotFound, "athlete not found")
			return
		}
		log.Errorf("failed to delete athlete %d: %s", id, err)
		http.Error(w, "delete athlete failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) HandleToggleActive(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.athletes.toggleActive")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	athlete, err := handler.repo.ToggleActive(ctx, id, coachID)
	if err != nil {
		if errors.Is(err, ErrAthleteNotFound) {
			pkg.SendAPIError(w, http.StatusNotFound, "athlete not found")
			return
		}
		log.Errorf("failed to toggle athlete %d: %s", id, err)
		http.Error(w, "toggle athlete failed", http.StatusInternalServerError)
		return
	}

	pkg.SendJSON(w, http.StatusOK, athlete)
}

// HandleNutrition computes the athlete's full nutrition needs. The latest
// recorded body fat measurement, when present, switches the BMR method
// to Katch-McArdle.
func (handler *Handler) HandleNutrition(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.athletes.nutrition")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	athlete, err := handler.repo.Get(ctx, id, coachID)
	if err != nil {
		if errors.Is(err, ErrAthleteNotFound) {
			pkg.SendAPIError(w, http.StatusNotFound, "athlete not found")
			return
		}
		log.Errorf("failed to get athlete %d: %s", id, err)
		http.Error(w, "get athlete failed", http.StatusInternalServerError)
		return
	}

	if athlete.Weight == nil || athlete.Height == nil || athlete.Age == nil || athlete.Gender == nil {
		pkg.SendAPIError(w, http.StatusBadRequest, "weight, height, age and gender are required for nutrition calculation")
		return
	}

	var bodyFat *float64
	measurements, err := handler.repo.ListMeasurements(ctx, id, 1)
	if err != nil {
		// not fatal, fall back to the formula without body fat
		log.Errorf("failed to get measurements for athlete %d: %s", id, err)
	} else if len(measurements) > 0 {
		bodyFat = measurements[0].BodyFat
	}

	activityLevel := calculator.ActivityModerate
	if athlete.ActivityLevel != nil {
		activityLevel = *athlete.ActivityLevel
	}
	goal := calculator.GoalMaintain
	if athlete.Goal != nil {
		goal = *athlete.Goal
	}

	report := NutritionReport{
		FullCalculation: calculator.GetFullCalculation(calculator.FullCalculationParams{
			Weight:        *athlete.Weight,
			Height:        *athlete.Height,
			Age:           *athlete.Age,
			Gender:        *athlete.Gender,
			ActivityLevel: activityLevel,
			Goal:          goal,
			BodyFat:       bodyFat,
		}),
		BMI:         calculator.BMI(*athlete.Weight, *athlete.Height),
		IdealWeight: calculator.IdealWeight(*athlete.Height, *athlete.Gender),
	}

	pkg.SendJSON(w, http.StatusOK, report)
}

func (handler *Handler) HandleAddInjury(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.athletes.addInjury")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	athleteID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	// ownership check first
	if _, err := handler.repo.Get(ctx, athleteID, coachID); err != nil {
		if errors.Is(err, ErrAthleteNotFound) {
			pkg.SendAPIError(w, http.StatusNotFound, "athlete not found")
			return
		}
		log.Errorf("failed to get athlete %d: %s", athleteID, err)
		http.Error(w, "get athlete failed", http.StatusInternalServerError)
		return
	}

	var injury Injury
	if err := json.NewDecoder(r.Body).Decode(&injury); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(injury.BodyPart) == "" {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "body_part", Message: "body part required"},
		})
		return
	}

	injury.AthleteID = athleteID
	added, err := handler.repo.AddInjury(ctx, injury)
	if err != nil {
		log.Errorf("failed to add injury for athlete %d: %s", athleteID, err)
		http.Error(w, "add injury failed", http.StatusInternalServerError)
		return
	}

	pkg.SendJSON(w, http.StatusCreated, added)
}

func (handler *Handler) HandleListInjuries(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.athletes.listInjuries")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	athleteID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if _, err := handler.repo.Get(ctx, athleteID, coachID); err != nil {
		if errors.Is(err, ErrAthleteNotFound) {
			pkg.SendAPIError(w, http.StatusNotFound, "athlete not found")
			return
		}
		log.Errorf("failed to get athlete %d: %s", athleteID, err)
		http.Error(w, "get athlete failed", http.StatusInternalServerError)
		return
	}

	injuries, err := handler.repo.ListInjuries(ctx, athleteID)
	if err != nil {
		log.Errorf("failed to list injuries for athlete %d: %s", athleteID, err)
		http.Error(w, "list injuries failed", http.StatusInternalServerError)
		return
	}
	if injuries == nil {
		injuries = []Injury{}
	}

	pkg.SendJSON(w, http.StatusOK, injuries)
}

func (handler *Handler) HandleUpdateInjury(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.athletes.updateInjury")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	injuryID, ok := pathID(w, r, "injuryID")
	if !ok {
		return
	}

	var params struct {
		IsHealed bool `json:"is_healed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("update injury, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	injury, err := handler.repo.UpdateInjury(ctx, injuryID, coachID, params.IsHealed)
	if err != nil {
		if errors.Is(err, ErrInjuryNotFound) {
			pkg.SendAPIError(w, http.StatusNotFound, "injury not found")
			return
		}
		log.Errorf("failed to update injury %d: %s", injuryID, err)
		http.Error(w, "update injury failed", http.StatusInternalServerError)
		return
	}

	pkg.SendJSON(w, http.StatusOK, injury)
}

func (handler *Handler) HandleDeleteInjury(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.athletes.deleteInjury")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	injuryID, ok := pathID(w, r, "injuryID")
	if !ok {
		return
	}

	if err := handler.repo.DeleteInjury(ctx, injuryID, coachID); err != nil {
		if errors.Is(err, ErrInjuryNotFound) {
			pkg.SendAPIError(w, http.StatusNotFound, "injury not found")
			return
		}
		log.Errorf("failed to delete injury %d: %s", injuryID, err)
		http.Error(w, "delete injury failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) HandleAddMeasurement(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.athletes.addMeasurement")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	athleteID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if _, err := handler.repo.Get(ctx, athleteID, coachID); err != nil {
		if errors.Is(err, ErrAthleteNotFound) {
			pkg.SendAPIError(w, http.StatusNotFound, "athlete not found")
			return
		}
		log.Errorf("failed to get athlete %d: %s", athleteID, err)
		http.Error(w, "get athlete failed", http.StatusInternalServerError)
		return
	}

	var m Measurement
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	m.AthleteID = athleteID
	if m.RecordedAt.IsZero() {
		m.RecordedAt = time.Now()
	}

	added, err := handler.repo.AddMeasurement(ctx, m)
	if err != nil {
		log.Errorf("failed to add measurement for athlete %d: %s", athleteID, err)
		http.Error(w, "add measurement failed", http.StatusInternalServerError)
		return
	}

	pkg.SendJSON(w, http.StatusCreated, added)
}

func (handler *Handler) HandleListMeasurements(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.athletes.listMeasurements")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	athleteID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if _, err := handler.repo.Get(ctx, athleteID, coachID); err != nil {
		if errors.Is(err, ErrAthleteNotFound) {
			pkg.SendAPIError(w, http.StatusNotFound, "athlete not found")
			return
		}
		log.Errorf("failed to get athlete %d: %s", athleteID, err)
		http.Error(w, "get athlete failed", http.StatusInternalServerError)
		return
	}

	limit := queryIntOr(r, "limit", 10)
	if limit < 1 || limit > 50 {
		limit = 10
	}

	measurements, err := handler.repo.ListMeasurements(ctx, athleteID, limit)
	if err != nil {
		log.Errorf("failed to list measurements for athlete %d: %s", athleteID, err)
		http.Error(w, "list measurements failed", http.StatusInternalServerError)
		return
	}
	if measurements == nil {
		measurements = []Measurement{}
	}

	pkg.SendJSON(w, http.StatusOK, measurements)
}
