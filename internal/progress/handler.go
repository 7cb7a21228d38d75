package progress

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/flexpro/backend/internal/auth"
	"github.com/flexpro/backend/internal/telemetry/tracing"
	"github.com/flexpro/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type progressRepo interface {
	Add(ctx context.Context, record Record, coachID int) (*Record, error)
	ListByAthlete(ctx context.Context, athleteID, coachID, limit int) ([]Record, error)
	Get(ctx context.Context, recordID, coachID int) (*Record, error)
	Delete(ctx context.Context, recordID, coachID int) error
}

type Handler struct {
	repo progressRepo
}

func NewHandler(repo progressRepo) *Handler {
	return &Handler{
		repo: repo,
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

func notFoundOrInternal(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, ErrRecordNotFound),
		errors.Is(err, ErrAthleteNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.Errorf("%s: %s", op, err)
		http.Error(w, op+" failed", http.StatusInternalServerError)
	}
}

func levelInRange(level *int) bool {
	return level == nil || (*level >= 1 && *level <= 10)
}

func percentInRange(percent *int) bool {
	return percent == nil || (*percent >= 0 && *percent <= 100)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.add")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	athleteID, ok := pathID(w, r, "athleteID")
	if !ok {
		return
	}

	var record Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		log.Tracef("add progress record, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	record.AthleteID = athleteID
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now()
	}

	var fieldErrors []pkg.FieldError
	for field, level := range map[string]*int{
		"energy_level":   record.EnergyLevel,
		"sleep_quality":  record.SleepQuality,
		"stress_level":   record.StressLevel,
		"soreness_level": record.SorenessLevel,
	} {
		if !levelInRange(level) {
			fieldErrors = append(fieldErrors, pkg.FieldError{Field: field, Message: "must be between 1 and 10"})
		}
	}
	for field, percent := range map[string]*int{
		"training_adherence": record.TrainingAdherence,
		"diet_adherence":     record.DietAdherence,
	} {
		if !percentInRange(percent) {
			fieldErrors = append(fieldErrors, pkg.FieldError{Field: field, Message: "must be between 0 and 100"})
		}
	}
	if len(fieldErrors) > 0 {
		pkg.SendValidationErrors(w, fieldErrors)
		return
	}

	created, err := handler.repo.Add(ctx, record, coachID)
	if err != nil {
		notFoundOrInternal(w, err, "add progress record")
		return
	}

	pkg.SendJSON(w, http.StatusCreated, created)
}

func (handler *Handler) HandleListByAthlete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.listByAthlete")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	athleteID, ok := pathID(w, r, "athleteID")
	if !ok {
		return
	}

	limit := 0
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := handler.repo.ListByAthlete(ctx, athleteID, coachID, limit)
	if err != nil {
		notFoundOrInternal(w, err, "list progress records")
		return
	}
	if records == nil {
		records = []Record{}
	}

	pkg.SendJSON(w, http.StatusOK, records)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.get")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	recordID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	record, err := handler.repo.Get(ctx, recordID, coachID)
	if err != nil {
		notFoundOrInternal(w, err, "get progress record")
		return
	}

	pkg.SendJSON(w, http.StatusOK, record)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.delete")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	recordID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := handler.repo.Delete(ctx, recordID, coachID); err != nil {
		notFoundOrInternal(w, err, "delete progress record")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
