package training

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/flexpro/backend/internal/auth"
	"github.com/flexpro/backend/internal/calculator"
	"github.com/flexpro/backend/internal/telemetry/metrics"
	"github.com/flexpro/backend/internal/telemetry/tracing"
	"github.com/flexpro/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type trainingRepo interface {
	ListByAthlete(ctx context.Context, athleteID, coachID int, activeOnly bool) ([]Plan, error)
	GetActive(ctx context.Context, athleteID, coachID int) (*Plan, error)
	Get(ctx context.Context, planID, coachID int) (*Plan, error)
	Create(ctx context.Context, plan Plan, coachID int) (*Plan, error)
	Update(ctx context.Context, planID, coachID int, update PlanUpdate) (*Plan, error)
	Delete(ctx context.Context, planID, coachID int) error
	Activate(ctx context.Context, planID, coachID int) (*Plan, error)
	AddDay(ctx context.Context, planID, coachID int, day Day) (*Day, error)
	UpdateDay(ctx context.Context, dayID, coachID int, update DayUpdate) (*Day, error)
	DeleteDay(ctx context.Context, dayID, coachID int) error
	AddItem(ctx context.Context, dayID, coachID int, item Item) (*Item, error)
	UpdateItem(ctx context.Context, itemID, coachID int, update ItemUpdate) (*Item, error)
	DeleteItem(ctx context.Context, itemID, coachID int) error
	ReorderItems(ctx context.Context, dayID, coachID int, itemIDs []int) error
	ActiveInjuryBodyParts(ctx context.Context, athleteID, coachID int) ([]string, error)
}

type Handler struct {
	repo           trainingRepo
	metricsManager *metrics.Manager
}

func NewHandler(repo trainingRepo, metricsManager *metrics.Manager) *Handler {
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

func notFoundOrInternal(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, ErrPlanNotFound),
		errors.Is(err, ErrDayNotFound),
		errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrAthleteNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.Errorf("%s: %s", op, err)
		http.Error(w, op+" failed", http.StatusInternalServerError)
	}
}

func (handler *Handler) HandleListByAthlete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.listByAthlete")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	athleteID, ok := pathID(w, r, "athleteID")
	if !ok {
		return
	}
	activeOnly := r.URL.Query().Get("active_only") == "true"

	plans, err := handler.repo.ListByAthlete(ctx, athleteID, coachID, activeOnly)
	if err != nil {
		notFoundOrInternal(w, err, "list training plans")
		return
	}
	if plans == nil {
		plans = []Plan{}
	}

	pkg.SendJSON(w, http.StatusOK, plans)
}

func (handler *Handler) HandleGetActive(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.getActive")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	athleteID, ok := pathID(w, r, "athleteID")
	if !ok {
		return
	}

	plan, err := handler.repo.GetActive(ctx, athleteID, coachID)
	if err != nil {
		notFoundOrInternal(w, err, "get active training plan")
		return
	}

	pkg.SendJSON(w, http.StatusOK, plan)
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.create")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}

	var plan Plan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		log.Tracef("create training plan, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var fieldErrors []pkg.FieldError
	if plan.AthleteID <= 0 {
		fieldErrors = append(fieldErrors, pkg.FieldError{Field: "athlete_id", Message: "athlete id required"})
	}
	if strings.TrimSpace(plan.Name) == "" {
		plan.Name = "training plan"
	}
	for _, day := range plan.Days {
		if day.DayNumber < 1 || day.DayNumber > 7 {
			fieldErrors = append(fieldErrors, pkg.FieldError{Field: "days", Message: "day number must be between 1 and 7"})
			break
		}
	}
	if len(fieldErrors) > 0 {
		pkg.SendValidationErrors(w, fieldErrors)
		return
	}

	created, err := handler.repo.Create(ctx, plan, coachID)
	if err != nil {
		notFoundOrInternal(w, err, "create training plan")
		return
	}

	log.Debugf("new training plan created: %d for athlete %d", created.ID, created.AthleteID)
	pkg.SendJSON(w, http.StatusCreated, created)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.get")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	planID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	plan, err := handler.repo.Get(ctx, planID, coachID)
	if err != nil {
		notFoundOrInternal(w, err, "get training plan")
		return
	}

	pkg.SendJSON(w, http.StatusOK, plan)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.update")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	planID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var update PlanUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Tracef("update training plan, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	plan, err := handler.repo.Update(ctx, planID, coachID, update)
	if err != nil {
		notFoundOrInternal(w, err, "update training plan")
		return
	}

	pkg.SendJSON(w, http.StatusOK, plan)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.delete")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	planID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := handler.repo.Delete(ctx, planID, coachID); err != nil {
		notFoundOrInternal(w, err, "delete training plan")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.activate")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	planID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	plan, err := handler.repo.Activate(ctx, planID, coachID)
	if err != nil {
		notFoundOrInternal(w, err, "activate training plan")
		return
	}

	handler.metricsManager.CounterPlansActivated.WithLabelValues("training").Inc()
	pkg.SendJSON(w, http.StatusOK, plan)
}

func (handler *Handler) HandleAddDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.addDay")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	planID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var day Day
	if err := json.NewDecoder(r.Body).Decode(&day); err != nil {
		log.Tracef("add training day, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if day.DayNumber < 1 || day.DayNumber > 7 {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "day_number", Message: "day number must be between 1 and 7"},
		})
		return
	}

	created, err := handler.repo.AddDay(ctx, planID, coachID, day)
	if err != nil {
		notFoundOrInternal(w, err, "add training day")
		return
	}

	pkg.SendJSON(w, http.StatusCreated, created)
}

func (handler *Handler) HandleUpdateDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.updateDay")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	dayID, ok := pathID(w, r, "dayID")
	if !ok {
		return
	}

	var update DayUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Tracef("update training day, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	day, err := handler.repo.UpdateDay(ctx, dayID, coachID, update)
	if err != nil {
		notFoundOrInternal(w, err, "update training day")
		return
	}

	pkg.SendJSON(w, http.StatusOK, day)
}

func (handler *Handler) HandleDeleteDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.deleteDay")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	dayID, ok := pathID(w, r, "dayID")
	if !ok {
		return
	}

	if err := handler.repo.DeleteDay(ctx, dayID, coachID); err != nil {
		notFoundOrInternal(w, err, "delete training day")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.addItem")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	dayID, ok := pathID(w, r, "dayID")
	if !ok {
		return
	}

	var item Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		log.Tracef("add workout item, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if item.SetType != "" && !knownSetTypes[item.SetType] {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "set_type", Message: "unknown set type"},
		})
		return
	}

	created, err := handler.repo.AddItem(ctx, dayID, coachID, item)
	if err != nil {
		notFoundOrInternal(w, err, "add workout item")
		return
	}

	pkg.SendJSON(w, http.StatusCreated, created)
}

func (handler *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.updateItem")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}

	var update ItemUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Tracef("update workout item, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if update.SetType != nil && !knownSetTypes[*update.SetType] {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "set_type", Message: "unknown set type"},
		})
		return
	}

	item, err := handler.repo.UpdateItem(ctx, itemID, coachID, update)
	if err != nil {
		notFoundOrInternal(w, err, "update workout item")
		return
	}

	pkg.SendJSON(w, http.StatusOK, item)
}

func (handler *Handler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.deleteItem")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}

	if err := handler.repo.DeleteItem(ctx, itemID, coachID); err != nil {
		notFoundOrInternal(w, err, "delete workout item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) HandleReorderItems(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.reorderItems")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	dayID, ok := pathID(w, r, "dayID")
	if !ok {
		return
	}

	var itemIDs []int
	if err := json.NewDecoder(r.Body).Decode(&itemIDs); err != nil {
		log.Tracef("reorder workout items, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := handler.repo.ReorderItems(ctx, dayID, coachID, itemIDs); err != nil {
		notFoundOrInternal(w, err, "reorder workout items")
		return
	}

	pkg.WriteTextResponseOK(w, "order updated")
}

// HandleRestrictedExercises lists the exercises the athlete should avoid
// based on their unhealed injuries.
func (handler *Handler) HandleRestrictedExercises(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.restrictedExercises")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	athleteID, ok := pathID(w, r, "athleteID")
	if !ok {
		return
	}

	bodyParts, err := handler.repo.ActiveInjuryBodyParts(ctx, athleteID, coachID)
	if err != nil {
		notFoundOrInternal(w, err, "list restricted exercises")
		return
	}

	restricted := calculator.GetRestrictedExercises(bodyParts)
	if restricted == nil {
		restricted = []string{}
	}
	if bodyParts == nil {
		bodyParts = []string{}
	}

	pkg.SendJSON(w, http.StatusOK, map[string]any{
		"injured_body_parts":   bodyParts,
		"restricted_exercises": restricted,
	})
}
