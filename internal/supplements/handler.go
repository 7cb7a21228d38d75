package supplements

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/flexpro/backend/internal/auth"
	"github.com/flexpro/backend/internal/telemetry/metrics"
	"github.com/flexpro/backend/internal/telemetry/tracing"
	"github.com/flexpro/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type supplementsRepo interface {
	ListByAthlete(ctx context.Context, athleteID, coachID int, activeOnly bool) ([]Plan, error)
	GetActive(ctx context.Context, athleteID, coachID int) (*Plan, error)
	Get(ctx context.Context, planID, coachID int) (*Plan, error)
	Create(ctx context.Context, plan Plan, coachID int) (*Plan, error)
	Update(ctx context.Context, planID, coachID int, update PlanUpdate) (*Plan, error)
	Delete(ctx context.Context, planID, coachID int) error
	Activate(ctx context.Context, planID, coachID int) (*Plan, error)
	AddItem(ctx context.Context, planID, coachID int, item Item) (*Item, error)
	UpdateItem(ctx context.Context, itemID, coachID int, update ItemUpdate) (*Item, error)
	DeleteItem(ctx context.Context, itemID, coachID int) error
	ReorderItems(ctx context.Context, planID, coachID int, itemIDs []int) error
}

type Handler struct {
	repo           supplementsRepo
	metricsManager *metrics.Manager
}

func NewHandler(repo supplementsRepo, metricsManager *metrics.Manager) *Handler {
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
		errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrAthleteNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.Errorf("%s: %s", op, err)
		http.Error(w, op+" failed", http.StatusInternalServerError)
	}
}

// itemNamed checks that an item references either a catalog supplement
// or carries a custom name.
func itemNamed(supplementID *int, customName *string) bool {
	if supplementID != nil && *supplementID > 0 {
		return true
	}
	return customName != nil && strings.TrimSpace(*customName) != ""
}

func (handler *Handler) HandleListByAthlete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.supplements.listByAthlete")
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
		notFoundOrInternal(w, err, "list supplement plans")
		return
	}
	if plans == nil {
		plans = []Plan{}
	}

	pkg.SendJSON(w, http.StatusOK, plans)
}

func (handler *Handler) HandleGetActive(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.supplements.getActive")
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
		notFoundOrInternal(w, err, "get active supplement plan")
		return
	}

	pkg.SendJSON(w, http.StatusOK, plan)
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.supplements.create")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}

	var plan Plan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		log.Tracef("create supplement plan, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var fieldErrors []pkg.FieldError
	if plan.AthleteID <= 0 {
		fieldErrors = append(fieldErrors, pkg.FieldError{Field: "athlete_id", Message: "athlete id required"})
	}
	if strings.TrimSpace(plan.Name) == "" {
		plan.Name = "supplement plan"
	}
	for _, item := range plan.Items {
		if !itemNamed(item.SupplementID, item.CustomName) {
			fieldErrors = append(fieldErrors, pkg.FieldError{Field: "items", Message: "supplement id or custom name required"})
			break
		}
	}
	if len(fieldErrors) > 0 {
		pkg.SendValidationErrors(w, fieldErrors)
		return
	}

	created, err := handler.repo.Create(ctx, plan, coachID)
	if err != nil {
		notFoundOrInternal(w, err, "create supplement plan")
		return
	}

	log.Debugf("new supplement plan created: %d for athlete %d", created.ID, created.AthleteID)

	pkg.SendJSON(w, http.StatusCreated, created)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.supplements.get")
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
		notFoundOrInternal(w, err, "get supplement plan")
		return
	}

	pkg.SendJSON(w, http.StatusOK, plan)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.supplements.update")
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
		log.Tracef("update supplement plan, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	plan, err := handler.repo.Update(ctx, planID, coachID, update)
	if err != nil {
		notFoundOrInternal(w, err, "update supplement plan")
		return
	}

	pkg.SendJSON(w, http.StatusOK, plan)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.supplements.delete")
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
		notFoundOrInternal(w, err, "delete supplement plan")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.supplements.activate")
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
		notFoundOrInternal(w, err, "activate supplement plan")
		return
	}

	handler.metricsManager.CounterPlansActivated.WithLabelValues("supplement").Inc()
	pkg.SendJSON(w, http.StatusOK, plan)
}

func (handler *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.supplements.addItem")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	planID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var item Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		log.Tracef("add supplement item, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if !itemNamed(item.SupplementID, item.CustomName) {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "supplement_id", Message: "supplement id or custom name required"},
		})
		return
	}

	created, err := handler.repo.AddItem(ctx, planID, coachID, item)
	if err != nil {
		notFoundOrInternal(w, err, "add supplement item")
		return
	}

	pkg.SendJSON(w, http.StatusCreated, created)
}

func (handler *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.supplements.updateItem")
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
		log.Tracef("update supplement item, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	item, err := handler.repo.UpdateItem(ctx, itemID, coachID, update)
	if err != nil {
		notFoundOrInternal(w, err, "update supplement item")
		return
	}

	pkg.SendJSON(w, http.StatusOK, item)
}

func (handler *Handler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.supplements.deleteItem")
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
		notFoundOrInternal(w, err, "delete supplement item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) HandleReorderItems(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.supplements.reorderItems")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	planID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var itemIDs []int
	if err := json.NewDecoder(r.Body).Decode(&itemIDs); err != nil {
		log.Tracef("reorder supplement items, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := handler.repo.ReorderItems(ctx, planID, coachID, itemIDs); err != nil {
		notFoundOrInternal(w, err, "reorder supplement items")
		return
	}

	pkg.WriteTextResponseOK(w, "order updated")
}
