package diet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/flexpro/backend/internal/auth"
	"github.com/flexpro/backend/internal/catalog"
	"github.com/flexpro/backend/internal/telemetry/metrics"
	"github.com/flexpro/backend/internal/telemetry/tracing"
	"github.com/flexpro/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type dietRepo interface {
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
	ItemPortions(ctx context.Context, planID, coachID int) ([]Portion, error)
}

type Handler struct {
	repo           dietRepo
	metricsManager *metrics.Manager
}

func NewHandler(repo dietRepo, metricsManager *metrics.Manager) *Handler {
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

// notFoundOrInternal maps the repo sentinels to a 404 and everything
// else to a 500.
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

func (handler *Handler) HandleListByAthlete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.diet.listByAthlete")
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
		notFoundOrInternal(w, err, "list diet plans")
		return
	}
	if plans == nil {
		plans = []Plan{}
	}

	pkg.SendJSON(w, http.StatusOK, plans)
}

func (handler *Handler) HandleGetActive(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.diet.getActive")
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
		notFoundOrInternal(w, err, "get active diet plan")
		return
	}

	pkg.SendJSON(w, http.StatusOK, plan)
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.diet.create")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}

	var plan Plan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		log.Tracef("create diet plan, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var fieldErrors []pkg.FieldError
	if plan.AthleteID <= 0 {
		fieldErrors = append(fieldErrors, pkg.FieldError{Field: "athlete_id", Message: "athlete id required"})
	}
	if strings.TrimSpace(plan.Name) == "" {
		plan.Name = "diet plan"
	}
	for _, item := range plan.Items {
		if !knownMealTypes[item.Meal] {
			fieldErrors = append(fieldErrors, pkg.FieldError{Field: "items", Message: "unknown meal type"})
			break
		}
	}
	if len(fieldErrors) > 0 {
		pkg.SendValidationErrors(w, fieldErrors)
		return
	}

	created, err := handler.repo.Create(ctx, plan, coachID)
	if err != nil {
		if errors.Is(err, catalog.ErrFoodNotFound) {
			pkg.SendValidationErrors(w, []pkg.FieldError{
				{Field: "items", Message: "unknown food"},
			})
			return
		}
		notFoundOrInternal(w, err, "create diet plan")
		return
	}

	log.Debugf("new diet plan created: %d for athlete %d", created.ID, created.AthleteID)
	pkg.SendJSON(w, http.StatusCreated, created)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.diet.get")
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
		notFoundOrInternal(w, err, "get diet plan")
		return
	}

	pkg.SendJSON(w, http.StatusOK, plan)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.diet.update")
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
		log.Tracef("update diet plan, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	plan, err := handler.repo.Update(ctx, planID, coachID, update)
	if err != nil {
		notFoundOrInternal(w, err, "update diet plan")
		return
	}

	pkg.SendJSON(w, http.StatusOK, plan)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.diet.delete")
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
		notFoundOrInternal(w, err, "delete diet plan")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.diet.activate")
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
		notFoundOrInternal(w, err, "activate diet plan")
		return
	}

	handler.metricsManager.CounterPlansActivated.WithLabelValues("diet").Inc()
	pkg.SendJSON(w, http.StatusOK, plan)
}

func (handler *Handler) HandleMacros(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.diet.macros")
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
		notFoundOrInternal(w, err, "get diet plan macros")
		return
	}

	pkg.SendJSON(w, http.StatusOK, plan.Summarize())
}

func (handler *Handler) HandleMealsSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.diet.mealsSummary")
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
		notFoundOrInternal(w, err, "get diet plan meals summary")
		return
	}

	summaries := plan.SummarizeMeals()
	if summaries == nil {
		summaries = []MealSummary{}
	}
	pkg.SendJSON(w, http.StatusOK, summaries)
}

// HandleAnalyze runs the balance analysis over the plan's catalog-backed
// items, with fiber taken from the foods table.
func (handler *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.diet.analyze")
	defer span.End()

	coachID, ok := coachIDFromRequest(w, r)
	if !ok {
		return
	}
	planID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	portions, err := handler.repo.ItemPortions(ctx, planID, coachID)
	if err != nil {
		notFoundOrInternal(w, err, "analyze diet plan")
		return
	}

	pkg.SendJSON(w, http.StatusOK, AnalyzeBalance(SumMacros(portions)))
}

func (handler *Handler) HandleSuggestFoods(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.diet.suggestFoods")
	defer span.End()

	query := r.URL.Query()
	meal := MealType(query.Get("meal"))
	if !knownMealTypes[meal] {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "meal", Message: "unknown meal type"},
		})
		return
	}

	targetProtein, _ := strconv.Atoi(query.Get("protein"))
	targetCarbs, _ := strconv.Atoi(query.Get("carbs"))
	targetFat, _ := strconv.Atoi(query.Get("fat"))

	var allergies []string
	if raw := strings.TrimSpace(query.Get("allergies")); raw != "" {
		for _, allergy := range strings.Split(raw, ",") {
			if allergy = strings.TrimSpace(allergy); allergy != "" {
				allergies = append(allergies, allergy)
			}
		}
	}

	pkg.SendJSON(w, http.StatusOK, SuggestFoodsForMeal(meal, targetProtein, targetCarbs, targetFat, allergies))
}

func (handler *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.diet.addItem")
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
		log.Tracef("add diet item, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var fieldErrors []pkg.FieldError
	if !knownMealTypes[item.Meal] {
		fieldErrors = append(fieldErrors, pkg.FieldError{Field: "meal", Message: "unknown meal type"})
	}
	if item.Amount <= 0 {
		fieldErrors = append(fieldErrors, pkg.FieldError{Field: "amount", Message: "amount must be positive"})
	}
	if len(fieldErrors) > 0 {
		pkg.SendValidationErrors(w, fieldErrors)
		return
	}

	created, err := handler.repo.AddItem(ctx, planID, coachID, item)
	if err != nil {
		if errors.Is(err, catalog.ErrFoodNotFound) {
			pkg.SendValidationErrors(w, []pkg.FieldError{
				{Field: "food_id", Message: "unknown food"},
			})
			return
		}
		notFoundOrInternal(w, err, "add diet item")
		return
	}

	pkg.SendJSON(w, http.StatusCreated, created)
}

func (handler *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.diet.updateItem")
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
		log.Tracef("update diet item, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if update.Meal != nil && !knownMealTypes[*update.Meal] {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "meal", Message: "unknown meal type"},
		})
		return
	}
	if update.Amount != nil && *update.Amount <= 0 {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "amount", Message: "amount must be positive"},
		})
		return
	}

	item, err := handler.repo.UpdateItem(ctx, itemID, coachID, update)
	if err != nil {
		if errors.Is(err, catalog.ErrFoodNotFound) {
			pkg.SendValidationErrors(w, []pkg.FieldError{
				{Field: "food_id", Message: "unknown food"},
			})
			return
		}
		notFoundOrInternal(w, err, "update diet item")
		return
	}

	pkg.SendJSON(w, http.StatusOK, item)
}

func (handler *Handler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.diet.deleteItem")
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
		notFoundOrInternal(w, err, "delete diet item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) HandleReorderItems(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.diet.reorderItems")
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
		log.Tracef("reorder diet items, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := handler.repo.ReorderItems(ctx, planID, coachID, itemIDs); err != nil {
		notFoundOrInternal(w, err, "reorder diet items")
		return
	}

	pkg.WriteTextResponseOK(w, "order updated")
}
