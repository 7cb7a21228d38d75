package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/flexpro/backend/internal/telemetry/tracing"
	"github.com/flexpro/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const (
	defaultPageSize       = 20
	maxPageSize           = 100
	defaultMinProtein     = 20
	defaultMaxCalories    = 100
	defaultFilteredLimit  = 30
	defaultCompoundsLimit = 30
)

type foodsRepo interface {
	Categories(ctx context.Context) ([]FoodCategory, error)
	Get(ctx context.Context, id int) (*Food, error)
	Search(ctx context.Context, query string, page, pageSize int) ([]Food, error)
	ByCategory(ctx context.Context, categoryID int) ([]Food, error)
	HighProtein(ctx context.Context, minProtein float64, limit int) ([]Food, error)
	LowCalorie(ctx context.Context, maxCalories float64, limit int) ([]Food, error)
	CreateCustom(ctx context.Context, food Food) (*Food, error)
}

type FoodsHandler struct {
	repo foodsRepo
}

func NewFoodsHandler(repo foodsRepo) *FoodsHandler {
	return &FoodsHandler{
		repo: repo,
	}
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

func queryFloatOr(r *http.Request, name string, fallback float64) float64 {
	if v := r.URL.Query().Get(name); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func (handler *FoodsHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.foods.categories")
	defer span.End()

	categories, err := handler.repo.Categories(ctx)
	if err != nil {
		log.Errorf("failed to list food categories: %s", err)
		http.Error(w, "list food categories failed", http.StatusInternalServerError)
		return
	}
	if categories == nil {
		categories = []FoodCategory{}
	}

	pkg.SendJSON(w, http.StatusOK, categories)
}

func (handler *FoodsHandler) HandleCategoriesWithFoods(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.foods.categoriesWithFoods")
	defer span.End()

	categories, err := handler.repo.Categories(ctx)
	if err != nil {
		log.Errorf("failed to list food categories: %s", err)
		http.Error(w, "list food categories failed", http.StatusInternalServerError)
		return
	}

	withFoods := make([]FoodCategoryWithFoods, 0, len(categories))
	for _, category := range categories {
		foods, err := handler.repo.ByCategory(ctx, category.ID)
		if err != nil {
			log.Errorf("failed to list foods for category %d: %s", category.ID, err)
			http.Error(w, "list foods failed", http.StatusInternalServerError)
			return
		}
		if foods == nil {
			foods = []Food{}
		}
		withFoods = append(withFoods, FoodCategoryWithFoods{
			FoodCategory: category,
			Foods:        foods,
		})
	}

	pkg.SendJSON(w, http.StatusOK, withFoods)
}

func (handler *FoodsHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.foods.search")
	defer span.End()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	page := queryIntOr(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := queryIntOr(r, "page_size", defaultPageSize)
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	foods, err := handler.repo.Search(ctx, query, page, pageSize)
	if err != nil {
		log.Errorf("failed to search foods [%s]: %s", query, err)
		http.Error(w, "search foods failed", http.StatusInternalServerError)
		return
	}
	if foods == nil {
		foods = []Food{}
	}

	pkg.SendJSON(w, http.StatusOK, foods)
}

func (handler *FoodsHandler) HandleByCategory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.foods.byCategory")
	defer span.End()

	categoryID, ok := pathID(w, r, "categoryID")
	if !ok {
		return
	}

	foods, err := handler.repo.ByCategory(ctx, categoryID)
	if err != nil {
		log.Errorf("failed to list foods for category %d: %s", categoryID, err)
		http.Error(w, "list foods failed", http.StatusInternalServerError)
		return
	}
	if foods == nil {
		foods = []Food{}
	}

	pkg.SendJSON(w, http.StatusOK, foods)
}

func (handler *FoodsHandler) HandleHighProtein(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.foods.highProtein")
	defer span.End()

	minProtein := queryFloatOr(r, "min_protein", defaultMinProtein)
	limit := queryIntOr(r, "limit", defaultFilteredLimit)

	foods, err := handler.repo.HighProtein(ctx, minProtein, limit)
	if err != nil {
		log.Errorf("failed to list high protein foods: %s", err)
		http.Error(w, "list foods failed", http.StatusInternalServerError)
		return
	}
	if foods == nil {
		foods = []Food{}
	}

	pkg.SendJSON(w, http.StatusOK, foods)
}

func (handler *FoodsHandler) HandleLowCalorie(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.foods.lowCalorie")
	defer span.End()

	maxCalories := queryFloatOr(r, "max_calories", defaultMaxCalories)
	limit := queryIntOr(r, "limit", defaultFilteredLimit)

	foods, err := handler.repo.LowCalorie(ctx, maxCalories, limit)
	if err != nil {
		log.Errorf("failed to list low calorie foods: %s", err)
		http.Error(w, "list foods failed", http.StatusInternalServerError)
		return
	}
	if foods == nil {
		foods = []Food{}
	}

	pkg.SendJSON(w, http.StatusOK, foods)
}

func (handler *FoodsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.foods.get")
	defer span.End()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	food, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrFoodNotFound) {
			http.Error(w, "food not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get food %d: %s", id, err)
		http.Error(w, "get food failed", http.StatusInternalServerError)
		return
	}

	pkg.SendJSON(w, http.StatusOK, food)
}

// HandleCalculate scales a food's macros to the requested amount.
func (handler *FoodsHandler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.foods.calculate")
	defer span.End()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil || amount <= 0 {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "amount", Message: "amount must be a positive number"},
		})
		return
	}

	food, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrFoodNotFound) {
			http.Error(w, "food not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get food %d: %s", id, err)
		http.Error(w, "get food failed", http.StatusInternalServerError)
		return
	}

	pkg.SendJSON(w, http.StatusOK, food.CalculateMacros(amount))
}

func (handler *FoodsHandler) HandleCreateCustom(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.foods.createCustom")
	defer span.End()

	var food Food
	if err := json.NewDecoder(r.Body).Decode(&food); err != nil {
		log.Tracef("create custom food, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var fieldErrors []pkg.FieldError
	if strings.TrimSpace(food.Name) == "" {
		fieldErrors = append(fieldErrors, pkg.FieldError{Field: "name", Message: "name required"})
	}
	if food.BaseAmount <= 0 {
		fieldErrors = append(fieldErrors, pkg.FieldError{Field: "base_amount", Message: "base amount must be positive"})
	}
	if food.Calories < 0 || food.Protein < 0 || food.Carbs < 0 || food.Fat < 0 {
		fieldErrors = append(fieldErrors, pkg.FieldError{Field: "macros", Message: "macros cannot be negative"})
	}
	if len(fieldErrors) > 0 {
		pkg.SendValidationErrors(w, fieldErrors)
		return
	}

	created, err := handler.repo.CreateCustom(ctx, food)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			pkg.SendValidationErrors(w, []pkg.FieldError{
				{Field: "category_id", Message: "unknown category"},
			})
			return
		}
		log.Errorf("failed to create custom food [%s]: %s", food.Name, err)
		http.Error(w, "create food failed", http.StatusInternalServerError)
		return
	}

	log.Debugf("custom food created: %d [%s]", created.ID, created.Name)
	pkg.SendJSON(w, http.StatusCreated, created)
}
