package diet_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flexpro/backend/internal/auth"
	"github.com/flexpro/backend/internal/catalog"
	"github.com/flexpro/backend/internal/diet"
	"github.com/flexpro/backend/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDietRepo struct {
	athleteCoach map[int]int
	plans        map[int]*diet.Plan
	foods        map[int]catalog.Food
	nextPlanID   int
	nextItemID   int
}

func newTestDietRepo() *testDietRepo {
	return &testDietRepo{
		athleteCoach: map[int]int{},
		plans:        map[int]*diet.Plan{},
		foods:        map[int]catalog.Food{},
		nextPlanID:   1,
		nextItemID:   1,
	}
}

func (r *testDietRepo) ownedPlan(planID, coachID int) (*diet.Plan, error) {
	plan, ok := r.plans[planID]
	if !ok || r.athleteCoach[plan.AthleteID] != coachID {
		return nil, diet.ErrPlanNotFound
	}
	return plan, nil
}

func (r *testDietRepo) cacheMacros(item *diet.Item) error {
	if item.FoodID == nil {
		return nil
	}
	food, ok := r.foods[*item.FoodID]
	if !ok {
		return catalog.ErrFoodNotFound
	}
	macros := food.CalculateMacros(item.Amount)
	item.CalculatedCalories = &macros.Calories
	item.CalculatedProtein = &macros.Protein
	item.CalculatedCarbs = &macros.Carbs
	item.CalculatedFat = &macros.Fat
	return nil
}

func (r *testDietRepo) ListByAthlete(_ context.Context, athleteID, coachID int, activeOnly bool) ([]diet.Plan, error) {
	if r.athleteCoach[athleteID] != coachID {
		return nil, diet.ErrAthleteNotFound
	}
	var out []diet.Plan
	for _, p := range r.plans {
		if p.AthleteID != athleteID {
			continue
		}
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *testDietRepo) GetActive(_ context.Context, athleteID, coachID int) (*diet.Plan, error) {
	if r.athleteCoach[athleteID] != coachID {
		return nil, diet.ErrAthleteNotFound
	}
	for _, p := range r.plans {
		if p.AthleteID == athleteID && p.IsActive {
			return p, nil
		}
	}
	return nil, diet.ErrPlanNotFound
}

func (r *testDietRepo) Get(_ context.Context, planID, coachID int) (*diet.Plan, error) {
	return r.ownedPlan(planID, coachID)
}

func (r *testDietRepo) Create(_ context.Context, plan diet.Plan, coachID int) (*diet.Plan, error) {
	if r.athleteCoach[plan.AthleteID] != coachID {
		return nil, diet.ErrAthleteNotFound
	}
	for _, p := range r.plans {
		if p.AthleteID == plan.AthleteID {
			p.IsActive = false
		}
	}
	plan.ID = r.nextPlanID
	plan.IsActive = true
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = plan.CreatedAt
	r.nextPlanID++
	for i := range plan.Items {
		plan.Items[i].ID = r.nextItemID
		plan.Items[i].PlanID = plan.ID
		plan.Items[i].Order = i + 1
		r.nextItemID++
		if err := r.cacheMacros(&plan.Items[i]); err != nil {
			return nil, err
		}
	}
	r.plans[plan.ID] = &plan
	return &plan, nil
}

func (r *testDietRepo) Update(_ context.Context, planID, coachID int, update diet.PlanUpdate) (*diet.Plan, error) {
	plan, err := r.ownedPlan(planID, coachID)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		plan.Name = *update.Name
	}
	if update.TargetCalories != nil {
		plan.TargetCalories = update.TargetCalories
	}
	return plan, nil
}

func (r *testDietRepo) Delete(_ context.Context, planID, coachID int) error {
	if _, err := r.ownedPlan(planID, coachID); err != nil {
		return err
	}
	delete(r.plans, planID)
	return nil
}

func (r *testDietRepo) Activate(_ context.Context, planID, coachID int) (*diet.Plan, error) {
	plan, err := r.ownedPlan(planID, coachID)
	if err != nil {
		return nil, err
	}
	for _, p := range r.plans {
		if p.AthleteID == plan.AthleteID {
			p.IsActive = false
		}
	}
	plan.IsActive = true
	return plan, nil
}

func (r *testDietRepo) AddItem(_ context.Context, planID, coachID int, item diet.Item) (*diet.Item, error) {
	plan, err := r.ownedPlan(planID, coachID)
	if err != nil {
		return nil, err
	}
	item.ID = r.nextItemID
	item.PlanID = planID
	item.Order = len(plan.Items) + 1
	r.nextItemID++
	if err := r.cacheMacros(&item); err != nil {
		return nil, err
	}
	plan.Items = append(plan.Items, item)
	return &item, nil
}

func (r *testDietRepo) UpdateItem(_ context.Context, itemID, coachID int, update diet.ItemUpdate) (*diet.Item, error) {
	for _, plan := range r.plans {
		if r.athleteCoach[plan.AthleteID] != coachID {
			continue
		}
		for i := range plan.Items {
			if plan.Items[i].ID != itemID {
				continue
			}
			item := &plan.Items[i]
			if update.Amount != nil {
				item.Amount = *update.Amount
			}
			if update.FoodID != nil {
				item.FoodID = update.FoodID
			}
			if update.FoodID != nil || update.Amount != nil {
				if err := r.cacheMacros(item); err != nil {
					return nil, err
				}
			}
			return item, nil
		}
	}
	return nil, diet.ErrItemNotFound
}

func (r *testDietRepo) DeleteItem(_ context.Context, itemID, coachID int) error {
	for _, plan := range r.plans {
		if r.athleteCoach[plan.AthleteID] != coachID {
			continue
		}
		for i := range plan.Items {
			if plan.Items[i].ID == itemID {
				plan.Items = append(plan.Items[:i], plan.Items[i+1:]...)
				return nil
			}
		}
	}
	return diet.ErrItemNotFound
}

func (r *testDietRepo) ReorderItems(_ context.Context, planID, coachID int, itemIDs []int) error {
	plan, err := r.ownedPlan(planID, coachID)
	if err != nil {
		return err
	}
	for order, itemID := range itemIDs {
		for i := range plan.Items {
			if plan.Items[i].ID == itemID {
				plan.Items[i].Order = order
			}
		}
	}
	return nil
}

func (r *testDietRepo) ItemPortions(_ context.Context, planID, coachID int) ([]diet.Portion, error) {
	plan, err := r.ownedPlan(planID, coachID)
	if err != nil {
		return nil, err
	}
	var portions []diet.Portion
	for _, item := range plan.Items {
		if item.FoodID == nil {
			continue
		}
		portions = append(portions, diet.Portion{Food: r.foods[*item.FoodID], Amount: item.Amount})
	}
	return portions, nil
}

func dietRequest(t *testing.T, method, target string, body any, coachID int, vars map[string]string) *http.Request {
	t.Helper()
	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reqBody)
	req = req.WithContext(auth.ContextWithUserID(req.Context(), coachID))
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func TestDietHandler_CreateDeactivatesPrevious(t *testing.T) {
	repo := newTestDietRepo()
	repo.athleteCoach[5] = 1
	handler := diet.NewHandler(repo, metrics.NewTestManager())

	createPlan := func(name string) diet.Plan {
		req := dietRequest(t, http.MethodPost, "/api/v1/diet-plans", diet.Plan{AthleteID: 5, Name: name}, 1, nil)
		rr := httptest.NewRecorder()
		handler.HandleCreate(rr, req)
		require.Equal(t, http.StatusCreated, rr.Code)

		var created diet.Plan
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
		return created
	}

	first := createPlan("cut phase 1")
	second := createPlan("cut phase 2")

	assert.False(t, repo.plans[first.ID].IsActive)
	assert.True(t, repo.plans[second.ID].IsActive)

	// activating the first plan swaps them back
	req := dietRequest(t, http.MethodPost, "/api/v1/diet-plans/1/activate", nil, 1,
		map[string]string{"id": "1"})
	rr := httptest.NewRecorder()
	handler.HandleActivate(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, repo.plans[first.ID].IsActive)
	assert.False(t, repo.plans[second.ID].IsActive)
}

func TestDietHandler_OwnershipIsolation(t *testing.T) {
	repo := newTestDietRepo()
	repo.athleteCoach[5] = 1
	handler := diet.NewHandler(repo, metrics.NewTestManager())

	req := dietRequest(t, http.MethodPost, "/api/v1/diet-plans", diet.Plan{AthleteID: 5}, 1, nil)
	rr := httptest.NewRecorder()
	handler.HandleCreate(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	// another coach gets a 404, not a 403, to avoid leaking existence
	req = dietRequest(t, http.MethodGet, "/api/v1/diet-plans/1", nil, 2, map[string]string{"id": "1"})
	rr = httptest.NewRecorder()
	handler.HandleGet(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req = dietRequest(t, http.MethodDelete, "/api/v1/diet-plans/1", nil, 2, map[string]string{"id": "1"})
	rr = httptest.NewRecorder()
	handler.HandleDelete(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDietHandler_ItemsAndMacros(t *testing.T) {
	repo := newTestDietRepo()
	repo.athleteCoach[5] = 1
	repo.foods[10] = catalog.Food{ID: 10, BaseAmount: 100, Calories: 165, Protein: 31, Fat: 3.6}
	handler := diet.NewHandler(repo, metrics.NewTestManager())

	req := dietRequest(t, http.MethodPost, "/api/v1/diet-plans", diet.Plan{AthleteID: 5, Name: "bulk"}, 1, nil)
	rr := httptest.NewRecorder()
	handler.HandleCreate(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	foodID := 10
	req = dietRequest(t, http.MethodPost, "/api/v1/diet-plans/1/items",
		diet.Item{Meal: diet.MealLunch, FoodID: &foodID, Amount: 200}, 1,
		map[string]string{"id": "1"})
	rr = httptest.NewRecorder()
	handler.HandleAddItem(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var item diet.Item
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &item))
	require.NotNil(t, item.CalculatedCalories)
	assert.Equal(t, 330.0, *item.CalculatedCalories)
	require.NotNil(t, item.CalculatedProtein)
	assert.Equal(t, 62.0, *item.CalculatedProtein)

	t.Run("unknownFoodIsValidationError", func(t *testing.T) {
		badFood := 99
		req := dietRequest(t, http.MethodPost, "/api/v1/diet-plans/1/items",
			diet.Item{Meal: diet.MealLunch, FoodID: &badFood, Amount: 100}, 1,
			map[string]string{"id": "1"})
		rr := httptest.NewRecorder()
		handler.HandleAddItem(rr, req)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("amountChangeRecomputesCache", func(t *testing.T) {
		newAmount := 100.0
		req := dietRequest(t, http.MethodPut, "/api/v1/diet-plans/items/1",
			diet.ItemUpdate{Amount: &newAmount}, 1,
			map[string]string{"itemID": "1"})
		rr := httptest.NewRecorder()
		handler.HandleUpdateItem(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var updated diet.Item
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
		require.NotNil(t, updated.CalculatedCalories)
		assert.Equal(t, 165.0, *updated.CalculatedCalories)
	})

	t.Run("macrosSummary", func(t *testing.T) {
		req := dietRequest(t, http.MethodGet, "/api/v1/diet-plans/1/macros", nil, 1,
			map[string]string{"id": "1"})
		rr := httptest.NewRecorder()
		handler.HandleMacros(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var summary diet.MacroSummary
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
		assert.Equal(t, 165.0, summary.Calories)
		assert.Equal(t, 31.0, summary.Protein)
	})

	t.Run("mealsSummary", func(t *testing.T) {
		req := dietRequest(t, http.MethodGet, "/api/v1/diet-plans/1/meals-summary", nil, 1,
			map[string]string{"id": "1"})
		rr := httptest.NewRecorder()
		handler.HandleMealsSummary(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var summaries []diet.MealSummary
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summaries))
		require.Len(t, summaries, 1)
		assert.Equal(t, diet.MealLunch, summaries[0].Meal)
		assert.Equal(t, 1, summaries[0].ItemsCount)
	})
}

func TestDietHandler_SuggestFoods(t *testing.T) {
	handler := diet.NewHandler(newTestDietRepo(), metrics.NewTestManager())

	req := dietRequest(t, http.MethodGet,
		"/api/v1/diet-plans/suggest-foods?meal=breakfast&protein=40&allergies=egg", nil, 1, nil)
	rr := httptest.NewRecorder()
	handler.HandleSuggestFoods(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var suggestion diet.MealSuggestion
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &suggestion))
	assert.Equal(t, 40, suggestion.Targets.Protein)
	assert.NotContains(t, suggestion.Suggestions.ProteinSources, "eggs")

	t.Run("unknownMeal", func(t *testing.T) {
		req := dietRequest(t, http.MethodGet, "/api/v1/diet-plans/suggest-foods?meal=brunch", nil, 1, nil)
		rr := httptest.NewRecorder()
		handler.HandleSuggestFoods(rr, req)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})
}
