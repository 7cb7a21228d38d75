package training_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flexpro/backend/internal/auth"
	"github.com/flexpro/backend/internal/telemetry/metrics"
	"github.com/flexpro/backend/internal/training"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain will run goleak after all tests have been run in the package
// to detect any goroutine leaks
func TestMain(m *testing.M) {
	m.Run()
	goleak.VerifyTestMain(m)
}

type testTrainingRepo struct {
	athleteCoach map[int]int
	injuries     map[int][]string
	plans        map[int]*training.Plan
	nextPlanID   int
	nextDayID    int
	nextItemID   int
}

func newTestTrainingRepo() *testTrainingRepo {
	return &testTrainingRepo{
		athleteCoach: map[int]int{},
		injuries:     map[int][]string{},
		plans:        map[int]*training.Plan{},
		nextPlanID:   1,
		nextDayID:    1,
		nextItemID:   1,
	}
}

func (r *testTrainingRepo) ownedPlan(planID, coachID int) (*training.Plan, error) {
	plan, ok := r.plans[planID]
	if !ok || r.athleteCoach[plan.AthleteID] != coachID {
		return nil, training.ErrPlanNotFound
	}
	return plan, nil
}

func (r *testTrainingRepo) ownedDay(dayID, coachID int) (*training.Plan, *training.Day, error) {
	for _, plan := range r.plans {
		if r.athleteCoach[plan.AthleteID] != coachID {
			continue
		}
		for d := range plan.Days {
			if plan.Days[d].ID == dayID {
				return plan, &plan.Days[d], nil
			}
		}
	}
	return nil, nil, training.ErrDayNotFound
}

func (r *testTrainingRepo) ListByAthlete(_ context.Context, athleteID, coachID int, activeOnly bool) ([]training.Plan, error) {
	if r.athleteCoach[athleteID] != coachID {
		return nil, training.ErrAthleteNotFound
	}
	var out []training.Plan
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

func (r *testTrainingRepo) GetActive(_ context.Context, athleteID, coachID int) (*training.Plan, error) {
	if r.athleteCoach[athleteID] != coachID {
		return nil, training.ErrAthleteNotFound
	}
	for _, p := range r.plans {
		if p.AthleteID == athleteID && p.IsActive {
			return p, nil
		}
	}
	return nil, training.ErrPlanNotFound
}

func (r *testTrainingRepo) Get(_ context.Context, planID, coachID int) (*training.Plan, error) {
	return r.ownedPlan(planID, coachID)
}

func (r *testTrainingRepo) Create(_ context.Context, plan training.Plan, coachID int) (*training.Plan, error) {
	if r.athleteCoach[plan.AthleteID] != coachID {
		return nil, training.ErrAthleteNotFound
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
	for d := range plan.Days {
		day := &plan.Days[d]
		day.ID = r.nextDayID
		day.PlanID = plan.ID
		r.nextDayID++
		for i := range day.Items {
			item := &day.Items[i]
			item.ID = r.nextItemID
			item.DayID = day.ID
			item.Order = i + 1
			if item.SetType == "" {
				item.SetType = training.SetNormal
			}
			r.nextItemID++
		}
	}
	r.plans[plan.ID] = &plan
	return &plan, nil
}

func (r *testTrainingRepo) Update(_ context.Context, planID, coachID int, update training.PlanUpdate) (*training.Plan, error) {
	plan, err := r.ownedPlan(planID, coachID)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		plan.Name = *update.Name
	}
	if update.DurationWeeks != nil {
		plan.DurationWeeks = update.DurationWeeks
	}
	return plan, nil
}

func (r *testTrainingRepo) Delete(_ context.Context, planID, coachID int) error {
	if _, err := r.ownedPlan(planID, coachID); err != nil {
		return err
	}
	delete(r.plans, planID)
	return nil
}

func (r *testTrainingRepo) Activate(_ context.Context, planID, coachID int) (*training.Plan, error) {
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

func (r *testTrainingRepo) AddDay(_ context.Context, planID, coachID int, day training.Day) (*training.Day, error) {
	plan, err := r.ownedPlan(planID, coachID)
	if err != nil {
		return nil, err
	}
	day.ID = r.nextDayID
	day.PlanID = planID
	r.nextDayID++
	for i := range day.Items {
		day.Items[i].ID = r.nextItemID
		day.Items[i].DayID = day.ID
		day.Items[i].Order = i + 1
		r.nextItemID++
	}
	plan.Days = append(plan.Days, day)
	return &day, nil
}

func (r *testTrainingRepo) UpdateDay(_ context.Context, dayID, coachID int, update training.DayUpdate) (*training.Day, error) {
	_, day, err := r.ownedDay(dayID, coachID)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		day.Name = update.Name
	}
	if update.IsRestDay != nil {
		day.IsRestDay = *update.IsRestDay
	}
	return day, nil
}

func (r *testTrainingRepo) DeleteDay(_ context.Context, dayID, coachID int) error {
	plan, _, err := r.ownedDay(dayID, coachID)
	if err != nil {
		return err
	}
	for i := range plan.Days {
		if plan.Days[i].ID == dayID {
			plan.Days = append(plan.Days[:i], plan.Days[i+1:]...)
			break
		}
	}
	return nil
}

func (r *testTrainingRepo) AddItem(_ context.Context, dayID, coachID int, item training.Item) (*training.Item, error) {
	_, day, err := r.ownedDay(dayID, coachID)
	if err != nil {
		return nil, err
	}
	item.ID = r.nextItemID
	item.DayID = dayID
	item.Order = len(day.Items) + 1
	if item.SetType == "" {
		item.SetType = training.SetNormal
	}
	r.nextItemID++
	day.Items = append(day.Items, item)
	return &item, nil
}

func (r *testTrainingRepo) UpdateItem(_ context.Context, itemID, coachID int, update training.ItemUpdate) (*training.Item, error) {
	for _, plan := range r.plans {
		if r.athleteCoach[plan.AthleteID] != coachID {
			continue
		}
		for d := range plan.Days {
			for i := range plan.Days[d].Items {
				item := &plan.Days[d].Items[i]
				if item.ID != itemID {
					continue
				}
				if update.Sets != nil {
					item.Sets = update.Sets
				}
				if update.Reps != nil {
					item.Reps = update.Reps
				}
				return item, nil
			}
		}
	}
	return nil, training.ErrItemNotFound
}

func (r *testTrainingRepo) DeleteItem(_ context.Context, itemID, coachID int) error {
	for _, plan := range r.plans {
		if r.athleteCoach[plan.AthleteID] != coachID {
			continue
		}
		for d := range plan.Days {
			items := plan.Days[d].Items
			for i := range items {
				if items[i].ID == itemID {
					plan.Days[d].Items = append(items[:i], items[i+1:]...)
					return nil
				}
			}
		}
	}
	return training.ErrItemNotFound
}

func (r *testTrainingRepo) ReorderItems(_ context.Context, dayID, coachID int, itemIDs []int) error {
	_, day, err := r.ownedDay(dayID, coachID)
	if err != nil {
		return err
	}
	for order, itemID := range itemIDs {
		for i := range day.Items {
			if day.Items[i].ID == itemID {
				day.Items[i].Order = order
			}
		}
	}
	return nil
}

func (r *testTrainingRepo) ActiveInjuryBodyParts(_ context.Context, athleteID, coachID int) ([]string, error) {
	if r.athleteCoach[athleteID] != coachID {
		return nil, training.ErrAthleteNotFound
	}
	return r.injuries[athleteID], nil
}

func trainingRequest(t *testing.T, method, target string, body any, coachID int, vars map[string]string) *http.Request {
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

func TestTrainingHandler_CreateWithDays(t *testing.T) {
	repo := newTestTrainingRepo()
	repo.athleteCoach[5] = 1
	handler := training.NewHandler(repo, metrics.NewTestManager())

	chestDay := "chest day"
	benchPress := "bench press"
	sets := 4
	reps := "8-12"
	plan := training.Plan{
		AthleteID: 5,
		Name:      "upper lower block",
		Days: []training.Day{
			{
				DayNumber: 1,
				Name:      &chestDay,
				Items: []training.Item{
					{CustomName: &benchPress, Sets: &sets, Reps: &reps},
				},
			},
			{DayNumber: 2, IsRestDay: true},
		},
	}

	req := trainingRequest(t, http.MethodPost, "/api/v1/training-plans", plan, 1, nil)
	rr := httptest.NewRecorder()
	handler.HandleCreate(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created training.Plan
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.True(t, created.IsActive)
	require.Len(t, created.Days, 2)
	require.Len(t, created.Days[0].Items, 1)
	assert.Equal(t, training.SetNormal, created.Days[0].Items[0].SetType)
	assert.Equal(t, 1, created.Days[0].Items[0].Order)
	assert.Equal(t, 1, created.TotalExercises())

	t.Run("badDayNumber", func(t *testing.T) {
		bad := training.Plan{AthleteID: 5, Days: []training.Day{{DayNumber: 9}}}
		req := trainingRequest(t, http.MethodPost, "/api/v1/training-plans", bad, 1, nil)
		rr := httptest.NewRecorder()
		handler.HandleCreate(rr, req)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})
}

func TestTrainingHandler_ActivateSwapsPlans(t *testing.T) {
	repo := newTestTrainingRepo()
	repo.athleteCoach[5] = 1
	handler := training.NewHandler(repo, metrics.NewTestManager())

	for _, name := range []string{"block 1", "block 2"} {
		req := trainingRequest(t, http.MethodPost, "/api/v1/training-plans",
			training.Plan{AthleteID: 5, Name: name}, 1, nil)
		rr := httptest.NewRecorder()
		handler.HandleCreate(rr, req)
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	assert.False(t, repo.plans[1].IsActive)
	assert.True(t, repo.plans[2].IsActive)

	req := trainingRequest(t, http.MethodPost, "/api/v1/training-plans/1/activate", nil, 1,
		map[string]string{"id": "1"})
	rr := httptest.NewRecorder()
	handler.HandleActivate(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	assert.True(t, repo.plans[1].IsActive)
	assert.False(t, repo.plans[2].IsActive)
}

func TestTrainingHandler_OwnershipIsolation(t *testing.T) {
	repo := newTestTrainingRepo()
	repo.athleteCoach[5] = 1
	handler := training.NewHandler(repo, metrics.NewTestManager())

	req := trainingRequest(t, http.MethodPost, "/api/v1/training-plans",
		training.Plan{AthleteID: 5}, 1, nil)
	rr := httptest.NewRecorder()
	handler.HandleCreate(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	req = trainingRequest(t, http.MethodGet, "/api/v1/training-plans/1", nil, 2,
		map[string]string{"id": "1"})
	rr = httptest.NewRecorder()
	handler.HandleGet(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req = trainingRequest(t, http.MethodGet, "/api/v1/training-plans/athlete/5", nil, 2,
		map[string]string{"athleteID": "5"})
	rr = httptest.NewRecorder()
	handler.HandleListByAthlete(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTrainingHandler_Items(t *testing.T) {
	repo := newTestTrainingRepo()
	repo.athleteCoach[5] = 1
	handler := training.NewHandler(repo, metrics.NewTestManager())

	req := trainingRequest(t, http.MethodPost, "/api/v1/training-plans",
		training.Plan{AthleteID: 5, Days: []training.Day{{DayNumber: 1}}}, 1, nil)
	rr := httptest.NewRecorder()
	handler.HandleCreate(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	squat := "barbell squat"
	req = trainingRequest(t, http.MethodPost, "/api/v1/training-plans/days/1/items",
		training.Item{CustomName: &squat}, 1, map[string]string{"dayID": "1"})
	rr = httptest.NewRecorder()
	handler.HandleAddItem(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var item training.Item
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &item))
	assert.Equal(t, 1, item.Order)
	assert.Equal(t, training.SetNormal, item.SetType)

	t.Run("unknownSetType", func(t *testing.T) {
		req := trainingRequest(t, http.MethodPost, "/api/v1/training-plans/days/1/items",
			map[string]any{"set_type": "megaset"}, 1, map[string]string{"dayID": "1"})
		rr := httptest.NewRecorder()
		handler.HandleAddItem(rr, req)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("reorder", func(t *testing.T) {
		lunge := "walking lunge"
		req := trainingRequest(t, http.MethodPost, "/api/v1/training-plans/days/1/items",
			training.Item{CustomName: &lunge}, 1, map[string]string{"dayID": "1"})
		rr := httptest.NewRecorder()
		handler.HandleAddItem(rr, req)
		require.Equal(t, http.StatusCreated, rr.Code)

		// foreign id 99 ignored
		req = trainingRequest(t, http.MethodPost, "/api/v1/training-plans/days/1/reorder",
			[]int{2, 99, 1}, 1, map[string]string{"dayID": "1"})
		rr = httptest.NewRecorder()
		handler.HandleReorderItems(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		_, day, err := repo.ownedDay(1, 1)
		require.NoError(t, err)
		require.Len(t, day.Items, 2)
		assert.Equal(t, 2, day.Items[0].Order)
		assert.Equal(t, 0, day.Items[1].Order)
	})
}

func TestTrainingHandler_RestrictedExercises(t *testing.T) {
	repo := newTestTrainingRepo()
	repo.athleteCoach[5] = 1
	repo.injuries[5] = []string{"knee"}
	handler := training.NewHandler(repo, metrics.NewTestManager())

	req := trainingRequest(t, http.MethodGet,
		"/api/v1/training-plans/athlete/5/restricted-exercises", nil, 1,
		map[string]string{"athleteID": "5"})
	rr := httptest.NewRecorder()
	handler.HandleRestrictedExercises(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		InjuredBodyParts    []string `json:"injured_body_parts"`
		RestrictedExercises []string `json:"restricted_exercises"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []string{"knee"}, resp.InjuredBodyParts)
	assert.NotEmpty(t, resp.RestrictedExercises)

	t.Run("noInjuries", func(t *testing.T) {
		repo.injuries[5] = nil
		req := trainingRequest(t, http.MethodGet,
			"/api/v1/training-plans/athlete/5/restricted-exercises", nil, 1,
			map[string]string{"athleteID": "5"})
		rr := httptest.NewRecorder()
		handler.HandleRestrictedExercises(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Empty(t, resp.RestrictedExercises)
	})
}
