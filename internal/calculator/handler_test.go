package calculator_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flexpro/backend/internal/calculator"
	"github.com/flexpro/backend/internal/telemetry/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, handlerFunc http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	reqBody, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(reqBody))
	rr := httptest.NewRecorder()
	handlerFunc(rr, req)
	return rr
}

func TestHandler_BMR(t *testing.T) {
	handler := calculator.NewHandler(metrics.NewTestManager())

	rr := postJSON(t, handler.HandleBMR, "/api/v1/calculator/bmr", calculator.BMRRequest{
		Weight: 80, Height: 180, Age: 30, Gender: calculator.GenderMale,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp calculator.BMRResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1780, resp.BMR)
	assert.Equal(t, "Mifflin-St Jeor", resp.Method)
}

func TestHandler_BMR_Validation(t *testing.T) {
	handler := calculator.NewHandler(metrics.NewTestManager())

	rr := postJSON(t, handler.HandleBMR, "/api/v1/calculator/bmr", calculator.BMRRequest{
		Weight: 10, Height: 180, Age: 30, Gender: calculator.GenderMale,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestHandler_BodyFat_FemaleNoHip(t *testing.T) {
	handler := calculator.NewHandler(metrics.NewTestManager())

	rr := postJSON(t, handler.HandleBodyFat, "/api/v1/calculator/body-fat", calculator.BodyFatRequest{
		Waist: 70, Neck: 32, Height: 165, Gender: calculator.GenderFemale,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "hip")
}

func TestHandler_OneRM(t *testing.T) {
	handler := calculator.NewHandler(metrics.NewTestManager())

	rr := postJSON(t, handler.HandleOneRM, "/api/v1/calculator/1rm", calculator.OneRMRequest{
		Weight: 100, Reps: 10,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp calculator.OneRMResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.InDelta(t, 133.3, resp.Estimated1RM, 0.05)
	assert.Equal(t, "Brzycki Formula", resp.Method)
	assert.InDelta(t, 120.0, resp.Percentages["90%"], 0.05)
}

func TestHandler_TrainingSplit(t *testing.T) {
	handler := calculator.NewHandler(metrics.NewTestManager())

	req := httptest.NewRequest("GET", "/api/v1/calculator/training-split?experience=intermediate&available_days=3", nil)
	rr := httptest.NewRecorder()
	handler.HandleTrainingSplit(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var rec calculator.SplitRecommendation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, calculator.SplitFullBody, rec.Split)
	assert.Equal(t, 3, rec.DaysPerWeek)
}

func TestHandler_TrainingSplit_BadParams(t *testing.T) {
	handler := calculator.NewHandler(metrics.NewTestManager())

	req := httptest.NewRequest("GET", "/api/v1/calculator/training-split?experience=ninja", nil)
	rr := httptest.NewRecorder()
	handler.HandleTrainingSplit(rr, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	req = httptest.NewRequest("GET", "/api/v1/calculator/training-split?experience=beginner&available_days=9", nil)
	rr = httptest.NewRecorder()
	handler.HandleTrainingSplit(rr, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestHandler_DistributeMacros(t *testing.T) {
	handler := calculator.NewHandler(metrics.NewTestManager())

	rr := postJSON(t, handler.HandleDistributeMacros, "/api/v1/calculator/distribute-macros", calculator.DistributeMacrosRequest{
		TotalCalories: 2500,
		TotalProtein:  180,
		TotalCarbs:    280,
		TotalFat:      70,
		MealPlanType:  calculator.MealPlanStandard,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var meals []calculator.MealMacros
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &meals))
	require.Len(t, meals, 5)
	assert.Equal(t, "breakfast", meals[0].Meal)
}
