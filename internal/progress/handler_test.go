package progress_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/flexpro/backend/internal/auth"
	"github.com/flexpro/backend/internal/progress"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testProgressRepo struct {
	athleteCoach map[int]int
	records      map[int]*progress.Record
	nextID       int
}

func newTestProgressRepo() *testProgressRepo {
	return &testProgressRepo{
		athleteCoach: map[int]int{},
		records:      map[int]*progress.Record{},
		nextID:       1,
	}
}

func (r *testProgressRepo) Add(_ context.Context, record progress.Record, coachID int) (*progress.Record, error) {
	if r.athleteCoach[record.AthleteID] != coachID {
		return nil, progress.ErrAthleteNotFound
	}
	record.ID = r.nextID
	record.CreatedAt = time.Now()
	r.nextID++
	r.records[record.ID] = &record
	return &record, nil
}

func (r *testProgressRepo) ListByAthlete(_ context.Context, athleteID, coachID, limit int) ([]progress.Record, error) {
	if r.athleteCoach[athleteID] != coachID {
		return nil, progress.ErrAthleteNotFound
	}
	var out []progress.Record
	for _, rec := range r.records {
		if rec.AthleteID == athleteID {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *testProgressRepo) Get(_ context.Context, recordID, coachID int) (*progress.Record, error) {
	rec, ok := r.records[recordID]
	if !ok || r.athleteCoach[rec.AthleteID] != coachID {
		return nil, progress.ErrRecordNotFound
	}
	return rec, nil
}

func (r *testProgressRepo) Delete(_ context.Context, recordID, coachID int) error {
	rec, ok := r.records[recordID]
	if !ok || r.athleteCoach[rec.AthleteID] != coachID {
		return progress.ErrRecordNotFound
	}
	delete(r.records, recordID)
	return nil
}

func progressRequest(t *testing.T, method, target string, body any, coachID int, vars map[string]string) *http.Request {
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

func TestProgressHandler_AddAndList(t *testing.T) {
	repo := newTestProgressRepo()
	repo.athleteCoach[5] = 1
	handler := progress.NewHandler(repo)

	weight := 82.5
	squat := 140.0
	energy := 7
	first := progress.Record{
		RecordedAt:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Weight:      &weight,
		Squat1RM:    &squat,
		EnergyLevel: &energy,
	}

	req := progressRequest(t, http.MethodPost, "/api/v1/progress/athlete/5", first, 1,
		map[string]string{"athleteID": "5"})
	rr := httptest.NewRecorder()
	handler.HandleAdd(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created progress.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, 5, created.AthleteID)
	require.NotNil(t, created.Weight)
	assert.InDelta(t, 82.5, *created.Weight, 0.001)

	laterWeight := 81.9
	second := progress.Record{
		RecordedAt: time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC),
		Weight:     &laterWeight,
	}
	req = progressRequest(t, http.MethodPost, "/api/v1/progress/athlete/5", second, 1,
		map[string]string{"athleteID": "5"})
	rr = httptest.NewRecorder()
	handler.HandleAdd(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	req = progressRequest(t, http.MethodGet, "/api/v1/progress/athlete/5", nil, 1,
		map[string]string{"athleteID": "5"})
	rr = httptest.NewRecorder()
	handler.HandleListByAthlete(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var records []progress.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
	require.Len(t, records, 2)
	// newest first
	assert.InDelta(t, 81.9, *records[0].Weight, 0.001)

	t.Run("limit", func(t *testing.T) {
		req := progressRequest(t, http.MethodGet, "/api/v1/progress/athlete/5?limit=1", nil, 1,
			map[string]string{"athleteID": "5"})
		rr := httptest.NewRecorder()
		handler.HandleListByAthlete(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
		assert.Len(t, records, 1)
	})

	t.Run("emptyListIsBracketsNotNull", func(t *testing.T) {
		repo.athleteCoach[6] = 1
		req := progressRequest(t, http.MethodGet, "/api/v1/progress/athlete/6", nil, 1,
			map[string]string{"athleteID": "6"})
		rr := httptest.NewRecorder()
		handler.HandleListByAthlete(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "[]", rr.Body.String())
	})
}

func TestProgressHandler_Validation(t *testing.T) {
	repo := newTestProgressRepo()
	repo.athleteCoach[5] = 1
	handler := progress.NewHandler(repo)

	badEnergy := 11
	req := progressRequest(t, http.MethodPost, "/api/v1/progress/athlete/5",
		progress.Record{EnergyLevel: &badEnergy}, 1, map[string]string{"athleteID": "5"})
	rr := httptest.NewRecorder()
	handler.HandleAdd(rr, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	badAdherence := 140
	req = progressRequest(t, http.MethodPost, "/api/v1/progress/athlete/5",
		progress.Record{TrainingAdherence: &badAdherence}, 1, map[string]string{"athleteID": "5"})
	rr = httptest.NewRecorder()
	handler.HandleAdd(rr, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestProgressHandler_OwnershipIsolation(t *testing.T) {
	repo := newTestProgressRepo()
	repo.athleteCoach[5] = 1
	handler := progress.NewHandler(repo)

	weight := 80.0
	req := progressRequest(t, http.MethodPost, "/api/v1/progress/athlete/5",
		progress.Record{Weight: &weight}, 1, map[string]string{"athleteID": "5"})
	rr := httptest.NewRecorder()
	handler.HandleAdd(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	req = progressRequest(t, http.MethodPost, "/api/v1/progress/athlete/5",
		progress.Record{Weight: &weight}, 2, map[string]string{"athleteID": "5"})
	rr = httptest.NewRecorder()
	handler.HandleAdd(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req = progressRequest(t, http.MethodDelete, "/api/v1/progress/1", nil, 2,
		map[string]string{"id": "1"})
	rr = httptest.NewRecorder()
	handler.HandleDelete(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req = progressRequest(t, http.MethodDelete, "/api/v1/progress/1", nil, 1,
		map[string]string{"id": "1"})
	rr = httptest.NewRecorder()
	handler.HandleDelete(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
