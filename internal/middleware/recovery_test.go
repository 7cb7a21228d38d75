package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flexpro/backend/internal/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPanicRecovery(t *testing.T) {
	serve := func(t *testing.T, shouldPanic bool) (*metrics.Manager, *httptest.ResponseRecorder, *bool) {
		t.Helper()

		m := metrics.NewTestManager()
		var nextCalled bool
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
			if shouldPanic {
				panic("boom")
			}
			w.WriteHeader(http.StatusOK)
		})

		rr := httptest.NewRecorder()
		PanicRecovery(m)(next).ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/athletes", nil))
		return m, rr, &nextCalled
	}

	t.Run("noPanic", func(t *testing.T) {
		m, rr, nextCalled := serve(t, false)
		assert.True(t, *nextCalled)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, float64(0), testutil.ToFloat64(m.CounterHandleRequestPanic))
	})

	t.Run("panicBecomes500", func(t *testing.T) {
		m, rr, nextCalled := serve(t, true)
		assert.True(t, *nextCalled)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, float64(1), testutil.ToFloat64(m.CounterHandleRequestPanic))
	})
}
