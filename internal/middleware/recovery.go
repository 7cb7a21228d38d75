package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/flexpro/backend/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

// PanicRecovery turns handler panics into a 500 instead of killing the
// connection, and counts them so they show up on the dashboard.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				log.Errorf("panic in %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
