package middleware

import (
	"net/http"

	log "github.com/sirupsen/logrus"
)

// LogRequest traces every incoming request. Kept at trace level so production
// logs stay quiet unless the level is lowered for debugging.
func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.WithFields(log.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
				"ua":     r.Header.Get("User-Agent"),
			}).Trace("incoming request")
			next.ServeHTTP(w, r)
		})
	}
}
