package middleware

import (
	"net/http"

	log "github.com/sirupsen/logrus"
)

// Cors allows browser clients from the configured origins. Requests without
// an Origin header (curl, server-to-server) pass through untouched.
func Cors(allowedOrigins []string) func(next http.Handler) http.Handler {
	originAllowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		originAllowed[origin] = true
	}
	allowAll := originAllowed["*"]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !allowAll && !originAllowed[origin] {
				log.Warnf("cors: origin [%s] rejected for %s", origin, r.URL.Path)
				w.WriteHeader(http.StatusForbidden)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

			// preflight requests end here
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
