package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorsMiddleware(t *testing.T) {
	allowedOrigins := []string{
		"https://app.flexpro.fit",
		"http://localhost:3000",
	}

	testCases := []struct {
		name           string
		method         string
		origin         string
		path           string
		expectCors     bool
		expectedStatus int
	}{
		{
			name:           "AllowedOrigin",
			origin:         "https://app.flexpro.fit",
			path:           "/api/v1/athletes",
			expectCors:     true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "AllowedLocalhostOrigin",
			origin:         "http://localhost:3000",
			path:           "/api/v1/athletes",
			expectCors:     true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "NotAllowedOrigin",
			origin:         "https://www.notallowed.com",
			path:           "/api/v1/athletes",
			expectCors:     false,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "NoOriginPassesThrough",
			path:           "/api/v1/athletes",
			expectCors:     false,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "PreflightShortCircuits",
			method:         http.MethodOptions,
			origin:         "http://localhost:3000",
			path:           "/api/v1/athletes",
			expectCors:     true,
			expectedStatus: http.StatusNoContent,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			method := tc.method
			if method == "" {
				method = http.MethodGet
			}

			rr := httptest.NewRecorder()
			req, err := http.NewRequest(method, tc.path, nil)
			require.NoError(t, err)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}

			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
			handler := Cors(allowedOrigins)(nextHandler)

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.expectCors {
				assert.Equal(t, tc.origin, rr.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}
