package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flexpro/backend/internal/auth"
	"github.com/flexpro/backend/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeActiveChecker struct {
	active map[int]bool
	err    error
}

func (f *fakeActiveChecker) IsActive(_ context.Context, userID int) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.active[userID], nil
}

func TestAuthMiddlewareHandler_AuthCheck(t *testing.T) {
	tokenService := auth.NewTokenService("test-secret", time.Hour, 24*time.Hour)
	activeChecker := &fakeActiveChecker{active: map[int]bool{
		1: true,
		2: false,
	}}
	authMiddleware := middleware.NewAuthMiddlewareHandler(tokenService, activeChecker)

	activePair, err := tokenService.NewPair(1)
	require.NoError(t, err)
	inactivePair, err := tokenService.NewPair(2)
	require.NoError(t, err)

	testCases := []struct {
		name               string
		path               string
		method             string
		authHeader         string
		expectedStatusCode int
	}{
		{
			name:               "AllowedPathWithoutToken",
			path:               "/api/v1/auth/login",
			method:             "POST",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "RootWithoutToken",
			path:               "/",
			method:             "GET",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "ProtectedPathWithoutToken",
			path:               "/api/v1/athletes",
			method:             "GET",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "ProtectedPathValidToken",
			path:               "/api/v1/athletes",
			method:             "GET",
			authHeader:         "Bearer " + activePair.AccessToken,
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "ProtectedPathRefreshTokenRejected",
			path:               "/api/v1/athletes",
			method:             "GET",
			authHeader:         "Bearer " + activePair.RefreshToken,
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "ProtectedPathGarbageToken",
			path:               "/api/v1/athletes",
			method:             "GET",
			authHeader:         "Bearer not-a-token",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "ProtectedPathMissingBearerPrefix",
			path:               "/api/v1/athletes",
			method:             "GET",
			authHeader:         activePair.AccessToken,
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "ProtectedPathInactiveAccount",
			path:               "/api/v1/athletes",
			method:             "GET",
			authHeader:         "Bearer " + inactivePair.AccessToken,
			expectedStatusCode: http.StatusForbidden,
		},
		{
			name:               "OptionsAlwaysAllowed",
			path:               "/api/v1/athletes",
			method:             "OPTIONS",
			expectedStatusCode: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, tc.path, nil)
			require.NoError(t, err)
			if tc.authHeader != "" {
				req.Header.Add("Authorization", tc.authHeader)
			}

			rr := httptest.NewRecorder()
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
			authMiddleware.AuthCheck()(handler).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
		})
	}
}

func TestAuthMiddlewareHandler_UserIDInContext(t *testing.T) {
	tokenService := auth.NewTokenService("test-secret", time.Hour, 24*time.Hour)
	activeChecker := &fakeActiveChecker{active: map[int]bool{15: true}}
	authMiddleware := middleware.NewAuthMiddlewareHandler(tokenService, activeChecker)

	pair, err := tokenService.NewPair(15)
	require.NoError(t, err)

	var gotUserID int
	var gotOk bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, gotOk = auth.UserIDFromContext(r.Context())
	})

	req := httptest.NewRequest("GET", "/api/v1/profile", nil)
	req.Header.Add("Authorization", "Bearer "+pair.AccessToken)
	rr := httptest.NewRecorder()
	authMiddleware.AuthCheck()(handler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, gotOk)
	assert.Equal(t, 15, gotUserID)
}
