package users_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flexpro/backend/internal/auth"
	"github.com/flexpro/backend/internal/telemetry/metrics"
	"github.com/flexpro/backend/internal/users"
	"github.com/flexpro/backend/pkg"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jackc/pgx/v5/pgconn"
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

type testUsersRepo struct {
	users      map[int]*users.User
	nextID     int
	statsErr   error
	statsProto users.Stats
}

func newTestUsersRepo() *testUsersRepo {
	return &testUsersRepo{
		users:  map[int]*users.User{},
		nextID: 1,
	}
}

func (r *testUsersRepo) addUser(email, password string, isActive bool) *users.User {
	hashed, err := pkg.HashPassword(password)
	if err != nil {
		panic(err)
	}
	u := &users.User{
		ID:             r.nextID,
		Email:          email,
		HashedPassword: hashed,
		FullName:       "Test Coach",
		IsActive:       isActive,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	r.users[u.ID] = u
	r.nextID++
	return u
}

func (r *testUsersRepo) Create(_ context.Context, user users.User) (*users.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, &pgconn.PgError{Code: "23505"}
		}
	}
	user.ID = r.nextID
	user.IsActive = true
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = &user
	r.nextID++
	return &user, nil
}

func (r *testUsersRepo) Get(_ context.Context, id int) (*users.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return u, nil
}

func (r *testUsersRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, users.ErrUserNotFound
}

func (r *testUsersRepo) UpdateProfile(_ context.Context, user *users.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return users.ErrUserNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *testUsersRepo) UpdatePassword(_ context.Context, id int, hashedPassword string) error {
	u, ok := r.users[id]
	if !ok {
		return users.ErrUserNotFound
	}
	u.HashedPassword = hashedPassword
	return nil
}

func (r *testUsersRepo) Stats(_ context.Context, _ int) (*users.Stats, error) {
	if r.statsErr != nil {
		return nil, r.statsErr
	}
	s := r.statsProto
	return &s, nil
}

func newTestAuthHandler(t *testing.T) (*users.AuthHandler, *testUsersRepo, *auth.TokenService) {
	t.Helper()
	repo := newTestUsersRepo()
	tokenService := auth.NewTokenService("test-secret", time.Hour, 24*time.Hour)
	handler := users.NewAuthHandler(repo, tokenService, metrics.NewTestManager())
	return handler, repo, tokenService
}

func TestAuthHandler_Register(t *testing.T) {
	handler, _, tokenService := newTestAuthHandler(t)

	reqBody, err := json.Marshal(users.RegisterRequest{
		Email:    "Coach@Example.com",
		Password: "strong-password",
		FullName: "Coach Kai",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(reqBody))
	rr := httptest.NewRecorder()
	handler.HandleRegister(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var resp users.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	// email is normalized to lowercase
	assert.Equal(t, "coach@example.com", resp.User.Email)
	assert.True(t, resp.User.IsActive)
	require.NotEmpty(t, resp.AccessToken)

	claims, err := tokenService.VerifyAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
}

func TestAuthHandler_Register_ManyCoaches(t *testing.T) {
	handler, repo, _ := newTestAuthHandler(t)

	seen := map[int]bool{}
	for i := 0; i < 20; i++ {
		reqBody, err := json.Marshal(users.RegisterRequest{
			Email:    fmt.Sprintf("%d.%s", i, gofakeit.Email()),
			Password: gofakeit.Password(true, true, true, false, false, 12),
			FullName: gofakeit.Name(),
		})
		require.NoError(t, err)

		req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(reqBody))
		rr := httptest.NewRecorder()
		handler.HandleRegister(rr, req)
		require.Equal(t, http.StatusCreated, rr.Code)

		var resp users.AuthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.False(t, seen[resp.User.ID])
		seen[resp.User.ID] = true
	}
	assert.Len(t, repo.users, 20)
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	handler, _, _ := newTestAuthHandler(t)

	testCases := []struct {
		name string
		req  users.RegisterRequest
	}{
		{
			name: "BadEmail",
			req:  users.RegisterRequest{Email: "not-an-email", Password: "strong-password", FullName: "Kai"},
		},
		{
			name: "ShortPassword",
			req:  users.RegisterRequest{Email: "kai@example.com", Password: "short", FullName: "Kai"},
		},
		{
			name: "EmptyFullName",
			req:  users.RegisterRequest{Email: "kai@example.com", Password: "strong-password", FullName: "  "},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reqBody, err := json.Marshal(tc.req)
			require.NoError(t, err)
			req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(reqBody))
			rr := httptest.NewRecorder()
			handler.HandleRegister(rr, req)
			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		})
	}
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	handler, repo, _ := newTestAuthHandler(t)
	repo.addUser("taken@example.com", "some-password", true)

	reqBody, err := json.Marshal(users.RegisterRequest{
		Email:    "taken@example.com",
		Password: "strong-password",
		FullName: "Coach Kai",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(reqBody))
	rr := httptest.NewRecorder()
	handler.HandleRegister(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	handler, repo, _ := newTestAuthHandler(t)
	repo.addUser("coach@example.com", "strong-password", true)
	repo.addUser("disabled@example.com", "strong-password", false)

	testCases := []struct {
		name               string
		email              string
		password           string
		expectedStatusCode int
	}{
		{
			name:               "Ok",
			email:              "coach@example.com",
			password:           "strong-password",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "WrongPassword",
			email:              "coach@example.com",
			password:           "wrong-password",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "UnknownEmail",
			email:              "nobody@example.com",
			password:           "strong-password",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "DisabledAccount",
			email:              "disabled@example.com",
			password:           "strong-password",
			expectedStatusCode: http.StatusForbidden,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reqBody, err := json.Marshal(users.LoginRequest{Email: tc.email, Password: tc.password})
			require.NoError(t, err)
			req := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewReader(reqBody))
			rr := httptest.NewRecorder()
			handler.HandleLogin(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			if tc.expectedStatusCode == http.StatusOK {
				var resp users.AuthResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.NotEmpty(t, resp.AccessToken)
				assert.NotEmpty(t, resp.RefreshToken)
			}
		})
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	handler, repo, tokenService := newTestAuthHandler(t)
	user := repo.addUser("coach@example.com", "strong-password", true)

	pair, err := tokenService.NewPair(user.ID)
	require.NoError(t, err)

	reqBody, err := json.Marshal(users.RefreshRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/api/v1/auth/refresh", bytes.NewReader(reqBody))
	rr := httptest.NewRecorder()
	handler.HandleRefresh(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var newPair auth.TokenPair
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &newPair))
	assert.NotEmpty(t, newPair.AccessToken)
	assert.NotEmpty(t, newPair.RefreshToken)
}

func TestAuthHandler_Refresh_AccessTokenRejected(t *testing.T) {
	handler, repo, tokenService := newTestAuthHandler(t)
	user := repo.addUser("coach@example.com", "strong-password", true)

	pair, err := tokenService.NewPair(user.ID)
	require.NoError(t, err)

	// an access token must not be usable for refresh
	reqBody, err := json.Marshal(users.RefreshRequest{RefreshToken: pair.AccessToken})
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/api/v1/auth/refresh", bytes.NewReader(reqBody))
	rr := httptest.NewRecorder()
	handler.HandleRefresh(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
