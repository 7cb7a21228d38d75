package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/flexpro/backend/internal/auth"
	"github.com/flexpro/backend/internal/telemetry/metrics"
	"github.com/flexpro/backend/internal/telemetry/tracing"
	"github.com/flexpro/backend/pkg"

	log "github.com/sirupsen/logrus"
)

const (
	minPasswordLength = 8

	defaultTheme    = "dark"
	defaultLanguage = "en"
)

type tokenIssuer interface {
	NewPair(userID int) (*auth.TokenPair, error)
	VerifyRefreshToken(token string) (*auth.Claims, error)
}

type authUsersRepo interface {
	Create(ctx context.Context, user User) (*User, error)
	Get(ctx context.Context, id int) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthHandler serves the unauthenticated endpoints: register, login, refresh.
type AuthHandler struct {
	repo           authUsersRepo
	tokens         tokenIssuer
	metricsManager *metrics.Manager
}

func NewAuthHandler(
	repo authUsersRepo,
	tokens tokenIssuer,
	metricsManager *metrics.Manager,
) *AuthHandler {
	return &AuthHandler{
		repo:           repo,
		tokens:         tokens,
		metricsManager: metricsManager,
	}
}

func (handler *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.register")
	defer span.End()

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("register, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	var fieldErrors []pkg.FieldError
	if !strings.Contains(req.Email, "@") {
		fieldErrors = append(fieldErrors, pkg.FieldError{Field: "email", Message: "invalid email address"})
	}
	if len(req.Password) < minPasswordLength {
		fieldErrors = append(fieldErrors, pkg.FieldError{Field: "password", Message: "password too short"})
	}
	if strings.TrimSpace(req.FullName) == "" {
		fieldErrors = append(fieldErrors, pkg.FieldError{Field: "full_name", Message: "full name required"})
	}
	if len(fieldErrors) > 0 {
		pkg.SendValidationErrors(w, fieldErrors)
		return
	}

	hashedPassword, err := pkg.HashPassword(req.Password)
	if err != nil {
		log.Errorf("register, hash password: %s", err)
		http.Error(w, "registration failed", http.StatusInternalServerError)
		return
	}

	user, err := handler.repo.Create(ctx, User{
		Email:          req.Email,
		HashedPassword: hashedPassword,
		FullName:       strings.TrimSpace(req.FullName),
		Theme:          defaultTheme,
		Language:       defaultLanguage,
	})
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			pkg.SendAPIError(w, http.StatusConflict, "email already taken")
			return
		}
		log.Errorf("register, create user: %s", err)
		http.Error(w, "registration failed", http.StatusInternalServerError)
		return
	}

	tokenPair, err := handler.tokens.NewPair(user.ID)
	if err != nil {
		log.Errorf("register, new token pair: %s", err)
		http.Error(w, "registration failed", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterRegistrations.Inc()
	log.Debugf("new coach registered: %d [%s]", user.ID, user.Email)

	pkg.SendJSON(w, http.StatusCreated, AuthResponse{
		User:         user,
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
	})
}

func (handler *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.login")
	defer span.End()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("login, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := handler.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			log.Errorf("login, get user [%s]: %s", req.Email, err)
		}
		// same response for unknown email and wrong password
		pkg.SendAPIError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !pkg.CheckPasswordHash(req.Password, user.HashedPassword) {
		reqIP, _ := pkg.ReadUserIP(r)
		log.Warnf("login failed for [%s] from %s", req.Email, reqIP)
		pkg.SendAPIError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !user.IsActive {
		pkg.SendAPIError(w, http.StatusForbidden, "account disabled")
		return
	}

	tokenPair, err := handler.tokens.NewPair(user.ID)
	if err != nil {
		log.Errorf("login, new token pair: %s", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterLogins.Inc()

	pkg.SendJSON(w, http.StatusOK, AuthResponse{
		User:         user,
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
	})
}

func (handler *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.refresh")
	defer span.End()

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	claims, err := handler.tokens.VerifyRefreshToken(req.RefreshToken)
	if err != nil {
		log.Tracef("refresh, verify token: %s", err)
		pkg.SendAPIError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	user, err := handler.repo.Get(ctx, claims.UserID)
	if err != nil {
		log.Errorf("refresh, get user %d: %s", claims.UserID, err)
		pkg.SendAPIError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	if !user.IsActive {
		pkg.SendAPIError(w, http.StatusForbidden, "account disabled")
		return
	}

	tokenPair, err := handler.tokens.NewPair(user.ID)
	if err != nil {
		log.Errorf("refresh, new token pair: %s", err)
		http.Error(w, "refresh failed", http.StatusInternalServerError)
		return
	}

	pkg.SendJSON(w, http.StatusOK, tokenPair)
}
