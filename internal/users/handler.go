package users

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/flexpro/backend/internal/auth"
	"github.com/flexpro/backend/internal/telemetry/tracing"
	"github.com/flexpro/backend/pkg"

	log "github.com/sirupsen/logrus"
)

type usersRepo interface {
	Get(ctx context.Context, id int) (*User, error)
	UpdateProfile(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id int, hashedPassword string) error
	Stats(ctx context.Context, userID int) (*Stats, error)
}

type UpdateProfileRequest struct {
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	GymName     string `json:"gym_name"`
	Bio         string `json:"bio"`
	Theme       string `json:"theme"`
	Language    string `json:"language"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Handler serves the authenticated coach profile endpoints.
type Handler struct {
	repo usersRepo
}

func NewHandler(repo usersRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.getProfile")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := handler.repo.Get(ctx, userID)
	if err != nil {
		log.Errorf("get profile %d: %s", userID, err)
		pkg.SendAPIError(w, http.StatusNotFound, "user not found")
		return
	}

	pkg.SendJSON(w, http.StatusOK, user)
}

func (handler *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.updateProfile")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.FullName) == "" {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "full_name", Message: "full name required"},
		})
		return
	}

	user, err := handler.repo.Get(ctx, userID)
	if err != nil {
		log.Errorf("update profile, get user %d: %s", userID, err)
		pkg.SendAPIError(w, http.StatusNotFound, "user not found")
		return
	}

	user.FullName = strings.TrimSpace(req.FullName)
	user.PhoneNumber = req.PhoneNumber
	user.GymName = req.GymName
	user.Bio = req.Bio
	// theme and language are UI settings, an empty value keeps the current one
	if req.Theme != "" {
		user.Theme = req.Theme
	}
	if req.Language != "" {
		user.Language = req.Language
	}

	if err := handler.repo.UpdateProfile(ctx, user); err != nil {
		log.Errorf("update profile %d: %s", userID, err)
		http.Error(w, "update profile failed", http.StatusInternalServerError)
		return
	}

	pkg.SendJSON(w, http.StatusOK, user)
}

func (handler *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.changePassword")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.NewPassword) < minPasswordLength {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "new_password", Message: "password too short"},
		})
		return
	}

	user, err := handler.repo.Get(ctx, userID)
	if err != nil {
		log.Errorf("change password, get user %d: %s", userID, err)
		pkg.SendAPIError(w, http.StatusNotFound, "user not found")
		return
	}

	if !pkg.CheckPasswordHash(req.CurrentPassword, user.HashedPassword) {
		pkg.SendAPIError(w, http.StatusUnauthorized, "wrong current password")
		return
	}

	hashedPassword, err := pkg.HashPassword(req.NewPassword)
	if err != nil {
		log.Errorf("change password, hash: %s", err)
		http.Error(w, "change password failed", http.StatusInternalServerError)
		return
	}

	if err := handler.repo.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		log.Errorf("change password %d: %s", userID, err)
		http.Error(w, "change password failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "password changed")
}

func (handler *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.stats")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	stats, err := handler.repo.Stats(ctx, userID)
	if err != nil {
		log.Errorf("get stats %d: %s", userID, err)
		http.Error(w, "get stats failed", http.StatusInternalServerError)
		return
	}

	pkg.SendJSON(w, http.StatusOK, stats)
}
