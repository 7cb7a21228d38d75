package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/flexpro/backend/internal/auth"
	"github.com/flexpro/backend/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type accessTokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type activeUserChecker interface {
	IsActive(ctx context.Context, userID int) (bool, error)
}

type AuthMiddlewareHandler struct {
	tokenVerifier accessTokenVerifier
	activeChecker activeUserChecker
	allowedPaths  map[string]bool
}

func NewAuthMiddlewareHandler(
	tokenVerifier accessTokenVerifier,
	activeChecker activeUserChecker,
) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		tokenVerifier: tokenVerifier,
		activeChecker: activeChecker,
		allowedPaths: map[string]bool{
			"/":        true,
			"/version": true,

			// auth handler:
			"/api/v1/auth/register": true,
			"/api/v1/auth/login":    true,
			"/api/v1/auth/refresh":  true,
		},
	}
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if h.allowedPaths[r.URL.Path] {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			authHeader := r.Header.Get("Authorization")
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == "" || token == authHeader {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			claims, err := h.tokenVerifier.VerifyAccessToken(token)
			if err != nil {
				log.Tracef("[invalid token] [auth middleware] unauthorized => %s: %s", r.URL.Path, err)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "invalid-token")
				return
			}

			isActive, err := h.activeChecker.IsActive(ctx, claims.UserID)
			if err != nil {
				log.Errorf("[failed active check] => %s: %s", r.URL.Path, err)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "active-check-err")
				span.RecordError(err)
				return
			}
			if !isActive {
				log.Tracef("[inactive account] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "account disabled", http.StatusForbidden)
				span.SetStatus(codes.Error, "inactive-account")
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.ContextWithUserID(ctx, claims.UserID)))
		})
	}
}
