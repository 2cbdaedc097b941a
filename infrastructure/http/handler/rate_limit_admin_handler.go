package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/chtmcooks/auth-service/application/port/inbound"
	apperror "github.com/chtmcooks/auth-service/domain/error"
	"github.com/chtmcooks/auth-service/domain/valueobject"
	"github.com/chtmcooks/auth-service/infrastructure/http/middleware"
	"github.com/chtmcooks/auth-service/infrastructure/http/response"
)

// RateLimitAdminHandler lets a superadmin inspect or clear a caller's window.
type RateLimitAdminHandler struct {
	limiter inbound.RateLimiter
	auth    *middleware.AuthMiddleware
	limits  *middleware.RateLimitMiddleware
}

func NewRateLimitAdminHandler(limiter inbound.RateLimiter, auth *middleware.AuthMiddleware, limits *middleware.RateLimitMiddleware) *RateLimitAdminHandler {
	return &RateLimitAdminHandler{
		limiter: limiter,
		auth:    auth,
		limits:  limits,
	}
}

func (h *RateLimitAdminHandler) RegisterRoutes(router *mux.Router) {
	guard := func(next http.HandlerFunc) http.Handler {
		return h.auth.RequireRoles("superadmin")(h.limits.Limit("api:admin")(next))
	}
	router.Handle("/rate-limits", guard(h.Status)).Methods(http.MethodGet)
	router.Handle("/rate-limits", guard(h.Reset)).Methods(http.MethodDelete)
}

func limitTarget(r *http.Request) (string, string, error) {
	identifier := strings.TrimSpace(r.URL.Query().Get("identifier"))
	rule := strings.TrimSpace(r.URL.Query().Get("rule"))
	if identifier == "" {
		return "", "", apperror.ErrValidation("identifier is required")
	}
	if rule == "" {
		rule = valueobject.DefaultRateLimitRule
	}
	return identifier, rule, nil
}

func (h *RateLimitAdminHandler) Status(w http.ResponseWriter, r *http.Request) {
	identifier, rule, err := limitTarget(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, "success", h.limiter.Status(r.Context(), identifier, rule))
}

func (h *RateLimitAdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	identifier, rule, err := limitTarget(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	if err := h.limiter.Reset(r.Context(), identifier, rule); err != nil {
		response.FromError(w, r, apperror.ErrServiceUnavailable("reset rate limit", err))
		return
	}

	response.Success(w, http.StatusOK, "Rate limit reset.", nil)
}
