package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/chtmcooks/auth-service/application/port/inbound"
	"github.com/chtmcooks/auth-service/domain/entity"
	"github.com/chtmcooks/auth-service/infrastructure/http/middleware"
	"github.com/chtmcooks/auth-service/infrastructure/http/response"
)

type callerResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type dashboardResponse struct {
	User     callerResponse          `json:"user"`
	Overview *inbound.SystemOverview `json:"overview,omitempty"`
}

// RoleHandler serves one landing route per role.
type RoleHandler struct {
	dashboard inbound.DashboardUseCase
	auth      *middleware.AuthMiddleware
	limits    *middleware.RateLimitMiddleware
}

func NewRoleHandler(dashboard inbound.DashboardUseCase, auth *middleware.AuthMiddleware, limits *middleware.RateLimitMiddleware) *RoleHandler {
	return &RoleHandler{
		dashboard: dashboard,
		auth:      auth,
		limits:    limits,
	}
}

func (h *RoleHandler) RegisterRoutes(router *mux.Router) {
	for _, role := range []entity.Role{entity.RoleAdvisor, entity.RoleConsultant, entity.RoleStudent} {
		router.Handle("/"+string(role), h.guard(role, h.Welcome)).Methods(http.MethodGet)
	}
	router.Handle("/"+string(entity.RoleSuperAdmin), h.guard(entity.RoleSuperAdmin, h.SuperAdmin)).Methods(http.MethodGet)
}

func (h *RoleHandler) guard(role entity.Role, next http.HandlerFunc) http.Handler {
	return h.auth.RequireRoles(string(role))(h.limits.Limit("api:read")(next))
}

func caller(r *http.Request) callerResponse {
	claims := middleware.UserClaims(r.Context())
	return callerResponse{ID: claims.UserID, Email: claims.Email, Role: claims.Role}
}

func (h *RoleHandler) Welcome(w http.ResponseWriter, r *http.Request) {
	user := caller(r)
	response.Success(w, http.StatusOK, "Welcome, "+user.Role+"!", dashboardResponse{User: user})
}

func (h *RoleHandler) SuperAdmin(w http.ResponseWriter, r *http.Request) {
	overview, err := h.dashboard.Overview(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	user := caller(r)
	response.Success(w, http.StatusOK, "Welcome, "+user.Role+"!", dashboardResponse{User: user, Overview: overview})
}
