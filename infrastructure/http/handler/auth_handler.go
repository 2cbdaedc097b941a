package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/chtmcooks/auth-service/application/port/inbound"
	"github.com/chtmcooks/auth-service/infrastructure/http/middleware"
	"github.com/chtmcooks/auth-service/infrastructure/http/response"
)

type AuthHandler struct {
	authUseCase inbound.AuthUseCase
	auth        *middleware.AuthMiddleware
	limits      *middleware.RateLimitMiddleware
}

func NewAuthHandler(authUseCase inbound.AuthUseCase, auth *middleware.AuthMiddleware, limits *middleware.RateLimitMiddleware) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
		auth:        auth,
		limits:      limits,
	}
}

func (h *AuthHandler) RegisterRoutes(router *mux.Router) {
	router.Handle("/register", h.limits.Limit("auth:register")(http.HandlerFunc(h.Register))).Methods(http.MethodPost)
	router.Handle("/login", h.limits.Limit("auth:login")(http.HandlerFunc(h.Login))).Methods(http.MethodPost)
	router.Handle("/refresh", h.limits.Limit("auth:refresh")(http.HandlerFunc(h.Refresh))).Methods(http.MethodPost)
	router.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
	router.Handle("/logout-all", h.auth.RequireAuth(h.limits.Limit("api-general")(http.HandlerFunc(h.LogoutAll)))).Methods(http.MethodPost)
	router.Handle("/me", h.auth.RequireAuth(h.limits.Limit("api:read")(http.HandlerFunc(h.Me)))).Methods(http.MethodGet)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req inbound.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.authUseCase.Register(r.Context(), req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, http.StatusCreated, "User created successfully.", res)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req inbound.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.authUseCase.Login(r.Context(), req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, "Login successful.", res)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req inbound.RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.authUseCase.Refresh(r.Context(), req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, "Token refreshed successfully.", res)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req inbound.LogoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authUseCase.Logout(r.Context(), req); err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, "Logged out successfully.", nil)
}

func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	if err := h.authUseCase.LogoutAll(r.Context(), middleware.UserID(r.Context())); err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, "Logged out from all devices.", nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authUseCase.Me(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, "success", user)
}
