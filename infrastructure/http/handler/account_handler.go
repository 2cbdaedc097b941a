package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/chtmcooks/auth-service/application/port/inbound"
	"github.com/chtmcooks/auth-service/infrastructure/http/middleware"
	"github.com/chtmcooks/auth-service/infrastructure/http/response"
)

// AccountHandler serves password recovery and email verification.
type AccountHandler struct {
	passwordReset     inbound.PasswordResetUseCase
	emailVerification inbound.EmailVerificationUseCase
	auth              *middleware.AuthMiddleware
	limits            *middleware.RateLimitMiddleware
}

func NewAccountHandler(
	passwordReset inbound.PasswordResetUseCase,
	emailVerification inbound.EmailVerificationUseCase,
	auth *middleware.AuthMiddleware,
	limits *middleware.RateLimitMiddleware,
) *AccountHandler {
	return &AccountHandler{
		passwordReset:     passwordReset,
		emailVerification: emailVerification,
		auth:              auth,
		limits:            limits,
	}
}

func (h *AccountHandler) RegisterRoutes(router *mux.Router) {
	router.Handle("/forgot-password", h.limits.Limit("auth:password-reset")(http.HandlerFunc(h.ForgotPassword))).Methods(http.MethodPost)
	router.Handle("/verify-reset-token", h.limits.Limit("api:read")(http.HandlerFunc(h.VerifyResetToken))).Methods(http.MethodGet)
	router.Handle("/reset-password", h.limits.Limit("auth:password-reset")(http.HandlerFunc(h.ResetPassword))).Methods(http.MethodPost)
	router.Handle("/verify-email", h.limits.Limit("api:read")(http.HandlerFunc(h.VerifyEmail))).Methods(http.MethodGet)
	// authenticated first so the limiter keys on the user
	router.Handle("/resend-verification", h.auth.RequireAuth(h.limits.Limit("auth:password-reset")(http.HandlerFunc(h.ResendVerification)))).Methods(http.MethodPost)
}

func (h *AccountHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req inbound.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.passwordReset.RequestPasswordReset(r.Context(), req); err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, inbound.PasswordResetRequestedMessage, nil)
}

func (h *AccountHandler) VerifyResetToken(w http.ResponseWriter, r *http.Request) {
	res, err := h.passwordReset.VerifyResetToken(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, "Token is valid", res)
}

func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req inbound.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.passwordReset.ResetPassword(r.Context(), req); err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, "Password reset successful. Please login with your new password.", nil)
}

func (h *AccountHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	res, err := h.emailVerification.VerifyEmail(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	message := "Email verified successfully! You can now access all features."
	if res.AlreadyVerified {
		message = "Email already verified"
	}
	response.Success(w, http.StatusOK, message, res)
}

func (h *AccountHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	if err := h.emailVerification.ResendVerification(r.Context(), middleware.UserID(r.Context())); err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, "Verification email sent. Please check your inbox.", nil)
}
