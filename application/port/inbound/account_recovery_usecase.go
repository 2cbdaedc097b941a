package inbound

import (
	"context"
	"time"
)

// PasswordResetRequestedMessage is returned whether or not the account exists.
const PasswordResetRequestedMessage = "If an account with that email exists, a password reset link has been sent."

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type VerifyResetTokenResponse struct {
	Valid     bool      `json:"valid"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type VerifyEmailResponse struct {
	AlreadyVerified bool `json:"alreadyVerified"`
}

type PasswordResetUseCase interface {
	RequestPasswordReset(ctx context.Context, req ForgotPasswordRequest) error
	VerifyResetToken(ctx context.Context, token string) (*VerifyResetTokenResponse, error)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
}

type EmailVerificationUseCase interface {
	VerifyEmail(ctx context.Context, token string) (*VerifyEmailResponse, error)
	ResendVerification(ctx context.Context, userID string) error
}
