package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/chtmcooks/auth-service/application/port/inbound"
	"github.com/chtmcooks/auth-service/application/port/outbound"
	apperror "github.com/chtmcooks/auth-service/domain/error"
	"github.com/chtmcooks/auth-service/domain/valueobject"
	"github.com/chtmcooks/auth-service/infrastructure/service/logger"
	"github.com/chtmcooks/auth-service/pkg/clock"
)

type EmailVerificationUseCase struct {
	userRepository outbound.UserRepository
	tokenService   outbound.TokenService
	mailer         outbound.Mailer
	logger         logger.Logger
	clock          clock.Clock
}

func NewEmailVerificationUseCase(
	userRepo outbound.UserRepository,
	tokenService outbound.TokenService,
	mailer outbound.Mailer,
	log logger.Logger,
	clk clock.Clock,
) *EmailVerificationUseCase {
	return &EmailVerificationUseCase{
		userRepository: userRepo,
		tokenService:   tokenService,
		mailer:         mailer,
		logger:         log,
		clock:          clk,
	}
}

func (uc *EmailVerificationUseCase) VerifyEmail(ctx context.Context, token string) (*inbound.VerifyEmailResponse, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperror.ErrValidation("Verification token is required")
	}

	user, err := uc.userRepository.FindByEmailVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			return nil, apperror.ErrInvalidToken("Invalid verification token")
		}
		return nil, storeFailure(ctx, uc.logger, "find user by verification token", err, map[string]interface{}{
			"token": logger.Redacted,
		})
	}

	if user.EmailVerified {
		return &inbound.VerifyEmailResponse{AlreadyVerified: true}, nil
	}
	if user.EmailVerificationToken == nil || user.EmailVerificationToken.IsExpired(uc.clock.Now()) {
		return nil, apperror.ErrTokenExpired("Verification token has expired. Please request a new one.")
	}

	if err := uc.userRepository.MarkEmailVerified(ctx, user.ID); err != nil {
		switch {
		case errors.Is(err, outbound.ErrEmailAlreadyVerified):
			return &inbound.VerifyEmailResponse{AlreadyVerified: true}, nil
		case errors.Is(err, outbound.ErrUserNotFound):
			return nil, apperror.ErrInvalidToken("Invalid verification token")
		}
		return nil, storeFailure(ctx, uc.logger, "mark email verified", err, map[string]interface{}{"user_id": user.ID})
	}

	logger.LogAuthEvent(ctx, uc.logger, "email_verified", user.ID, "", true, nil)
	return &inbound.VerifyEmailResponse{AlreadyVerified: false}, nil
}

// ResendVerification replaces the embedded token and surfaces delivery failures.
func (uc *EmailVerificationUseCase) ResendVerification(ctx context.Context, userID string) error {
	if userID == "" {
		return apperror.ErrAuthenticationRequired()
	}

	user, err := uc.userRepository.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			return apperror.ErrAccountNotFound(userID)
		}
		return storeFailure(ctx, uc.logger, "find user", err, map[string]interface{}{"user_id": userID})
	}
	if user.EmailVerified {
		return apperror.ErrAlreadyVerified()
	}

	token, err := uc.tokenService.GenerateOpaqueToken()
	if err != nil {
		uc.logger.Error(ctx, "Failed to generate verification token", err, map[string]interface{}{"user_id": user.ID})
		return apperror.ErrInternalServerError("verification token generation failed", err)
	}

	expiresAt := uc.clock.Now().Add(valueobject.EmailVerificationTTL)
	if err := uc.userRepository.SetEmailVerificationToken(ctx, user.ID, token, expiresAt); err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			return apperror.ErrAccountNotFound(userID)
		}
		return storeFailure(ctx, uc.logger, "set verification token", err, map[string]interface{}{"user_id": user.ID})
	}

	if err := uc.mailer.SendEmailVerification(ctx, user.Email, user.FirstName, token); err != nil {
		uc.logger.Error(ctx, "Failed to send verification email", err, map[string]interface{}{"user_id": user.ID})
		return apperror.ErrDeliveryFailed(err)
	}

	logger.LogAuthEvent(ctx, uc.logger, "verification_email_sent", user.ID, "", true, nil)
	return nil
}
