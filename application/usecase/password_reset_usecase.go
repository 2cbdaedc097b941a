package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chtmcooks/auth-service/application/port/inbound"
	"github.com/chtmcooks/auth-service/application/port/outbound"
	"github.com/chtmcooks/auth-service/domain/entity"
	apperror "github.com/chtmcooks/auth-service/domain/error"
	"github.com/chtmcooks/auth-service/domain/valueobject"
	"github.com/chtmcooks/auth-service/infrastructure/service/logger"
	"github.com/chtmcooks/auth-service/pkg/clock"
)

const resetEmailTimeout = 30 * time.Second

// PasswordResetOption customises a PasswordResetUseCase.
type PasswordResetOption func(*PasswordResetUseCase)

// WithResponseFloor sets the minimum duration every RequestPasswordReset call takes.
func WithResponseFloor(d time.Duration) PasswordResetOption {
	return func(uc *PasswordResetUseCase) {
		if d >= 0 {
			uc.responseFloor = d
		}
	}
}

// WithDispatch replaces the goroutine used to deliver reset emails.
func WithDispatch(dispatch func(func())) PasswordResetOption {
	return func(uc *PasswordResetUseCase) {
		if dispatch != nil {
			uc.dispatch = dispatch
		}
	}
}

// WithPacer replaces the wall clock and sleep used to hold the response floor.
func WithPacer(now func() time.Time, sleep func(context.Context, time.Duration)) PasswordResetOption {
	return func(uc *PasswordResetUseCase) {
		if now != nil {
			uc.paceNow = now
		}
		if sleep != nil {
			uc.paceSleep = sleep
		}
	}
}

type PasswordResetUseCase struct {
	userRepository         outbound.UserRepository
	resetTokenRepository   outbound.PasswordResetRepository
	refreshTokenRepository outbound.RefreshTokenRepository
	tokenService           outbound.TokenService
	passwordService        outbound.PasswordService
	mailer                 outbound.Mailer
	logger                 logger.Logger
	clock                  clock.Clock

	responseFloor time.Duration
	dispatch      func(func())
	paceNow       func() time.Time
	paceSleep     func(context.Context, time.Duration)
}

func NewPasswordResetUseCase(
	userRepo outbound.UserRepository,
	resetTokenRepo outbound.PasswordResetRepository,
	refreshTokenRepo outbound.RefreshTokenRepository,
	tokenService outbound.TokenService,
	passwordService outbound.PasswordService,
	mailer outbound.Mailer,
	log logger.Logger,
	clk clock.Clock,
	opts ...PasswordResetOption,
) *PasswordResetUseCase {
	uc := &PasswordResetUseCase{
		userRepository:         userRepo,
		resetTokenRepository:   resetTokenRepo,
		refreshTokenRepository: refreshTokenRepo,
		tokenService:           tokenService,
		passwordService:        passwordService,
		mailer:                 mailer,
		logger:                 log,
		clock:                  clk,
		responseFloor:          valueobject.PasswordResetResponseFloor,
		dispatch:               func(fn func()) { go fn() },
		paceNow:                time.Now,
		paceSleep:              sleepContext,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// RequestPasswordReset answers identically for known and unknown addresses. Every
// call is held to the response floor and the email is delivered off the request path.
func (uc *PasswordResetUseCase) RequestPasswordReset(ctx context.Context, req inbound.ForgotPasswordRequest) error {
	email := entity.NormalizeEmail(req.Email)
	if email == "" {
		return apperror.ErrValidation("Email is required")
	}

	start := uc.paceNow()
	defer func() {
		if wait := uc.responseFloor - uc.paceNow().Sub(start); wait > 0 {
			uc.paceSleep(ctx, wait)
		}
	}()

	user, err := uc.userRepository.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			logger.LogSecurityEvent(ctx, uc.logger, "password_reset_unknown_email", "LOW", map[string]interface{}{
				"email": email,
			})
			return nil
		}
		return storeFailure(ctx, uc.logger, "find user", err, map[string]interface{}{"email": email})
	}

	token, err := uc.tokenService.GenerateOpaqueToken()
	if err != nil {
		uc.logger.Error(ctx, "Failed to generate reset token", err, map[string]interface{}{"user_id": user.ID})
		return apperror.ErrInternalServerError("reset token generation failed", err)
	}

	record := entity.NewPasswordResetToken(generateID(), user.ID, token, uc.clock.Now(), valueobject.PasswordResetTTL)
	superseded, err := uc.resetTokenRepository.SupersedeAndCreate(ctx, record)
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			// deleted between lookup and issue; answer as for an unknown address
			return nil
		}
		return storeFailure(ctx, uc.logger, "issue reset token", err, map[string]interface{}{"user_id": user.ID})
	}

	logger.LogAuthEvent(ctx, uc.logger, "password_reset_requested", user.ID, "", true, map[string]interface{}{
		"superseded": superseded,
		"token":      logger.Redacted,
	})

	sendCtx := context.WithoutCancel(ctx)
	uc.dispatch(func() {
		deliverCtx, cancel := context.WithTimeout(sendCtx, resetEmailTimeout)
		defer cancel()
		if err := uc.mailer.SendPasswordReset(deliverCtx, user.Email, user.FirstName, token); err != nil {
			// swallowed: the caller already got the generic acknowledgement
			uc.logger.Error(deliverCtx, "Failed to send password reset email", err, map[string]interface{}{
				"user_id": user.ID,
			})
		}
	})

	return nil
}

func (uc *PasswordResetUseCase) VerifyResetToken(ctx context.Context, token string) (*inbound.VerifyResetTokenResponse, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperror.ErrValidation("Token is required")
	}

	record, err := uc.checkResetToken(ctx, token)
	if err != nil {
		return nil, err
	}

	return &inbound.VerifyResetTokenResponse{
		Valid:     true,
		ExpiresAt: record.ExpiresAt,
	}, nil
}

func (uc *PasswordResetUseCase) ResetPassword(ctx context.Context, req inbound.ResetPasswordRequest) error {
	if strings.TrimSpace(req.Token) == "" || req.NewPassword == "" {
		return apperror.ErrValidation("Token and new password are required")
	}
	if err := valueobject.ValidatePassword(req.NewPassword); err != nil {
		return apperror.ErrInvalidPassword("Password must be at least 8 characters long and include uppercase letters, lowercase letters, numbers, and special characters.")
	}

	record, err := uc.checkResetToken(ctx, req.Token)
	if err != nil {
		return err
	}

	user, err := uc.userRepository.FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			return apperror.ErrInvalidToken("Invalid reset token")
		}
		return storeFailure(ctx, uc.logger, "find user", err, map[string]interface{}{"user_id": record.UserID})
	}

	hash, err := uc.passwordService.HashPassword(req.NewPassword)
	if err != nil {
		uc.logger.Error(ctx, "Failed to hash password", err, map[string]interface{}{"user_id": user.ID})
		return apperror.ErrInternalServerError("password hashing failed", err)
	}

	// claim the token before touching the password; only one redemption can win
	if err := uc.resetTokenRepository.MarkUsed(ctx, record.ID); err != nil {
		if errors.Is(err, outbound.ErrResetTokenAlreadyUsed) {
			logger.LogSecurityEvent(ctx, uc.logger, "password_reset_token_reused", "HIGH", map[string]interface{}{
				"user_id": user.ID,
			})
			return apperror.ErrTokenAlreadyUsed("This reset link has already been used")
		}
		return storeFailure(ctx, uc.logger, "mark reset token used", err, map[string]interface{}{"user_id": user.ID})
	}

	if err := uc.userRepository.UpdatePassword(ctx, user.ID, hash); err != nil {
		return storeFailure(ctx, uc.logger, "update password", err, map[string]interface{}{"user_id": user.ID})
	}

	if err := uc.refreshTokenRepository.RevokeByUserID(ctx, user.ID); err != nil {
		logger.LogSecurityEvent(ctx, uc.logger, "password_reset_session_revoke_failed", "HIGH", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		return apperror.ErrServiceUnavailable("revoke user sessions", err)
	}

	logger.LogAuthEvent(ctx, uc.logger, "password_reset_successful", user.ID, "", true, nil)
	return nil
}

// checkResetToken applies found, not used, not expired in that order.
func (uc *PasswordResetUseCase) checkResetToken(ctx context.Context, token string) (*entity.PasswordResetToken, error) {
	record, err := uc.resetTokenRepository.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, outbound.ErrResetTokenNotFound) {
			return nil, apperror.ErrInvalidToken("Invalid reset token")
		}
		return nil, storeFailure(ctx, uc.logger, "find reset token", err, map[string]interface{}{"token": logger.Redacted})
	}
	if record.Used {
		return nil, apperror.ErrTokenAlreadyUsed("This reset link has already been used")
	}
	if record.IsExpired(uc.clock.Now()) {
		return nil, apperror.ErrTokenExpired("This reset link has expired")
	}
	return record, nil
}
