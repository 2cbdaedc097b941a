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

type AuthUseCase struct {
	userRepository         outbound.UserRepository
	refreshTokenRepository outbound.RefreshTokenRepository
	tokenService           outbound.TokenService
	passwordService        outbound.PasswordService
	studentEmail           *valueobject.StudentEmailValidator
	logger                 logger.Logger
	clock                  clock.Clock
}

func NewAuthUseCase(
	userRepo outbound.UserRepository,
	refreshTokenRepo outbound.RefreshTokenRepository,
	tokenService outbound.TokenService,
	passwordService outbound.PasswordService,
	studentEmailDomain string,
	log logger.Logger,
	clk clock.Clock,
) *AuthUseCase {
	return &AuthUseCase{
		userRepository:         userRepo,
		refreshTokenRepository: refreshTokenRepo,
		tokenService:           tokenService,
		passwordService:        passwordService,
		studentEmail:           valueobject.NewStudentEmailValidator(studentEmailDomain),
		logger:                 log,
		clock:                  clk,
	}
}

func (uc *AuthUseCase) Register(ctx context.Context, req inbound.RegisterRequest) (*inbound.RegisterResponse, error) {
	role := entity.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if role == "" {
		role = entity.RoleStudent
	}
	email := entity.NormalizeEmail(req.Email)

	if err := uc.validateRegistration(req, role, email); err != nil {
		logger.LogAuthEvent(ctx, uc.logger, "register_validation_failed", "", "", false, map[string]interface{}{
			"email": email,
			"error": err.Error(),
		})
		return nil, err
	}

	exists, err := uc.userRepository.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, storeFailure(ctx, uc.logger, "check email", err, map[string]interface{}{"email": email})
	}
	if exists {
		return nil, apperror.ErrEmailAlreadyRegistered()
	}

	hash, err := uc.passwordService.HashPassword(req.Password)
	if err != nil {
		uc.logger.Error(ctx, "Failed to hash password", err, nil)
		return nil, apperror.ErrInternalServerError("password hashing failed", err)
	}

	now := uc.clock.Now()
	user := entity.NewUser(generateID(), email, hash, strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), role, now)
	if role == entity.RoleStudent {
		user.YearLevel = req.YearLevel
		user.Block = strings.TrimSpace(req.Block)
		user.Agreement = req.Agreement
	}

	if err := uc.userRepository.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration for the same address
		if errors.Is(err, outbound.ErrUserAlreadyExists) {
			return nil, apperror.ErrEmailAlreadyRegistered()
		}
		return nil, storeFailure(ctx, uc.logger, "create user", err, map[string]interface{}{"email": email})
	}

	pair, err := uc.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.LogAuthEvent(ctx, uc.logger, "register_successful", user.ID, "", true, map[string]interface{}{
		"role": string(role),
	})

	return &inbound.RegisterResponse{
		User:         toUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	}, nil
}

func (uc *AuthUseCase) validateRegistration(req inbound.RegisterRequest, role entity.Role, email string) error {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" || email == "" || req.Password == "" {
		return apperror.ErrValidation("First name, last name, email, and password are required.")
	}
	if !role.Valid() {
		return apperror.ErrValidation("Invalid role.")
	}
	if role == entity.RoleStudent && (req.YearLevel <= 0 || strings.TrimSpace(req.Block) == "" || !req.Agreement) {
		return apperror.ErrValidation("Year level, block, and agreement are required for students.")
	}
	if err := valueobject.ValidateEmail(email); err != nil {
		return apperror.ErrInvalidEmail("Please provide a valid email address.")
	}
	if err := valueobject.ValidatePassword(req.Password); err != nil {
		return apperror.ErrInvalidPassword("Password must be at least 8 characters long and include uppercase letters, lowercase letters, numbers, and special characters.")
	}
	if role == entity.RoleStudent {
		if err := uc.studentEmail.Validate(email); err != nil {
			return apperror.ErrInvalidEmail("Student email must be a 9 digit student number at the school domain.")
		}
	}
	return nil
}

func (uc *AuthUseCase) Login(ctx context.Context, req inbound.LoginRequest) (*inbound.LoginResponse, error) {
	creds, err := valueobject.NewCredentials(req.Email, req.Password)
	if err != nil {
		return nil, apperror.ErrValidation("Email and password are required.")
	}

	user, err := uc.userRepository.FindByEmail(ctx, creds.Email())
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			logger.LogAuthEvent(ctx, uc.logger, "login_failed_user_not_found", "", "", false, map[string]interface{}{
				"email": creds.Email(),
			})
			return nil, apperror.ErrInvalidCredentials()
		}
		return nil, storeFailure(ctx, uc.logger, "find user", err, map[string]interface{}{"email": creds.Email()})
	}

	start := time.Now()
	valid, err := uc.passwordService.VerifyPassword(creds.Password(), user.Password)
	logger.LogPerformance(ctx, uc.logger, "password_verification", time.Since(start), map[string]interface{}{
		"user_id": user.ID,
	})
	if err != nil {
		uc.logger.Error(ctx, "Password verification error", err, map[string]interface{}{"user_id": user.ID})
		return nil, apperror.ErrInvalidCredentials()
	}
	if !valid {
		logger.LogAuthEvent(ctx, uc.logger, "login_failed_invalid_password", user.ID, "", false, nil)
		return nil, apperror.ErrInvalidCredentials()
	}

	pair, err := uc.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.LogAuthEvent(ctx, uc.logger, "login_successful", user.ID, "", true, nil)

	return &inbound.LoginResponse{
		User:         toUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	}, nil
}

// Refresh mints a new access token. The refresh token itself is not rotated.
func (uc *AuthUseCase) Refresh(ctx context.Context, req inbound.RefreshRequest) (*inbound.RefreshResponse, error) {
	if req.RefreshToken == "" {
		return nil, apperror.ErrValidation("Refresh token is required.")
	}

	rt, err := uc.refreshTokenRepository.FindByToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, outbound.ErrRefreshTokenNotFound) {
			logger.LogSecurityEvent(ctx, uc.logger, "refresh_token_not_found", "MEDIUM", map[string]interface{}{
				"token": logger.Redacted,
			})
			return nil, apperror.ErrInvalidToken("Invalid refresh token.")
		}
		return nil, storeFailure(ctx, uc.logger, "find refresh token", err, map[string]interface{}{"token": logger.Redacted})
	}

	if rt.IsExpired(uc.clock.Now()) {
		if err := uc.refreshTokenRepository.DeleteByID(ctx, rt.ID); err != nil {
			uc.logger.Warn(ctx, "Failed to delete expired refresh token", map[string]interface{}{
				"token_id": rt.ID,
				"error":    err.Error(),
			})
		}
		return nil, apperror.ErrTokenExpired("Refresh token has expired.")
	}

	if rt.IsRevoked() {
		logger.LogSecurityEvent(ctx, uc.logger, "refresh_token_revoked", "HIGH", map[string]interface{}{
			"user_id": rt.UserID,
		})
		return nil, apperror.ErrTokenRevoked("Refresh token has been revoked.")
	}

	user, err := uc.userRepository.FindByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			logger.LogSecurityEvent(ctx, uc.logger, "refresh_user_not_found", "HIGH", map[string]interface{}{
				"user_id": rt.UserID,
			})
			return nil, apperror.ErrAccountNotFound(rt.UserID)
		}
		return nil, storeFailure(ctx, uc.logger, "find user", err, map[string]interface{}{"user_id": rt.UserID})
	}

	accessToken, expiresAt, err := uc.tokenService.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		uc.logger.Error(ctx, "Failed to generate access token", err, map[string]interface{}{"user_id": user.ID})
		return nil, apperror.ErrInternalServerError("access token generation failed", err)
	}

	logger.LogAuthEvent(ctx, uc.logger, "token_refresh_successful", user.ID, "", true, nil)

	return &inbound.RefreshResponse{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
	}, nil
}

// Logout is idempotent for a token that is already revoked.
func (uc *AuthUseCase) Logout(ctx context.Context, req inbound.LogoutRequest) error {
	if req.RefreshToken == "" {
		return apperror.ErrValidation("Refresh token is required.")
	}

	if err := uc.refreshTokenRepository.Revoke(ctx, req.RefreshToken); err != nil {
		if errors.Is(err, outbound.ErrRefreshTokenNotFound) {
			logger.LogAuthEvent(ctx, uc.logger, "logout_token_not_found", "", "", false, map[string]interface{}{
				"token": logger.Redacted,
			})
			return apperror.ErrInvalidToken("Invalid refresh token.")
		}
		return storeFailure(ctx, uc.logger, "revoke refresh token", err, map[string]interface{}{"token": logger.Redacted})
	}

	logger.LogAuthEvent(ctx, uc.logger, "logout_successful", "", "", true, map[string]interface{}{
		"token": logger.Redacted,
	})
	return nil
}

func (uc *AuthUseCase) LogoutAll(ctx context.Context, userID string) error {
	if userID == "" {
		return apperror.ErrAuthenticationRequired()
	}
	if err := uc.refreshTokenRepository.RevokeByUserID(ctx, userID); err != nil {
		return storeFailure(ctx, uc.logger, "revoke user sessions", err, map[string]interface{}{"user_id": userID})
	}

	logger.LogAuthEvent(ctx, uc.logger, "logout_all_successful", userID, "", true, nil)
	return nil
}

func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*inbound.UserResponse, error) {
	if userID == "" {
		return nil, apperror.ErrAuthenticationRequired()
	}

	user, err := uc.userRepository.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			return nil, apperror.ErrAccountNotFound(userID)
		}
		return nil, storeFailure(ctx, uc.logger, "find user", err, map[string]interface{}{"user_id": userID})
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// issueSession creates one access token and one persisted refresh record.
func (uc *AuthUseCase) issueSession(ctx context.Context, user *entity.User) (*valueobject.TokenPair, error) {
	accessToken, expiresAt, err := uc.tokenService.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		uc.logger.Error(ctx, "Failed to generate access token", err, map[string]interface{}{"user_id": user.ID})
		return nil, apperror.ErrInternalServerError("access token generation failed", err)
	}

	refreshToken, err := uc.tokenService.GenerateOpaqueToken()
	if err != nil {
		uc.logger.Error(ctx, "Failed to generate refresh token", err, map[string]interface{}{"user_id": user.ID})
		return nil, apperror.ErrInternalServerError("refresh token generation failed", err)
	}

	record := entity.NewRefreshToken(generateID(), user.ID, refreshToken, uc.clock.Now(), valueobject.RefreshTokenTTL)
	if err := uc.refreshTokenRepository.Create(ctx, record); err != nil {
		return nil, storeFailure(ctx, uc.logger, "create refresh token", err, map[string]interface{}{"user_id": user.ID})
	}

	return valueobject.NewTokenPair(accessToken, refreshToken, expiresAt), nil
}
