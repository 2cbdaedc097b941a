package jwt

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chtmcooks/auth-service/application/port/outbound"
	apperror "github.com/chtmcooks/auth-service/domain/error"
	"github.com/chtmcooks/auth-service/domain/valueobject"
	"github.com/chtmcooks/auth-service/pkg/clock"
)

// opaqueTokenBytes gives 256 bits of entropy per bearer secret.
const opaqueTokenBytes = 32

type JWTService struct {
	hmacSecret []byte
	clock      clock.Clock
}

type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// NewJWTService fails with a configuration error when no signing secret is present.
func NewJWTService(secret string, clk clock.Clock) (*JWTService, error) {
	if secret == "" {
		return nil, apperror.ErrConfigurationError("JWT_SECRET")
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &JWTService{
		hmacSecret: []byte(secret),
		clock:      clk,
	}, nil
}

func (s *JWTService) GenerateAccessToken(userID, email, role string) (string, time.Time, error) {
	now := s.clock.Now()
	expiresAt := now.Add(valueobject.AccessTokenTTL)

	claims := accessClaims{
		Email: email,
		Role:  role,
		Type:  outbound.AccessTokenKind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.hmacSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, expiresAt, nil
}

func (s *JWTService) GenerateOpaqueToken() (string, error) {
	bytes := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

func (s *JWTService) ValidateAccessToken(tokenString string) (*outbound.AccessClaims, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.hmacSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, s.handleValidationError(err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	// refresh, reset or other signed tokens must never pass as access tokens
	if claims.Type != outbound.AccessTokenKind {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	result := &outbound.AccessClaims{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
		Kind:   claims.Type,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}
	result.ExpiresAt = claims.ExpiresAt.Time

	return result, nil
}

func (s *JWTService) handleValidationError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return ErrInvalidToken
}
