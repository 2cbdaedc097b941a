package outbound

import "time"

const AccessTokenKind = "access"

type AccessClaims struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Kind      string    `json:"type"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

type TokenService interface {
	// GenerateAccessToken signs claims with a fixed 15 minute lifetime and returns the token with its expiry.
	GenerateAccessToken(userID, email, role string) (string, time.Time, error)
	// GenerateOpaqueToken returns a random bearer secret for refresh, reset and verification tokens.
	GenerateOpaqueToken() (string, error)
	ValidateAccessToken(token string) (*AccessClaims, error)
}
