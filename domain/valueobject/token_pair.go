package valueobject

import "time"

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func NewTokenPair(accessToken, refreshToken string, expiresAt time.Time) *TokenPair {
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}
}

// Token lifetimes are policy, not configuration.
const (
	AccessTokenTTL       = 15 * time.Minute
	RefreshTokenTTL      = 7 * 24 * time.Hour
	PasswordResetTTL     = 30 * time.Minute
	EmailVerificationTTL = 24 * time.Hour

	// PasswordResetResponseFloor is the minimum latency of every reset request.
	PasswordResetResponseFloor = 300 * time.Millisecond
)
