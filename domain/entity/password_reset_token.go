package entity

import "time"

// PasswordResetToken is a one-time secret. Once Used is true it never flips back.
type PasswordResetToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Used      bool      `json:"used"`
}

func NewPasswordResetToken(id, userID, token string, now time.Time, ttl time.Duration) *PasswordResetToken {
	return &PasswordResetToken{
		ID:        id,
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

func (t *PasswordResetToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
