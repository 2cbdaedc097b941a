package entity

import (
	"strings"
	"time"
)

type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdvisor    Role = "advisor"
	RoleConsultant Role = "consultant"
	RoleStudent    Role = "student"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdvisor, RoleConsultant, RoleStudent:
		return true
	}
	return false
}

// EmailVerificationToken is embedded on the user and cleared once verification succeeds.
type EmailVerificationToken struct {
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (t *EmailVerificationToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Student-only fields
	YearLevel int    `json:"year_level,omitempty"`
	Block     string `json:"block,omitempty"`
	Agreement bool   `json:"agreement,omitempty"`

	EmailVerified          bool                    `json:"email_verified"`
	EmailVerificationToken *EmailVerificationToken `json:"-"`
}

func NewUser(id, email, passwordHash, firstName, lastName string, role Role, now time.Time) *User {
	return &User{
		ID:        id,
		Email:     NormalizeEmail(email),
		Password:  passwordHash,
		FirstName: firstName,
		LastName:  lastName,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizeEmail is the canonical form used for storage and case-insensitive lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
