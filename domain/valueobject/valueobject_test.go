package valueobject

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupRateLimitRule(t *testing.T) {
	tests := []struct {
		name   string
		window time.Duration
		max    int
	}{
		{"auth:login", 15 * time.Minute, 5},
		{"auth:register", time.Hour, 10},
		{"auth:refresh", time.Hour, 10},
		{"auth:password-reset", time.Hour, 5},
		{"api-general", time.Hour, 1000},
		{"api:read", time.Minute, 100},
		{"api:admin", time.Minute, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := LookupRateLimitRule(tt.name)
			assert.Equal(t, tt.name, rule.Name)
			assert.Equal(t, tt.window, rule.Window)
			assert.Equal(t, tt.max, rule.MaxEvents)
			assert.NotEmpty(t, rule.Message)
		})
	}
}

func TestLookupRateLimitRule_UnknownFallsBackToGeneral(t *testing.T) {
	rule := LookupRateLimitRule("does-not-exist")
	assert.Equal(t, DefaultRateLimitRule, rule.Name)
	assert.Equal(t, 1000, rule.MaxEvents)
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  error
	}{
		{"Abc12345!", nil},
		{"Zz9@zzzz", nil},
		{"Ab1!", ErrPasswordTooShort},
		{"abc12345!", ErrPasswordPolicy},
		{"ABC12345!", ErrPasswordPolicy},
		{"Abcdefgh!", ErrPasswordPolicy},
		{"Abc123456", ErrPasswordPolicy},
		{"Abc 12345!", ErrPasswordPolicy},
		{"Abc12345#", ErrPasswordPolicy},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, ValidatePassword(tt.password))
		})
	}
}

func TestNewCredentials(t *testing.T) {
	c, err := NewCredentials("  User@Example.COM ", "whatever")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", c.Email())
	assert.Equal(t, "whatever", c.Password())

	_, err = NewCredentials("not-an-email", "whatever")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = NewCredentials("user@example.com", "")
	assert.Error(t, err)
}

func TestStudentEmailValidator(t *testing.T) {
	v := NewStudentEmailValidator("domain.edu")

	assert.NoError(t, v.Validate("123456789@domain.edu"))
	assert.NoError(t, v.Validate("123456789@DOMAIN.edu"))
	assert.ErrorIs(t, v.Validate("12345678@domain.edu"), ErrInvalidStudentEmail)
	assert.ErrorIs(t, v.Validate("1234567890@domain.edu"), ErrInvalidStudentEmail)
	assert.ErrorIs(t, v.Validate("123456789@domainXedu"), ErrInvalidStudentEmail)
	assert.ErrorIs(t, v.Validate("123456789@other.edu"), ErrInvalidStudentEmail)
}
