package valueobject

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters")
	ErrPasswordPolicy      = errors.New("password must contain at least one uppercase letter, one lowercase letter, one number, and one special character")
	ErrInvalidStudentEmail = errors.New("student email must be a 9 digit student number at the school domain")
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	// allowed alphabet only; class requirements are checked separately
	passwordAlphabet = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]+$`)
)

const passwordSpecials = "@$!%*?&"

type Credentials struct {
	email    string
	password string
}

// NewCredentials validates the shape of a login attempt. The password policy is not applied
// here so that accounts created under an older policy can still sign in.
func NewCredentials(email, password string) (*Credentials, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrPasswordTooShort
	}
	return &Credentials{
		email:    email,
		password: password,
	}, nil
}

func (c *Credentials) Email() string {
	return c.email
}

func (c *Credentials) Password() string {
	return c.password
}

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	if !passwordAlphabet.MatchString(password) {
		return ErrPasswordPolicy
	}
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	if !lower || !upper || !digit || !special {
		return ErrPasswordPolicy
	}
	return nil
}

// StudentEmailValidator checks the nine digit student-number address format.
type StudentEmailValidator struct {
	re *regexp.Regexp
}

func NewStudentEmailValidator(domain string) *StudentEmailValidator {
	return &StudentEmailValidator{
		re: regexp.MustCompile(fmt.Sprintf(`^[0-9]{9}@%s$`, regexp.QuoteMeta(strings.ToLower(domain)))),
	}
}

func (v *StudentEmailValidator) Validate(email string) error {
	if !v.re.MatchString(strings.ToLower(email)) {
		return ErrInvalidStudentEmail
	}
	return nil
}
