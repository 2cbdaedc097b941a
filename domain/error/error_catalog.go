package error

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Error codes for different categories
const (
	// Authentication Errors (1xxx)
	ErrCodeInvalidCredentials     ErrorCode = "AUTH_1001"
	ErrCodeAccountNotFound        ErrorCode = "AUTH_1002"
	ErrCodeInvalidToken           ErrorCode = "AUTH_1003"
	ErrCodeTokenExpired           ErrorCode = "AUTH_1004"
	ErrCodeTokenRevoked           ErrorCode = "AUTH_1005"
	ErrCodeTokenAlreadyUsed       ErrorCode = "AUTH_1006"
	ErrCodeAlreadyVerified        ErrorCode = "AUTH_1007"
	ErrCodeAuthenticationRequired ErrorCode = "AUTH_1008"
	ErrCodeEmailAlreadyRegistered ErrorCode = "AUTH_1009"
	ErrCodeForbidden              ErrorCode = "AUTH_1010"

	// Validation Errors (2xxx)
	ErrCodeInvalidEmail    ErrorCode = "VALID_2001"
	ErrCodeInvalidPassword ErrorCode = "VALID_2002"
	ErrCodeInvalidRequest  ErrorCode = "VALID_2005"

	// Rate Limiting Errors (3xxx)
	ErrCodeRateLimitExceeded ErrorCode = "RATE_3001"

	// Store Errors (5xxx)
	ErrCodeServiceUnavailable ErrorCode = "DB_5001"

	// Server Errors (6xxx)
	ErrCodeInternalServerError ErrorCode = "SERVER_6001"
	ErrCodeConfigurationError  ErrorCode = "SERVER_6003"
	ErrCodeDeliveryFailed      ErrorCode = "SERVER_6004"
)

var httpStatusByCode = map[ErrorCode]int{
	ErrCodeInvalidCredentials:     http.StatusUnauthorized,
	ErrCodeAccountNotFound:        http.StatusNotFound,
	ErrCodeInvalidToken:           http.StatusUnauthorized,
	ErrCodeTokenExpired:           http.StatusUnauthorized,
	ErrCodeTokenRevoked:           http.StatusUnauthorized,
	ErrCodeTokenAlreadyUsed:       http.StatusBadRequest,
	ErrCodeAlreadyVerified:        http.StatusBadRequest,
	ErrCodeAuthenticationRequired: http.StatusUnauthorized,
	ErrCodeEmailAlreadyRegistered: http.StatusConflict,
	ErrCodeForbidden:              http.StatusForbidden,
	ErrCodeInvalidEmail:           http.StatusBadRequest,
	ErrCodeInvalidPassword:        http.StatusBadRequest,
	ErrCodeInvalidRequest:         http.StatusBadRequest,
	ErrCodeRateLimitExceeded:      http.StatusTooManyRequests,
	ErrCodeServiceUnavailable:     http.StatusServiceUnavailable,
	ErrCodeInternalServerError:    http.StatusInternalServerError,
	ErrCodeConfigurationError:     http.StatusInternalServerError,
	ErrCodeDeliveryFailed:         http.StatusBadGateway,
}

// AppError represents a structured application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// HasCode reports whether err, or anything it wraps, is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Authentication errors

// ErrInvalidCredentials is shared by "no such account" and "wrong password".
func ErrInvalidCredentials() *AppError {
	return NewAppError(ErrCodeInvalidCredentials, "Invalid email or password", "", nil)
}

func ErrAccountNotFound(userID string) *AppError {
	return NewAppError(ErrCodeAccountNotFound, "User not found", fmt.Sprintf("User ID: %s", userID), nil)
}

func ErrInvalidToken(message string) *AppError {
	return NewAppError(ErrCodeInvalidToken, message, "", nil)
}

func ErrTokenExpired(message string) *AppError {
	return NewAppError(ErrCodeTokenExpired, message, "", nil)
}

func ErrTokenRevoked(message string) *AppError {
	return NewAppError(ErrCodeTokenRevoked, message, "", nil)
}

func ErrTokenAlreadyUsed(message string) *AppError {
	return NewAppError(ErrCodeTokenAlreadyUsed, message, "", nil)
}

func ErrAlreadyVerified() *AppError {
	return NewAppError(ErrCodeAlreadyVerified, "Email is already verified", "", nil)
}

func ErrAuthenticationRequired() *AppError {
	return NewAppError(ErrCodeAuthenticationRequired, "Authentication required", "", nil)
}

func ErrEmailAlreadyRegistered() *AppError {
	return NewAppError(ErrCodeEmailAlreadyRegistered, "User already exists", "", nil)
}

func ErrForbidden(details string) *AppError {
	return NewAppError(ErrCodeForbidden, "Insufficient permissions", details, nil)
}

// Validation errors

func ErrInvalidEmail(message string) *AppError {
	return NewAppError(ErrCodeInvalidEmail, message, "", nil)
}

func ErrInvalidPassword(message string) *AppError {
	return NewAppError(ErrCodeInvalidPassword, message, "", nil)
}

func ErrValidation(message string) *AppError {
	return NewAppError(ErrCodeInvalidRequest, message, "", nil)
}

// Rate limiting errors

func ErrRateLimitExceeded(message string) *AppError {
	return NewAppError(ErrCodeRateLimitExceeded, message, "", nil)
}

// Store errors

// ErrServiceUnavailable hides the store failure from the caller; the cause stays attached for logs.
func ErrServiceUnavailable(operation string, cause error) *AppError {
	return NewAppError(ErrCodeServiceUnavailable, "Service temporarily unavailable", fmt.Sprintf("Operation: %s", operation), cause)
}

// Server errors

func ErrInternalServerError(details string, cause error) *AppError {
	return NewAppError(ErrCodeInternalServerError, "Internal server error", details, cause)
}

func ErrConfigurationError(config string) *AppError {
	return NewAppError(ErrCodeConfigurationError, "Configuration error", fmt.Sprintf("Config: %s", config), nil)
}

func ErrDeliveryFailed(cause error) *AppError {
	return NewAppError(ErrCodeDeliveryFailed, "Failed to send verification email. Please try again.", "", cause)
}

// GetHTTPStatusCode maps an error to the HTTP status reported to the caller.
func GetHTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if status, ok := httpStatusByCode[appErr.Code]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// AsAppError returns err as an *AppError, wrapping anything else as an internal error.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServerError("unexpected error", err)
}
