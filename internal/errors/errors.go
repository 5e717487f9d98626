package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error // underlying error for wrapping
	Fields  []FieldError
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on Code so wrapped copies of a predefined error compare equal.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
		Fields:  domainErr.Fields,
	}
}

// NewValidationError builds a 400 error carrying per-field details.
func NewValidationError(message string, fields ...FieldError) *DomainError {
	if message == "" {
		message = ErrValidation.Message
	}
	return &DomainError{
		Code:    ErrValidation.Code,
		Message: message,
		Fields:  fields,
	}
}

// Error codes
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeConflict           = "CONFLICT"
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInvalidRefresh     = "INVALID_REFRESH_TOKEN"
	CodeNotFound           = "NOT_FOUND"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeUnavailable        = "SERVICE_UNAVAILABLE"
)

// Predefined domain errors
var (
	// Validation errors
	ErrValidation   = NewDomainError(CodeValidation, "Validation failed")
	ErrInvalidInput = NewDomainError(CodeValidation, "Invalid request body")

	// Conflict errors
	ErrEmailExists = NewDomainError(CodeEmailExists, "User with this email already exists")

	// Authentication errors
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Authentication required")
	ErrInvalidCredentials  = NewDomainError(CodeInvalidCredentials, "Invalid email or password")
	ErrInvalidToken        = NewDomainError(CodeInvalidToken, "Invalid token")
	ErrTokenExpired        = NewDomainError(CodeTokenExpired, "Token expired")
	ErrInvalidRefreshToken = NewDomainError(CodeInvalidRefresh, "Invalid or expired refresh token")

	// Not found errors
	ErrUserNotFound = NewDomainError(CodeUserNotFound, "User not found")

	// System errors
	ErrRateLimited        = NewDomainError(CodeRateLimited, "Too many requests, please try again later")
	ErrInternal           = NewDomainError(CodeInternal, "Internal server error")
	ErrServiceUnavailable = NewDomainError(CodeUnavailable, "Service unavailable")
)

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	return http.StatusInternalServerError
}

func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	case CodeValidation:
		return http.StatusBadRequest

	case CodeUnauthorized, CodeInvalidCredentials, CodeInvalidToken,
		CodeTokenExpired, CodeInvalidRefresh:
		return http.StatusUnauthorized

	case CodeNotFound, CodeUserNotFound:
		return http.StatusNotFound

	case CodeConflict, CodeEmailExists:
		return http.StatusConflict

	case CodeRateLimited:
		return http.StatusTooManyRequests

	case CodeUnavailable:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage returns the client-safe message. Unknown errors never leak
// their text.
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return ErrInternal.Message
}

// GetFieldErrors returns the field list of a validation error, if any.
func GetFieldErrors(err error) []FieldError {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Fields
	}
	return nil
}
