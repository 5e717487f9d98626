package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", NewValidationError("", FieldError{Field: "email", Message: "bad"}), http.StatusBadRequest},
		{"conflict", ErrEmailExists, http.StatusConflict},
		{"credentials", ErrInvalidCredentials, http.StatusUnauthorized},
		{"expired", ErrTokenExpired, http.StatusUnauthorized},
		{"refresh", ErrInvalidRefreshToken, http.StatusUnauthorized},
		{"not found", ErrUserNotFound, http.StatusNotFound},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"wrapped internal", WrapError(ErrInternal, errors.New("db down")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"fmt wrapped", fmt.Errorf("ctx: %w", ErrEmailExists), http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToHTTPStatus(tc.err))
		})
	}
}

func TestWrapErrorKeepsIdentity(t *testing.T) {
	cause := errors.New("unique constraint")
	err := WrapError(ErrEmailExists, cause)

	assert.True(t, errors.Is(err, ErrEmailExists))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrInternal))
}

func TestGetErrorMessageHidesUnknownErrors(t *testing.T) {
	assert.Equal(t, "Internal server error", GetErrorMessage(errors.New("pq: relation users does not exist")))
	assert.Equal(t, ErrInvalidCredentials.Message, GetErrorMessage(ErrInvalidCredentials))
	assert.Empty(t, GetErrorMessage(nil))
}

func TestGetFieldErrors(t *testing.T) {
	err := NewValidationError("", FieldError{Field: "name", Message: "too short", Value: "A"})

	fields := GetFieldErrors(fmt.Errorf("bind: %w", err))
	if assert.Len(t, fields, 1) {
		assert.Equal(t, "name", fields[0].Field)
	}
	assert.Equal(t, ErrValidation.Message, err.Message)
	assert.Nil(t, GetFieldErrors(ErrInternal))
}
