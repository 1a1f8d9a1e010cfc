package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"validation", NewValidationError("bad", nil), http.StatusBadRequest},
		{"bad request", NewBadRequestError("bad", nil), http.StatusBadRequest},
		{"conflict", NewConflictError("taken", nil), http.StatusBadRequest},
		{"auth", NewAuthError("nope", nil), http.StatusUnauthorized},
		{"not found", NewNotFoundError("gone", nil), http.StatusNotFound},
		{"database", NewDatabaseError("down", nil), http.StatusInternalServerError},
		{"internal", NewInternalError("oops", nil), http.StatusInternalServerError},
		{"unknown", NewAppError(UnknownError, "?", nil), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.StatusCode())
		})
	}
}

func TestFromError_WrappedAppError(t *testing.T) {
	inner := NewNotFoundError("Task not found", nil)
	wrapped := fmt.Errorf("service: %w", inner)

	got, ok := FromError(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, got)
	assert.True(t, IsNotFound(wrapped))
}

func TestFromError_PlainErrorCollapsesToInternal(t *testing.T) {
	cause := errors.New("connection refused")

	got, ok := FromError(cause)
	require.False(t, ok)
	assert.Equal(t, InternalError, got.Type)
	assert.Equal(t, "internal server error", got.ToResponse().Error)
	assert.ErrorIs(t, got, cause)
	assert.True(t, got.IsServerFault())
}

func TestToResponse_HidesCauseAndKeepsFields(t *testing.T) {
	err := NewFieldValidationError("validation failed", map[string]string{"email": "must be a valid email"})
	err.Err = errors.New("secret detail")

	resp := err.ToResponse()
	assert.Equal(t, "validation failed", resp.Error)
	assert.Equal(t, "must be a valid email", resp.Details["email"])
	assert.True(t, IsValidationError(err))
	assert.False(t, IsConflictError(err))
}
