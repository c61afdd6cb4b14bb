package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConstructors_StatusAndType(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
		status   int
	}{
		{"validation", NewValidationError("bad"), ErrorTypeValidation, http.StatusUnprocessableEntity},
		{"bad request", NewBadRequestError("malformed"), ErrorTypeBadRequest, http.StatusBadRequest},
		{"user not found", NewUserNotFoundError("u1"), ErrorTypeUserNotFound, http.StatusNotFound},
		{"friendship not found", NewFriendshipNotFoundError("a", "b"), ErrorTypeNotFound, http.StatusNotFound},
		{"unique", NewUniqueConstraintError("email"), ErrorTypeUniqueConstraint, http.StatusConflict},
		{"conflict", NewConflictError("exists"), ErrorTypeConflict, http.StatusConflict},
		{"degree", NewInvalidDegreeError(4), ErrorTypeInvalidDegree, http.StatusBadRequest},
		{"database", NewDatabaseError("list", errors.New("boom")), ErrorTypeDatabase, http.StatusInternalServerError},
		{"unavailable", NewUnavailableError("store"), ErrorTypeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.NotEmpty(t, tt.err.StackTrace)
		})
	}
}

func TestHelpers_TraverseWrappedChain(t *testing.T) {
	base := NewUserNotFoundError("u1")
	wrapped := fmt.Errorf("query failed: %w", base)

	assert.True(t, IsAppError(wrapped))
	assert.True(t, IsNotFound(wrapped))
	assert.True(t, IsUserNotFound(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.Same(t, base, GetAppError(wrapped))
	assert.Equal(t, "u1", GetAppError(wrapped).Details["userId"])
}

func TestFromStorage(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, FromStorage("op", nil))
	})

	t.Run("classified error passes through", func(t *testing.T) {
		err := FromStorage("op", NewUniqueConstraintError("email"))
		assert.True(t, IsUniqueConstraint(err))
	})

	t.Run("context error becomes timeout", func(t *testing.T) {
		err := FromStorage("op", context.DeadlineExceeded)
		assert.True(t, IsType(err, ErrorTypeTimeout))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("raw error becomes database failure", func(t *testing.T) {
		cause := errors.New("disk full")
		err := FromStorage("op", cause)
		assert.True(t, IsDatabase(err))
		assert.ErrorIs(t, err, cause)
	})
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ctx"))

	appErr := Wrap(NewConflictError("edge exists"), "add friendship")
	assert.True(t, IsConflict(appErr))
	assert.Equal(t, "add friendship: edge exists", GetAppError(appErr).Message)

	plain := Wrapf(errors.New("x"), "step %d", 2)
	assert.True(t, IsType(plain, ErrorTypeInternal))
}

func TestErrorHandler_Handle(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)

	t.Run("app error renders type, status and details", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/u1", nil)
		rec := httptest.NewRecorder()

		handler.Handle(rec, req, fmt.Errorf("wrapped: %w", NewUserNotFoundError("u1")))

		require.Equal(t, http.StatusNotFound, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Error)
		assert.Equal(t, http.StatusNotFound, body.StatusCode)
		assert.Equal(t, "USER_NOT_FOUND", body.Type)
		assert.Equal(t, "u1", body.Details["userId"])
	})

	t.Run("plain error hides message", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.Handle(rec, req, errors.New("secret driver detail"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret driver detail")
	})

	t.Run("debug mode does not mutate the source error", func(t *testing.T) {
		debugHandler := NewErrorHandler(zap.NewNop(), true)
		appErr := NewUserNotFoundError("u2")
		rec := httptest.NewRecorder()

		debugHandler.Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil), appErr)

		assert.Contains(t, rec.Body.String(), "stack_trace")
		_, leaked := appErr.Details["stack_trace"]
		assert.False(t, leaked)
	})
}

func TestErrorHandler_MiddlewareRecoversPanic(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})

	rec := httptest.NewRecorder()
	handler.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), string(ErrorTypeInternal))
}
