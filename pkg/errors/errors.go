package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Domain errors
	ErrorTypeValidation       ErrorType = "VALIDATION"
	ErrorTypeBadRequest       ErrorType = "BAD_REQUEST"
	ErrorTypeNotFound         ErrorType = "NOT_FOUND"
	ErrorTypeUserNotFound     ErrorType = "USER_NOT_FOUND"
	ErrorTypeConflict         ErrorType = "CONFLICT"
	ErrorTypeUniqueConstraint ErrorType = "UNIQUE_CONSTRAINT_VIOLATION"
	ErrorTypeInvalidDegree    ErrorType = "INVALID_DEGREE"

	// Application errors
	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeTimeout     ErrorType = "TIMEOUT"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"

	// Infrastructure errors
	ErrorTypeDatabase ErrorType = "DATABASE"
)

// Error codes refine a type for clients that need to tell resources apart.
const (
	CodeFriendshipNotFound = "FRIENDSHIP_NOT_FOUND"
	CodeFriendshipExists   = "FRIENDSHIP_EXISTS"
	CodeEmailTaken         = "EMAIL_TAKEN"
)

// AppError represents an application-specific error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// captureStackTrace captures the current stack trace
func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var stack strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&stack, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return stack.String()
}

// Constructor functions for common error types

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		StackTrace: captureStackTrace(),
	}
}

// NewBadRequestError creates an error for requests that cannot be parsed
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeBadRequest,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		StackTrace: captureStackTrace(),
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		StackTrace: captureStackTrace(),
	}
}

// NewUserNotFoundError creates a not found error carrying the missing user id
func NewUserNotFoundError(userID string) *AppError {
	return &AppError{
		Type:       ErrorTypeUserNotFound,
		Message:    "user not found",
		Details:    map[string]interface{}{"userId": userID},
		HTTPStatus: http.StatusNotFound,
		StackTrace: captureStackTrace(),
	}
}

// NewFriendshipNotFoundError creates a not found error for a missing edge
func NewFriendshipNotFoundError(friendID, friendOfID string) *AppError {
	return NewNotFoundError("friendship").
		WithCode(CodeFriendshipNotFound).
		WithDetails(map[string]interface{}{"friendId": friendID, "friendOfId": friendOfID})
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
		StackTrace: captureStackTrace(),
	}
}

// NewUniqueConstraintError creates an error for a violated uniqueness rule
func NewUniqueConstraintError(field string) *AppError {
	return &AppError{
		Type:       ErrorTypeUniqueConstraint,
		Message:    fmt.Sprintf("unique constraint violation: %s is already in use", field),
		Code:       CodeEmailTaken,
		Details:    map[string]interface{}{"field": field},
		HTTPStatus: http.StatusConflict,
		StackTrace: captureStackTrace(),
	}
}

// NewInvalidDegreeError creates an error for a degree outside the supported range
func NewInvalidDegreeError(degree int) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidDegree,
		Message:    "invalid degree",
		Details:    map[string]interface{}{"degree": degree, "allowed": []int{1, 2, 3}},
		HTTPStatus: http.StatusBadRequest,
		StackTrace: captureStackTrace(),
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
	}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(operation string) *AppError {
	return &AppError{
		Type:       ErrorTypeTimeout,
		Message:    fmt.Sprintf("operation '%s' timed out", operation),
		HTTPStatus: http.StatusGatewayTimeout,
		StackTrace: captureStackTrace(),
	}
}

// NewUnavailableError creates a service unavailable error
func NewUnavailableError(service string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnavailable,
		Message:    fmt.Sprintf("service '%s' is unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
		StackTrace: captureStackTrace(),
	}
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeDatabase,
		Message:    fmt.Sprintf("database operation '%s' failed", operation),
		Cause:      err,
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
	}
}

// FromStorage converts an error returned by a store driver into an AppError.
// Errors that are already classified pass through untouched; context errors
// become timeouts; anything else is an opaque database failure.
func FromStorage(operation string, err error) error {
	if err == nil {
		return nil
	}
	if appErr := GetAppError(err); appErr != nil {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewTimeoutError(operation).WithCause(err)
	}
	return NewDatabaseError(operation, err)
}

// Helper functions

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsNotFound checks if an error is a not found error of any resource
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound) || IsType(err, ErrorTypeUserNotFound)
}

// IsUserNotFound checks if an error reports a missing user
func IsUserNotFound(err error) bool {
	return IsType(err, ErrorTypeUserNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return IsType(err, ErrorTypeConflict)
}

// IsUniqueConstraint checks if an error is a unique constraint violation
func IsUniqueConstraint(err error) bool {
	return IsType(err, ErrorTypeUniqueConstraint)
}

// IsInvalidDegree checks if an error is an invalid degree error
func IsInvalidDegree(err error) bool {
	return IsType(err, ErrorTypeInvalidDegree)
}

// IsDatabase checks if an error is a storage failure
func IsDatabase(err error) bool {
	return IsType(err, ErrorTypeDatabase)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, add context to message
	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}

	// Otherwise create a new internal error
	return NewInternalError(message).WithCause(err)
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}
