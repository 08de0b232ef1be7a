package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Scribe error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrUnauthorized     ErrorCode = "UNAUTHORIZED"      // 401
	ErrForbidden        ErrorCode = "FORBIDDEN"         // 403
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrSlugConflict     ErrorCode = "SLUG_CONFLICT"     // 409
	ErrValidationFailed ErrorCode = "VALIDATION_FAILED" // 422
	ErrConfiguration    ErrorCode = "CONFIGURATION"     // 500, fatal at startup
	ErrCancelled        ErrorCode = "CANCELLED"         // 499
	ErrInternal         ErrorCode = "INTERNAL"          // 500
)

// ScribeError represents a structured error with code, status, and details.
type ScribeError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *ScribeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *ScribeError {
	return &ScribeError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewUnauthorized creates a 401 error for requests without a current user.
func NewUnauthorized() *ScribeError {
	return &ScribeError{
		Code:    ErrUnauthorized,
		Status:  401,
		Message: "not authorized",
	}
}

// NewForbidden creates a 403 error for users that are not the configured admin.
// The message is deliberately the same as NewUnauthorized so callers learn nothing
// about who the admin is.
func NewForbidden() *ScribeError {
	return &ScribeError{
		Code:    ErrForbidden,
		Status:  403,
		Message: "not authorized",
	}
}

// NewNotFound creates a 404 error for when a post cannot be found.
func NewNotFound(slug string) *ScribeError {
	return &ScribeError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("post not found: %s", slug),
		Details: map[string]any{"slug": slug},
	}
}

// NewSlugConflict creates a 409 error for slug collisions on create or rename.
func NewSlugConflict(slug string) *ScribeError {
	return &ScribeError{
		Code:    ErrSlugConflict,
		Status:  409,
		Message: fmt.Sprintf("post with slug %q already exists", slug),
		Details: map[string]any{"slug": slug},
	}
}

// NewValidationFailed creates a 422 error carrying per-field messages.
// Fields that passed validation are not present in the map.
func NewValidationFailed(fields map[string]string) *ScribeError {
	details := make(map[string]any, len(fields))
	for k, v := range fields {
		details[k] = v
	}
	return &ScribeError{
		Code:    ErrValidationFailed,
		Status:  422,
		Message: "validation failed",
		Details: details,
	}
}

// NewConfiguration creates an error for missing or invalid startup configuration.
func NewConfiguration(msg string) *ScribeError {
	return &ScribeError{
		Code:    ErrConfiguration,
		Status:  500,
		Message: msg,
	}
}

// NewCancelled creates an error for operations aborted by context cancellation.
func NewCancelled(operation string) *ScribeError {
	return &ScribeError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", operation),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the underlying error is kept in Details for logging.
func NewInternal(err error) *ScribeError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &ScribeError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error is (or wraps) a ScribeError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *ScribeError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}
