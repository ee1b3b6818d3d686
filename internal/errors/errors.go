package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Domain-specific error types
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates the caller exceeded the submission ceiling
	ErrRateLimited = errors.New("too many submissions")

	// ErrAttachmentRejected indicates a file count, size or type violation
	ErrAttachmentRejected = errors.New("attachment rejected")

	// ErrVerificationFailed indicates the anti-automation check did not pass
	ErrVerificationFailed = errors.New("verification failed")

	// ErrStorageUnavailable indicates the backing store could not be reached
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates forbidden access
	ErrForbidden = errors.New("forbidden")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal server error")
)

// Error codes for API responses
const (
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeRateLimited        = "RATE_LIMITED"
	CodeAttachmentRejected = "ATTACHMENT_REJECTED"
	CodeVerificationFailed = "VERIFICATION_FAILED"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeInternalError      = "INTERNAL_ERROR"
)

// AppError represents an application error with context
type AppError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(err error, message string, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError carries every field that failed validation so the caller
// can correct all of them in one round trip.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap returns ErrInvalidInput
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// HasField reports whether the named field is among the failures.
func (e *ValidationError) HasField(name string) bool {
	for _, f := range e.Fields {
		if f.Field == name {
			return true
		}
	}
	return false
}

// NewValidationError creates a ValidationError for a single field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Reason: reason}}}
}

// AttachmentError describes why an upload set was refused.
type AttachmentError struct {
	Filename string `json:"filename,omitempty"`
	Reason   string `json:"reason"`
}

// Error implements the error interface
func (e *AttachmentError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("attachment %q rejected: %s", e.Filename, e.Reason)
	}
	return "attachments rejected: " + e.Reason
}

// Unwrap returns ErrAttachmentRejected
func (e *AttachmentError) Unwrap() error {
	return ErrAttachmentRejected
}

// RateLimitError is returned when a source exhausted its submission window.
type RateLimitError struct {
	Limit      int
	Window     time.Duration
	RetryAfter time.Duration
}

// Error implements the error interface
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many submissions: limit is %d per %s", e.Limit, e.Window)
}

// Unwrap returns ErrRateLimited
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsStorageUnavailable checks if the error came from an unreachable store
func IsStorageUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// GetValidationError extracts a ValidationError from an error chain
func GetValidationError(err error) *ValidationError {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr
	}
	return nil
}

// GetRateLimitError extracts a RateLimitError from an error chain
func GetRateLimitError(err error) *RateLimitError {
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return rlErr
	}
	return nil
}

// GetErrorCode returns the appropriate error code for an error
func GetErrorCode(err error) string {
	switch {
	case IsNotFound(err):
		return CodeNotFound
	case IsInvalidInput(err):
		return CodeInvalidInput
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	case errors.Is(err, ErrAttachmentRejected):
		return CodeAttachmentRejected
	case errors.Is(err, ErrVerificationFailed):
		return CodeVerificationFailed
	case IsStorageUnavailable(err):
		return CodeStorageUnavailable
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	default:
		return CodeInternalError
	}
}
