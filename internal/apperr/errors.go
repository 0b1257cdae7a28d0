// Package apperr defines the error taxonomy shared by the store, services and API.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrDuplicate      = errors.New("duplicate")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrRateLimited    = errors.New("rate limited")
	ErrDataCorruption = errors.New("data corruption")
)

// Envelope codes.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeInvalidField    = "INVALID_FIELD"
	CodeInvalidFilename = "INVALID_FILENAME"
	CodeInvalidFileType = "INVALID_FILE_TYPE"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeTooManyFiles    = "TOO_MANY_FILES"
	CodeNoFiles         = "NO_FILES"
	CodeContactMethod   = "CONTACT_METHOD_REQUIRED"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeBadCredentials  = "INVALID_CREDENTIALS"
	CodeNotFound        = "NOT_FOUND"
	CodeDuplicateTruck  = "DUPLICATE_TRUCK"
	CodeDuplicateStock  = "DUPLICATE_STOCK"
	CodeIDConflict      = "ID_CONFLICT"
	CodeRateLimited     = "RATE_LIMITED"
	CodeDataCorruption  = "DATA_CORRUPTION"
	CodeServer          = "SERVER_ERROR"
)

// Error carries a client-facing message and envelope code on top of one of the
// sentinel kinds above.
type Error struct {
	Kind    error
	Code    string
	Message string
	Details map[string]string
	// RetryAfter is set on rate limit errors.
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Kind }

// New returns an *Error of the given kind.
func New(kind error, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Validation returns a validation error with per-field details.
func Validation(code, msg string, details map[string]string) *Error {
	if code == "" {
		code = CodeValidation
	}
	return &Error{Kind: ErrValidation, Code: code, Message: msg, Details: details}
}

// NotFound returns a NOT_FOUND error for the named resource.
func NotFound(what string) *Error {
	return &Error{Kind: ErrNotFound, Code: CodeNotFound, Message: what + " not found"}
}

// Duplicate returns a conflict error with the given code.
func Duplicate(code, msg string) *Error {
	return &Error{Kind: ErrDuplicate, Code: code, Message: msg}
}

// RateLimited returns a RATE_LIMITED error telling the client when to retry.
func RateLimited(msg string, retryAfter time.Duration) *Error {
	return &Error{Kind: ErrRateLimited, Code: CodeRateLimited, Message: msg, RetryAfter: retryAfter}
}

// Corruption wraps a store read or parse failure.
func Corruption(err error) error {
	return fmt.Errorf("%w: %w", ErrDataCorruption, err)
}

// As extracts an *Error from err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
