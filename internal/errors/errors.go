// Package errors provides a categorized error type shared by the store, the pages and the
// HTTP error handler.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// ErrorCategory classifies an AppError.
type ErrorCategory string

const (
	CategoryNotFound   ErrorCategory = "not_found"
	CategoryValidation ErrorCategory = "validation"
	CategoryConflict   ErrorCategory = "conflict"
	CategoryInternal   ErrorCategory = "internal"
)

// ContextFields carries structured context for AppError, e.g. the offending form field.
type ContextFields map[string]any

// AppError is an error with a category, a user-facing message and an optional cause.
type AppError struct {
	Category ErrorCategory
	Message  string
	Cause    error
	Context  ContextFields
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates an AppError.
func New(category ErrorCategory, message string) *AppError {
	return &AppError{Category: category, Message: message}
}

// Wrap creates an AppError caused by err.
func Wrap(err error, category ErrorCategory, message string) *AppError {
	return &AppError{Category: category, Message: message, Cause: err}
}

// NotFound reports a missing entity.
func NotFound(entity string, id any) *AppError {
	return New(CategoryNotFound, entity+" not found").WithContext("id", id)
}

// ValidationFailed reports an invalid form field.
func ValidationFailed(field, reason string) *AppError {
	return New(CategoryValidation, reason).WithContext("field", field)
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *AppError {
	return Wrap(cause, CategoryInternal, message)
}

// As returns the outermost AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stdErrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCategory returns the category of err, CategoryInternal if it carries none.
func GetCategory(err error) ErrorCategory {
	if appErr, ok := As(err); ok {
		return appErr.Category
	}
	return CategoryInternal
}

// IsCategory reports whether err carries category.
func IsCategory(err error, category ErrorCategory) bool {
	appErr, ok := As(err)
	return ok && appErr.Category == category
}

// HTTPStatus maps err to the status code the error handler answers with.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch GetCategory(err) {
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryValidation:
		return http.StatusUnprocessableEntity
	case CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show to users. Internal errors never leak
// their cause.
func PublicMessage(err error) string {
	appErr, ok := As(err)
	if !ok || appErr.Category == CategoryInternal {
		return "Something went wrong. Please try again."
	}
	return appErr.Message
}
