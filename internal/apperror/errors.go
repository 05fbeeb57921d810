package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned to API clients
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "RESOURCE_NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInternal          = "INTERNAL_ERROR"
)

// AppError is an error with an API code and HTTP status
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a single detail to the error
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Wrap attaches the underlying cause
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

func newError(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// NotFound creates a not found error for resource
func NotFound(resource string) *AppError {
	return newError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// Conflict creates a conflict error
func Conflict(message string) *AppError {
	return newError(CodeConflict, message, http.StatusConflict)
}

// InsufficientStock creates an error for a decrement that would go negative
func InsufficientStock(productID int64, available, requested int) *AppError {
	return newError(CodeInsufficientStock, "insufficient inventory", http.StatusConflict).
		WithDetail("product_id", fmt.Sprint(productID)).
		WithDetail("available", fmt.Sprint(available)).
		WithDetail("requested", fmt.Sprint(requested))
}

// Validation creates a validation error
func Validation(message string) *AppError {
	return newError(CodeValidation, message, http.StatusBadRequest)
}

// Unauthorized creates an authentication error
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return newError(CodeUnauthorized, message, http.StatusUnauthorized)
}

// Forbidden creates an authorization error
func Forbidden(message string) *AppError {
	if message == "" {
		message = "access denied"
	}
	return newError(CodeForbidden, message, http.StatusForbidden)
}

// Internal creates an internal error wrapping err
func Internal(err error) *AppError {
	return newError(CodeInternal, "an internal error occurred", http.StatusInternalServerError).Wrap(err)
}

// As extracts an AppError from err
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries the given code
func Is(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// From converts any error to an AppError, treating unknown errors as internal
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return appErr
	}
	return Internal(err)
}
