// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the issuance domain.
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations (422)
	CodeUnknownTenant        = "UNKNOWN_TENANT"
	CodeSerialNotInitialized = "SERIAL_NOT_INITIALIZED"
	CodeRangeExhausted       = "RANGE_EXHAUSTED"
	CodeBindingFailed        = "BINDING_FAILED"
	CodeIssuanceFailed       = "ISSUANCE_FAILED"

	// Integrity violation: an allocated number already exists. Never retried.
	CodeNumberCollision = "NUMBER_COLLISION"

	// Conflict (409)
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeDuplicate              = "DUPLICATE_ENTRY"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"
)

// AppError is the standard error type for the service.
// It implements the error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, identifiers, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, key any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "key": key},
	}
}

// NewUnknownTenant is returned when a tenant code is not provisioned.
func NewUnknownTenant(code string) *AppError {
	return &AppError{
		Code:       CodeUnknownTenant,
		Message:    fmt.Sprintf("tenant %s does not exist", code),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"tenant": code},
	}
}

// NewSerialNotInitialized is returned when a tenant has no carrier serial counter.
// The counter is provisioned out-of-band and never created implicitly.
func NewSerialNotInitialized(tenantCode string) *AppError {
	return &AppError{
		Code:       CodeSerialNotInitialized,
		Message:    fmt.Sprintf("carrier serial for tenant %s is not initialized", tenantCode),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"tenant": tenantCode},
	}
}

// NewRangeExhausted is returned when no usable invoice number remains
// for the tenant's current period.
func NewRangeExhausted(tenantCode string, year, term int) *AppError {
	return &AppError{
		Code:       CodeRangeExhausted,
		Message:    "no available invoice number range",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"tenant": tenantCode, "year": year, "term": term},
	}
}

// NewBindingFailed is returned after carrier binding exhausts its retry budget.
func NewBindingFailed(tenantCode, userID string) *AppError {
	return &AppError{
		Code:       CodeBindingFailed,
		Message:    fmt.Sprintf("tenant %s user %s carrier binding failed, please retry later", tenantCode, userID),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"tenant": tenantCode, "user_id": userID},
	}
}

// NewIssuanceFailed is returned when issuance cannot complete for an order.
func NewIssuanceFailed(orderNo string) *AppError {
	return &AppError{
		Code:       CodeIssuanceFailed,
		Message:    fmt.Sprintf("%s invoice issuance failed, please retry later", orderNo),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"order_no": orderNo},
	}
}

// NewNumberCollision signals that a freshly allocated number already exists.
// This cannot happen under correct range locking; it is an integrity violation
// and must never be retried.
func NewNumberCollision(number string) *AppError {
	return &AppError{
		Code:       CodeNumberCollision,
		Message:    "invoice number already exists",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"invoice_number": number},
	}
}

// NewConcurrentModification creates an optimistic locking conflict error.
// Callers are expected to retry within their budget.
func NewConcurrentModification(entity string, key any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "record was modified concurrently",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "key": key},
	}
}

// NewDuplicate creates a duplicate entry error (409).
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// NewInternal creates an internal server error (hides details from client).
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helper functions ---

// AsAppError extracts AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsAppError checks if the error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetHTTPStatus returns the appropriate HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsCode checks whether the error carries the given code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if the error is CodeNotFound.
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

// IsConcurrentModification checks if the error is a retryable conflict.
func IsConcurrentModification(err error) bool {
	return IsCode(err, CodeConcurrentModification)
}

// IsDuplicate checks if the error is CodeDuplicate.
func IsDuplicate(err error) bool {
	return IsCode(err, CodeDuplicate)
}
