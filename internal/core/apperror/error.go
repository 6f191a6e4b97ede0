// Package apperror provides structured error handling for the fuel ledger.
// Every business failure is an AppError carrying a machine-readable Code;
// callers branch on the code, never on message text.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Balance and rule violations (422)
	CodeInsufficientQuota       = "INSUFFICIENT_QUOTA"
	CodeInsufficientStock       = "INSUFFICIENT_STOCK"
	CodeInsufficientTankStock   = "INSUFFICIENT_TANK_STOCK"
	CodeRechargeExceedsAssigned = "RECHARGE_EXCEEDS_ASSIGNED"
	CodeInvalidFinalization     = "INVALID_FINALIZATION"
	CodePeriodClosed            = "PERIOD_CLOSED"
	CodeBusinessRule            = "BUSINESS_RULE_VIOLATION"

	// Authorization errors (401, 403)
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeIdentityMismatch = "IDENTITY_MISMATCH"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeInvalidState           = "INVALID_STATE"
	CodeDuplicateActiveRequest = "DUPLICATE_ACTIVE_REQUEST"
	CodeDuplicate              = "DUPLICATE_ENTRY"
)

// AppError is the standard error type for the platform.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (quantities, states, ids)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInvalidState is returned when a transition is attempted from the wrong state.
func NewInvalidState(entity string, current string, allowed ...string) *AppError {
	return &AppError{
		Code:       CodeInvalidState,
		Message:    fmt.Sprintf("%s is in state %s", entity, current),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "state": current, "allowed": allowed},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInsufficientQuota is returned when a quota period cannot cover a reservation.
func NewInsufficientQuota(periodID int64, requested, available any) *AppError {
	return &AppError{
		Code:       CodeInsufficientQuota,
		Message:    "Insufficient quota",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"period_id": periodID,
			"requested": requested,
			"available": available,
		},
	}
}

// NewInsufficientStock is returned when a dispensing point cannot release fuel.
func NewInsufficientStock(pointID int64, requested, available any) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock at dispensing point",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"point_id":  pointID,
			"requested": requested,
			"available": available,
		},
	}
}

// NewInsufficientTankStock is returned when a tank level cannot cover a movement.
func NewInsufficientTankStock(tankID int64, requested, available any) *AppError {
	return &AppError{
		Code:       CodeInsufficientTankStock,
		Message:    "Insufficient stock in tank",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"tank_id":   tankID,
			"requested": requested,
			"available": available,
		},
	}
}

// NewRechargeExceedsAssigned reports the largest recharge the period still accepts.
func NewRechargeExceedsAssigned(periodID int64, requested, max any) *AppError {
	return &AppError{
		Code:       CodeRechargeExceedsAssigned,
		Message:    "Recharge would exceed the assigned amount",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"period_id":    periodID,
			"requested":    requested,
			"max_recharge": max,
		},
	}
}

// NewInvalidFinalization is returned when the delivered amount cannot be reconciled.
func NewInvalidFinalization(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidFinalization,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewDuplicateActiveRequest is returned when a vehicle already holds an active ticket.
func NewDuplicateActiveRequest(plate string) *AppError {
	return &AppError{
		Code:       CodeDuplicateActiveRequest,
		Message:    fmt.Sprintf("Vehicle %s already has an active request", plate),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"plate": plate},
	}
}

// NewIdentityMismatch is returned when identity verification fails or lacks a capability.
func NewIdentityMismatch(role, message string) *AppError {
	return &AppError{
		Code:       CodeIdentityMismatch,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
		Details:    map[string]any{"role": role},
	}
}

// NewPeriodClosed creates error when trying to modify closed period
func NewPeriodClosed(period string) *AppError {
	return &AppError{
		Code:       CodePeriodClosed,
		Message:    fmt.Sprintf("Period %s is closed for modifications", period),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"period": period},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsDuplicate checks if error is CodeDuplicate
func IsDuplicate(err error) bool {
	return HasCode(err, CodeDuplicate)
}
