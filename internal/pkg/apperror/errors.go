package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrCodeValidation         ErrorCode = "VALIDATION_ERROR"
	ErrCodeStateConflict      ErrorCode = "STATE_CONFLICT"
	ErrCodeInsufficientTokens ErrorCode = "INSUFFICIENT_TOKENS"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// StateConflict reports an operation that is not valid from the booking's
// current status. The current status travels in Details so the caller can
// resync without an extra read.
func StateConflict(message, currentStatus string) *AppError {
	e := New(ErrCodeStateConflict, message)
	e.Details = map[string]interface{}{"current_status": currentStatus}
	return e
}

// InsufficientTokens reports a blocked cancellation together with how many
// tokens the customer is short.
func InsufficientTokens(shortfall int) *AppError {
	e := New(ErrCodeInsufficientTokens, "not enough cancellation tokens")
	e.Details = map[string]interface{}{"shortfall": shortfall}
	return e
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeStateConflict:
		return http.StatusConflict
	case ErrCodeInsufficientTokens:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeForbidden
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

func IsStateConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeStateConflict
}

func IsInsufficientTokens(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeInsufficientTokens
}

var (
	ErrBookingNotFound = New(ErrCodeNotFound, "booking not found")
	ErrWorkerNotFound  = New(ErrCodeNotFound, "worker not found")
	ErrUnauthorized    = New(ErrCodeUnauthorized, "authorization required")
	ErrForbidden       = New(ErrCodeForbidden, "insufficient permissions")
)
