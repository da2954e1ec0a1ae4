package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrNotFound            = errors.New("resource not found")
	ErrConflict            = errors.New("resource conflict")
	ErrInvalidState        = errors.New("invalid state")
	ErrExpired             = errors.New("resource expired")
	ErrValidation          = errors.New("validation failed")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
)

// AppError represents an application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap exposes the sentinel for errors.Is checks.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{Status: status, Code: code, Message: message, Err: err}
}

// Common error constructors

func InsufficientBalance(message string) *AppError {
	return NewAppError(http.StatusBadRequest, "INSUFFICIENT_BALANCE", message, ErrInsufficientBalance)
}

func InvalidSignature() *AppError {
	// Never leak which part of the signature failed.
	return NewAppError(http.StatusUnauthorized, "INVALID_SIGNATURE", "signature verification failed", ErrInvalidSignature)
}

func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, "NOT_FOUND", message, ErrNotFound)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, "CONFLICT", message, ErrConflict)
}

func InvalidState(message string) *AppError {
	return NewAppError(http.StatusBadRequest, "INVALID_STATE", message, ErrInvalidState)
}

func Expired(message string) *AppError {
	return NewAppError(http.StatusBadRequest, "EXPIRED", message, ErrExpired)
}

func Validation(message string) *AppError {
	return NewAppError(http.StatusBadRequest, "VALIDATION", message, ErrValidation)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, "UNAUTHORIZED", message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, "FORBIDDEN", message, ErrForbidden)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, "INTERNAL", "internal server error", err)
}
