package utils

import (
	"errors"
	"fmt"
)

// Sentinel errors for the three failure kinds the scoring core emits.
// Handlers map these onto HTTP responses; services wrap them with %w so
// callers can classify via errors.Is.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrLockContended = errors.New("cache lock contended")
	ErrUpstream      = errors.New("upstream data source failure")
	ErrNotFound      = errors.New("resource not found")
	ErrInternal      = errors.New("internal error")
)

type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func NewAppError(code string, message string, details ...string) *AppError {
	err := &AppError{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Common error codes
const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeContention = "CACHE_CONTENTION"
	ErrCodeUpstream   = "UPSTREAM_ERROR"
	ErrCodeInternal   = "INTERNAL_ERROR"
)

// ClassifyError maps a wrapped error onto its AppError code.
func ClassifyError(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return ErrCodeValidation
	case errors.Is(err, ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, ErrLockContended):
		return ErrCodeContention
	case errors.Is(err, ErrUpstream):
		return ErrCodeUpstream
	default:
		return ErrCodeInternal
	}
}
