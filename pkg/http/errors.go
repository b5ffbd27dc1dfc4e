package http

import (
	"fmt"
	"net/http"
)

// AppError is an error that knows its HTTP status and client-facing message.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithError attaches the cause. It is logged but not sent unless WithDetails
// is also applied.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// WithDetails copies the cause text into the response. Debug mode only.
func (e *AppError) WithDetails() *AppError {
	if e.Err != nil {
		e.Details = e.Err.Error()
	}
	return e
}

func newAppError(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

// InternalError creates a 500 error.
func InternalError(message string) *AppError {
	return newAppError(http.StatusInternalServerError, "ERR_INTERNAL", message)
}

// TooManyRequestsError creates a 429 error.
func TooManyRequestsError(message string) *AppError {
	return newAppError(http.StatusTooManyRequests, "ERR_RATE_LIMITED", message)
}

// NotFoundError creates a 404 error.
func NotFoundError(message string) *AppError {
	return newAppError(http.StatusNotFound, "ERR_NOT_FOUND", message)
}

// BadRequestError creates a 400 error.
func BadRequestError(message string) *AppError {
	return newAppError(http.StatusBadRequest, "ERR_BAD_REQUEST", message)
}
