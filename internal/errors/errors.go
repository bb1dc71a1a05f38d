package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidInput is returned when a request fails validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when the session is missing or lacks the required role.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is returned for an unknown username or a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrStatueNotFound is returned when a statue does not exist.
	ErrStatueNotFound = errors.New("statue not found")
	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("already exists")
	// ErrUnavailable is returned when a backing store cannot be reached in time.
	ErrUnavailable = errors.New("service unavailable")
)

// InvalidInputError describes which field failed validation.
type InvalidInputError struct {
	Field   string
	Message string
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// Invalid builds an InvalidInputError.
func Invalid(field, message string) error {
	return &InvalidInputError{Field: field, Message: message}
}

// ConflictError names the resource that already exists.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is match ErrConflict.
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// Conflict builds a ConflictError.
func Conflict(message string) error {
	return &ConflictError{Message: message}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unknown errors become a
// generic 500 so store details never reach the caller.
func MapErrorToHTTP(err error) *HTTPError {
	var invalid *InvalidInputError
	var conflict *ConflictError
	switch {
	case errors.As(err, &invalid):
		return NewHTTPError(http.StatusBadRequest, invalid.Error(), "INVALID_INPUT")
	case errors.Is(err, ErrInvalidInput):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidInput.Error(), "INVALID_INPUT")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
	case errors.Is(err, ErrStatueNotFound):
		return NewHTTPError(http.StatusNotFound, "Statue not found", "STATUE_NOT_FOUND")
	case errors.As(err, &conflict):
		return NewHTTPError(http.StatusConflict, conflict.Message, "CONFLICT")
	case errors.Is(err, ErrConflict):
		return NewHTTPError(http.StatusConflict, ErrConflict.Error(), "CONFLICT")
	case errors.Is(err, ErrUnavailable):
		return NewHTTPError(http.StatusInternalServerError, ErrUnavailable.Error(), "UNAVAILABLE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
