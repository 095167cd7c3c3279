package shared

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorCode string

const (
	CodeValidation       ErrorCode = "VALIDATION_ERROR"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeForbidden        ErrorCode = "FORBIDDEN"
	CodeCapacityExceeded ErrorCode = "CAPACITY_EXCEEDED"

	// boundary-only codes, never produced by the task service
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeBadRequest   ErrorCode = "BAD_REQUEST"
	CodeRateLimited  ErrorCode = "RATE_LIMITED"
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// FieldError describes a single violated constraint on an input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ServiceError is the typed failure returned by the task service. StatusCode is the
// suggested HTTP status for the boundary layer.
type ServiceError struct {
	Code       ErrorCode    `json:"code"`
	Message    string       `json:"message"`
	StatusCode int          `json:"-"`
	Details    []FieldError `json:"details,omitempty"`
	Err        error        `json:"-"`
}

func (e *ServiceError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	for _, d := range e.Details {
		fmt.Fprintf(&b, "; %s: %s", d.Field, d.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string, details []FieldError) *ServiceError {
	return &ServiceError{
		Code:       CodeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

func NewNotFound(message string) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: message, StatusCode: http.StatusNotFound}
}

func NewForbidden(message string) *ServiceError {
	return &ServiceError{Code: CodeForbidden, Message: message, StatusCode: http.StatusForbidden}
}

func NewCapacityExceeded(err error) *ServiceError {
	return &ServiceError{
		Code:       CodeCapacityExceeded,
		Message:    "Task storage is full",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// AsServiceError reports whether err carries a *ServiceError and returns it.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsCode reports whether err is a ServiceError with the given code.
func IsCode(err error, code ErrorCode) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == code
}
