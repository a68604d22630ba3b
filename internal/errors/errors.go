package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the HTTP layer.
type Kind string

const (
	KindValidation   Kind = "VALIDATION"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindNotFound     Kind = "NOT_FOUND"
	KindDuplicate    Kind = "DUPLICATE"
	KindServer       Kind = "INTERNAL_ERROR"
	KindUnavailable  Kind = "SERVICE_UNAVAILABLE"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is the typed error raised by services and the resource layer.
type APIError struct {
	Kind    Kind
	Message string
	Errors  []FieldError
	Err     error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Status maps the error kind to an HTTP status code.
func (e *APIError) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicate:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Validation creates a 400 error with optional per-field detail.
func Validation(message string, fields ...FieldError) *APIError {
	if message == "" {
		message = "Validation error"
	}
	return &APIError{Kind: KindValidation, Message: message, Errors: fields}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *APIError {
	if message == "" {
		message = "Not authorized to access this resource"
	}
	return &APIError{Kind: KindUnauthorized, Message: message}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *APIError {
	if message == "" {
		message = "Forbidden access"
	}
	return &APIError{Kind: KindForbidden, Message: message}
}

// NotFound creates a 404 error for the named resource.
func NotFound(resource string) *APIError {
	if resource == "" {
		resource = "Resource"
	}
	return &APIError{Kind: KindNotFound, Message: resource + " not found"}
}

// Duplicate creates a 409 error for the named resource.
func Duplicate(resource string) *APIError {
	if resource == "" {
		resource = "Resource"
	}
	return &APIError{Kind: KindDuplicate, Message: resource + " already exists"}
}

// Server wraps an unexpected failure.
func Server(message string, err error) *APIError {
	if message == "" {
		message = "Internal server error"
	}
	return &APIError{Kind: KindServer, Message: message, Err: err}
}

// Unavailable signals a disabled optional dependency.
func Unavailable(message string) *APIError {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	return &APIError{Kind: KindUnavailable, Message: message}
}

// IsKind reports whether err carries an APIError of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}
