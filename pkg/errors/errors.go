// Package errors defines the service error taxonomy and its HTTP status
// mapping. Every failure that crosses a component boundary is a
// *ServiceError carrying one of the kind sentinels below, so callers can
// branch with errors.Is without inspecting messages.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind sentinels. Each ServiceError wraps exactly one of these.
var (
	ErrStoreAPI          = errors.New("store api error")
	ErrCategorizationAPI = errors.New("categorization api error")
	ErrMetricsAPI        = errors.New("metrics api error")
	ErrDatabase          = errors.New("database error")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInternal          = errors.New("internal error")
)

// ServiceError is a structured application error with HTTP status mapping.
type ServiceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Kind    error  `json:"-"`
	Err     error  `json:"-"`
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes both the kind sentinel and the underlying cause to
// errors.Is and errors.As.
func (e *ServiceError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// StoreAPI creates a 502 error for an upstream app-store failure.
// The provider name is carried in the message.
func StoreAPI(provider string, err error) *ServiceError {
	return &ServiceError{
		Code:    "STORE_API_ERROR",
		Message: fmt.Sprintf("store %q request failed", provider),
		Status:  http.StatusBadGateway,
		Kind:    ErrStoreAPI,
		Err:     err,
	}
}

// CategorizationAPI creates a 502 error for a categorization upstream failure.
func CategorizationAPI(err error) *ServiceError {
	return &ServiceError{
		Code:    "CATEGORIZATION_API_ERROR",
		Message: "categorization request failed",
		Status:  http.StatusBadGateway,
		Kind:    ErrCategorizationAPI,
		Err:     err,
	}
}

// MetricsAPI creates an error for a metric delivery failure. Metrics are
// best-effort, so the mapped status is 200: the boundary reports a warning
// instead of failing the request.
func MetricsAPI(err error) *ServiceError {
	return &ServiceError{
		Code:    "METRICS_API_ERROR",
		Message: "metric delivery failed",
		Status:  http.StatusOK,
		Kind:    ErrMetricsAPI,
		Err:     err,
	}
}

// Database creates a 500 error for a persistence failure.
func Database(op string, err error) *ServiceError {
	return &ServiceError{
		Code:    "DATABASE_ERROR",
		Message: fmt.Sprintf("database operation %q failed", op),
		Status:  http.StatusInternalServerError,
		Kind:    ErrDatabase,
		Err:     err,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *ServiceError {
	return &ServiceError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Kind:    ErrInvalidInput,
	}
}

// Service creates a 500 error for a pipeline-level failure that is not
// attributable to a single upstream, e.g. every requested store pair failed.
func Service(message string) *ServiceError {
	return &ServiceError{
		Code:    "SERVICE_ERROR",
		Message: message,
		Status:  http.StatusInternalServerError,
		Kind:    ErrInternal,
	}
}

// Internal wraps an unexpected error as a 500 without leaking its text to clients.
func Internal(err error) *ServiceError {
	return &ServiceError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Kind:    ErrInternal,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Status
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrStoreAPI), errors.Is(err, ErrCategorizationAPI):
		return http.StatusBadGateway
	case errors.Is(err, ErrMetricsAPI):
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
