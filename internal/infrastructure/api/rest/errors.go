package rest

import (
	"errors"
	"net/http"

	"github.com/smilemakc/smslabel/internal/apperr"
)

// APIError is the envelope every non-2xx response carries.
type APIError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError builds an APIError with no extra details.
func NewAPIError(code, message string, httpStatus int) *APIError {
	return &APIError{Code: code, Message: message, HTTPStatus: httpStatus}
}

// NewAPIErrorWithDetails builds an APIError carrying structured details.
func NewAPIErrorWithDetails(code, message string, httpStatus int, details map[string]interface{}) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: httpStatus}
}

var (
	ErrBadRequest       = NewAPIError("BAD_REQUEST", "Invalid request", http.StatusBadRequest)
	ErrNotFoundResp     = NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrValidationFailed = NewAPIError("VALIDATION_FAILED", "Validation failed", http.StatusBadRequest)
	ErrInternalServer   = NewAPIError("INTERNAL_ERROR", "Internal server error", http.StatusInternalServerError)
	ErrInvalidJSON      = NewAPIError("INVALID_JSON", "Invalid JSON in request body", http.StatusBadRequest)
	ErrInvalidID        = NewAPIError("INVALID_ID", "Invalid ID format", http.StatusBadRequest)
)

// TranslateError maps an apperr.Kind-carrying error (or a sentinel from
// apperr) to the HTTP status and code the spec's error taxonomy implies.
func TranslateError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var storeErr *apperr.StoreError
	if errors.As(err, &storeErr) {
		if errors.Is(storeErr.Err, apperr.ErrNotFound) {
			return NewAPIError("NOT_FOUND", "message or label not found", http.StatusNotFound)
		}
		if errors.Is(storeErr.Err, apperr.ErrValidation) {
			return NewAPIError("VALIDATION_FAILED", storeErr.Error(), http.StatusBadRequest)
		}
		return NewAPIError("STORAGE_ERROR", storeErr.Error(), http.StatusInternalServerError)
	}

	var providerErr *apperr.ProviderError
	if errors.As(err, &providerErr) {
		switch providerErr.Kind {
		case apperr.KindProviderTimeout:
			return NewAPIError("PROVIDER_TIMEOUT", providerErr.Error(), http.StatusGatewayTimeout)
		case apperr.KindProviderProtocol:
			return NewAPIError("PROVIDER_PROTOCOL_ERROR", providerErr.Error(), http.StatusBadGateway)
		default:
			return NewAPIError("PROVIDER_UNAVAILABLE", providerErr.Error(), http.StatusServiceUnavailable)
		}
	}

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return NewAPIError("NOT_FOUND", "resource not found", http.StatusNotFound)
	case errors.Is(err, apperr.ErrValidation):
		return NewAPIError("VALIDATION_FAILED", err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperr.ErrAlreadyRunning):
		return NewAPIError("ALREADY_RUNNING", "a batch is already running", http.StatusConflict)
	case errors.Is(err, apperr.ErrNotRunning):
		return NewAPIError("IS_RUNNING", "a batch is running", http.StatusConflict)
	case errors.Is(err, apperr.ErrCancelled):
		return NewAPIError("CANCELLED", "operation cancelled", http.StatusOK)
	default:
		return NewAPIError("INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
	}
}
