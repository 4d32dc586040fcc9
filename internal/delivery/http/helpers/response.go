package helpers

import (
	"encoding/json"
	"errors"
	"net/http"

	"eventscheduler/internal/domain"
)

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest           = "bad_request"
	ErrCodeValidationFailed     = "validation_failed"
	ErrCodeAuthFailed           = "auth_failed"
	ErrCodeUnauthorized         = "unauthorized"
	ErrCodeForbidden            = "forbidden"
	ErrCodeNotFound             = "not_found"
	ErrCodeConfirmationRequired = "confirmation_required"
	ErrCodeServiceUnavailable   = "service_unavailable"
	ErrCodeUpstreamError        = "upstream_error"
	ErrCodeInternalError        = "internal_error"
)

// APIError is the error object in the standardized API response envelope.
// swagger:model APIError
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// APIResponse is the standardized envelope for all API responses.
// On success: Data is set, Error is nil. On error: Data is nil, Error is set.
// swagger:model APIResponse
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

// WriteJSONSuccess sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with the given data and error set to nil.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{Data: data, Error: nil})
}

// WriteJSONError sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with data nil and the given error code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	writeAPIError(w, statusCode, &APIError{Code: code, Message: message})
}

func writeAPIError(w http.ResponseWriter, statusCode int, apiErr *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{
		Data:  nil,
		Error: apiErr,
	})
}

// ErrorStatus maps an error from the service layer to an HTTP status and API error.
// Unknown errors map to 500 with a generic message.
func ErrorStatus(err error) (int, *APIError) {
	var (
		validationErr *domain.ValidationError
		authErr       *domain.AuthError
		configErr     *domain.ConfigurationError
		serviceErr    *domain.ServiceError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, &APIError{Code: ErrCodeValidationFailed, Message: "validation failed", Fields: validationErr.Fields}
	case errors.As(err, &authErr):
		return http.StatusUnauthorized, &APIError{Code: ErrCodeAuthFailed, Message: authErr.Message}
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, &APIError{Code: ErrCodeUnauthorized, Message: "unauthorized"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, &APIError{Code: ErrCodeForbidden, Message: "forbidden"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, &APIError{Code: ErrCodeNotFound, Message: "not found"}
	case errors.Is(err, domain.ErrConfirmationRequired):
		return http.StatusConflict, &APIError{Code: ErrCodeConfirmationRequired, Message: "confirmation required"}
	case errors.As(err, &configErr):
		return http.StatusServiceUnavailable, &APIError{Code: ErrCodeServiceUnavailable, Message: configErr.Message}
	case errors.As(err, &serviceErr):
		return http.StatusBadGateway, &APIError{Code: ErrCodeUpstreamError, Message: serviceErr.Error()}
	default:
		return http.StatusInternalServerError, &APIError{Code: ErrCodeInternalError, Message: "internal server error"}
	}
}

// WriteError writes the envelope for err using ErrorStatus.
func WriteError(w http.ResponseWriter, err error) {
	status, apiErr := ErrorStatus(err)
	writeAPIError(w, status, apiErr)
}
