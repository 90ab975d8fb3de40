package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/groovematch/groovematch/internal/errors"
)

// Error codes for standardized API error responses
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeAmbiguousVote   = "AMBIGUOUS_VOTE"
	ErrCodeFeedUnavailable = "FEED_UNAVAILABLE"
	ErrCodeInternalServer  = "INTERNAL_SERVER_ERROR"
)

// APIError represents an error with an HTTP status code and error code
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new API error with custom message and code
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// BadRequest creates a 400 error with custom message
func BadRequest(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: ErrCodeBadRequest, Message: message}
}

// NotFound creates a 404 error with custom message
func NotFound(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Code: ErrCodeNotFound, Message: message}
}

// serviceError maps an application error onto an APIError by kind
func (h *Handlers) serviceError(err error) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	var appErr *errors.Error
	if stderrors.As(err, &appErr) {
		switch appErr.Kind {
		case errors.ErrValidation, errors.ErrInvalidInput:
			return NewAPIError(http.StatusBadRequest, ErrCodeValidation, appErr.Message)
		case errors.ErrNotFound:
			return NewAPIError(http.StatusNotFound, ErrCodeNotFound, appErr.Message)
		case errors.ErrConflict:
			return NewAPIError(http.StatusConflict, ErrCodeConflict, appErr.Message)
		case errors.ErrAmbiguousVote:
			return NewAPIError(http.StatusConflict, ErrCodeAmbiguousVote, appErr.Message)
		case errors.ErrExternalFetch:
			return NewAPIError(http.StatusBadGateway, ErrCodeFeedUnavailable, appErr.Message)
		}
	}

	h.Log.Error("Internal error", "error", err)
	return NewAPIError(http.StatusInternalServerError, ErrCodeInternalServer, "Internal server error")
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondOK writes a 200 OK JSON response
func respondOK(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, data)
}

// respondError writes an APIError as JSON
func respondError(w http.ResponseWriter, apiErr *APIError) {
	respondJSON(w, apiErr.Status, apiErr)
}

// decodeJSON decodes a request body, rejecting unknown fields
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return BadRequest("invalid JSON body: " + err.Error())
	}
	return nil
}
