package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gift-exchange/internal/types"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.DomainError `json:"error"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: types.DomainError{
			Code:    code,
			Message: message,
		},
	}

	json.NewEncoder(w).Encode(response)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// parseJSONBody parses JSON request body.
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// Common error codes not produced by the domain layer
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// respondDomainError maps a domain error to an HTTP status and writes it.
// Unknown errors become opaque 500s.
func respondDomainError(w http.ResponseWriter, err error) {
	var derr *types.DomainError
	if !errors.As(err, &derr) {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "An internal error occurred")
		return
	}

	status := http.StatusInternalServerError
	switch derr.Code {
	case types.CodeInvalidInput:
		status = http.StatusBadRequest
	case types.CodeInvalidCredentials:
		status = http.StatusUnauthorized
	case types.CodePermissionDenied, types.CodeConfirmationMismatch:
		status = http.StatusForbidden
	case types.CodeNotFound:
		status = http.StatusNotFound
	case types.CodeAlreadyClaimed, types.CodeNotClaimed, types.CodeCapacityExceeded,
		types.CodeDuplicateEmail, types.CodeLastAdminProtected:
		status = http.StatusConflict
	case types.CodeTokenInvalid:
		status = http.StatusBadRequest
	case types.CodeTokenExpired:
		status = http.StatusGone
	}

	respondError(w, status, derr.Code, derr.Message)
}
