package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/notenest/notenest/internal/auth"
	"github.com/notenest/notenest/internal/notes"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeForbidden    = "forbidden"
	ErrCodeInternal     = "internal_error"
	ErrCodeValidation   = "validation_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeForbidden writes a 403 error response.
func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps business errors onto the HTTP error taxonomy:
// 400 for validation and signup conflicts, 401 for credential and token
// failures, 403 for role violations, 404 for missing or hidden entities,
// 500 for everything unexpected.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrValidation), errors.Is(err, notes.ErrValidation):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		writeBadRequest(w, "email already registered")
	case errors.Is(err, auth.ErrInvalidFamilyCode):
		writeBadRequest(w, "invalid family code")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeUnauthorized(w, "invalid email or password")
	case errors.Is(err, auth.ErrTokenExpired):
		writeUnauthorized(w, "token has expired")
	case errors.Is(err, auth.ErrTokenKindMismatch),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrUnauthenticated):
		writeUnauthorized(w, "invalid token")
	case errors.Is(err, notes.ErrForbidden):
		writeForbidden(w, "access denied")
	case errors.Is(err, auth.ErrUserNotFound):
		writeNotFound(w, "user not found")
	case errors.Is(err, notes.ErrNoteNotFound):
		writeNotFound(w, "note not found")
	case errors.Is(err, notes.ErrItemNotFound):
		writeNotFound(w, "checklist item not found")
	default:
		s.logger.Error("unhandled error in HTTP handler", "error", err)
		writeInternalError(w, "internal server error")
	}
}
