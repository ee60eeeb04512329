package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/doorbell-core/internal/event"
	"github.com/nerrad567/doorbell-core/internal/push"
	"github.com/nerrad567/doorbell-core/internal/store"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeUnknownType = "unknown_event_type"
	ErrCodeUnavailable = "unavailable"
	ErrCodeInternal    = "internal_error"
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

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeHandlerError maps an event handling error to a response.
// Unavailability wins over an unknown type when both are joined.
func writeHandlerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrUnavailable), errors.Is(err, push.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())
	case errors.Is(err, store.ErrInvalidPath):
		writeBadRequest(w, err.Error())
	case errors.Is(err, event.ErrUnknownEventType):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeUnknownType, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
