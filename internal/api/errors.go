// Package api exposes the HTTP surface over the command handlers and the
// read model.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/orderflow/ordersvc/internal/domain"
	"github.com/orderflow/ordersvc/internal/eventlog"
)

type jsonError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSONError writes a JSON error payload with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonError{Error: message, Details: details})
}

// writeDomainError maps the stable error categories onto status codes.
// Anything unrecognized is reported opaquely.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidOrder), errors.Is(err, domain.ErrInvalidItem):
		WriteJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
	case errors.Is(err, eventlog.ErrConcurrencyConflict):
		WriteJSONError(w, http.StatusConflict, "concurrency_conflict", "retry with current state")
	case errors.Is(err, domain.ErrOrderNotCreated), errors.Is(err, domain.ErrOrderCancelled):
		WriteJSONError(w, http.StatusConflict, "invalid_state", err.Error())
	default:
		WriteJSONError(w, http.StatusInternalServerError, "internal_error", "")
	}
}
