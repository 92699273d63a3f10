package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"hexashop/internal/model"

	"github.com/rs/zerolog"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeDomainError maps a service error to an HTTP status. Domain errors carry
// their code in the body so the storefront can branch on it.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		writeError(w, http.StatusInternalServerError, "internal server error", logger)
		return
	}

	status := http.StatusInternalServerError
	switch de.Code {
	case model.ErrCodeValidation, model.ErrCodeInsufficientStock, model.ErrCodePromoInvalid:
		status = http.StatusBadRequest
	case model.ErrCodeNotFound:
		status = http.StatusNotFound
	case model.ErrCodeStorageBusy:
		status = http.StatusServiceUnavailable
	}

	logger.Error().Str("code", de.Code).Str("error", de.Message).Int("status", status).Msg("handler error")
	writeJSON(w, status, ErrorResponse{Error: de.Message, Code: de.Code})
}
