// Package utils holds small helpers shared by the HTTP handlers.
package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/samaj-registry/registry-backend/v1/models"
)

// RespondWithJSON serializes payload and writes it with the given status.
// An encoding failure after the header is flushed can only be logged; the
// client sees a truncated body.
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err, "statusCode", statusCode)
	}
}

// RespondWithError writes the standard error envelope. A nil err omits the
// details field so internal messages do not leak to the client.
func RespondWithError(w http.ResponseWriter, statusCode int, message string, err error) {
	resp := models.ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	RespondWithJSON(w, statusCode, resp)
}
