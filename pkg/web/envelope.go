// Package web holds the HTTP plumbing shared by handlers: the response envelope and middleware.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the JSON body of every catalog response.
// Data is present on successful reads and writes that return a record; Error is present on failures.
type Envelope[T any] struct {
	Success          bool              `json:"success"`
	Message          string            `json:"message,omitempty"`
	Data             T                 `json:"data,omitempty"`
	Error            string            `json:"error,omitempty"`
	ValidationErrors map[string]string `json:"validation_errors,omitempty"`
}

func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	// Handle nil payload
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// RespondSuccess writes a success envelope. data may be nil for operations that return no record.
func RespondSuccess(w http.ResponseWriter, logger *slog.Logger, status int, message string, data any) {
	RespondJSON(w, logger, status, Envelope[any]{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RespondError writes a failure envelope with a human-readable message and an error detail.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, message, detail string) {
	RespondJSON(w, logger, status, Envelope[any]{
		Success: false,
		Message: message,
		Error:   detail,
	})
}

// RespondValidationError writes a failure envelope listing the rule each field failed on.
func RespondValidationError(w http.ResponseWriter, logger *slog.Logger, message, detail string, fields map[string]string) {
	RespondJSON(w, logger, http.StatusBadRequest, Envelope[any]{
		Success:          false,
		Message:          message,
		Error:            detail,
		ValidationErrors: fields,
	})
}
