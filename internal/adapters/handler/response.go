// Package handler implements the HTTP side of the monitor server
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// APIResponse represents the standard JSON response envelope
type APIResponse struct {
	Code    int         `json:"code"`    // Status of the operation (200, 404, 500, ...)
	Message string      `json:"message"` // Human-readable message
	Data    interface{} `json:"data"`    // Actual payload (can be null)
}

// NewSuccessResponse creates a successful response (code 200)
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Code:    http.StatusOK,
		Message: "Success",
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code int, message string) APIResponse {
	return APIResponse{
		Code:    code,
		Message: message,
		Data:    nil,
	}
}

func NotFoundResponse(message string) APIResponse {
	return NewErrorResponse(http.StatusNotFound, message)
}

func InternalErrorResponse(message string) APIResponse {
	return NewErrorResponse(http.StatusInternalServerError, message)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Debug("Failed to write JSON response", "error", err)
	}
}

// writeText sends body as text/plain, headers first
func writeText(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// Client went away mid-response
		slog.Debug("Failed to write text response", "error", err)
	}
}
