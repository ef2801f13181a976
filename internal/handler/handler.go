// Package handler provides HTTP request handlers for the todo API.
package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/todo-api/internal/model"
)

// Version is the application version.
const Version = "1.0.0"

// responder writes JSON responses and logs encoding failures.
type responder struct {
	logger *zap.Logger
}

// writeJSON writes a JSON response with the given status code.
func (rs responder) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		rs.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func (rs responder) writeError(w http.ResponseWriter, status int, message string) {
	rs.writeJSON(w, status, model.ErrorResponse{
		Code:    status,
		Message: message,
	})
}
