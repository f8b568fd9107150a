// Package httputil provides HTTP response helpers and middleware shared by all modules.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bissquit/opsdesk/internal/domain"
)

// Error codes reported in the error envelope.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeNotFound    = "NOT_FOUND"
	CodeForbidden   = "FORBIDDEN"
	CodeRateLimited = "RATE_LIMITED"
	CodeInternal    = "INTERNAL_ERROR"
)

// ErrorBody is the payload of the error envelope.
type ErrorBody struct {
	Code    string             `json:"code"`
	Message string             `json:"message"`
	Fields  domain.FieldErrors `json:"fields,omitempty"`
}

// JSON writes a raw JSON response without envelope.
// Use Success for {"data": ...} wrapped responses.
func JSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// Text writes a plain text response.
func Text(w http.ResponseWriter, statusCode int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(text)); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// Success writes a JSON response with {"data": ...} envelope.
func Success(w http.ResponseWriter, status int, data any) {
	JSON(w, status, map[string]any{"data": data})
}

// NoContent writes an empty 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes a JSON response with {"error": {"code": ..., "message": ...}} envelope.
func Error(w http.ResponseWriter, status int, code, message string) {
	FieldsError(w, status, code, message, nil)
}

// FieldsError writes an error envelope carrying per-field messages.
func FieldsError(w http.ResponseWriter, status int, code, message string, fields domain.FieldErrors) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{Code: code, Message: message, Fields: fields},
	})
}

// ValidationError writes a 400 response for a field-keyed validation failure.
func ValidationError(w http.ResponseWriter, err *domain.ValidationError) {
	FieldsError(w, http.StatusBadRequest, CodeValidation, err.Message, err.Fields)
}
