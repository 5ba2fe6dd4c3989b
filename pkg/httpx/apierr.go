package httpx

import (
	"fmt"
	"net/http"
)

// APIError is a wire-level error with a stable machine-readable code and a
// human message. Handlers map known service errors onto APIError values; the
// JSON shape is {"error": CODE, "message": ...}.
type APIError struct {
	// StatusCode is the HTTP status for this error.
	StatusCode int `json:"-"`

	// Code is the stable machine-readable error code (e.g. "AUTH_INVALID_CREDENTIALS").
	Code string `json:"error"`

	// Message is a human-readable description.
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	WriteJSON(w, e.StatusCode, e)
}

// NewAPIError builds an APIError with the given status, code, and message.
func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Message: message}
}
