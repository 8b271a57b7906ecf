// httputil/json.go
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// jsonLogger is a package-level logger for encoding errors. Use SetLogger to configure.
var jsonLogger *zap.Logger

// SetLogger configures the logger used for JSON encoding errors.
// This should be called once during application startup.
func SetLogger(logger *zap.Logger) {
	jsonLogger = logger
}

// WriteJSON writes a JSON response with the given status code.
// If encoding fails, the error is logged because headers and status have
// already been sent and we can't send another response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil && jsonLogger != nil {
		jsonLogger.Error("json encoding failed after headers sent", zap.Error(err))
	}
}

// JSONError writes a structured JSON error with an error code and message.
func JSONError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// JSONErrorSimple is a shorthand for errors where the message itself is the code.
func JSONErrorSimple(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// BindJSON decodes the request body as JSON into v.
//
// It returns a user-friendly error if the body is empty or malformed; the
// error messages are safe to return to clients. Unknown fields are ignored.
func BindJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}
	defer r.Body.Close()

	// ContentLength 0 means an explicitly empty body; -1 (chunked/unknown)
	// must attempt a decode and fails with EOF, which parseJSONError maps to
	// the same message.
	if r.ContentLength == 0 {
		return errors.New("request body is empty")
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return parseJSONError(err)
	}

	// Check for extraneous data after the JSON object
	if dec.More() {
		return errors.New("request body contains multiple JSON values")
	}

	return nil
}

// parseJSONError converts json decoding errors into user-friendly messages.
func parseJSONError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, io.EOF) {
		return errors.New("request body is empty")
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("malformed JSON at position %d", syntaxErr.Offset)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("invalid value for field %q: expected %s", typeErr.Field, typeErr.Type.String())
	}

	// Body too large (from http.MaxBytesReader)
	if err.Error() == "http: request body too large" {
		return errors.New("request body too large")
	}

	return errors.New("invalid JSON in request body")
}
