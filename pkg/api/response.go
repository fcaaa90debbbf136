package api

import (
	"encoding/json"
	"net/http"
)

// writeJSONResponse writes data as JSON with the given status code.
// The body is encoded before the header goes out so an unencodable value
// yields a 500 instead of a truncated success.
func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		statusCode = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]any{
			"error":  "failed to encode response",
			"status": "error",
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(append(body, '\n'))
}

// writeErrorResponse writes an error response with the given status code and message
func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, map[string]any{
		"error":  message,
		"status": "error",
	})
}
