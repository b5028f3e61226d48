// Package jsonutil writes JSON responses for the health probes and the
// realtime endpoint.
package jsonutil

import (
	"encoding/json"
	"net/http"
)

// JSON writes data as JSON with the given status. The response is never
// cached; probe and handshake answers must reflect the current state.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// OK writes a 200 OK JSON response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Error writes {"error": message} with the given status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// Unauthorized writes a 401 error response.
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

// Unavailable writes a 503 response carrying data, used by failing probes.
func Unavailable(w http.ResponseWriter, data any) {
	JSON(w, http.StatusServiceUnavailable, data)
}
