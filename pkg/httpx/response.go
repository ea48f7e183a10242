package httpx

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// ErrorWriter renders an error response. code is a stable machine readable
// identifier such as "unauthorized".
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, code string)

// WriteError is the default ErrorWriter. It uses the HTTP status text as the
// description.
func WriteError(w http.ResponseWriter, _ *http.Request, status int, code string) {
	WriteJSON(w, status, map[string]string{
		"error":             code,
		"error_description": http.StatusText(status),
	})
}
