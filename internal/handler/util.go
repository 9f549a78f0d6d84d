// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"
)

// errorResponse is the uniform error envelope every endpoint returns;
// writeWorkflowError and the validation rejections all funnel through it.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
