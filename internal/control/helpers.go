package control

import (
	"encoding/json"
	"net/http"
)

// APIError represents the structure of error responses
type APIError struct {
	Error string `json:"error"`
}

// respondJSON sends a JSON response with the given status code
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.log.Error("Failed to encode JSON response", "error", err)
		}
	}
}

// respondError sends an error response with appropriate status code
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, APIError{Error: message})
}
