package control

import (
	"net/http"
	"strings"
)

// AuthMiddleware guards the API routes with a caregiver bearer token.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			s.respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		tok := strings.TrimPrefix(header, "Bearer ")
		if _, err := s.tokens.Validate(tok); err != nil {
			s.log.Warn("Rejected control request", "error", err)
			s.respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
