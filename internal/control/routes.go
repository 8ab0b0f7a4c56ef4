package control

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware block
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health stays open so a probe needs no token
	r.Get("/health", s.HandleHealth)

	// Everything else requires a caregiver token
	r.Route("/api", func(r chi.Router) {
		r.Use(s.AuthMiddleware)

		r.Get("/status", s.HandleStatus)
		r.Get("/reminders", s.HandleReminders)
		r.Post("/sos", s.HandleSOS)
		r.Post("/sos/cancel", s.HandleSOSCancel)
	})

	return r
}
