package control

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rx3lixir/amparo/internal/emergency"
	"github.com/rx3lixir/amparo/internal/reminder"
	"github.com/rx3lixir/amparo/pkg/token"
)

// Registration reports whether the device has been paired to a user.
type Registration interface {
	IsRegistered() bool
}

// Server is the read-mostly HTTP surface a caregiver can reach on the
// local network: device status, the reminder list, and an SOS trigger.
type Server struct {
	reminders  *reminder.Service
	sos        *emergency.Controller
	identity   Registration
	tokens     *token.Service
	log        *log.Logger
	httpServer *http.Server
	started    time.Time
}

func New(addr string, reminders *reminder.Service, sos *emergency.Controller, identity Registration, tokens *token.Service, logger *log.Logger) *Server {
	s := &Server{
		reminders: reminders,
		sos:       sos,
		identity:  identity,
		tokens:    tokens,
		log:       logger,
		started:   time.Now(),
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.setupRoutes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("Control server listening", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
