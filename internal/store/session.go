package store

import (
	"sync"

	"github.com/google/uuid"
)

// Session holds the conversation session id. It lives in memory only:
// a fresh process has no session and creates one lazily on first use,
// so every app run talks to the backend under a new session.
type Session struct {
	mu sync.Mutex
	id string
}

func NewSession() *Session {
	return &Session{}
}

// StartNew discards the current session id and generates a new one.
func (s *Session) StartNew() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = uuid.New().String()
	return s.id
}

// ID returns the current session id, starting a session if none exists.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id == "" {
		s.id = uuid.New().String()
	}
	return s.id
}
