package control

import (
	"net/http"
	"time"
)

type reminderView struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	DueAt  string `json:"due_at"`
	Status string `json:"status"`
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"registered":       s.identity.IsRegistered(),
		"reminders":        s.reminders.Count(),
		"emergency_active": s.sos.Active(),
		"uptime":           time.Since(s.started).Round(time.Second).String(),
	}

	if es := s.sos.Status(); es != nil {
		status["emergency"] = es
	}

	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) HandleReminders(w http.ResponseWriter, r *http.Request) {
	all := s.reminders.All()

	views := make([]reminderView, 0, len(all))
	for _, rem := range all {
		views = append(views, reminderView{
			ID:     rem.ID,
			Title:  rem.Title,
			DueAt:  rem.DueAt.Format(time.RFC3339),
			Status: rem.Status,
		})
	}

	s.respondJSON(w, http.StatusOK, views)
}

func (s *Server) HandleSOS(w http.ResponseWriter, r *http.Request) {
	if err := s.sos.TriggerManual(r.Context()); err != nil {
		s.respondError(w, http.StatusBadGateway, "failed to trigger emergency")
		return
	}

	s.respondJSON(w, http.StatusAccepted, map[string]string{"status": "triggered"})
}

func (s *Server) HandleSOSCancel(w http.ResponseWriter, r *http.Request) {
	s.sos.Cancel()
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
