package reminder

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rx3lixir/amparo/internal/backend"
)

// Format the user types a due date in, interpreted in the device zone.
const localDueLayout = "2006-01-02 15:04"

// Fallback wire format for due dates the backend sends without an
// offset. Interpreted as UTC.
const fallbackDueLayout = "2006-01-02 15:04:05"

// Reminder is the client-side copy of a backend reminder record.
type Reminder struct {
	ID     string
	Title  string
	DueAt  time.Time
	Status string
}

// API is the slice of the backend contract the reminder flow needs.
type API interface {
	Reminders(ctx context.Context, deviceID string) ([]backend.ReminderResponse, error)
	CreateReminder(ctx context.Context, req backend.CreateReminderRequest) (*backend.ReminderResponse, error)
	UpdateReminder(ctx context.Context, id string, req backend.UpdateReminderRequest) (*backend.ReminderResponse, error)
	DeleteReminder(ctx context.Context, id string) error
}

// Alarms is the local wake-up mechanism, keyed by reminder title.
type Alarms interface {
	Schedule(triggerAt time.Time, text string)
	Cancel(text string)
}

// Service keeps a read-mostly cache of the backend reminder list and
// derives the local alarm set from it. The backend owns the records;
// every mutation here is one request followed by a full reload, and a
// failed request leaves the cache exactly as it was.
type Service struct {
	api      API
	alarms   Alarms
	deviceID string
	loc      *time.Location
	log      *log.Logger
	now      func() time.Time

	mu    sync.Mutex
	cache []Reminder
}

func NewService(api API, alarms Alarms, deviceID string, loc *time.Location, logger *log.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		api:      api,
		alarms:   alarms,
		deviceID: deviceID,
		loc:      loc,
		log:      logger,
		now:      time.Now,
	}
}

// Load fetches the full reminder list, drops cancelled entries and
// entries whose due date cannot be read, replaces the cache, and
// re-derives the alarm set.
func (s *Service) Load(ctx context.Context) error {
	resp, err := s.api.Reminders(ctx, s.deviceID)
	if err != nil {
		s.log.Error("Failed to load reminders", "error", err)
		return err
	}

	list := make([]Reminder, 0, len(resp))
	for _, r := range resp {
		if r.Status == backend.StatusCancelled {
			continue
		}

		due, err := ParseDueAt(r.DueAt)
		if err != nil {
			s.log.Warn("Dropping reminder with unreadable due date",
				"id", r.ID,
				"due_at", r.DueAt,
			)
			continue
		}

		list = append(list, Reminder{
			ID:     r.ID,
			Title:  r.Title,
			DueAt:  due,
			Status: r.Status,
		})
	}

	s.mu.Lock()
	s.cache = list
	s.mu.Unlock()

	s.scheduleAll(list)

	s.log.Debug("Reminders loaded", "count", len(list))
	return nil
}

// ParseDueAt reads a backend due date. ISO-8601 with offset is tried
// first, then the bare "date space time" form interpreted as UTC.
func ParseDueAt(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(fallbackDueLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized due date %q", value)
	}
	return t, nil
}

// scheduleAll registers wake-ups for every schedulable reminder: draft
// status with a due time strictly in the future. Everything else stays
// out of the alarm set.
func (s *Service) scheduleAll(list []Reminder) {
	now := s.now()
	for _, r := range list {
		if r.Status == backend.StatusDraft && r.DueAt.After(now) {
			s.alarms.Schedule(r.DueAt, r.Title)
		}
	}
}

// Create submits a new draft reminder. localDue is "2006-01-02 15:04"
// in the device timezone; the request carries the absolute time plus
// the zone name. The list is reloaded afterwards, no optimistic insert.
func (s *Service) Create(ctx context.Context, title, localDue string) error {
	due, err := time.ParseInLocation(localDueLayout, localDue, s.loc)
	if err != nil {
		return fmt.Errorf("invalid due date %q: %w", localDue, err)
	}

	req := backend.CreateReminderRequest{
		DeviceID: s.deviceID,
		Title:    title,
		DueAt:    due.Format(time.RFC3339),
		Timezone: s.loc.String(),
		Status:   backend.StatusDraft,
	}

	if _, err := s.api.CreateReminder(ctx, req); err != nil {
		s.log.Error("Failed to create reminder", "title", title, "error", err)
		return err
	}

	return s.Load(ctx)
}

// UpdateStatus moves a reminder to a new status. Leaving the
// schedulable state cancels the local alarm before the backend call,
// so the alarm can never fire after the user already marked it done.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) error {
	if status != backend.StatusDraft {
		if r, ok := s.find(id); ok {
			s.alarms.Cancel(r.Title)
		}
	}

	if _, err := s.api.UpdateReminder(ctx, id, backend.UpdateReminderRequest{Status: status}); err != nil {
		s.log.Error("Failed to update reminder", "id", id, "status", status, "error", err)
		return err
	}

	return s.Load(ctx)
}

// Delete removes a reminder, cancelling its alarm first.
func (s *Service) Delete(ctx context.Context, id string) error {
	if r, ok := s.find(id); ok {
		s.alarms.Cancel(r.Title)
	}

	if err := s.api.DeleteReminder(ctx, id); err != nil {
		s.log.Error("Failed to delete reminder", "id", id, "error", err)
		return err
	}

	return s.Load(ctx)
}

// All returns the cached reminders ordered by due time.
func (s *Service) All() []Reminder {
	s.mu.Lock()
	out := make([]Reminder, len(s.cache))
	copy(out, s.cache)
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].DueAt.Before(out[j].DueAt)
	})
	return out
}

// Count returns the number of cached reminders.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

// DueLocal renders a reminder's due time in the device timezone.
func (s *Service) DueLocal(r Reminder) time.Time {
	return r.DueAt.In(s.loc)
}

func (s *Service) find(id string) (Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.cache {
		if r.ID == id {
			return r, true
		}
	}
	return Reminder{}, false
}
