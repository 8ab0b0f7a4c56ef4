package alarm

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Notifier delivers a fired reminder to the user with an audible
// alert. A nil notifier is the degraded mode of a device that denied
// notification capability: alarms are skipped silently, never an error.
type Notifier interface {
	Notify(title, message string) error
}

// Scheduler registers exact one-shot wake-ups keyed by the reminder
// text. Scheduling and cancelling derive the same key from the same
// text, so a repeated Schedule replaces the pending alarm instead of
// duplicating it.
type Scheduler struct {
	notifier Notifier
	log      *log.Logger

	mu     sync.Mutex
	timers map[uint32]*time.Timer
}

func NewScheduler(notifier Notifier, logger *log.Logger) *Scheduler {
	return &Scheduler{
		notifier: notifier,
		log:      logger,
		timers:   make(map[uint32]*time.Timer),
	}
}

// Key derives the stable alarm id for a reminder text.
func Key(text string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	return h.Sum32()
}

// Schedule registers a wake-up at triggerAt carrying text. Any alarm
// pending under the same text is replaced.
func (s *Scheduler) Schedule(triggerAt time.Time, text string) {
	if s.notifier == nil {
		s.log.Debug("Notifier unavailable, skipping alarm", "text", text)
		return
	}

	key := Key(text)

	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[key]; ok {
		t.Stop()
	}

	s.timers[key] = time.AfterFunc(time.Until(triggerAt), func() {
		s.fire(key, text)
	})

	s.log.Debug("Alarm scheduled", "text", text, "at", triggerAt)
}

// Cancel removes the pending alarm for text. Cancelling an alarm that
// was never scheduled is a no-op.
func (s *Scheduler) Cancel(text string) {
	key := Key(text)

	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
		s.log.Debug("Alarm cancelled", "text", text)
	}
}

// Pending returns the number of alarms currently scheduled.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Close stops every pending alarm.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}

func (s *Scheduler) fire(key uint32, text string) {
	s.mu.Lock()
	delete(s.timers, key)
	s.mu.Unlock()

	if err := s.notifier.Notify("Recordatorio", text); err != nil {
		s.log.Error("Failed to deliver reminder notification", "text", text, "error", err)
		return
	}
	s.log.Info("Reminder fired", "text", text)
}
