package reminder

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rx3lixir/amparo/internal/backend"
)

// fakeAPI serves a canned reminder list and records the order of
// every observable side effect through the shared events slice.
type fakeAPI struct {
	list    []backend.ReminderResponse
	failAll bool
	events  *[]string
}

func (f *fakeAPI) record(ev string) {
	if f.events != nil {
		*f.events = append(*f.events, ev)
	}
}

func (f *fakeAPI) Reminders(ctx context.Context, deviceID string) ([]backend.ReminderResponse, error) {
	if f.failAll {
		return nil, errors.New("backend unreachable")
	}
	f.record("list")
	return f.list, nil
}

func (f *fakeAPI) CreateReminder(ctx context.Context, req backend.CreateReminderRequest) (*backend.ReminderResponse, error) {
	if f.failAll {
		return nil, errors.New("backend unreachable")
	}
	f.record("create")
	created := backend.ReminderResponse{
		ID:     "created-1",
		Title:  req.Title,
		DueAt:  req.DueAt,
		Status: req.Status,
	}
	f.list = append(f.list, created)
	return &created, nil
}

func (f *fakeAPI) UpdateReminder(ctx context.Context, id string, req backend.UpdateReminderRequest) (*backend.ReminderResponse, error) {
	if f.failAll {
		return nil, errors.New("backend unreachable")
	}
	f.record("update")
	for i := range f.list {
		if f.list[i].ID == id {
			f.list[i].Status = req.Status
			return &f.list[i], nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeAPI) DeleteReminder(ctx context.Context, id string) error {
	if f.failAll {
		return errors.New("backend unreachable")
	}
	f.record("delete")
	for i := range f.list {
		if f.list[i].ID == id {
			f.list = append(f.list[:i], f.list[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeAlarms struct {
	scheduled map[string]time.Time
	events    *[]string
}

func newFakeAlarms(events *[]string) *fakeAlarms {
	return &fakeAlarms{scheduled: make(map[string]time.Time), events: events}
}

func (f *fakeAlarms) Schedule(triggerAt time.Time, text string) {
	if f.events != nil {
		*f.events = append(*f.events, "schedule:"+text)
	}
	f.scheduled[text] = triggerAt
}

func (f *fakeAlarms) Cancel(text string) {
	if f.events != nil {
		*f.events = append(*f.events, "cancel:"+text)
	}
	delete(f.scheduled, text)
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func future(d time.Duration) string {
	return time.Now().Add(d).UTC().Format(time.RFC3339)
}

func TestLoadFiltersAndParses(t *testing.T) {
	api := &fakeAPI{list: []backend.ReminderResponse{
		{ID: "1", Title: "Pastilla", DueAt: future(time.Hour), Status: backend.StatusDraft},
		{ID: "2", Title: "Ignorada", DueAt: future(time.Hour), Status: backend.StatusCancelled},
		{ID: "3", Title: "Rota", DueAt: "not-a-date", Status: backend.StatusDraft},
		{ID: "4", Title: "Fallback", DueAt: "2030-06-01 10:00:00", Status: backend.StatusConfirmed},
	}}
	alarms := newFakeAlarms(nil)
	svc := NewService(api, alarms, "dev-1", time.UTC, testLogger())

	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	all := svc.All()
	if len(all) != 2 {
		t.Fatalf("cache should hold 2 reminders, got %d", len(all))
	}
	for _, r := range all {
		if r.ID == "2" || r.ID == "3" {
			t.Fatalf("reminder %s must have been dropped", r.ID)
		}
	}
}

func TestFallbackDueDateIsUTC(t *testing.T) {
	due, err := ParseDueAt("2030-06-01 10:30:00")
	if err != nil {
		t.Fatal(err)
	}
	if due.Hour() != 10 || due.Location() != time.UTC {
		t.Fatalf("fallback form must be read as UTC, got %v", due)
	}
}

func TestScheduleAllSkipsNonSchedulable(t *testing.T) {
	api := &fakeAPI{list: []backend.ReminderResponse{
		{ID: "1", Title: "Futura borrador", DueAt: future(time.Hour), Status: backend.StatusDraft},
		{ID: "2", Title: "Futura hecha", DueAt: future(time.Hour), Status: backend.StatusDone},
		{ID: "3", Title: "Pasada", DueAt: "2020-01-01T10:00:00Z", Status: backend.StatusDraft},
	}}
	alarms := newFakeAlarms(nil)
	svc := NewService(api, alarms, "dev-1", time.UTC, testLogger())

	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(alarms.scheduled) != 1 {
		t.Fatalf("only the future draft may be scheduled, got %d alarms", len(alarms.scheduled))
	}
	if _, ok := alarms.scheduled["Futura borrador"]; !ok {
		t.Fatal("the future draft reminder was not scheduled")
	}
}

func TestUpdateStatusCancelsAlarmBeforeBackendCall(t *testing.T) {
	var events []string
	api := &fakeAPI{
		list: []backend.ReminderResponse{
			{ID: "1", Title: "Pastilla", DueAt: future(time.Hour), Status: backend.StatusDraft},
		},
		events: &events,
	}
	alarms := newFakeAlarms(&events)
	svc := NewService(api, alarms, "dev-1", time.UTC, testLogger())

	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	events = events[:0]
	if err := svc.UpdateStatus(context.Background(), "1", backend.StatusDone); err != nil {
		t.Fatal(err)
	}

	if len(events) < 2 {
		t.Fatalf("expected cancel then update, got %v", events)
	}
	if events[0] != "cancel:Pastilla" {
		t.Fatalf("alarm cancel must happen before the backend call, got %v", events)
	}
	if events[1] != "update" {
		t.Fatalf("backend update must follow the cancel, got %v", events)
	}
}

func TestUpdateToDraftKeepsAlarm(t *testing.T) {
	var events []string
	api := &fakeAPI{
		list: []backend.ReminderResponse{
			{ID: "1", Title: "Pastilla", DueAt: future(time.Hour), Status: backend.StatusConfirmed},
		},
		events: &events,
	}
	alarms := newFakeAlarms(&events)
	svc := NewService(api, alarms, "dev-1", time.UTC, testLogger())

	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	events = events[:0]
	if err := svc.UpdateStatus(context.Background(), "1", backend.StatusDraft); err != nil {
		t.Fatal(err)
	}

	for _, ev := range events {
		if ev == "cancel:Pastilla" {
			t.Fatal("moving back to draft must not cancel the alarm")
		}
	}
}

func TestDeleteCancelsAlarm(t *testing.T) {
	var events []string
	api := &fakeAPI{
		list: []backend.ReminderResponse{
			{ID: "1", Title: "Pastilla", DueAt: future(time.Hour), Status: backend.StatusDraft},
		},
		events: &events,
	}
	alarms := newFakeAlarms(&events)
	svc := NewService(api, alarms, "dev-1", time.UTC, testLogger())

	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	events = events[:0]
	if err := svc.Delete(context.Background(), "1"); err != nil {
		t.Fatal(err)
	}

	if len(events) < 2 || events[0] != "cancel:Pastilla" || events[1] != "delete" {
		t.Fatalf("expected cancel then delete, got %v", events)
	}
	if svc.Count() != 0 {
		t.Fatalf("cache should be empty after delete, got %d", svc.Count())
	}
}

func TestLoadFailureLeavesCacheUnchanged(t *testing.T) {
	api := &fakeAPI{list: []backend.ReminderResponse{
		{ID: "1", Title: "Pastilla", DueAt: future(time.Hour), Status: backend.StatusDraft},
	}}
	svc := NewService(api, newFakeAlarms(nil), "dev-1", time.UTC, testLogger())

	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	api.failAll = true
	if err := svc.Load(context.Background()); err == nil {
		t.Fatal("expected load to fail")
	}

	if svc.Count() != 1 {
		t.Fatalf("failed load must not touch the cache, got %d entries", svc.Count())
	}
}

func TestCreateRoundTripKeepsLocalTime(t *testing.T) {
	loc, err := time.LoadLocation("America/Mexico_City")
	if err != nil {
		t.Skip("timezone database unavailable")
	}

	api := &fakeAPI{}
	svc := NewService(api, newFakeAlarms(nil), "dev-1", loc, testLogger())

	if err := svc.Create(context.Background(), "Cena navideña", "2024-12-25 14:30"); err != nil {
		t.Fatal(err)
	}

	all := svc.All()
	if len(all) != 1 {
		t.Fatalf("expected the created reminder back, got %d", len(all))
	}

	rendered := svc.DueLocal(all[0]).Format("Jan 2 15:04")
	if rendered != "Dec 25 14:30" {
		t.Fatalf("round trip changed the local time: %s", rendered)
	}
}

func TestCreateRejectsBadLocalDate(t *testing.T) {
	api := &fakeAPI{}
	svc := NewService(api, newFakeAlarms(nil), "dev-1", time.UTC, testLogger())

	if err := svc.Create(context.Background(), "x", "25/12/2024 14:30"); err == nil {
		t.Fatal("expected an error for an unparseable local date")
	}
	if len(api.list) != 0 {
		t.Fatal("no request may be sent for a bad local date")
	}
}
