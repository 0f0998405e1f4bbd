package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"campusevents/internal/model"
)

type fakeRepo struct {
	rows []model.ReminderRow
	err  error
}

func (f *fakeRepo) ParticipantsWithPhoneForWindow(ctx context.Context, start, end time.Time) ([]model.ReminderRow, error) {
	return f.rows, f.err
}

func (f *fakeRepo) CreateUser(ctx context.Context, u *model.User) error { return nil }
func (f *fakeRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return nil, nil
}
func (f *fakeRepo) CreateEvent(ctx context.Context, e *model.Event) (int64, error) { return 0, nil }
func (f *fakeRepo) DeleteEventTx(ctx context.Context, eventID int64) error         { return nil }
func (f *fakeRepo) GetAllEvents(ctx context.Context) ([]model.Event, error)        { return nil, nil }
func (f *fakeRepo) CountParticipants(ctx context.Context, eventID int64) (int, error) {
	return 0, nil
}
func (f *fakeRepo) RegisterParticipant(ctx context.Context, eventID int64, username string) error {
	return nil
}
func (f *fakeRepo) UpcomingForParticipant(ctx context.Context, username string) ([]model.UpcomingEvent, error) {
	return nil, nil
}
func (f *fakeRepo) MigrateUp(migrationsDir string) error   { return nil }
func (f *fakeRepo) MigrateDown(migrationsDir string) error { return nil }

type fakeSender struct {
	mu      sync.Mutex
	sent    []string
	failFor map[string]bool
}

func (f *fakeSender) Send(ctx context.Context, phone, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[phone] {
		return errors.New("provider rejected message")
	}
	f.sent = append(f.sent, phone)
	return nil
}

func (f *fakeSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func row(id int, name, date, username, phone string) model.ReminderRow {
	return model.ReminderRow{
		EventID:   id,
		EventName: name,
		Date:      date,
		Location:  "Main Hall",
		Username:  username,
		Phone:     phone,
	}
}

func TestDueIncludesEventInsideWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 55, 0, 0, time.UTC)
	rows := []model.ReminderRow{row(1, "Tech Talk", "2025-01-01 10:00", "alice", "1234567890")}

	due := Due(rows, now, 10*time.Minute)
	if len(due) != 1 {
		t.Fatalf("expected 1 due row, got %d", len(due))
	}
}

func TestDueExcludesEventOutsideWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	rows := []model.ReminderRow{row(1, "Tech Talk", "2025-01-01 10:00", "alice", "1234567890")}

	if due := Due(rows, now, 10*time.Minute); len(due) != 0 {
		t.Fatalf("expected no due rows an hour early, got %d", len(due))
	}
}

func TestDueWindowBoundaries(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 50, 0, 0, time.UTC)
	rows := []model.ReminderRow{
		row(1, "At boundary", "2025-01-01 10:00", "alice", "1111111111"),
		row(2, "Already started", "2025-01-01 09:50", "bob", "2222222222"),
		row(3, "Just past", "2025-01-01 10:01", "carol", "3333333333"),
	}

	due := Due(rows, now, 10*time.Minute)
	if len(due) != 1 {
		t.Fatalf("expected exactly the boundary event, got %d rows", len(due))
	}
	if due[0].EventID != 1 {
		t.Fatalf("expected event 1, got %d", due[0].EventID)
	}
}

func TestDueSkipsMalformedDates(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 55, 0, 0, time.UTC)
	rows := []model.ReminderRow{
		row(1, "Broken", "not-a-date", "alice", "1111111111"),
		row(2, "Valid", "2025-01-01 10:00", "bob", "2222222222"),
	}

	due := Due(rows, now, 10*time.Minute)
	if len(due) != 1 {
		t.Fatalf("malformed date must not abort the batch: got %d rows", len(due))
	}
	if due[0].EventID != 2 {
		t.Fatalf("expected the valid event, got event %d", due[0].EventID)
	}
}

func TestRunCycleSendsToEveryDueParticipant(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 55, 0, 0, time.UTC)
	repo := &fakeRepo{rows: []model.ReminderRow{
		row(1, "Tech Talk", "2025-01-01 10:00", "alice", "1111111111"),
		row(1, "Tech Talk", "2025-01-01 10:00", "bob", "2222222222"),
	}}
	sender := &fakeSender{}

	s := New(repo, sender, testLogger(), time.Minute, 10*time.Minute)
	s.runCycle(context.Background(), now)

	if sender.sentCount() != 2 {
		t.Fatalf("expected 2 reminders, got %d", sender.sentCount())
	}
}

func TestRunCycleContinuesAfterSendFailure(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 55, 0, 0, time.UTC)
	repo := &fakeRepo{rows: []model.ReminderRow{
		row(1, "Tech Talk", "2025-01-01 10:00", "alice", "1111111111"),
		row(1, "Tech Talk", "2025-01-01 10:00", "bob", "2222222222"),
	}}
	sender := &fakeSender{failFor: map[string]bool{"1111111111": true}}

	s := New(repo, sender, testLogger(), time.Minute, 10*time.Minute)
	s.runCycle(context.Background(), now)

	if sender.sentCount() != 1 {
		t.Fatalf("one failing recipient must not abort the cycle: got %d sends", sender.sentCount())
	}
}

func TestRunCycleDoesNotNotifyTwiceAcrossCycles(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 53, 0, 0, time.UTC)
	repo := &fakeRepo{rows: []model.ReminderRow{
		row(1, "Tech Talk", "2025-01-01 10:00", "alice", "1111111111"),
	}}
	sender := &fakeSender{}

	s := New(repo, sender, testLogger(), time.Minute, 10*time.Minute)
	s.runCycle(context.Background(), now)
	s.runCycle(context.Background(), now.Add(time.Minute))

	if sender.sentCount() != 1 {
		t.Fatalf("expected a single reminder across adjacent cycles, got %d", sender.sentCount())
	}
}

func TestRunCycleRetriesFailedSendNextCycle(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 53, 0, 0, time.UTC)
	repo := &fakeRepo{rows: []model.ReminderRow{
		row(1, "Tech Talk", "2025-01-01 10:00", "alice", "1111111111"),
	}}
	sender := &fakeSender{failFor: map[string]bool{"1111111111": true}}

	s := New(repo, sender, testLogger(), time.Minute, 10*time.Minute)
	s.runCycle(context.Background(), now)

	sender.mu.Lock()
	sender.failFor["1111111111"] = false
	sender.mu.Unlock()

	s.runCycle(context.Background(), now.Add(time.Minute))
	if sender.sentCount() != 1 {
		t.Fatalf("failed send must not enter the notified set: got %d sends", sender.sentCount())
	}
}

func TestRunCycleSurvivesRepositoryError(t *testing.T) {
	repo := &fakeRepo{err: errors.New("connection reset")}
	sender := &fakeSender{}

	s := New(repo, sender, testLogger(), time.Minute, 10*time.Minute)
	s.runCycle(context.Background(), time.Now())

	if sender.sentCount() != 0 {
		t.Fatalf("expected no sends on repository error, got %d", sender.sentCount())
	}
}

func TestStartStop(t *testing.T) {
	repo := &fakeRepo{}
	sender := &fakeSender{}

	s := New(repo, sender, testLogger(), 10*time.Millisecond, 10*time.Minute)
	s.Start(context.Background())

	time.Sleep(30 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
