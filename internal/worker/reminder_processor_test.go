package worker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/verticalhire/verticalhire/internal/domain"
	"github.com/verticalhire/verticalhire/internal/mailing"
)

type memReminderRepo struct {
	due        []DueReminder
	dueErr     error
	sent       []string
	cancelled  []string
	failed     map[string]string
	queue      []domain.EmailQueueItem
	enqueueErr error
	dueCalls   int
}

func (m *memReminderRepo) DueReminders(ctx context.Context, now time.Time, limit int) ([]DueReminder, error) {
	m.dueCalls++
	if m.dueErr != nil {
		return nil, m.dueErr
	}
	if len(m.due) > limit {
		return m.due[:limit], nil
	}
	return m.due, nil
}

func (m *memReminderRepo) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	m.sent = append(m.sent, id)
	return nil
}

func (m *memReminderRepo) MarkReminderCancelled(ctx context.Context, id string) error {
	m.cancelled = append(m.cancelled, id)
	return nil
}

func (m *memReminderRepo) MarkReminderFailed(ctx context.Context, id string, errText string) error {
	if m.failed == nil {
		m.failed = map[string]string{}
	}
	m.failed[id] = errText
	return nil
}

func (m *memReminderRepo) InsertQueueItem(ctx context.Context, item *domain.EmailQueueItem) error {
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.queue = append(m.queue, *item)
	return nil
}

type stubLock struct {
	held     bool
	acquires int
	releases int
}

func (l *stubLock) Acquire(ctx context.Context) (bool, error) {
	l.acquires++
	return !l.held, nil
}

func (l *stubLock) Release(ctx context.Context) error {
	l.releases++
	return nil
}

var sweepNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func dueReminder(id string, t domain.ReminderType, role domain.ParticipantRole) DueReminder {
	return DueReminder{
		InterviewReminder: domain.InterviewReminder{
			ID:             id,
			InterviewID:    "iv-1",
			RecipientRole:  role,
			RecipientName:  "Ana Ruiz",
			RecipientEmail: "ana@example.com",
			Type:           t,
			FireAt:         sweepNow.Add(-time.Minute),
			Status:         domain.ReminderPending,
		},
		InterviewStatus: domain.InterviewScheduled,
		ScheduledAt:     sweepNow.Add(t.Offset()),
		JoinURL:         "https://meet.test/join/1",
		CandidateName:   "Ana Ruiz",
		JobTitle:        "Senior Welder",
		CompanyName:     "Acme Fabrication",
	}
}

func newProcessor(repo *memReminderRepo, lock *stubLock) *ReminderProcessor {
	p := NewReminderProcessor(repo, mailing.NewTemplateService(), lock, time.Minute, 100, "no-reply@verticalhire.com", "VerticalHire")
	p.now = func() time.Time { return sweepNow }
	return p
}

func TestSweepSendsDueReminders(t *testing.T) {
	repo := &memReminderRepo{due: []DueReminder{
		dueReminder("r-15", domain.Reminder15min, domain.RoleCandidate),
		dueReminder("r-24", domain.Reminder24h, domain.RoleInterviewer),
	}}
	lock := &stubLock{}

	n, err := newProcessor(repo, lock).Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 2 {
		t.Fatalf("processed = %d, want 2", n)
	}
	if len(repo.sent) != 2 || len(repo.queue) != 2 {
		t.Fatalf("sent=%v queue=%d", repo.sent, len(repo.queue))
	}
	if repo.queue[0].Priority != domain.PriorityHigh {
		t.Errorf("15min reminder priority = %d, want high", repo.queue[0].Priority)
	}
	if repo.queue[1].Priority != domain.PriorityLow {
		t.Errorf("24h reminder priority = %d, want low", repo.queue[1].Priority)
	}
	if !strings.Contains(repo.queue[0].Subject, "in 15 minutes") {
		t.Errorf("subject missing lead-in: %q", repo.queue[0].Subject)
	}
	if !strings.Contains(repo.queue[0].HTMLBody, "https://meet.test/join/1") {
		t.Errorf("body missing join link:\n%s", repo.queue[0].HTMLBody)
	}
	if lock.releases != 1 {
		t.Errorf("lock released %d times", lock.releases)
	}
}

func TestSweepCancelsStaleReminders(t *testing.T) {
	cancelled := dueReminder("r-cancelled", domain.Reminder1h, domain.RoleCandidate)
	cancelled.InterviewStatus = domain.InterviewCancelled

	started := dueReminder("r-started", domain.Reminder1h, domain.RoleCandidate)
	started.ScheduledAt = sweepNow.Add(-10 * time.Minute)

	repo := &memReminderRepo{due: []DueReminder{cancelled, started}}
	if _, err := newProcessor(repo, &stubLock{}).Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if len(repo.cancelled) != 2 {
		t.Fatalf("cancelled = %v, want both stale reminders", repo.cancelled)
	}
	if len(repo.queue) != 0 || len(repo.sent) != 0 {
		t.Errorf("stale reminders produced emails: queue=%d sent=%v", len(repo.queue), repo.sent)
	}
}

func TestSweepMarksEnqueueFailureTerminal(t *testing.T) {
	repo := &memReminderRepo{
		due:        []DueReminder{dueReminder("r-1", domain.Reminder1h, domain.RoleCandidate)},
		enqueueErr: errors.New("queue table unavailable"),
	}
	if _, err := newProcessor(repo, &stubLock{}).Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if len(repo.sent) != 0 {
		t.Errorf("failed reminder marked sent: %v", repo.sent)
	}
	if got := repo.failed["r-1"]; !strings.Contains(got, "queue table unavailable") {
		t.Errorf("failure reason not recorded: %q", got)
	}
}

func TestSweepSkipsWhenLockHeld(t *testing.T) {
	repo := &memReminderRepo{due: []DueReminder{dueReminder("r-1", domain.Reminder1h, domain.RoleCandidate)}}
	lock := &stubLock{held: true}

	n, err := newProcessor(repo, lock).Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 0 || repo.dueCalls != 0 {
		t.Errorf("sweep ran despite held lock: n=%d dueCalls=%d", n, repo.dueCalls)
	}
	if lock.releases != 0 {
		t.Errorf("released a lock it never held")
	}
}
