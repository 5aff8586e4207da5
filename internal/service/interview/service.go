package interview

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/verticalhire/verticalhire/internal/domain"
	"github.com/verticalhire/verticalhire/internal/pkg/logger"
)

// Service implements interview lifecycle logic. Safe for concurrent use
// if the underlying repository is.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates an interview service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ScheduleInput holds the fields for scheduling a new interview.
type ScheduleInput struct {
	CompanyID    string
	CandidateID  string
	JobID        string
	MeetingID    string
	JoinURL      string
	ScheduledAt  time.Time
	DurationMin  int
	Participants []domain.Participant
}

// Schedule creates an interview in scheduled status, attaches its
// participants, and creates reminder rows for every future slot.
func (s *Service) Schedule(ctx context.Context, input ScheduleInput) (*domain.Interview, error) {
	if !input.ScheduledAt.After(s.now()) {
		return nil, ErrScheduledInPast
	}

	iv := &domain.Interview{
		ID:               uuid.New().String(),
		CompanyID:        input.CompanyID,
		CandidateID:      input.CandidateID,
		MeetingID:        input.MeetingID,
		JoinURL:          input.JoinURL,
		ScheduledAt:      input.ScheduledAt,
		DurationMin:      input.DurationMin,
		Status:           domain.InterviewScheduled,
		RecordingStatus:  domain.StagePending,
		TranscriptStatus: domain.StagePending,
		AnalysisStatus:   domain.StagePending,
	}
	if input.JobID != "" {
		iv.JobID = &input.JobID
	}

	id, err := s.repo.Create(ctx, iv)
	if err != nil {
		return nil, err
	}
	iv.ID = id

	for i := range input.Participants {
		input.Participants[i].InterviewID = id
	}
	if len(input.Participants) > 0 {
		if err := s.repo.AddParticipants(ctx, input.Participants); err != nil {
			return nil, fmt.Errorf("add participants: %w", err)
		}
	}

	n, err := s.ScheduleReminders(ctx, iv, input.Participants)
	if err != nil {
		return nil, fmt.Errorf("schedule reminders: %w", err)
	}
	logger.Info("interview scheduled", "interview_id", id, "reminders", n)
	return iv, nil
}

// Get returns a single interview.
func (s *Service) Get(ctx context.Context, id string) (*domain.Interview, error) {
	return s.repo.Get(ctx, id)
}

// Transition moves an interview to a new status, enforcing the state
// machine. Cancellation and terminal transitions cancel outstanding
// reminders.
func (s *Service) Transition(ctx context.Context, id string, to domain.InterviewStatus) (*domain.Interview, error) {
	iv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(iv.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, iv.Status, to)
	}
	if err := s.repo.SetStatus(ctx, id, to); err != nil {
		return nil, err
	}
	iv.Status = to

	if to.IsTerminal() {
		n, err := s.repo.CancelReminders(ctx, id)
		if err != nil {
			logger.Error("cancel reminders on terminal transition", "interview_id", id, "error", err.Error())
		} else if n > 0 {
			logger.Info("reminders cancelled", "interview_id", id, "count", n)
		}
	}
	return iv, nil
}

// Reschedule moves a scheduled interview to a new time: outstanding
// reminders are cancelled and a fresh set is created for the new slot.
func (s *Service) Reschedule(ctx context.Context, id string, at time.Time) (*domain.Interview, error) {
	if !at.After(s.now()) {
		return nil, ErrScheduledInPast
	}
	iv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if iv.Status != domain.InterviewScheduled {
		return nil, fmt.Errorf("%w: cannot reschedule a %s interview", ErrInvalidTransition, iv.Status)
	}

	if _, err := s.repo.CancelReminders(ctx, id); err != nil {
		return nil, fmt.Errorf("cancel reminders: %w", err)
	}
	if err := s.repo.SetScheduledAt(ctx, id, at); err != nil {
		return nil, err
	}
	iv.ScheduledAt = at

	participants, err := s.repo.Participants(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	if _, err := s.ScheduleReminders(ctx, iv, participants); err != nil {
		return nil, fmt.Errorf("schedule reminders: %w", err)
	}
	return iv, nil
}

// ScheduleReminders creates one pending reminder per (recipient, offset)
// whose fire time has not already passed. Returns rows created; no-ops
// when the interview is cancelled or its scheduled time is in the past.
func (s *Service) ScheduleReminders(ctx context.Context, iv *domain.Interview, participants []domain.Participant) (int, error) {
	now := s.now()
	if iv.Status == domain.InterviewCancelled || !iv.ScheduledAt.After(now) {
		return 0, nil
	}

	var rows []domain.InterviewReminder
	for _, p := range participants {
		for _, t := range domain.ReminderTypes {
			fireAt := iv.ScheduledAt.Add(-t.Offset())
			if !fireAt.After(now) {
				continue
			}
			rows = append(rows, domain.InterviewReminder{
				ID:             uuid.New().String(),
				InterviewID:    iv.ID,
				RecipientRole:  p.Role,
				RecipientName:  p.Name,
				RecipientEmail: p.Email,
				Type:           t,
				FireAt:         fireAt,
				Status:         domain.ReminderPending,
			})
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return s.repo.CreateReminders(ctx, rows)
}
