package interview

import (
	"context"
	"time"

	"github.com/verticalhire/verticalhire/internal/domain"
)

// Repository defines the data access contract for interviews and their
// reminders. Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single interview. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Interview, error)

	// Create inserts a new interview in scheduled status and returns its ID.
	Create(ctx context.Context, iv *domain.Interview) (string, error)

	// SetStatus writes an interview's status.
	SetStatus(ctx context.Context, id string, status domain.InterviewStatus) error

	// SetScheduledAt rewrites the scheduled time (reschedule).
	SetScheduledAt(ctx context.Context, id string, at time.Time) error

	// Participants returns the interview's reminder recipients: the
	// candidate plus all interviewers.
	Participants(ctx context.Context, interviewID string) ([]domain.Participant, error)

	// AddParticipants attaches recipients to an interview.
	AddParticipants(ctx context.Context, ps []domain.Participant) error

	// CreateReminders bulk-inserts reminder rows. Returns rows created.
	CreateReminders(ctx context.Context, rs []domain.InterviewReminder) (int, error)

	// CancelReminders bulk-transitions every reminder for the interview
	// not already in {sent, cancelled} to cancelled. Returns rows affected.
	CancelReminders(ctx context.Context, interviewID string) (int, error)
}
