// Package worker holds the background sweep loops: the reminder
// processor that turns due reminder rows into queued emails, and the
// delivery worker that drains the email queue through SES.
package worker

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/verticalhire/verticalhire/internal/domain"
	"github.com/verticalhire/verticalhire/internal/mailing"
	"github.com/verticalhire/verticalhire/internal/pkg/distlock"
	"github.com/verticalhire/verticalhire/internal/pkg/logger"
)

// DueReminder is a claimed reminder joined with the interview context the
// email template needs.
type DueReminder struct {
	domain.InterviewReminder

	InterviewStatus domain.InterviewStatus
	ScheduledAt     time.Time
	JoinURL         string
	CandidateName   string
	JobTitle        string
	CompanyName     string
}

// ReminderRepository is the persistence contract for the reminder sweep.
type ReminderRepository interface {
	// DueReminders returns up to limit pending reminders with fire time
	// at or before now, joined with interview context.
	DueReminders(ctx context.Context, now time.Time, limit int) ([]DueReminder, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time) error
	MarkReminderCancelled(ctx context.Context, id string) error
	MarkReminderFailed(ctx context.Context, id string, errText string) error
	InsertQueueItem(ctx context.Context, item *domain.EmailQueueItem) error
}

// ReminderProcessor periodically sweeps due reminders into the email
// queue. A distributed lock keeps concurrent instances from double-sending.
type ReminderProcessor struct {
	repo      ReminderRepository
	templates *mailing.TemplateService
	lock      distlock.DistLock
	interval  time.Duration
	batchSize int
	fromEmail string
	fromName  string
	now       func() time.Time
}

// NewReminderProcessor creates a reminder processor. interval defaults to
// 5 minutes and batchSize to 100 when zero.
func NewReminderProcessor(repo ReminderRepository, templates *mailing.TemplateService, lock distlock.DistLock, interval time.Duration, batchSize int, fromEmail, fromName string) *ReminderProcessor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ReminderProcessor{
		repo:      repo,
		templates: templates,
		lock:      lock,
		interval:  interval,
		batchSize: batchSize,
		fromEmail: fromEmail,
		fromName:  fromName,
		now:       time.Now,
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (p *ReminderProcessor) Start(ctx context.Context) {
	logger.Info("reminder processor started", "interval", p.interval.String(), "batch_size", p.batchSize)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("reminder processor stopped")
			return
		case <-ticker.C:
			if _, err := p.Sweep(ctx); err != nil {
				logger.Error("reminder sweep failed", "error", err.Error())
			}
		}
	}
}

// Sweep processes one batch of due reminders. Returns the number of
// reminders handled (sent, cancelled, or failed). A lock held elsewhere
// means another instance is sweeping; that is a no-op, not an error.
func (p *ReminderProcessor) Sweep(ctx context.Context) (int, error) {
	acquired, err := p.lock.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	if !acquired {
		logger.Debug("reminder sweep skipped: lock held elsewhere")
		return 0, nil
	}
	defer func() {
		if err := p.lock.Release(ctx); err != nil {
			logger.Warn("release reminder lock", "error", err.Error())
		}
	}()

	now := p.now()
	due, err := p.repo.DueReminders(ctx, now, p.batchSize)
	if err != nil {
		return 0, err
	}

	for i := range due {
		p.process(ctx, &due[i], now)
	}
	if len(due) > 0 {
		logger.Info("reminder sweep complete", "processed", len(due))
	}
	return len(due), nil
}

func (p *ReminderProcessor) process(ctx context.Context, r *DueReminder, now time.Time) {
	// Stale guard: the interview went away or already started while this
	// reminder sat in the queue.
	if r.InterviewStatus == domain.InterviewCancelled || !r.ScheduledAt.After(now) {
		if err := p.repo.MarkReminderCancelled(ctx, r.ID); err != nil {
			logger.Error("mark reminder cancelled", "reminder_id", r.ID, "error", err.Error())
		}
		return
	}

	subject, body, err := p.templates.ReminderEmail(r.RecipientRole, r.Type, mailing.ReminderContext{
		RecipientName: r.RecipientName,
		CandidateName: r.CandidateName,
		JobTitle:      r.JobTitle,
		CompanyName:   r.CompanyName,
		ScheduledAt:   r.ScheduledAt.Format("Monday, January 2 at 3:04 PM MST"),
		JoinURL:       r.JoinURL,
	})
	if err != nil {
		p.fail(ctx, r, "render: "+err.Error())
		return
	}

	interviewID := r.InterviewID
	item := &domain.EmailQueueItem{
		ID:          uuid.New().String(),
		InterviewID: &interviewID,
		FromEmail:   p.fromEmail,
		FromName:    p.fromName,
		ToEmail:     r.RecipientEmail,
		Subject:     subject,
		HTMLBody:    body,
		Priority:    r.Type.Priority(),
		Status:      domain.QueueItemQueued,
	}
	if err := p.repo.InsertQueueItem(ctx, item); err != nil {
		p.fail(ctx, r, "enqueue: "+err.Error())
		return
	}

	if err := p.repo.MarkReminderSent(ctx, r.ID, now); err != nil {
		logger.Error("mark reminder sent", "reminder_id", r.ID, "error", err.Error())
	}
}

// fail marks the reminder failed with the error text. Failed reminders
// are not retried automatically; operators re-arm them if needed.
func (p *ReminderProcessor) fail(ctx context.Context, r *DueReminder, errText string) {
	logger.Error("reminder failed", "reminder_id", r.ID, "interview_id", r.InterviewID, "error", errText)
	if err := p.repo.MarkReminderFailed(ctx, r.ID, errText); err != nil {
		logger.Error("mark reminder failed", "reminder_id", r.ID, "error", err.Error())
	}
}
