package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/verticalhire/verticalhire/internal/domain"
	"github.com/verticalhire/verticalhire/internal/worker"
)

// QueueRepo implements worker.ReminderRepository and worker.QueueRepository.
type QueueRepo struct{ db *sql.DB }

// NewQueueRepo creates a Postgres-backed queue repository.
func NewQueueRepo(db *sql.DB) *QueueRepo { return &QueueRepo{db: db} }

// DueReminders returns pending reminders whose fire time has arrived,
// joined with the interview context the email templates need. The sweep
// lock serializes callers, so no row claiming is needed here.
func (r *QueueRepo) DueReminders(ctx context.Context, now time.Time, limit int) ([]worker.DueReminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT rem.id, rem.interview_id, rem.recipient_role,
		       COALESCE(rem.recipient_name,''), COALESCE(rem.recipient_email,''),
		       rem.type, rem.fire_at, rem.status,
		       i.status, i.scheduled_at, COALESCE(i.join_url,''),
		       COALESCE(TRIM(c.first_name || ' ' || c.last_name),''),
		       COALESCE(j.title,''), COALESCE(co.name,'')
		FROM interview_reminders rem
		JOIN interviews i ON i.id = rem.interview_id
		JOIN candidates c ON c.id = i.candidate_id
		LEFT JOIN jobs j ON j.id = i.job_id
		LEFT JOIN companies co ON co.id = i.company_id
		WHERE rem.status = 'pending' AND rem.fire_at <= $1
		ORDER BY rem.fire_at
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("due reminders: %w", err)
	}
	defer rows.Close()

	var out []worker.DueReminder
	for rows.Next() {
		var d worker.DueReminder
		if err := rows.Scan(
			&d.ID, &d.InterviewID, &d.RecipientRole,
			&d.RecipientName, &d.RecipientEmail,
			&d.Type, &d.FireAt, &d.Status,
			&d.InterviewStatus, &d.ScheduledAt, &d.JoinURL,
			&d.CandidateName, &d.JobTitle, &d.CompanyName,
		); err != nil {
			return nil, fmt.Errorf("scan due reminder: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *QueueRepo) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE interview_reminders SET status = 'sent', sent_at = $1 WHERE id = $2
	`, at, id)
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}

func (r *QueueRepo) MarkReminderCancelled(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE interview_reminders SET status = 'cancelled' WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("mark reminder cancelled: %w", err)
	}
	return nil
}

func (r *QueueRepo) MarkReminderFailed(ctx context.Context, id string, errText string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE interview_reminders SET status = 'failed', last_error = $1 WHERE id = $2
	`, errText, id)
	if err != nil {
		return fmt.Errorf("mark reminder failed: %w", err)
	}
	return nil
}

// InsertQueueItem shares the email_queue insert with the dispatcher path.
func (r *QueueRepo) InsertQueueItem(ctx context.Context, item *domain.EmailQueueItem) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO email_queue
			(id, campaign_send_id, interview_id, from_email, from_name,
			 to_email, subject, html_body, priority, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	`, item.ID, item.CampaignSendID, item.InterviewID,
		item.FromEmail, item.FromName, item.ToEmail,
		item.Subject, item.HTMLBody, item.Priority)
	if err != nil {
		return fmt.Errorf("insert queue item: %w", err)
	}
	return nil
}

// NextQueued returns queued items in priority order, oldest first within
// a priority.
func (r *QueueRepo) NextQueued(ctx context.Context, limit int) ([]domain.EmailQueueItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, campaign_send_id, interview_id, from_email, COALESCE(from_name,''),
		       to_email, subject, html_body, priority, status, created_at
		FROM email_queue
		WHERE status = 'queued'
		ORDER BY priority, created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("next queued: %w", err)
	}
	defer rows.Close()

	var out []domain.EmailQueueItem
	for rows.Next() {
		var item domain.EmailQueueItem
		if err := rows.Scan(
			&item.ID, &item.CampaignSendID, &item.InterviewID,
			&item.FromEmail, &item.FromName,
			&item.ToEmail, &item.Subject, &item.HTMLBody,
			&item.Priority, &item.Status, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan queue item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *QueueRepo) MarkItemSent(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_queue SET status = 'sent', sent_at = $1 WHERE id = $2
	`, at, id)
	if err != nil {
		return fmt.Errorf("mark item sent: %w", err)
	}
	return nil
}

func (r *QueueRepo) MarkItemFailed(ctx context.Context, id string, errText string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_queue SET status = 'failed', last_error = $1 WHERE id = $2
	`, errText, id)
	if err != nil {
		return fmt.Errorf("mark item failed: %w", err)
	}
	return nil
}
