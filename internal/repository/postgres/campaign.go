// Package postgres implements the repository contracts against PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/verticalhire/verticalhire/internal/domain"
	"github.com/verticalhire/verticalhire/internal/service/campaign"
)

// CampaignRepo implements campaign.Repository.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

func (r *CampaignRepo) Get(ctx context.Context, companyID, id string) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, company_id, job_id, email_account_id, name, subject,
		       COALESCE(body,''), status, sent_at, created_at, updated_at
		FROM campaigns
		WHERE id = $1 AND company_id = $2
	`, id, companyID).Scan(
		&c.ID, &c.CompanyID, &c.JobID, &c.AccountID, &c.Name, &c.Subject,
		&c.Body, &c.Status, &c.SentAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) (string, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO campaigns
			(id, company_id, job_id, email_account_id, name, subject, body,
			 status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`, c.ID, c.CompanyID, c.JobID, c.AccountID, c.Name, c.Subject, c.Body, c.Status)
	if err != nil {
		return "", fmt.Errorf("create campaign: %w", err)
	}
	return c.ID, nil
}

// CreateSends inserts one pending send per candidate, skipping pairs that
// already have a non-cancelled send.
func (r *CampaignRepo) CreateSends(ctx context.Context, campaignID string, candidateIDs []string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO campaign_sends (id, campaign_id, candidate_id, status, created_at, updated_at)
		SELECT gen_random_uuid(), $1, cid, 'pending', NOW(), NOW()
		FROM unnest($2::text[]) AS cid
		WHERE NOT EXISTS (
			SELECT 1 FROM campaign_sends cs
			WHERE cs.campaign_id = $1 AND cs.candidate_id = cid AND cs.status <> 'cancelled'
		)
	`, campaignID, pq.Array(candidateIDs))
	if err != nil {
		return 0, fmt.Errorf("create sends: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// BeginDispatch claims the campaign for dispatch. The conditional status
// predicate makes this the single-flight guard: of two racing dispatches
// exactly one update hits a row.
func (r *CampaignRepo) BeginDispatch(ctx context.Context, companyID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns SET status = 'active', updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND status IN ('draft','paused')
	`, id, companyID)
	if err != nil {
		return false, fmt.Errorf("begin dispatch: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *CampaignRepo) SetStatus(ctx context.Context, companyID, id string, status domain.CampaignStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns SET status = $1, updated_at = NOW()
		WHERE id = $2 AND company_id = $3
	`, status, id, companyID)
	if err != nil {
		return fmt.Errorf("set campaign status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func (r *CampaignRepo) FinishDispatch(ctx context.Context, companyID, id, accountID string, sentAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns SET email_account_id = $1, sent_at = $2, updated_at = NOW()
		WHERE id = $3 AND company_id = $4
	`, accountID, sentAt, id, companyID)
	if err != nil {
		return fmt.Errorf("finish dispatch: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func (r *CampaignRepo) PendingSends(ctx context.Context, campaignID string) ([]domain.CampaignSend, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cs.id, cs.campaign_id, cs.candidate_id, cs.status, cs.created_at, cs.updated_at,
		       c.id, c.company_id, COALESCE(c.first_name,''), COALESCE(c.last_name,''),
		       COALESCE(c.email,''), COALESCE(c.current_company,''),
		       COALESCE(c.current_title,''), COALESCE(c.location,'')
		FROM campaign_sends cs
		JOIN candidates c ON c.id = cs.candidate_id
		WHERE cs.campaign_id = $1 AND cs.status = 'pending'
		ORDER BY cs.created_at
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("pending sends: %w", err)
	}
	defer rows.Close()

	var out []domain.CampaignSend
	for rows.Next() {
		var s domain.CampaignSend
		if err := rows.Scan(
			&s.ID, &s.CampaignID, &s.CandidateID, &s.Status, &s.CreatedAt, &s.UpdatedAt,
			&s.Candidate.ID, &s.Candidate.CompanyID, &s.Candidate.FirstName, &s.Candidate.LastName,
			&s.Candidate.Email, &s.Candidate.CurrentCompany,
			&s.Candidate.CurrentTitle, &s.Candidate.Location,
		); err != nil {
			return nil, fmt.Errorf("scan send: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *CampaignRepo) CancelSend(ctx context.Context, sendID, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE campaign_sends SET status = 'cancelled', cancel_reason = $1, updated_at = NOW()
		WHERE id = $2 AND status <> 'cancelled'
	`, reason, sendID)
	if err != nil {
		return fmt.Errorf("cancel send: %w", err)
	}
	return nil
}

func (r *CampaignRepo) MarkQueued(ctx context.Context, sendIDs []string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE campaign_sends SET status = 'queued', queued_at = $1, updated_at = NOW()
		WHERE id = ANY($2)
	`, at, pq.Array(sendIDs))
	if err != nil {
		return fmt.Errorf("mark queued: %w", err)
	}
	return nil
}

func (r *CampaignRepo) InsertQueueItems(ctx context.Context, items []domain.EmailQueueItem) error {
	if len(items) == 0 {
		return nil
	}

	var (
		values []string
		args   []interface{}
	)
	for i, item := range items {
		base := i * 9
		values = append(values, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,NOW())",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))
		args = append(args, item.ID, item.CampaignSendID, item.InterviewID,
			item.FromEmail, item.FromName, item.ToEmail,
			item.Subject, item.HTMLBody, item.Priority)
	}

	q := `
		INSERT INTO email_queue
			(id, campaign_send_id, interview_id, from_email, from_name,
			 to_email, subject, html_body, priority, created_at)
		VALUES ` + strings.Join(values, ",")
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert queue items: %w", err)
	}
	return nil
}

func (r *CampaignRepo) InsertQueueItem(ctx context.Context, item *domain.EmailQueueItem) error {
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

func (r *CampaignRepo) GetSend(ctx context.Context, sendID string) (*domain.CampaignSend, error) {
	s := &domain.CampaignSend{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, campaign_id, candidate_id, status, COALESCE(cancel_reason,''),
		       queued_at, created_at, updated_at
		FROM campaign_sends WHERE id = $1
	`, sendID).Scan(
		&s.ID, &s.CampaignID, &s.CandidateID, &s.Status, &s.CancelReason,
		&s.QueuedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, campaign.ErrSendNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get send: %w", err)
	}
	return s, nil
}

func (r *CampaignRepo) SetSendStatus(ctx context.Context, sendID string, status domain.SendStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaign_sends SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, sendID)
	if err != nil {
		return fmt.Errorf("set send status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrSendNotFound
	}
	return nil
}

// StatsFor recomputes campaign counters from the send rows. Delivery
// states count cumulatively: an opened send was also sent.
func (r *CampaignRepo) StatsFor(ctx context.Context, campaignID string) (domain.CampaignStats, error) {
	var stats domain.CampaignStats

	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM campaign_sends
		WHERE campaign_id = $1 GROUP BY status
	`, campaignID)
	if err != nil {
		return stats, fmt.Errorf("stats: %w", err)
	}
	defer rows.Close()

	counts := map[domain.SendStatus]int{}
	for rows.Next() {
		var status domain.SendStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return stats, fmt.Errorf("scan stats: %w", err)
		}
		counts[status] = n
		stats.Recipients += n
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	stats.Queued = counts[domain.SendQueued]
	stats.Cancelled = counts[domain.SendCancelled]
	stats.Bounced = counts[domain.SendBounced]
	stats.Replied = counts[domain.SendReplied]
	stats.Clicked = counts[domain.SendClicked] + stats.Replied
	stats.Opened = counts[domain.SendOpened] + stats.Clicked
	stats.Sent = counts[domain.SendSent] + stats.Opened + stats.Bounced
	return stats, nil
}

func (r *CampaignRepo) GetAccount(ctx context.Context, companyID, accountID string) (*domain.EmailAccount, error) {
	return r.scanAccount(r.db.QueryRowContext(ctx, accountSelect+`
		WHERE id = $1 AND company_id = $2 AND active = true
	`, accountID, companyID))
}

func (r *CampaignRepo) DefaultAccount(ctx context.Context, companyID string) (*domain.EmailAccount, error) {
	return r.scanAccount(r.db.QueryRowContext(ctx, accountSelect+`
		WHERE company_id = $1 AND is_default = true AND active = true
		LIMIT 1
	`, companyID))
}

func (r *CampaignRepo) AnyOutboundAccount(ctx context.Context, companyID string) (*domain.EmailAccount, error) {
	return r.scanAccount(r.db.QueryRowContext(ctx, accountSelect+`
		WHERE company_id = $1 AND outbound = true AND active = true
		ORDER BY created_at
		LIMIT 1
	`, companyID))
}

const accountSelect = `
	SELECT id, company_id, email, COALESCE(from_name,''), is_default, active, outbound, created_at
	FROM email_accounts`

func (r *CampaignRepo) scanAccount(row *sql.Row) (*domain.EmailAccount, error) {
	a := &domain.EmailAccount{}
	err := row.Scan(&a.ID, &a.CompanyID, &a.Email, &a.FromName,
		&a.IsDefault, &a.Active, &a.Outbound, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return a, nil
}

// RenderMeta resolves the job title and company name for the per-recipient
// render context. Missing rows yield empty strings, not errors.
func (r *CampaignRepo) RenderMeta(ctx context.Context, c *domain.Campaign) (string, string, error) {
	var jobTitle, companyName string

	if c.JobID != nil && *c.JobID != "" {
		err := r.db.QueryRowContext(ctx,
			`SELECT COALESCE(title,'') FROM jobs WHERE id = $1`, *c.JobID,
		).Scan(&jobTitle)
		if err != nil && err != sql.ErrNoRows {
			return "", "", fmt.Errorf("render meta job: %w", err)
		}
	}

	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(name,'') FROM companies WHERE id = $1`, c.CompanyID,
	).Scan(&companyName)
	if err != nil && err != sql.ErrNoRows {
		return jobTitle, "", fmt.Errorf("render meta company: %w", err)
	}
	return jobTitle, companyName, nil
}
