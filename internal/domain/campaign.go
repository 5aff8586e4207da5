package domain

import "time"

// CampaignStatus enumerates the lifecycle states of an outreach campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

// Campaign represents an email outreach campaign owned by a company.
// Subject and Body carry {{token}} placeholders that are rendered
// per-recipient at dispatch time.
type Campaign struct {
	ID        string         `json:"id" db:"id"`
	CompanyID string         `json:"company_id" db:"company_id"`
	JobID     *string        `json:"job_id" db:"job_id"`
	AccountID *string        `json:"email_account_id" db:"email_account_id"`
	Name      string         `json:"name" db:"name"`
	Subject   string         `json:"subject" db:"subject"`
	Body      string         `json:"body" db:"body"`
	Status    CampaignStatus `json:"status" db:"status"`
	SentAt    *time.Time     `json:"sent_at" db:"sent_at"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`

	// Stats are a derived view recomputed from campaign_sends on read.
	// They are never written back to the campaigns table.
	Stats CampaignStats `json:"stats" db:"-"`
}

// CampaignStats aggregates send outcomes for a campaign. Counts are
// computed from the child campaign_sends rows, not stored.
type CampaignStats struct {
	Recipients int `json:"recipients"`
	Queued     int `json:"queued"`
	Sent       int `json:"sent"`
	Opened     int `json:"opened"`
	Clicked    int `json:"clicked"`
	Replied    int `json:"replied"`
	Bounced    int `json:"bounced"`
	Cancelled  int `json:"cancelled"`
}

// SendStatus enumerates the lifecycle of a single (campaign, candidate) send.
// Delivery states (sent and later) are monotonic: a send never regresses.
type SendStatus string

const (
	SendPending   SendStatus = "pending"
	SendQueued    SendStatus = "queued"
	SendCancelled SendStatus = "cancelled"
	SendSent      SendStatus = "sent"
	SendOpened    SendStatus = "opened"
	SendClicked   SendStatus = "clicked"
	SendReplied   SendStatus = "replied"
	SendBounced   SendStatus = "bounced"
)

// sendRank orders delivery states for monotonicity checks. Pre-delivery
// states (pending, queued, cancelled) are rank 0 and are handled by the
// dispatcher, not the webhook path.
var sendRank = map[SendStatus]int{
	SendPending:   0,
	SendQueued:    0,
	SendCancelled: 0,
	SendSent:      1,
	SendOpened:    2,
	SendClicked:   3,
	SendReplied:   4,
	SendBounced:   5,
}

// Advances reports whether moving to next is a forward step in the
// delivery progression. A webhook event for a state at or behind the
// current one must be ignored.
func (s SendStatus) Advances(next SendStatus) bool {
	return sendRank[next] > sendRank[s]
}

// CampaignSend is one row per (campaign, candidate) pair. Invariant:
// at most one non-cancelled send exists per pair.
type CampaignSend struct {
	ID           string     `json:"id" db:"id"`
	CampaignID   string     `json:"campaign_id" db:"campaign_id"`
	CandidateID  string     `json:"candidate_id" db:"candidate_id"`
	Status       SendStatus `json:"status" db:"status"`
	CancelReason string     `json:"cancel_reason,omitempty" db:"cancel_reason"`
	QueuedAt     *time.Time `json:"queued_at" db:"queued_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`

	// Candidate contact fields, joined in by the dispatch query.
	Candidate Candidate `json:"candidate" db:"-"`
}
