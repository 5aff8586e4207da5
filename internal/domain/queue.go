package domain

import "time"

// QueuePriority orders outbound mail. Lower numbers drain first.
type QueuePriority int

const (
	PriorityHigh   QueuePriority = 1
	PriorityNormal QueuePriority = 5
	PriorityLow    QueuePriority = 9
)

// QueueItemStatus enumerates the delivery-worker lifecycle of a queue item.
type QueueItemStatus string

const (
	QueueItemQueued QueueItemStatus = "queued"
	QueueItemSent   QueueItemStatus = "sent"
	QueueItemFailed QueueItemStatus = "failed"
)

// EmailQueueItem is a write-once outbound message. The dispatcher and the
// reminder processor insert these; the delivery worker consumes them.
type EmailQueueItem struct {
	ID             string          `json:"id" db:"id"`
	CampaignSendID *string         `json:"campaign_send_id" db:"campaign_send_id"`
	InterviewID    *string         `json:"interview_id" db:"interview_id"`
	FromEmail      string          `json:"from_email" db:"from_email"`
	FromName       string          `json:"from_name" db:"from_name"`
	ToEmail        string          `json:"to_email" db:"to_email"`
	Subject        string          `json:"subject" db:"subject"`
	HTMLBody       string          `json:"html_body" db:"html_body"`
	Priority       QueuePriority   `json:"priority" db:"priority"`
	Status         QueueItemStatus `json:"status" db:"status"`
	LastError      string          `json:"last_error,omitempty" db:"last_error"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	SentAt         *time.Time      `json:"sent_at" db:"sent_at"`
}
