package domain

import "time"

// NotificationType enumerates in-app notification events.
type NotificationType string

const (
	NotifyAnalysisReady      NotificationType = "analysis_ready"
	NotifyInterviewCancelled NotificationType = "interview_cancelled"
)

// Notification is an in-app notification row. Writes are best-effort:
// a failed notification insert is logged and never fails the operation
// that triggered it.
type Notification struct {
	ID          string           `json:"id" db:"id"`
	CompanyID   string           `json:"company_id" db:"company_id"`
	Type        NotificationType `json:"type" db:"type"`
	InterviewID string           `json:"interview_id" db:"interview_id"`
	Title       string           `json:"title" db:"title"`
	Body        string           `json:"body" db:"body"`
	ReadAt      *time.Time       `json:"read_at" db:"read_at"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}
