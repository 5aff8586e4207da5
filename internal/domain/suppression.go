package domain

import "time"

// SuppressionReason enumerates why an address was suppressed.
type SuppressionReason string

const (
	ReasonUnsubscribe SuppressionReason = "unsubscribe"
	ReasonHardBounce  SuppressionReason = "hard_bounce"
	ReasonComplaint   SuppressionReason = "spam_complaint"
	ReasonManual      SuppressionReason = "manual"
)

// EmailSuppression is one entry in a company's suppression list. Addresses
// are stored lower-cased; all lookups are case-insensitive. A suppressed
// address must never receive outreach.
type EmailSuppression struct {
	ID        string            `json:"id" db:"id"`
	CompanyID string            `json:"company_id" db:"company_id"`
	Email     string            `json:"email" db:"email"`
	Reason    SuppressionReason `json:"reason" db:"reason"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}
