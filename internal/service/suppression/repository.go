package suppression

import (
	"context"

	"github.com/verticalhire/verticalhire/internal/domain"
)

// Repository defines the data access contract for suppression lists.
// Implementations must be safe for concurrent use. Emails are stored
// lower-cased; implementations may assume callers normalize.
type Repository interface {
	// IsSuppressed reports whether the (normalized) email is suppressed
	// for the company.
	IsSuppressed(ctx context.Context, companyID, email string) (bool, error)

	// Set returns every suppressed address for the company as a set.
	Set(ctx context.Context, companyID string) (map[string]struct{}, error)

	// Suppress inserts an entry. Idempotent: re-suppressing an address
	// preserves the existing record.
	Suppress(ctx context.Context, s *domain.EmailSuppression) error

	// Remove deletes an entry. Returns ErrNotFound if absent.
	Remove(ctx context.Context, companyID, email string) error

	// List returns entries for a company, newest first.
	List(ctx context.Context, companyID string, limit, offset int) ([]domain.EmailSuppression, int, error)
}
