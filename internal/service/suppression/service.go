package suppression

import (
	"context"
	"strings"

	"github.com/verticalhire/verticalhire/internal/domain"
)

// Service implements suppression business logic. Safe for concurrent use.
type Service struct {
	repo Repository
}

// NewService creates a suppression service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Normalize lower-cases and trims an address. Every read and write path
// goes through this so suppression matching is case-insensitive.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsSuppressed checks whether an address is blocked from outreach.
func (s *Service) IsSuppressed(ctx context.Context, companyID, email string) (bool, error) {
	return s.repo.IsSuppressed(ctx, companyID, Normalize(email))
}

// Set returns the company's full suppression set, keyed by normalized
// address. The dispatcher uses this for bulk checks.
func (s *Service) Set(ctx context.Context, companyID string) (map[string]struct{}, error) {
	return s.repo.Set(ctx, companyID)
}

// Suppress adds an address to the company's suppression list. Idempotent.
func (s *Service) Suppress(ctx context.Context, companyID, email string, reason domain.SuppressionReason) error {
	email = Normalize(email)
	if email == "" {
		return ErrEmailMissing
	}
	return s.repo.Suppress(ctx, &domain.EmailSuppression{
		CompanyID: companyID,
		Email:     email,
		Reason:    reason,
	})
}

// Remove deletes a suppression entry.
func (s *Service) Remove(ctx context.Context, companyID, email string) error {
	email = Normalize(email)
	if email == "" {
		return ErrEmailMissing
	}
	return s.repo.Remove(ctx, companyID, email)
}

// List returns suppression entries for a company, newest first.
func (s *Service) List(ctx context.Context, companyID string, limit, offset int) ([]domain.EmailSuppression, int, error) {
	return s.repo.List(ctx, companyID, limit, offset)
}
