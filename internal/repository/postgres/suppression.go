package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/verticalhire/verticalhire/internal/domain"
	"github.com/verticalhire/verticalhire/internal/service/suppression"
)

// SuppressionRepo implements suppression.Repository.
type SuppressionRepo struct{ db *sql.DB }

// NewSuppressionRepo creates a Postgres-backed suppression repository.
func NewSuppressionRepo(db *sql.DB) *SuppressionRepo { return &SuppressionRepo{db: db} }

func (r *SuppressionRepo) IsSuppressed(ctx context.Context, companyID, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM email_suppressions WHERE company_id = $1 AND email = $2
		)
	`, companyID, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check suppression: %w", err)
	}
	return exists, nil
}

func (r *SuppressionRepo) Set(ctx context.Context, companyID string) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT email FROM email_suppressions WHERE company_id = $1`, companyID)
	if err != nil {
		return nil, fmt.Errorf("load suppression set: %w", err)
	}
	defer rows.Close()

	set := map[string]struct{}{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan suppression: %w", err)
		}
		set[email] = struct{}{}
	}
	return set, rows.Err()
}

// Suppress inserts an entry; re-suppressing keeps the original record.
func (r *SuppressionRepo) Suppress(ctx context.Context, s *domain.EmailSuppression) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO email_suppressions (id, company_id, email, reason, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (company_id, email) DO NOTHING
	`, s.ID, s.CompanyID, s.Email, s.Reason)
	if err != nil {
		return fmt.Errorf("suppress: %w", err)
	}
	return nil
}

func (r *SuppressionRepo) Remove(ctx context.Context, companyID, email string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM email_suppressions WHERE company_id = $1 AND email = $2`,
		companyID, email)
	if err != nil {
		return fmt.Errorf("remove suppression: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return suppression.ErrNotFound
	}
	return nil
}

func (r *SuppressionRepo) List(ctx context.Context, companyID string, limit, offset int) ([]domain.EmailSuppression, int, error) {
	if limit <= 0 {
		limit = 50
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM email_suppressions WHERE company_id = $1`, companyID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count suppressions: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, company_id, email, reason, created_at
		FROM email_suppressions
		WHERE company_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, companyID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list suppressions: %w", err)
	}
	defer rows.Close()

	var out []domain.EmailSuppression
	for rows.Next() {
		var s domain.EmailSuppression
		if err := rows.Scan(&s.ID, &s.CompanyID, &s.Email, &s.Reason, &s.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan suppression: %w", err)
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}
