// Package notify handles post-interview fan-out: in-app notifications
// and queued summary emails. Everything here is best-effort; callers
// launch these as detached work and only log failures.
package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/verticalhire/verticalhire/internal/domain"
	"github.com/verticalhire/verticalhire/internal/mailing"
	"github.com/verticalhire/verticalhire/internal/pkg/logger"
)

// Repository is the persistence contract for notification fan-out.
type Repository interface {
	InsertNotification(ctx context.Context, n *domain.Notification) error
	InsertQueueItem(ctx context.Context, item *domain.EmailQueueItem) error
}

// Service writes in-app notifications and enqueues summary emails.
type Service struct {
	repo      Repository
	templates *mailing.TemplateService
	fromEmail string
	fromName  string
}

// NewService creates a notification service. fromEmail/fromName identify
// the platform sender for summary emails.
func NewService(repo Repository, templates *mailing.TemplateService, fromEmail, fromName string) *Service {
	return &Service{repo: repo, templates: templates, fromEmail: fromEmail, fromName: fromName}
}

// AnalysisReady writes the "analysis ready" in-app notification.
func (s *Service) AnalysisReady(ctx context.Context, iv *domain.Interview, candidateName string) error {
	n := &domain.Notification{
		ID:          uuid.New().String(),
		CompanyID:   iv.CompanyID,
		Type:        domain.NotifyAnalysisReady,
		InterviewID: iv.ID,
		Title:       "Interview analysis ready",
		Body:        fmt.Sprintf("AI analysis for the interview with %s is ready to review.", candidateName),
	}
	if err := s.repo.InsertNotification(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// SummaryEmailInput identifies one summary email recipient.
type SummaryEmailInput struct {
	Role           domain.ParticipantRole
	RecipientName  string
	RecipientEmail string
	InterviewID    string
	Summary        mailing.SummaryContext
}

// EnqueueSummaryEmail renders and queues one post-interview summary
// email. A missing recipient address is a skip, not an error, so the
// other recipient's email is never blocked.
func (s *Service) EnqueueSummaryEmail(ctx context.Context, input SummaryEmailInput) error {
	if input.RecipientEmail == "" {
		logger.Info("summary email skipped: no address on file",
			"interview_id", input.InterviewID, "role", string(input.Role))
		return nil
	}

	subject, body, err := s.templates.SummaryEmail(input.Role, input.Summary)
	if err != nil {
		return fmt.Errorf("render summary email: %w", err)
	}

	interviewID := input.InterviewID
	item := &domain.EmailQueueItem{
		ID:          uuid.New().String(),
		InterviewID: &interviewID,
		FromEmail:   s.fromEmail,
		FromName:    s.fromName,
		ToEmail:     input.RecipientEmail,
		Subject:     subject,
		HTMLBody:    body,
		Priority:    domain.PriorityNormal,
		Status:      domain.QueueItemQueued,
	}
	if err := s.repo.InsertQueueItem(ctx, item); err != nil {
		return fmt.Errorf("enqueue summary email: %w", err)
	}
	return nil
}
