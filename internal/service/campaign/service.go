package campaign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/verticalhire/verticalhire/internal/domain"
	"github.com/verticalhire/verticalhire/internal/pkg/logger"
	"github.com/verticalhire/verticalhire/internal/service/suppression"

	"github.com/verticalhire/verticalhire/internal/mailing"
)

// Service implements campaign business logic. It coordinates between the
// repository layer and the suppression service. All public methods are
// safe for concurrent use if the underlying repository is.
type Service struct {
	repo        Repository
	suppression *suppression.Service
}

// NewService creates a campaign service.
func NewService(repo Repository, supp *suppression.Service) *Service {
	return &Service{repo: repo, suppression: supp}
}

// CreateInput holds the fields for authoring a new campaign.
type CreateInput struct {
	Name         string   `json:"name"`
	Subject      string   `json:"subject"`
	Body         string   `json:"body"`
	JobID        string   `json:"job_id"`
	AccountID    string   `json:"email_account_id"`
	CandidateIDs []string `json:"candidate_ids"`
}

// Create validates and persists a new campaign in draft status, bulk-
// creating one pending send per distinct candidate.
func (s *Service) Create(ctx context.Context, companyID string, input CreateInput) (*domain.Campaign, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if input.Subject == "" {
		return nil, fmt.Errorf("subject is required")
	}

	c := &domain.Campaign{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Name:      input.Name,
		Subject:   input.Subject,
		Body:      input.Body,
		Status:    domain.CampaignDraft,
	}
	if input.JobID != "" {
		c.JobID = &input.JobID
	}
	if input.AccountID != "" {
		c.AccountID = &input.AccountID
	}

	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = id

	if len(input.CandidateIDs) > 0 {
		n, err := s.repo.CreateSends(ctx, c.ID, dedupe(input.CandidateIDs))
		if err != nil {
			return nil, fmt.Errorf("create sends: %w", err)
		}
		c.Stats.Recipients = n
	}
	return c, nil
}

// Get returns a campaign with its counters recomputed from sends.
func (s *Service) Get(ctx context.Context, companyID, id string) (*domain.Campaign, error) {
	c, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.StatsFor(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("recompute stats: %w", err)
	}
	c.Stats = stats
	return c, nil
}

// DispatchResult reports the outcome of a campaign dispatch.
type DispatchResult struct {
	Queued  int    `json:"queued"`
	Skipped int    `json:"skipped"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// Dispatch turns a draft or paused campaign into queued outbound emails.
//
// The conditional draft/paused → active update is the serialization point:
// a concurrent second dispatch loses the update and fails fast with
// ErrInvalidCampaignState, so no send is ever processed twice.
func (s *Service) Dispatch(ctx context.Context, companyID, campaignID string) (*DispatchResult, error) {
	c, err := s.repo.Get(ctx, companyID, campaignID)
	if err != nil {
		return nil, err
	}
	prevStatus := c.Status

	account, err := s.resolveAccount(ctx, c)
	if err != nil {
		return nil, err
	}

	claimed, err := s.repo.BeginDispatch(ctx, companyID, campaignID)
	if err != nil {
		return nil, fmt.Errorf("claim campaign: %w", err)
	}
	if !claimed {
		return nil, ErrInvalidCampaignState
	}

	sends, err := s.repo.PendingSends(ctx, campaignID)
	if err != nil {
		s.restore(ctx, companyID, campaignID, prevStatus)
		return nil, fmt.Errorf("load pending sends: %w", err)
	}
	if len(sends) == 0 {
		s.restore(ctx, companyID, campaignID, prevStatus)
		return nil, ErrNoEligibleRecipients
	}

	suppressed, err := s.suppression.Set(ctx, companyID)
	if err != nil {
		s.restore(ctx, companyID, campaignID, prevStatus)
		return nil, fmt.Errorf("load suppression set: %w", err)
	}

	jobTitle, companyName, err := s.repo.RenderMeta(ctx, c)
	if err != nil {
		logger.Warn("dispatch: render meta unavailable", "campaign_id", campaignID, "error", err.Error())
	}

	var (
		items     []domain.EmailQueueItem
		queuedIDs []string
		skipped   int
	)

	for _, send := range sends {
		email := suppression.Normalize(send.Candidate.Email)

		if email == "" {
			// No usable address: leave pending, count skipped.
			skipped++
			continue
		}
		if _, hit := suppressed[email]; hit {
			if err := s.repo.CancelSend(ctx, send.ID, "suppressed"); err != nil {
				logger.Error("dispatch: cancel suppressed send", "send_id", send.ID, "error", err.Error())
			}
			skipped++
			continue
		}

		rctx := mailing.CampaignContext(
			send.Candidate.FirstName, send.Candidate.LastName,
			send.Candidate.CurrentCompany, send.Candidate.CurrentTitle,
			send.Candidate.Location, jobTitle, companyName, account.FromName,
		)

		sendID := send.ID
		items = append(items, domain.EmailQueueItem{
			ID:             uuid.New().String(),
			CampaignSendID: &sendID,
			FromEmail:      account.Email,
			FromName:       account.FromName,
			ToEmail:        email,
			Subject:        mailing.Render(c.Subject, rctx),
			HTMLBody:       mailing.Render(c.Body, rctx),
			Priority:       domain.PriorityNormal,
			Status:         domain.QueueItemQueued,
		})
		queuedIDs = append(queuedIDs, send.ID)
	}

	enqueueFailures := 0
	if len(items) > 0 {
		before := len(queuedIDs)
		queuedIDs, skipped = s.enqueue(ctx, items, queuedIDs, skipped)
		enqueueFailures = before - len(queuedIDs)
	}

	// Past this point queue items exist, so failures pause the campaign
	// instead of restoring its previous status: the pending sends stay
	// reachable by a re-dispatch, which skips the already-queued ones.
	if len(queuedIDs) > 0 {
		if err := s.repo.MarkQueued(ctx, queuedIDs, time.Now()); err != nil {
			s.restore(ctx, companyID, campaignID, domain.CampaignPaused)
			return nil, fmt.Errorf("mark sends queued: %w", err)
		}
	}

	if err := s.repo.FinishDispatch(ctx, companyID, campaignID, account.ID, time.Now()); err != nil {
		s.restore(ctx, companyID, campaignID, domain.CampaignPaused)
		return nil, fmt.Errorf("finish dispatch: %w", err)
	}

	if enqueueFailures > 0 {
		logger.Warn("dispatch finished with enqueue failures, pausing campaign",
			"campaign_id", campaignID, "failed", enqueueFailures)
		s.restore(ctx, companyID, campaignID, domain.CampaignPaused)
	}

	result := &DispatchResult{
		Queued:  len(queuedIDs),
		Skipped: skipped,
		Total:   len(sends),
		Message: fmt.Sprintf("%d emails queued, %d skipped", len(queuedIDs), skipped),
	}
	logger.Info("campaign dispatched",
		"campaign_id", campaignID, "queued", result.Queued, "skipped", result.Skipped)
	return result, nil
}

// enqueue inserts queue items, preferring one batch insert. If the batch
// fails it falls back to per-item inserts so a single bad row degrades to
// a skip instead of aborting the dispatch.
func (s *Service) enqueue(ctx context.Context, items []domain.EmailQueueItem, queuedIDs []string, skipped int) ([]string, int) {
	if err := s.repo.InsertQueueItems(ctx, items); err == nil {
		return queuedIDs, skipped
	} else {
		logger.Warn("dispatch: batch queue insert failed, retrying per item", "error", err.Error())
	}

	var okIDs []string
	for i := range items {
		if err := s.repo.InsertQueueItem(ctx, &items[i]); err != nil {
			logger.Error("dispatch: queue insert failed for send",
				"send_id", *items[i].CampaignSendID, "error", err.Error())
			skipped++
			continue
		}
		okIDs = append(okIDs, *items[i].CampaignSendID)
	}
	return okIDs, skipped
}

func (s *Service) restore(ctx context.Context, companyID, campaignID string, prev domain.CampaignStatus) {
	if err := s.repo.SetStatus(ctx, companyID, campaignID, prev); err != nil {
		logger.Error("dispatch: status restore failed",
			"campaign_id", campaignID, "status", string(prev), "error", err.Error())
	}
}

// resolveAccount picks the sending identity: explicit campaign account,
// else the company default, else any active outbound-capable account.
// A missing account falls through to the next candidate; a lookup error
// is propagated so a transient DB failure is not reported as a missing
// sending account.
func (s *Service) resolveAccount(ctx context.Context, c *domain.Campaign) (*domain.EmailAccount, error) {
	if c.AccountID != nil && *c.AccountID != "" {
		acct, err := s.repo.GetAccount(ctx, c.CompanyID, *c.AccountID)
		if err != nil && !errors.Is(err, ErrNoSendingAccount) {
			return nil, fmt.Errorf("load sending account: %w", err)
		}
		if acct != nil {
			return acct, nil
		}
	}
	acct, err := s.repo.DefaultAccount(ctx, c.CompanyID)
	if err != nil && !errors.Is(err, ErrNoSendingAccount) {
		return nil, fmt.Errorf("load default account: %w", err)
	}
	if acct != nil {
		return acct, nil
	}
	acct, err = s.repo.AnyOutboundAccount(ctx, c.CompanyID)
	if err != nil && !errors.Is(err, ErrNoSendingAccount) {
		return nil, fmt.Errorf("load outbound account: %w", err)
	}
	if acct != nil {
		return acct, nil
	}
	return nil, ErrNoSendingAccount
}

// ApplyDeliveryEvent applies a delivery-provider webhook event to a send.
// Events are monotonic: anything at or behind the send's current delivery
// state is ignored, and cancelled sends never accept events.
func (s *Service) ApplyDeliveryEvent(ctx context.Context, sendID string, next domain.SendStatus) error {
	send, err := s.repo.GetSend(ctx, sendID)
	if err != nil {
		return err
	}
	if send.Status == domain.SendCancelled {
		logger.Warn("delivery event for cancelled send ignored", "send_id", sendID, "event", string(next))
		return nil
	}
	if !send.Status.Advances(next) {
		logger.Debug("stale delivery event ignored",
			"send_id", sendID, "current", string(send.Status), "event", string(next))
		return nil
	}
	return s.repo.SetSendStatus(ctx, sendID, next)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
