package campaign

import (
	"context"
	"time"

	"github.com/verticalhire/verticalhire/internal/domain"
)

// Repository defines the data access contract for campaigns and their
// sends. Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single campaign. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, companyID, id string) (*domain.Campaign, error)

	// Create inserts a new draft campaign and returns its ID.
	Create(ctx context.Context, c *domain.Campaign) (string, error)

	// CreateSends bulk-inserts pending sends for the given candidates.
	// Pairs that already have a non-cancelled send are skipped, preserving
	// the at-most-one-non-cancelled-send invariant. Returns rows created.
	CreateSends(ctx context.Context, campaignID string, candidateIDs []string) (int, error)

	// BeginDispatch conditionally flips the campaign to active, but only
	// from draft or paused. Returns false (no error) when the campaign was
	// not in a dispatchable state. This is the dispatch serialization
	// point: two concurrent dispatches race on this update and exactly one
	// wins.
	BeginDispatch(ctx context.Context, companyID, id string) (bool, error)

	// SetStatus unconditionally writes a campaign status. Used to restore
	// the prior status when dispatch aborts after BeginDispatch.
	SetStatus(ctx context.Context, companyID, id string, status domain.CampaignStatus) error

	// FinishDispatch stamps sent_at and the resolved sending account.
	FinishDispatch(ctx context.Context, companyID, id, accountID string, sentAt time.Time) error

	// PendingSends returns every pending send for the campaign with
	// candidate contact data joined in.
	PendingSends(ctx context.Context, campaignID string) ([]domain.CampaignSend, error)

	// CancelSend transitions a single send to cancelled with a reason.
	CancelSend(ctx context.Context, sendID, reason string) error

	// MarkQueued batch-transitions sends to queued.
	MarkQueued(ctx context.Context, sendIDs []string, at time.Time) error

	// InsertQueueItems batch-inserts outbound queue items.
	InsertQueueItems(ctx context.Context, items []domain.EmailQueueItem) error

	// InsertQueueItem inserts a single queue item. The dispatcher falls
	// back to this when the batch insert fails, so one bad row degrades
	// to a skip instead of aborting the dispatch.
	InsertQueueItem(ctx context.Context, item *domain.EmailQueueItem) error

	// GetSend returns a single send. Returns ErrSendNotFound if absent.
	GetSend(ctx context.Context, sendID string) (*domain.CampaignSend, error)

	// SetSendStatus writes a send's delivery status.
	SetSendStatus(ctx context.Context, sendID string, status domain.SendStatus) error

	// StatsFor recomputes aggregate counters from the campaign's sends.
	StatsFor(ctx context.Context, campaignID string) (domain.CampaignStats, error)

	// Account resolution, in dispatch preference order.
	GetAccount(ctx context.Context, companyID, accountID string) (*domain.EmailAccount, error)
	DefaultAccount(ctx context.Context, companyID string) (*domain.EmailAccount, error)
	AnyOutboundAccount(ctx context.Context, companyID string) (*domain.EmailAccount, error)

	// RenderMeta returns the job title and company name used in the
	// per-recipient render context. Either may be empty.
	RenderMeta(ctx context.Context, c *domain.Campaign) (jobTitle, companyName string, err error)
}
