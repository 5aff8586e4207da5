package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/verticalhire/verticalhire/internal/domain"
	"github.com/verticalhire/verticalhire/internal/pkg/distlock"
	"github.com/verticalhire/verticalhire/internal/pkg/logger"
)

// EmailSender delivers one queued email and returns the provider message ID.
type EmailSender interface {
	Send(ctx context.Context, item *domain.EmailQueueItem) (string, error)
}

// QueueRepository is the persistence contract for the delivery drain.
type QueueRepository interface {
	// NextQueued returns up to limit queued items in priority order
	// (lowest priority number first, then oldest first).
	NextQueued(ctx context.Context, limit int) ([]domain.EmailQueueItem, error)
	MarkItemSent(ctx context.Context, id string, at time.Time) error
	MarkItemFailed(ctx context.Context, id string, errText string) error
}

// DeliveryWorker drains the email queue through the configured sender.
type DeliveryWorker struct {
	repo      QueueRepository
	sender    EmailSender
	lock      distlock.DistLock
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewDeliveryWorker creates a delivery worker. interval defaults to 30
// seconds and batchSize to 50 when zero.
func NewDeliveryWorker(repo QueueRepository, sender EmailSender, lock distlock.DistLock, interval time.Duration, batchSize int) *DeliveryWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &DeliveryWorker{
		repo:      repo,
		sender:    sender,
		lock:      lock,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Start runs the drain loop until ctx is cancelled.
func (w *DeliveryWorker) Start(ctx context.Context) {
	logger.Info("delivery worker started", "interval", w.interval.String(), "batch_size", w.batchSize)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("delivery worker stopped")
			return
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil {
				logger.Error("delivery drain failed", "error", err.Error())
			}
		}
	}
}

// Drain sends one batch of queued emails. Send failures mark the item
// failed and move on; one bad address never blocks the batch.
func (w *DeliveryWorker) Drain(ctx context.Context) (int, error) {
	acquired, err := w.lock.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	if !acquired {
		return 0, nil
	}
	defer func() {
		if err := w.lock.Release(ctx); err != nil {
			logger.Warn("release delivery lock", "error", err.Error())
		}
	}()

	items, err := w.repo.NextQueued(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range items {
		item := &items[i]
		msgID, err := w.sender.Send(ctx, item)
		if err != nil {
			logger.Error("send failed", "queue_item_id", item.ID, "to_email", item.ToEmail, "error", err.Error())
			if markErr := w.repo.MarkItemFailed(ctx, item.ID, err.Error()); markErr != nil {
				logger.Error("mark item failed", "queue_item_id", item.ID, "error", markErr.Error())
			}
			continue
		}
		if err := w.repo.MarkItemSent(ctx, item.ID, w.now()); err != nil {
			logger.Error("mark item sent", "queue_item_id", item.ID, "error", err.Error())
			continue
		}
		sent++
		logger.Debug("email sent", "queue_item_id", item.ID, "message_id", msgID)
	}
	if len(items) > 0 {
		logger.Info("delivery drain complete", "batch", len(items), "sent", sent)
	}
	return sent, nil
}

// SESSender implements EmailSender against SESv2.
type SESSender struct {
	client *sesv2.Client
}

// NewSESSender creates an SES-backed sender.
func NewSESSender(ctx context.Context, region string) (*SESSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &SESSender{client: sesv2.NewFromConfig(cfg)}, nil
}

// Send delivers one queue item via SES.
func (s *SESSender) Send(ctx context.Context, item *domain.EmailQueueItem) (string, error) {
	from := item.FromEmail
	if item.FromName != "" {
		from = fmt.Sprintf("%s <%s>", item.FromName, item.FromEmail)
	}

	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &sestypes.Destination{
			ToAddresses: []string{item.ToEmail},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(item.Subject)},
				Body: &sestypes.Body{
					Html: &sestypes.Content{Data: aws.String(item.HTMLBody)},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("ses send: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}
