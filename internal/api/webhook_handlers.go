package api

import (
	"errors"
	"net/http"

	"github.com/verticalhire/verticalhire/internal/domain"
	"github.com/verticalhire/verticalhire/internal/pkg/httputil"
	"github.com/verticalhire/verticalhire/internal/pkg/logger"
	"github.com/verticalhire/verticalhire/internal/service/campaign"
)

type emailEvent struct {
	SendID string `json:"send_id" validate:"required"`
	Event  string `json:"event" validate:"required,oneof=sent opened clicked replied bounced"`
}

type emailEventBatch struct {
	Events []emailEvent `json:"events" validate:"required,min=1,dive"`
}

// EmailEventWebhook applies delivery events from the email provider.
// Events are idempotent and monotonic: replays and out-of-order
// deliveries are absorbed, so the whole batch always returns 200 unless
// it is malformed.
func (h *Handlers) EmailEventWebhook(w http.ResponseWriter, r *http.Request) {
	var batch emailEventBatch
	if !httputil.Decode(w, r, &batch) {
		return
	}
	if err := h.validate.Struct(batch); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	applied, skipped := 0, 0
	for _, ev := range batch.Events {
		err := h.campaigns.ApplyDeliveryEvent(r.Context(), ev.SendID, domain.SendStatus(ev.Event))
		switch {
		case err == nil:
			applied++
		case errors.Is(err, campaign.ErrSendNotFound):
			// Provider events can outlive deleted sends.
			skipped++
		default:
			logger.Error("apply delivery event", "send_id", ev.SendID, "event", ev.Event, "error", err.Error())
			skipped++
		}
	}

	httputil.OK(w, map[string]int{"applied": applied, "skipped": skipped})
}
