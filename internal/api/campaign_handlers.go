package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/verticalhire/verticalhire/internal/pkg/httputil"
	"github.com/verticalhire/verticalhire/internal/service/campaign"
)

// companyID resolves the requesting company. Auth lives at the gateway;
// this service trusts the forwarded header.
func companyID(r *http.Request) string {
	if id := r.Header.Get("X-Company-ID"); id != "" {
		return id
	}
	return r.URL.Query().Get("company_id")
}

type createCampaignRequest struct {
	Name         string   `json:"name" validate:"required"`
	Subject      string   `json:"subject" validate:"required"`
	Body         string   `json:"body"`
	JobID        string   `json:"job_id"`
	AccountID    string   `json:"email_account_id"`
	CandidateIDs []string `json:"candidate_ids"`
}

// CreateCampaign creates a draft campaign with pending sends.
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	company := companyID(r)
	if company == "" {
		httputil.BadRequest(w, "company is required")
		return
	}

	var req createCampaignRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	c, err := h.campaigns.Create(r.Context(), company, campaign.CreateInput{
		Name:         req.Name,
		Subject:      req.Subject,
		Body:         req.Body,
		JobID:        req.JobID,
		AccountID:    req.AccountID,
		CandidateIDs: req.CandidateIDs,
	})
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.Created(w, c)
}

// GetCampaign returns a campaign with counters recomputed from its sends.
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.Get(r.Context(), companyID(r), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			httputil.NotFound(w, "campaign not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, c)
}

// DispatchCampaign queues a campaign's pending sends for delivery.
//
// 409: campaign not in a dispatchable state (including a concurrent
// dispatch winning the claim). 422: no pending recipients. 412: no
// sending account could be resolved.
func (h *Handlers) DispatchCampaign(w http.ResponseWriter, r *http.Request) {
	result, err := h.campaigns.Dispatch(r.Context(), companyID(r), chi.URLParam(r, "id"))
	switch {
	case err == nil:
		httputil.OK(w, result)
	case errors.Is(err, campaign.ErrNotFound):
		httputil.NotFound(w, "campaign not found")
	case errors.Is(err, campaign.ErrInvalidCampaignState):
		httputil.Conflict(w, err.Error())
	case errors.Is(err, campaign.ErrNoEligibleRecipients):
		httputil.Unprocessable(w, err.Error())
	case errors.Is(err, campaign.ErrNoSendingAccount):
		httputil.PreconditionFailed(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}
