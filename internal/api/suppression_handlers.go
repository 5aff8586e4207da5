package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/verticalhire/verticalhire/internal/domain"
	"github.com/verticalhire/verticalhire/internal/pkg/httputil"
	"github.com/verticalhire/verticalhire/internal/service/suppression"
)

// ListSuppressions returns a company's suppression entries, newest first.
func (h *Handlers) ListSuppressions(w http.ResponseWriter, r *http.Request) {
	company := chi.URLParam(r, "companyID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, total, err := h.suppressions.List(r.Context(), company, limit, offset)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"suppressions": entries,
		"total":        total,
	})
}

type suppressRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Reason string `json:"reason" validate:"omitempty,oneof=unsubscribe hard_bounce spam_complaint manual"`
}

// AddSuppression blocks an address from outreach for the company.
func (h *Handlers) AddSuppression(w http.ResponseWriter, r *http.Request) {
	var req suppressRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	reason := domain.SuppressionReason(req.Reason)
	if reason == "" {
		reason = domain.ReasonManual
	}

	company := chi.URLParam(r, "companyID")
	if err := h.suppressions.Suppress(r.Context(), company, req.Email, reason); err != nil {
		if errors.Is(err, suppression.ErrEmailMissing) {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, map[string]string{"email": suppression.Normalize(req.Email)})
}

// RemoveSuppression deletes a suppression entry. The address comes from
// the ?email query parameter.
func (h *Handlers) RemoveSuppression(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		httputil.BadRequest(w, "email query parameter is required")
		return
	}

	company := chi.URLParam(r, "companyID")
	err := h.suppressions.Remove(r.Context(), company, email)
	switch {
	case err == nil:
		httputil.NoContent(w)
	case errors.Is(err, suppression.ErrNotFound):
		httputil.NotFound(w, "suppression entry not found")
	case errors.Is(err, suppression.ErrEmailMissing):
		httputil.BadRequest(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}
