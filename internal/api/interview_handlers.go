package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/verticalhire/verticalhire/internal/domain"
	"github.com/verticalhire/verticalhire/internal/pkg/httputil"
	"github.com/verticalhire/verticalhire/internal/pkg/logger"
	"github.com/verticalhire/verticalhire/internal/service/interview"
)

type participantPayload struct {
	Role  string `json:"role" validate:"required,oneof=candidate interviewer"`
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
}

type createInterviewRequest struct {
	CandidateID  string               `json:"candidate_id" validate:"required"`
	JobID        string               `json:"job_id"`
	MeetingID    string               `json:"meeting_id"`
	JoinURL      string               `json:"join_url" validate:"omitempty,url"`
	ScheduledAt  time.Time            `json:"scheduled_at" validate:"required"`
	DurationMin  int                  `json:"duration_minutes" validate:"gte=0,lte=480"`
	Participants []participantPayload `json:"participants" validate:"dive"`
}

// CreateInterview schedules an interview and creates its reminder rows.
func (h *Handlers) CreateInterview(w http.ResponseWriter, r *http.Request) {
	company := companyID(r)
	if company == "" {
		httputil.BadRequest(w, "company is required")
		return
	}

	var req createInterviewRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	participants := make([]domain.Participant, 0, len(req.Participants))
	for _, p := range req.Participants {
		participants = append(participants, domain.Participant{
			Role:  domain.ParticipantRole(p.Role),
			Name:  p.Name,
			Email: p.Email,
		})
	}

	iv, err := h.interviews.Schedule(r.Context(), interview.ScheduleInput{
		CompanyID:    company,
		CandidateID:  req.CandidateID,
		JobID:        req.JobID,
		MeetingID:    req.MeetingID,
		JoinURL:      req.JoinURL,
		ScheduledAt:  req.ScheduledAt,
		DurationMin:  req.DurationMin,
		Participants: participants,
	})
	if err != nil {
		if errors.Is(err, interview.ErrScheduledInPast) {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, iv)
}

// GetInterview returns an interview with its pipeline sub-statuses.
func (h *Handlers) GetInterview(w http.ResponseWriter, r *http.Request) {
	iv, err := h.interviews.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, interview.ErrNotFound) {
			httputil.NotFound(w, "interview not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, iv)
}

type transitionRequest struct {
	To string `json:"to" validate:"required,oneof=scheduled in_progress completed cancelled"`
}

// TransitionInterview moves an interview through its state machine.
func (h *Handlers) TransitionInterview(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	iv, err := h.interviews.Transition(r.Context(), chi.URLParam(r, "id"), domain.InterviewStatus(req.To))
	switch {
	case err == nil:
		httputil.OK(w, iv)
	case errors.Is(err, interview.ErrNotFound):
		httputil.NotFound(w, "interview not found")
	case errors.Is(err, interview.ErrInvalidTransition):
		httputil.Conflict(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}

type rescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

// RescheduleInterview moves a scheduled interview to a new time,
// replacing its reminders.
func (h *Handlers) RescheduleInterview(w http.ResponseWriter, r *http.Request) {
	var req rescheduleRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	iv, err := h.interviews.Reschedule(r.Context(), chi.URLParam(r, "id"), req.ScheduledAt)
	switch {
	case err == nil:
		httputil.OK(w, iv)
	case errors.Is(err, interview.ErrNotFound):
		httputil.NotFound(w, "interview not found")
	case errors.Is(err, interview.ErrScheduledInPast):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, interview.ErrInvalidTransition):
		httputil.Conflict(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}

// TriggerPipeline kicks off (or resumes) post-interview processing in the
// background and returns immediately.
func (h *Handlers) TriggerPipeline(w http.ResponseWriter, r *http.Request) {
	if h.pipeline == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "post-interview processing is not configured")
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := h.interviews.Get(r.Context(), id); err != nil {
		if errors.Is(err, interview.ErrNotFound) {
			httputil.NotFound(w, "interview not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}

	go func() {
		if err := h.pipeline.Run(context.Background(), id); err != nil {
			logger.Error("pipeline run failed", "interview_id", id, "error", err.Error())
		}
	}()

	httputil.JSON(w, http.StatusAccepted, map[string]string{
		"status":       "processing",
		"interview_id": id,
	})
}
