package mailing

import (
	"fmt"
	"sync"

	"github.com/osteele/liquid"

	"github.com/verticalhire/verticalhire/internal/domain"
)

// TemplateService renders reminder and summary emails from Liquid
// templates, with parsed-template caching.
type TemplateService struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewTemplateService creates a template service with the default filters.
func NewTemplateService() *TemplateService {
	return &TemplateService{engine: liquid.NewEngine()}
}

func (ts *TemplateService) render(cacheKey, templateStr string, ctx map[string]interface{}) (string, error) {
	if cached, ok := ts.cache.Load(cacheKey); ok {
		return cached.(*liquid.Template).RenderString(ctx)
	}
	tpl, err := ts.engine.ParseString(templateStr)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", cacheKey, err)
	}
	ts.cache.Store(cacheKey, tpl)
	return tpl.RenderString(ctx)
}

// ReminderContext carries the fields reminder emails interpolate.
type ReminderContext struct {
	RecipientName string
	CandidateName string
	JobTitle      string
	CompanyName   string
	ScheduledAt   string // already formatted for the recipient
	JoinURL       string
	LeadIn        string // "tomorrow", "in 1 hour", "in 15 minutes"
}

var reminderLeadIns = map[domain.ReminderType]string{
	domain.Reminder24h:   "tomorrow",
	domain.Reminder1h:    "in 1 hour",
	domain.Reminder15min: "in 15 minutes",
}

// LeadInFor returns the subject phrase for a reminder offset.
func LeadInFor(t domain.ReminderType) string {
	if s, ok := reminderLeadIns[t]; ok {
		return s
	}
	return "soon"
}

const candidateReminderSubject = `Reminder: your interview{% if company_name != "" %} with {{ company_name }}{% endif %} is {{ lead_in }}`

const candidateReminderBody = `<p>Hi {{ recipient_name }},</p>
<p>This is a reminder that your interview{% if job_title != "" %} for the {{ job_title }} role{% endif %}{% if company_name != "" %} at {{ company_name }}{% endif %} starts {{ lead_in }}, at {{ scheduled_at }}.</p>
{% if join_url != "" %}<p><a href="{{ join_url }}">Join the interview</a></p>{% endif %}
<p>Good luck!</p>`

const interviewerReminderSubject = `Reminder: interview with {{ candidate_name }} is {{ lead_in }}`

const interviewerReminderBody = `<p>Hi {{ recipient_name }},</p>
<p>Your interview with {{ candidate_name }}{% if job_title != "" %} for the {{ job_title }} role{% endif %} starts {{ lead_in }}, at {{ scheduled_at }}.</p>
{% if join_url != "" %}<p><a href="{{ join_url }}">Join the interview</a></p>{% endif %}`

// ReminderEmail renders the (recipient role × reminder type) email.
func (ts *TemplateService) ReminderEmail(role domain.ParticipantRole, t domain.ReminderType, rctx ReminderContext) (subject, body string, err error) {
	if rctx.LeadIn == "" {
		rctx.LeadIn = LeadInFor(t)
	}
	ctx := map[string]interface{}{
		"recipient_name": rctx.RecipientName,
		"candidate_name": rctx.CandidateName,
		"job_title":      rctx.JobTitle,
		"company_name":   rctx.CompanyName,
		"scheduled_at":   rctx.ScheduledAt,
		"join_url":       rctx.JoinURL,
		"lead_in":        rctx.LeadIn,
	}

	subjTpl, bodyTpl := interviewerReminderSubject, interviewerReminderBody
	if role == domain.RoleCandidate {
		subjTpl, bodyTpl = candidateReminderSubject, candidateReminderBody
	}

	subject, err = ts.render(fmt.Sprintf("reminder-subject-%s", role), subjTpl, ctx)
	if err != nil {
		return "", "", err
	}
	body, err = ts.render(fmt.Sprintf("reminder-body-%s", role), bodyTpl, ctx)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

// SummaryContext carries the fields for post-interview summary emails.
type SummaryContext struct {
	RecipientName string
	CandidateName string
	JobTitle      string
	Summary       string
	Sentiment     string
	DetailURL     string
}

const managerSummarySubject = `Interview analysis ready: {{ candidate_name }}{% if job_title != "" %} - {{ job_title }}{% endif %}`

const managerSummaryBody = `<p>Hi {{ recipient_name }},</p>
<p>The AI analysis for your interview with {{ candidate_name }} is ready.</p>
<p><strong>Summary:</strong> {{ summary }}</p>
{% if sentiment != "" %}<p><strong>Overall sentiment:</strong> {{ sentiment }}</p>{% endif %}
{% if detail_url != "" %}<p><a href="{{ detail_url }}">View the full breakdown</a></p>{% endif %}`

const candidateSummarySubject = `Thanks for interviewing{% if job_title != "" %} for {{ job_title }}{% endif %}`

const candidateSummaryBody = `<p>Hi {{ recipient_name }},</p>
<p>Thank you for taking the time to interview with us. We've recorded the conversation and the team is reviewing it now. We'll be in touch with next steps soon.</p>`

// SummaryEmail renders the post-interview summary email for a recipient role.
func (ts *TemplateService) SummaryEmail(role domain.ParticipantRole, sctx SummaryContext) (subject, body string, err error) {
	ctx := map[string]interface{}{
		"recipient_name": sctx.RecipientName,
		"candidate_name": sctx.CandidateName,
		"job_title":      sctx.JobTitle,
		"summary":        sctx.Summary,
		"sentiment":      sctx.Sentiment,
		"detail_url":     sctx.DetailURL,
	}

	subjTpl, bodyTpl := managerSummarySubject, managerSummaryBody
	if role == domain.RoleCandidate {
		subjTpl, bodyTpl = candidateSummarySubject, candidateSummaryBody
	}

	subject, err = ts.render(fmt.Sprintf("summary-subject-%s", role), subjTpl, ctx)
	if err != nil {
		return "", "", err
	}
	body, err = ts.render(fmt.Sprintf("summary-body-%s", role), bodyTpl, ctx)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}
