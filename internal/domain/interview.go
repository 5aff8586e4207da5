package domain

import "time"

// InterviewStatus enumerates the interview state machine. Completed and
// cancelled are terminal.
type InterviewStatus string

const (
	InterviewScheduled  InterviewStatus = "scheduled"
	InterviewInProgress InterviewStatus = "in_progress"
	InterviewCompleted  InterviewStatus = "completed"
	InterviewCancelled  InterviewStatus = "cancelled"
)

// IsTerminal returns true for states with no outgoing transitions.
func (s InterviewStatus) IsTerminal() bool {
	return s == InterviewCompleted || s == InterviewCancelled
}

// StageStatus tracks one post-interview pipeline stage (recording,
// transcript, analysis). Stages advance independently of the parent
// interview status and of each other, so a failure in one stage never
// disturbs another stage's completed state.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageProcessing StageStatus = "processing"
	StageCompleted  StageStatus = "completed"
	StageFailed     StageStatus = "failed"
)

// Interview is a scheduled conversation between a candidate and one or
// more interviewers, with room for the artifacts produced afterwards.
type Interview struct {
	ID          string          `json:"id" db:"id"`
	CompanyID   string          `json:"company_id" db:"company_id"`
	CandidateID string          `json:"candidate_id" db:"candidate_id"`
	JobID       *string         `json:"job_id" db:"job_id"`
	MeetingID   string          `json:"meeting_id" db:"meeting_id"`
	JoinURL     string          `json:"join_url" db:"join_url"`
	ScheduledAt time.Time       `json:"scheduled_at" db:"scheduled_at"`
	DurationMin int             `json:"duration_minutes" db:"duration_minutes"`
	Status      InterviewStatus `json:"status" db:"status"`

	RecordingStatus  StageStatus `json:"recording_status" db:"recording_status"`
	TranscriptStatus StageStatus `json:"transcript_status" db:"transcript_status"`
	AnalysisStatus   StageStatus `json:"analysis_status" db:"analysis_status"`

	RecordingURL       string  `json:"recording_url" db:"recording_url"`
	Transcript         string  `json:"transcript" db:"transcript"`
	TranscriptDuration float64 `json:"transcript_duration_seconds" db:"transcript_duration_seconds"`

	AnalysisSummary   string             `json:"analysis_summary" db:"analysis_summary"`
	AnalysisSentiment string             `json:"analysis_sentiment" db:"analysis_sentiment"`
	CompetencyScores  map[string]float64 `json:"competency_scores" db:"competency_scores"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ParticipantRole distinguishes reminder recipients.
type ParticipantRole string

const (
	RoleCandidate   ParticipantRole = "candidate"
	RoleInterviewer ParticipantRole = "interviewer"
)

// Participant is a reminder recipient attached to an interview: the
// candidate plus any number of interviewers.
type Participant struct {
	InterviewID string          `json:"interview_id" db:"interview_id"`
	Role        ParticipantRole `json:"role" db:"role"`
	Name        string          `json:"name" db:"name"`
	Email       string          `json:"email" db:"email"`
}

// ReminderType enumerates the fixed reminder offsets before the scheduled
// start time.
type ReminderType string

const (
	Reminder24h   ReminderType = "24h_before"
	Reminder1h    ReminderType = "1h_before"
	Reminder15min ReminderType = "15min_before"
)

// Offset returns how long before the interview this reminder fires.
func (t ReminderType) Offset() time.Duration {
	switch t {
	case Reminder24h:
		return 24 * time.Hour
	case Reminder1h:
		return time.Hour
	case Reminder15min:
		return 15 * time.Minute
	}
	return 0
}

// Priority maps reminder proximity to queue priority: the closer the
// reminder is to the event, the earlier it drains.
func (t ReminderType) Priority() QueuePriority {
	switch t {
	case Reminder15min:
		return PriorityHigh
	case Reminder1h:
		return PriorityNormal
	default:
		return PriorityLow
	}
}

// ReminderTypes lists all offsets in scheduling order.
var ReminderTypes = []ReminderType{Reminder24h, Reminder1h, Reminder15min}

// ReminderStatus enumerates the reminder row lifecycle.
type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "pending"
	ReminderSent      ReminderStatus = "sent"
	ReminderCancelled ReminderStatus = "cancelled"
	ReminderFailed    ReminderStatus = "failed"
)

// InterviewReminder is one row per (interview, recipient, type). Created
// at scheduling time for every future slot; swept by the reminder
// processor; bulk-cancelled when the interview is cancelled, rescheduled,
// or reaches a terminal state before firing.
type InterviewReminder struct {
	ID             string          `json:"id" db:"id"`
	InterviewID    string          `json:"interview_id" db:"interview_id"`
	RecipientRole  ParticipantRole `json:"recipient_role" db:"recipient_role"`
	RecipientName  string          `json:"recipient_name" db:"recipient_name"`
	RecipientEmail string          `json:"recipient_email" db:"recipient_email"`
	Type           ReminderType    `json:"type" db:"type"`
	FireAt         time.Time       `json:"fire_at" db:"fire_at"`
	Status         ReminderStatus  `json:"status" db:"status"`
	LastError      string          `json:"last_error,omitempty" db:"last_error"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	SentAt         *time.Time      `json:"sent_at" db:"sent_at"`
}
