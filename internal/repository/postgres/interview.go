package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/verticalhire/verticalhire/internal/ai"
	"github.com/verticalhire/verticalhire/internal/domain"
	"github.com/verticalhire/verticalhire/internal/pipeline"
	"github.com/verticalhire/verticalhire/internal/service/interview"
)

// InterviewRepo implements interview.Repository and pipeline.Repository.
type InterviewRepo struct{ db *sql.DB }

// NewInterviewRepo creates a Postgres-backed interview repository.
func NewInterviewRepo(db *sql.DB) *InterviewRepo { return &InterviewRepo{db: db} }

const interviewSelect = `
	SELECT id, company_id, candidate_id, job_id, COALESCE(meeting_id,''),
	       COALESCE(join_url,''), scheduled_at, duration_minutes, status,
	       recording_status, transcript_status, analysis_status,
	       COALESCE(recording_url,''), COALESCE(transcript,''),
	       COALESCE(transcript_duration_seconds,0),
	       COALESCE(analysis_summary,''), COALESCE(analysis_sentiment,''),
	       competency_scores, created_at, updated_at
	FROM interviews`

func (r *InterviewRepo) Get(ctx context.Context, id string) (*domain.Interview, error) {
	iv := &domain.Interview{}
	var scores []byte
	err := r.db.QueryRowContext(ctx, interviewSelect+` WHERE id = $1`, id).Scan(
		&iv.ID, &iv.CompanyID, &iv.CandidateID, &iv.JobID, &iv.MeetingID,
		&iv.JoinURL, &iv.ScheduledAt, &iv.DurationMin, &iv.Status,
		&iv.RecordingStatus, &iv.TranscriptStatus, &iv.AnalysisStatus,
		&iv.RecordingURL, &iv.Transcript,
		&iv.TranscriptDuration,
		&iv.AnalysisSummary, &iv.AnalysisSentiment,
		&scores, &iv.CreatedAt, &iv.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, interview.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get interview: %w", err)
	}
	if len(scores) > 0 {
		if err := json.Unmarshal(scores, &iv.CompetencyScores); err != nil {
			return nil, fmt.Errorf("parse competency scores: %w", err)
		}
	}
	return iv, nil
}

func (r *InterviewRepo) Create(ctx context.Context, iv *domain.Interview) (string, error) {
	if iv.ID == "" {
		iv.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO interviews
			(id, company_id, candidate_id, job_id, meeting_id, join_url,
			 scheduled_at, duration_minutes, status,
			 recording_status, transcript_status, analysis_status,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
	`, iv.ID, iv.CompanyID, iv.CandidateID, iv.JobID, iv.MeetingID, iv.JoinURL,
		iv.ScheduledAt, iv.DurationMin, iv.Status,
		iv.RecordingStatus, iv.TranscriptStatus, iv.AnalysisStatus)
	if err != nil {
		return "", fmt.Errorf("create interview: %w", err)
	}
	return iv.ID, nil
}

func (r *InterviewRepo) SetStatus(ctx context.Context, id string, status domain.InterviewStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE interviews SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("set interview status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return interview.ErrNotFound
	}
	return nil
}

func (r *InterviewRepo) SetScheduledAt(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE interviews SET scheduled_at = $1, updated_at = NOW() WHERE id = $2
	`, at, id)
	if err != nil {
		return fmt.Errorf("set scheduled_at: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return interview.ErrNotFound
	}
	return nil
}

func (r *InterviewRepo) Participants(ctx context.Context, interviewID string) ([]domain.Participant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT interview_id, role, COALESCE(name,''), COALESCE(email,'')
		FROM interview_participants
		WHERE interview_id = $1
		ORDER BY role
	`, interviewID)
	if err != nil {
		return nil, fmt.Errorf("participants: %w", err)
	}
	defer rows.Close()

	var out []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.InterviewID, &p.Role, &p.Name, &p.Email); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *InterviewRepo) AddParticipants(ctx context.Context, ps []domain.Participant) error {
	for _, p := range ps {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO interview_participants (interview_id, role, name, email)
			VALUES ($1, $2, $3, $4)
		`, p.InterviewID, p.Role, p.Name, p.Email)
		if err != nil {
			return fmt.Errorf("add participant: %w", err)
		}
	}
	return nil
}

func (r *InterviewRepo) CreateReminders(ctx context.Context, rs []domain.InterviewReminder) (int, error) {
	created := 0
	for _, rem := range rs {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO interview_reminders
				(id, interview_id, recipient_role, recipient_name, recipient_email,
				 type, fire_at, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		`, rem.ID, rem.InterviewID, rem.RecipientRole, rem.RecipientName,
			rem.RecipientEmail, rem.Type, rem.FireAt, rem.Status)
		if err != nil {
			return created, fmt.Errorf("create reminder: %w", err)
		}
		created++
	}
	return created, nil
}

func (r *InterviewRepo) CancelReminders(ctx context.Context, interviewID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE interview_reminders SET status = 'cancelled'
		WHERE interview_id = $1 AND status NOT IN ('sent','cancelled')
	`, interviewID)
	if err != nil {
		return 0, fmt.Errorf("cancel reminders: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// GetInterview satisfies pipeline.Repository.
func (r *InterviewRepo) GetInterview(ctx context.Context, id string) (*domain.Interview, error) {
	return r.Get(ctx, id)
}

// InterviewMeta loads the hiring context for analysis and summary emails.
func (r *InterviewRepo) InterviewMeta(ctx context.Context, interviewID string) (*pipeline.Meta, error) {
	m := &pipeline.Meta{}
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(TRIM(c.first_name || ' ' || c.last_name),''),
		       COALESCE(c.email,''),
		       COALESCE(j.title,''), COALESCE(j.description,''),
		       COALESCE(co.name,'')
		FROM interviews i
		JOIN candidates c ON c.id = i.candidate_id
		LEFT JOIN jobs j ON j.id = i.job_id
		LEFT JOIN companies co ON co.id = i.company_id
		WHERE i.id = $1
	`, interviewID).Scan(
		&m.CandidateName, &m.CandidateEmail,
		&m.JobTitle, &m.JobDescription, &m.CompanyName,
	)
	if err == sql.ErrNoRows {
		return nil, interview.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("interview meta: %w", err)
	}
	return m, nil
}

func (r *InterviewRepo) SetRecordingResult(ctx context.Context, id string, status domain.StageStatus, recordingURL string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE interviews SET recording_status = $1, recording_url = $2, updated_at = NOW()
		WHERE id = $3
	`, status, recordingURL, id)
	if err != nil {
		return fmt.Errorf("set recording result: %w", err)
	}
	return nil
}

func (r *InterviewRepo) SetTranscriptResult(ctx context.Context, id string, status domain.StageStatus, transcript string, durationSec float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE interviews SET transcript_status = $1, transcript = $2,
		       transcript_duration_seconds = $3, updated_at = NOW()
		WHERE id = $4
	`, status, transcript, durationSec, id)
	if err != nil {
		return fmt.Errorf("set transcript result: %w", err)
	}
	return nil
}

func (r *InterviewRepo) SetAnalysisResult(ctx context.Context, id string, status domain.StageStatus, result *ai.AnalysisResult) error {
	if result == nil {
		_, err := r.db.ExecContext(ctx, `
			UPDATE interviews SET analysis_status = $1, updated_at = NOW() WHERE id = $2
		`, status, id)
		if err != nil {
			return fmt.Errorf("set analysis status: %w", err)
		}
		return nil
	}

	scores, err := json.Marshal(result.CompetencyScores)
	if err != nil {
		return fmt.Errorf("marshal competency scores: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE interviews SET analysis_status = $1, analysis_summary = $2,
		       analysis_sentiment = $3, competency_scores = $4, updated_at = NOW()
		WHERE id = $5
	`, status, result.Summary, result.Sentiment, scores, id)
	if err != nil {
		return fmt.Errorf("set analysis result: %w", err)
	}
	return nil
}

// InsertNotification satisfies notify.Repository (composed with QueueRepo).
func (r *InterviewRepo) InsertNotification(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, company_id, type, interview_id, title, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, n.ID, n.CompanyID, n.Type, n.InterviewID, n.Title, n.Body)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}
