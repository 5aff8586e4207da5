// Package pipeline runs the post-interview processing chain: recording
// capture, transcription, and AI analysis. The three stages track their
// own sub-status on the interview row and fail independently, so a
// transcription outage never loses an already-captured recording and the
// whole pipeline can be re-triggered to fill in only the missing stages.
package pipeline

import (
	"context"
	"fmt"

	"github.com/verticalhire/verticalhire/internal/ai"
	"github.com/verticalhire/verticalhire/internal/domain"
	"github.com/verticalhire/verticalhire/internal/notify"
	"github.com/verticalhire/verticalhire/internal/pkg/logger"
	"github.com/verticalhire/verticalhire/internal/stt"
	"github.com/verticalhire/verticalhire/internal/video"
)

// Meta is the hiring context attached to an interview, used for analysis
// prompts and summary emails.
type Meta struct {
	CandidateName  string
	CandidateEmail string
	JobTitle       string
	JobDescription string
	CompanyName    string
}

// Repository is the persistence contract for pipeline state.
type Repository interface {
	GetInterview(ctx context.Context, id string) (*domain.Interview, error)
	Participants(ctx context.Context, interviewID string) ([]domain.Participant, error)
	InterviewMeta(ctx context.Context, interviewID string) (*Meta, error)
	SetRecordingResult(ctx context.Context, id string, status domain.StageStatus, recordingURL string) error
	SetTranscriptResult(ctx context.Context, id string, status domain.StageStatus, transcript string, durationSec float64) error
	SetAnalysisResult(ctx context.Context, id string, status domain.StageStatus, result *ai.AnalysisResult) error
}

// MeetingProvider lists and downloads recording artifacts.
type MeetingProvider interface {
	GetMeetingRecordings(ctx context.Context, meetingID string) (*video.MeetingRecordings, error)
	DownloadFile(ctx context.Context, downloadURL string) ([]byte, error)
}

// Transcriber is the speech-to-text fallback.
type Transcriber interface {
	TranscribeAudio(ctx context.Context, mediaURL string, language string) (*stt.Result, error)
}

// BlobStore persists downloaded artifacts.
type BlobStore interface {
	Put(ctx context.Context, key string, content []byte, contentType string) (string, error)
}

// Notifier fans out post-analysis notifications and summary emails.
type Notifier interface {
	AnalysisReady(ctx context.Context, iv *domain.Interview, candidateName string) error
	EnqueueSummaryEmail(ctx context.Context, input notify.SummaryEmailInput) error
}

// Service orchestrates the pipeline stages.
type Service struct {
	repo     Repository
	provider MeetingProvider
	store    BlobStore
	stt      Transcriber // nil when no provider configured
	analyzer ai.Analyzer
	notifier Notifier

	detailBaseURL string

	// runDetached launches the post-analysis fan-outs. Replaced in tests
	// to run synchronously.
	runDetached func(fn func())
}

// NewService wires the pipeline. stt may be nil; transcription then relies
// on the provider's native transcript artifact only.
func NewService(repo Repository, provider MeetingProvider, store BlobStore, transcriber Transcriber, analyzer ai.Analyzer, notifier Notifier, detailBaseURL string) *Service {
	return &Service{
		repo:          repo,
		provider:      provider,
		store:         store,
		stt:           transcriber,
		analyzer:      analyzer,
		notifier:      notifier,
		detailBaseURL: detailBaseURL,
		runDetached:   func(fn func()) { go fn() },
	}
}

// Run executes all stages that have not yet completed. It always returns
// normally: stage failures are recorded on the interview row and logged,
// never propagated. Only a failure to load the interview itself is an error.
func (s *Service) Run(ctx context.Context, interviewID string) error {
	iv, err := s.repo.GetInterview(ctx, interviewID)
	if err != nil {
		return fmt.Errorf("load interview %s: %w", interviewID, err)
	}

	var recordings *video.MeetingRecordings

	if iv.RecordingStatus != domain.StageCompleted {
		recordings = s.runRecordingStage(ctx, iv)
	}

	if iv.TranscriptStatus != domain.StageCompleted {
		if recordings == nil {
			// Recording stage was skipped or failed before listing; the
			// transcript artifact lookup still needs the listing.
			recordings, _ = s.listRecordings(ctx, iv)
		}
		s.runTranscriptionStage(ctx, iv, recordings)
	}

	if iv.TranscriptStatus == domain.StageCompleted && iv.AnalysisStatus != domain.StageCompleted {
		s.runAnalysisStage(ctx, iv)
	}

	return nil
}

func (s *Service) listRecordings(ctx context.Context, iv *domain.Interview) (*video.MeetingRecordings, error) {
	if iv.MeetingID == "" {
		return nil, ErrNoRecordingFiles
	}
	recs, err := s.provider.GetMeetingRecordings(ctx, iv.MeetingID)
	if err != nil {
		return nil, err
	}
	if recs == nil || len(recs.RecordingFiles) == 0 {
		return nil, ErrNoRecordingFiles
	}
	return recs, nil
}

func (s *Service) failStage(ctx context.Context, iv *domain.Interview, stage string, err error) {
	logger.Error("pipeline stage failed",
		"interview_id", iv.ID, "stage", stage, "error", err.Error())

	var markErr error
	switch stage {
	case "recording":
		iv.RecordingStatus = domain.StageFailed
		markErr = s.repo.SetRecordingResult(ctx, iv.ID, domain.StageFailed, iv.RecordingURL)
	case "transcription":
		iv.TranscriptStatus = domain.StageFailed
		markErr = s.repo.SetTranscriptResult(ctx, iv.ID, domain.StageFailed, "", 0)
	case "analysis":
		iv.AnalysisStatus = domain.StageFailed
		markErr = s.repo.SetAnalysisResult(ctx, iv.ID, domain.StageFailed, nil)
	}
	if markErr != nil {
		logger.Error("failed to record stage failure",
			"interview_id", iv.ID, "stage", stage, "error", markErr.Error())
	}
}
