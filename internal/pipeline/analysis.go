package pipeline

import (
	"context"
	"fmt"

	"github.com/verticalhire/verticalhire/internal/ai"
	"github.com/verticalhire/verticalhire/internal/domain"
	"github.com/verticalhire/verticalhire/internal/mailing"
	"github.com/verticalhire/verticalhire/internal/notify"
	"github.com/verticalhire/verticalhire/internal/pkg/logger"
)

// runAnalysisStage scores the transcript and fans out notifications.
// Only invoked once the transcript sub-status is completed.
func (s *Service) runAnalysisStage(ctx context.Context, iv *domain.Interview) {
	if err := s.repo.SetAnalysisResult(ctx, iv.ID, domain.StageProcessing, nil); err != nil {
		logger.Warn("failed to mark analysis processing", "interview_id", iv.ID, "error", err.Error())
	}
	iv.AnalysisStatus = domain.StageProcessing

	meta, err := s.repo.InterviewMeta(ctx, iv.ID)
	if err != nil {
		s.failStage(ctx, iv, "analysis", fmt.Errorf("load interview context: %w", err))
		return
	}

	result, err := s.analyzer.AnalyzeTranscript(ctx, ai.AnalysisRequest{
		Transcript:     iv.Transcript,
		CandidateName:  meta.CandidateName,
		JobTitle:       meta.JobTitle,
		JobDescription: meta.JobDescription,
	})
	if err != nil {
		s.failStage(ctx, iv, "analysis", fmt.Errorf("analyze transcript: %w", err))
		return
	}

	if err := s.repo.SetAnalysisResult(ctx, iv.ID, domain.StageCompleted, result); err != nil {
		s.failStage(ctx, iv, "analysis", fmt.Errorf("persist analysis: %w", err))
		return
	}
	iv.AnalysisStatus = domain.StageCompleted
	iv.AnalysisSummary = result.Summary
	iv.AnalysisSentiment = result.Sentiment
	iv.CompetencyScores = result.CompetencyScores

	logger.Info("analysis completed", "interview_id", iv.ID, "sentiment", result.Sentiment)

	// Fan-outs are best-effort and independent of each other: a failed
	// notification never blocks the summary emails and vice versa.
	ivCopy := *iv
	s.runDetached(func() { s.notifyAnalysisReady(&ivCopy, meta) })
	s.runDetached(func() { s.sendSummaryEmails(&ivCopy, meta, result) })
}

func (s *Service) notifyAnalysisReady(iv *domain.Interview, meta *Meta) {
	if err := s.notifier.AnalysisReady(context.Background(), iv, meta.CandidateName); err != nil {
		logger.Error("analysis-ready notification failed", "interview_id", iv.ID, "error", err.Error())
	}
}

func (s *Service) sendSummaryEmails(iv *domain.Interview, meta *Meta, result *ai.AnalysisResult) {
	ctx := context.Background()

	participants, err := s.repo.Participants(ctx, iv.ID)
	if err != nil {
		logger.Error("summary emails: load participants failed", "interview_id", iv.ID, "error", err.Error())
		return
	}

	detailURL := ""
	if s.detailBaseURL != "" {
		detailURL = fmt.Sprintf("%s/interviews/%s", s.detailBaseURL, iv.ID)
	}

	for _, p := range participants {
		sctx := mailing.SummaryContext{
			RecipientName: p.Name,
			CandidateName: meta.CandidateName,
			JobTitle:      meta.JobTitle,
		}
		if p.Role == domain.RoleInterviewer {
			sctx.Summary = result.Summary
			sctx.Sentiment = result.Sentiment
			sctx.DetailURL = detailURL
		}
		err := s.notifier.EnqueueSummaryEmail(ctx, notify.SummaryEmailInput{
			Role:           p.Role,
			RecipientName:  p.Name,
			RecipientEmail: p.Email,
			InterviewID:    iv.ID,
			Summary:        sctx,
		})
		if err != nil {
			logger.Error("summary email enqueue failed",
				"interview_id", iv.ID, "role", string(p.Role), "error", err.Error())
		}
	}
}
