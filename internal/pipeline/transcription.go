package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/verticalhire/verticalhire/internal/domain"
	"github.com/verticalhire/verticalhire/internal/pkg/logger"
	"github.com/verticalhire/verticalhire/internal/video"
)

// findTranscriptArtifact returns the provider's native transcript file,
// if one was produced.
func findTranscriptArtifact(recordings *video.MeetingRecordings) *video.RecordingFile {
	if recordings == nil {
		return nil
	}
	for i := range recordings.RecordingFiles {
		f := &recordings.RecordingFiles[i]
		ft := strings.ToUpper(f.FileType)
		if f.RecordingType == video.TypeTranscript || ft == "VTT" || ft == "TRANSCRIPT" {
			return f
		}
	}
	return nil
}

// runTranscriptionStage records transcript text for the interview:
// the provider's native transcript artifact when present, otherwise the
// speech-to-text fallback against the archived recording.
func (s *Service) runTranscriptionStage(ctx context.Context, iv *domain.Interview, recordings *video.MeetingRecordings) {
	if err := s.repo.SetTranscriptResult(ctx, iv.ID, domain.StageProcessing, "", 0); err != nil {
		logger.Warn("failed to mark transcription processing", "interview_id", iv.ID, "error", err.Error())
	}
	iv.TranscriptStatus = domain.StageProcessing

	if artifact := findTranscriptArtifact(recordings); artifact != nil {
		raw, err := s.provider.DownloadFile(ctx, artifact.DownloadURL)
		if err != nil {
			s.failStage(ctx, iv, "transcription", fmt.Errorf("download transcript: %w", err))
			return
		}
		text := raw
		if strings.ToUpper(artifact.FileType) == "VTT" {
			text = []byte(vttToText(string(raw)))
		}
		durationSec := 0.0
		if recordings != nil {
			durationSec = float64(recordings.Duration * 60)
		}
		s.completeTranscription(ctx, iv, strings.TrimSpace(string(text)), durationSec)
		return
	}

	if s.stt == nil {
		s.failStage(ctx, iv, "transcription", ErrSTTNotConfigured)
		return
	}
	if iv.RecordingURL == "" {
		s.failStage(ctx, iv, "transcription", fmt.Errorf("no recording available to transcribe"))
		return
	}

	result, err := s.stt.TranscribeAudio(ctx, iv.RecordingURL, "en")
	if err != nil {
		s.failStage(ctx, iv, "transcription", fmt.Errorf("stt fallback: %w", err))
		return
	}
	s.completeTranscription(ctx, iv, result.Transcript, result.Duration)
}

func (s *Service) completeTranscription(ctx context.Context, iv *domain.Interview, transcript string, durationSec float64) {
	if transcript == "" {
		s.failStage(ctx, iv, "transcription", fmt.Errorf("empty transcript"))
		return
	}
	if err := s.repo.SetTranscriptResult(ctx, iv.ID, domain.StageCompleted, transcript, durationSec); err != nil {
		s.failStage(ctx, iv, "transcription", fmt.Errorf("persist transcript: %w", err))
		return
	}
	iv.TranscriptStatus = domain.StageCompleted
	iv.Transcript = transcript
	iv.TranscriptDuration = durationSec

	logger.Info("transcript recorded",
		"interview_id", iv.ID, "chars", len(transcript), "duration_sec", durationSec)
}

// vttToText strips WebVTT structure (header, cue numbers, timestamps,
// inline voice tags) down to the spoken lines.
func vttToText(raw string) string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "WEBVTT" {
			continue
		}
		if strings.Contains(trimmed, "-->") {
			continue
		}
		if isCueNumber(trimmed) {
			continue
		}
		// <v Speaker>text</v> → Speaker: text
		if strings.HasPrefix(trimmed, "<v ") {
			if end := strings.Index(trimmed, ">"); end > 3 {
				speaker := trimmed[3:end]
				text := strings.TrimSuffix(trimmed[end+1:], "</v>")
				trimmed = speaker + ": " + text
			}
		}
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}

func isCueNumber(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
