package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/verticalhire/verticalhire/internal/domain"
	"github.com/verticalhire/verticalhire/internal/pkg/logger"
	"github.com/verticalhire/verticalhire/internal/video"
)

// videoTypeRank orders provider recording types by usefulness as the
// primary artifact. Lower is better.
var videoTypeRank = map[string]int{
	video.TypeScreenShare:   0,
	video.TypeActiveSpeaker: 1,
	video.TypeGalleryView:   2,
	video.TypeAudioOnly:     3,
}

// selectPrimaryFile picks the artifact to archive: MP4 video tracks by
// type preference, then M4A audio; within a type the largest file wins.
func selectPrimaryFile(files []video.RecordingFile) (*video.RecordingFile, error) {
	var best *video.RecordingFile
	bestRank := len(videoTypeRank)

	for i := range files {
		f := &files[i]
		ft := strings.ToUpper(f.FileType)
		if ft != "MP4" && ft != "M4A" {
			continue
		}
		rank, ok := videoTypeRank[f.RecordingType]
		if !ok {
			continue
		}
		if best == nil || rank < bestRank || (rank == bestRank && f.FileSize > best.FileSize) {
			best = f
			bestRank = rank
		}
	}

	if best == nil {
		return nil, ErrNoPrimaryRecording
	}
	return best, nil
}

// runRecordingStage captures the primary recording into durable storage.
// Returns the provider listing so the transcription stage can reuse it.
func (s *Service) runRecordingStage(ctx context.Context, iv *domain.Interview) *video.MeetingRecordings {
	if err := s.repo.SetRecordingResult(ctx, iv.ID, domain.StageProcessing, iv.RecordingURL); err != nil {
		logger.Warn("failed to mark recording processing", "interview_id", iv.ID, "error", err.Error())
	}
	iv.RecordingStatus = domain.StageProcessing

	recordings, err := s.listRecordings(ctx, iv)
	if err != nil {
		s.failStage(ctx, iv, "recording", err)
		return recordings
	}

	primary, err := selectPrimaryFile(recordings.RecordingFiles)
	if err != nil {
		s.failStage(ctx, iv, "recording", err)
		return recordings
	}

	content, err := s.provider.DownloadFile(ctx, primary.DownloadURL)
	if err != nil {
		s.failStage(ctx, iv, "recording", fmt.Errorf("download recording: %w", err))
		return recordings
	}

	ext := strings.ToLower(primary.FileType)
	key := fmt.Sprintf("recordings/%s/%s.%s", iv.ID, primary.ID, ext)
	url, err := s.store.Put(ctx, key, content, contentTypeFor(ext))
	if err != nil {
		s.failStage(ctx, iv, "recording", fmt.Errorf("store recording: %w", err))
		return recordings
	}

	if err := s.repo.SetRecordingResult(ctx, iv.ID, domain.StageCompleted, url); err != nil {
		s.failStage(ctx, iv, "recording", fmt.Errorf("persist recording result: %w", err))
		return recordings
	}
	iv.RecordingStatus = domain.StageCompleted
	iv.RecordingURL = url

	logger.Info("recording captured",
		"interview_id", iv.ID, "file_type", primary.FileType, "bytes", primary.FileSize)
	return recordings
}

func contentTypeFor(ext string) string {
	switch ext {
	case "mp4":
		return "video/mp4"
	case "m4a":
		return "audio/mp4"
	case "vtt":
		return "text/vtt"
	default:
		return "application/octet-stream"
	}
}
