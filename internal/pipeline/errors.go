package pipeline

import "errors"

var (
	// ErrNoRecordingFiles means the meeting provider returned no artifacts
	// for the interview's meeting.
	ErrNoRecordingFiles = errors.New("no recording files available for meeting")

	// ErrNoPrimaryRecording means artifacts exist but none match a usable
	// video or audio type.
	ErrNoPrimaryRecording = errors.New("no usable video or audio recording found")

	// ErrNoTranscriptArtifact means the provider produced no transcript file.
	ErrNoTranscriptArtifact = errors.New("no native transcript artifact")

	// ErrSTTNotConfigured means the transcription fallback has no provider
	// credentials.
	ErrSTTNotConfigured = errors.New("speech-to-text provider not configured")
)
