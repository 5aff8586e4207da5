package video

// RecordingFile is one artifact produced by the meeting provider for a
// recorded interview: video/audio tracks plus transcript files.
type RecordingFile struct {
	ID            string `json:"id"`
	RecordingType string `json:"recording_type"`
	FileType      string `json:"file_type"`
	FileSize      int64  `json:"file_size"`
	DownloadURL   string `json:"download_url"`
}

// Recording type constants as reported by the provider.
const (
	TypeScreenShare   = "shared_screen_with_speaker_view"
	TypeActiveSpeaker = "active_speaker"
	TypeGalleryView   = "gallery_view"
	TypeAudioOnly     = "audio_only"
	TypeTranscript    = "audio_transcript"
)

// MeetingRecordings is the provider's response for a meeting's artifacts.
type MeetingRecordings struct {
	MeetingID      string          `json:"meeting_id"`
	Duration       int             `json:"duration"`
	RecordingFiles []RecordingFile `json:"recording_files"`
}
