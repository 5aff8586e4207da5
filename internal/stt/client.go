// Package stt is the speech-to-text provider client. It is the fallback
// transcription path when the meeting provider produced no native
// transcript artifact.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/verticalhire/verticalhire/internal/pkg/httpretry"
)

// Client talks to a hosted speech-to-text API that accepts a media URL.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpretry.HTTPDoer
}

// Config holds STT provider settings. An empty APIKey means the provider
// is not configured and transcription falls through to a stage failure.
type Config struct {
	BaseURL string
	APIKey  string
}

// NewClient creates an STT client, or nil if no API key is configured.
// Callers treat a nil client as "STT not configured".
func NewClient(cfg Config) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpretry.NewRetryClient(&http.Client{Timeout: 5 * time.Minute}, 3),
	}
}

// Word is a single recognized word with timing.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is a contiguous span of speech attributed to one speaker.
type Segment struct {
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Result is the provider's transcription output.
type Result struct {
	Transcript string    `json:"transcript"`
	Duration   float64   `json:"duration"`
	Confidence float64   `json:"confidence"`
	Words      []Word    `json:"words"`
	Segments   []Segment `json:"segments"`
}

// TranscribeAudio submits a media URL for transcription and waits for the
// result. The provider call is synchronous; long recordings are bounded
// by the client timeout.
func (c *Client) TranscribeAudio(ctx context.Context, mediaURL string, language string) (*Result, error) {
	payload, err := json.Marshal(map[string]string{
		"url":      mediaURL,
		"language": language,
	})
	if err != nil {
		return nil, fmt.Errorf("stt: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transcribe", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("stt: build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stt: transcribe: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("stt: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stt: transcribe (status %d): %s", resp.StatusCode, string(body))
	}

	var out Result
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("stt: parse result: %w", err)
	}
	return &out, nil
}
