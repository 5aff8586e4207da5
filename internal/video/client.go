// Package video is the meeting-provider API client used by the
// post-interview pipeline: recording listings and authenticated artifact
// downloads, via server-to-server OAuth.
package video

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/verticalhire/verticalhire/internal/pkg/httpretry"
)

// Client talks to the meeting provider's REST API.
type Client struct {
	baseURL     string
	httpClient  httpretry.HTTPDoer
	tokenSource oauth2.TokenSource
}

// Config holds provider credentials for server-to-server OAuth.
type Config struct {
	BaseURL      string
	TokenURL     string
	AccountID    string
	ClientID     string
	ClientSecret string
}

// NewClient creates a meeting-provider client. Downloads and API calls
// share the same retry policy.
func NewClient(cfg Config) *Client {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		EndpointParams: url.Values{
			"grant_type": {"account_credentials"},
			"account_id": {cfg.AccountID},
		},
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		httpClient:  httpretry.NewRetryClient(&http.Client{Timeout: 30 * time.Second}, 3),
		tokenSource: cc.TokenSource(context.Background()),
	}
}

// GetAccessToken returns a valid bearer token, refreshing if needed.
func (c *Client) GetAccessToken() (string, error) {
	tok, err := c.tokenSource.Token()
	if err != nil {
		return "", fmt.Errorf("video: fetch access token: %w", err)
	}
	return tok.AccessToken, nil
}

// GetMeetingRecordings lists the recording artifacts for a meeting.
func (c *Client) GetMeetingRecordings(ctx context.Context, meetingID string) (*MeetingRecordings, error) {
	token, err := c.GetAccessToken()
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/meetings/%s/recordings", c.baseURL, url.PathEscape(meetingID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("video: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("video: list recordings: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("video: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("video: list recordings (status %d): %s", resp.StatusCode, string(body))
	}

	var out MeetingRecordings
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("video: parse recordings: %w", err)
	}
	return &out, nil
}

// DownloadFile fetches a recording artifact with the bounded retry policy.
func (c *Client) DownloadFile(ctx context.Context, downloadURL string) ([]byte, error) {
	token, err := c.GetAccessToken()
	if err != nil {
		return nil, err
	}
	rc, ok := c.httpClient.(*httpretry.RetryClient)
	if !ok {
		rc = httpretry.NewRetryClient(c.httpClient, 3)
	}
	return rc.Download(ctx, downloadURL, map[string]string{"Authorization": "Bearer " + token})
}
