// Package tldv is a small REST client for the tl;dv meeting recorder API,
// backing the tldv connector. Authentication is a per-user API key delivered
// by the credential broker.
package tldv

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultHost is the public tl;dv API endpoint.
const DefaultHost = "https://pasta.tldv.io/v1alpha1"

// Client talks to the tl;dv API on behalf of one user.
type Client struct {
	apiKey     string
	host       string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHost overrides the API host, mainly for tests.
func WithHost(host string) Option {
	return func(c *Client) { c.host = host }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a tl;dv client for an API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		host:       DefaultHost,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Meeting is a recorded meeting summary.
type Meeting struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	HappenedAt string `json:"happenedAt"`
	URL        string `json:"url"`
	Organizer  struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"organizer"`
}

// TranscriptEntry is one utterance of a meeting transcript.
type TranscriptEntry struct {
	Speaker   string  `json:"speaker"`
	Text      string  `json:"text"`
	StartTime float64 `json:"startTime"`
}

// Highlight is one tagged moment of a meeting.
type Highlight struct {
	Text      string  `json:"text"`
	StartTime float64 `json:"startTime"`
	Source    string  `json:"source"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.host + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tldv request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("tldv returned status %d for %s: %s", resp.StatusCode, path, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode tldv response: %w", err)
	}
	return nil
}

// ListMeetings returns recorded meetings, optionally filtered by a search
// query.
func (c *Client) ListMeetings(ctx context.Context, search string, limit int) ([]Meeting, error) {
	query := url.Values{}
	if search != "" {
		query.Set("query", search)
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}
	var res struct {
		Results []Meeting `json:"results"`
	}
	if err := c.get(ctx, "/meetings", query, &res); err != nil {
		return nil, err
	}
	return res.Results, nil
}

// GetMeeting fetches one meeting by id.
func (c *Client) GetMeeting(ctx context.Context, meetingID string) (*Meeting, error) {
	var m Meeting
	if err := c.get(ctx, "/meetings/"+url.PathEscape(meetingID), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetTranscript fetches the transcript of a meeting.
func (c *Client) GetTranscript(ctx context.Context, meetingID string) ([]TranscriptEntry, error) {
	var res struct {
		Data []TranscriptEntry `json:"data"`
	}
	if err := c.get(ctx, "/meetings/"+url.PathEscape(meetingID)+"/transcript", nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// GetHighlights fetches the highlights of a meeting.
func (c *Client) GetHighlights(ctx context.Context, meetingID string) ([]Highlight, error) {
	var res struct {
		Data []Highlight `json:"data"`
	}
	if err := c.get(ctx, "/meetings/"+url.PathEscape(meetingID)+"/highlights", nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}
