// Package netsuite wraps the NetSuite SuiteTalk REST API for the netsuite
// connector. Requests are signed per call with OAuth 1.0a token-based access
// material from the credential broker.
package netsuite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gumloop/gumcp/internal/auth"
)

// Client talks to one NetSuite account's REST services.
type Client struct {
	host       string
	signer     *signer
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHost overrides the account host, mainly for tests.
func WithHost(host string) Option {
	return func(c *Client) { c.host = host }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a NetSuite client from token-based-access material.
// The REST host is derived from the account id (account "1234567_SB1"
// becomes "1234567-sb1.suitetalk.api.netsuite.com"); the signature realm
// keeps the account id verbatim.
func NewClient(creds *auth.TBACredentials, opts ...Option) (*Client, error) {
	if creds == nil || creds.AccountID == "" {
		return nil, fmt.Errorf("netsuite account id is required")
	}

	hostAccount := strings.ToLower(strings.ReplaceAll(creds.AccountID, "_", "-"))
	c := &Client{
		host: fmt.Sprintf("https://%s.suitetalk.api.netsuite.com", hostAccount),
		signer: &signer{
			consumerKey:    creds.ConsumerKey,
			consumerSecret: creds.ConsumerSecret,
			tokenID:        creds.TokenID,
			tokenSecret:    creds.TokenSecret,
			realm:          creds.AccountID,
			nonce:          func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
			timestamp:      func() string { return fmt.Sprintf("%d", time.Now().Unix()) },
		},
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SuiteQLResult is one page of a SuiteQL query.
type SuiteQLResult struct {
	Items      []map[string]interface{} `json:"items"`
	Count      int                      `json:"count"`
	TotalCount int                      `json:"totalResults"`
	HasMore    bool                     `json:"hasMore"`
}

// SuiteQL runs a SuiteQL query and returns the first page of rows.
func (c *Client) SuiteQL(ctx context.Context, query string, limit int) (*SuiteQLResult, error) {
	u := c.host + "/services/rest/query/v1/suiteql"
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}

	body, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	var result SuiteQLResult
	if err := c.do(ctx, http.MethodPost, u, params, bytes.NewReader(body), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetRecord fetches one record by type and internal id.
func (c *Client) GetRecord(ctx context.Context, recordType, id string) (map[string]interface{}, error) {
	u := fmt.Sprintf("%s/services/rest/record/v1/%s/%s",
		c.host, url.PathEscape(strings.ToLower(recordType)), url.PathEscape(id))

	var record map[string]interface{}
	if err := c.do(ctx, http.MethodGet, u, nil, nil, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// do signs and executes one request. The signature covers the URL without
// query plus the query parameters, per OAuth 1.0a.
func (c *Client) do(ctx context.Context, method, rawURL string, query url.Values, body io.Reader, out interface{}) error {
	u := rawURL
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", c.signer.authorizationHeader(method, rawURL, query))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "transient")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("netsuite request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("netsuite returned status %d: %s", resp.StatusCode, string(respBody))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode netsuite response: %w", err)
	}
	return nil
}
