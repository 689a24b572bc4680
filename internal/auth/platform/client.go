// Package platform implements the credential store client against the
// Gumloop platform's credential API, authenticated with the caller's API key
// instead of a process-wide broker secret.
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gumloop/gumcp/internal/auth"
	"github.com/gumloop/gumcp/internal/logging"
)

const (
	// DefaultHost is the platform API endpoint, used when GUMLOOP_API_HOST
	// is unset.
	DefaultHost = "https://api.gumloop.com/api/v1"

	defaultTimeout = 15 * time.Second
)

// Client fetches credentials from the platform on behalf of a single caller.
// Unlike the Nango client its authentication is request-scoped (the caller's
// API key), so one Client must not be shared across logical users.
type Client struct {
	apiKey     string
	host       string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a platform-backed client for the given API key. An empty host
// falls back to GUMLOOP_API_HOST, then the public endpoint.
func New(apiKey, host string) *Client {
	if host == "" {
		host = os.Getenv("GUMLOOP_API_HOST")
	}
	if host == "" {
		host = DefaultHost
	}
	return &Client{
		apiKey:     apiKey,
		host:       strings.TrimRight(host, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
}

// GetUserCredentials fetches the platform-held credential payload for
// (serviceName, connectionID). Same degrade-to-nil semantics as the other
// backends.
func (c *Client) GetUserCredentials(ctx context.Context, serviceName, connectionID string) (auth.Credentials, error) {
	logger := logging.WithService(c.logger, serviceName)

	if c.apiKey == "" {
		logger.Error("platform API key is required to get user credentials")
		return nil, nil
	}

	reqURL := fmt.Sprintf("%s/auth/credentials?service=%s&user_id=%s",
		c.host, url.QueryEscape(serviceName), url.QueryEscape(connectionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		logger.Error("failed to build credentials request", logging.Err(err))
		return nil, nil
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("error retrieving credentials", logging.Err(err))
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		logger.Info("no credentials found", "connection_id", connectionID)
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logger.Error("failed to get credentials", "status", resp.StatusCode, "body", string(body))
		return nil, nil
	}

	var payload struct {
		AccessToken string         `json:"access_token"`
		APIKey      string         `json:"apiKey"`
		ExpiresAt   int64          `json:"expires_at"`
		Metadata    map[string]any `json:"metadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		logger.Error("failed to decode credentials response", logging.Err(err))
		return nil, nil
	}

	if payload.APIKey != "" {
		return &auth.APIKeyCredentials{APIKey: payload.APIKey}, nil
	}
	if payload.AccessToken != "" {
		return &auth.OAuth2Credentials{
			AccessToken: payload.AccessToken,
			ExpiresAt:   payload.ExpiresAt,
			Metadata:    payload.Metadata,
		}, nil
	}

	logger.Error("platform credentials payload has no recognized fields")
	return nil, nil
}

// SaveUserCredentials is not supported by the platform API: the platform owns
// credential refresh server-side. The call is logged and dropped.
func (c *Client) SaveUserCredentials(ctx context.Context, serviceName, connectionID string, credentials auth.Serializable) {
	logging.WithService(c.logger, serviceName).Info(
		"platform backend manages credential persistence itself; save ignored",
		"connection_id", connectionID)
}

// GetOAuthConfig is not available through the platform API; interactive
// enrollment happens in the platform UI.
func (c *Client) GetOAuthConfig(ctx context.Context, serviceName string) (*auth.OAuthConfig, error) {
	return nil, fmt.Errorf("OAuth config is not exposed by the platform backend; enroll %s via the platform UI", serviceName)
}
