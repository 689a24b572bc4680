// Package nango implements the credential store client against the Nango
// connection broker's REST API.
package nango

import (
	"bytes"
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

	"github.com/golang-jwt/jwt/v5"

	"github.com/gumloop/gumcp/internal/auth"
	"github.com/gumloop/gumcp/internal/logging"
)

const (
	// DefaultHost is the Nango Cloud endpoint, used when NANGO_HOST is unset.
	DefaultHost = "https://api.nango.dev"

	// defaultTimeout bounds every broker call so a stuck broker cannot hang
	// a request indefinitely.
	defaultTimeout = 15 * time.Second

	// mintedTokenTTL is the lifetime of locally minted delegated-trust JWTs.
	mintedTokenTTL = 3600 * time.Second
)

// Client talks to the Nango REST API with a process-wide bearer secret.
type Client struct {
	secretKey  string
	host       string
	httpClient *http.Client
	logger     *slog.Logger

	// now is swappable for tests that assert on minted token claims.
	now func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for broker calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock overrides the wall clock used for JWT minting.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a Nango client. Empty secretKey or host fall back to the
// NANGO_SECRET_KEY and NANGO_HOST environment variables; the host defaults to
// Nango Cloud.
func New(secretKey, host string, opts ...Option) *Client {
	if secretKey == "" {
		secretKey = os.Getenv("NANGO_SECRET_KEY")
	}
	if host == "" {
		host = os.Getenv("NANGO_HOST")
	}
	if host == "" {
		host = DefaultHost
	}

	c := &Client{
		secretKey:  secretKey,
		host:       strings.TrimRight(host, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.secretKey == "" {
		c.logger.Warn("missing Nango secret key; credential lookups will fail")
	}
	return c
}

// Host returns the broker base URL the client is bound to.
func (c *Client) Host() string { return c.host }

// connectionResponse is the shape of GET /connection/{id}.
type connectionResponse struct {
	Credentials map[string]any `json:"credentials"`
	Metadata    map[string]any `json:"metadata"`
}

// GetUserCredentials fetches and decodes the broker's connection record for
// (serviceName, connectionID), dispatching on the service's auth type.
// All failure modes degrade to (nil, nil): a 404 logs at info level, anything
// else at error level. Callers treat nil uniformly as "credentials
// unavailable".
func (c *Client) GetUserCredentials(ctx context.Context, serviceName, connectionID string) (auth.Credentials, error) {
	logger := logging.WithService(c.logger, serviceName)

	if c.secretKey == "" {
		logger.Error("Nango secret key is required to get user credentials")
		return nil, nil
	}

	mapping := auth.Resolve(serviceName)

	reqURL := fmt.Sprintf("%s/connection/%s?provider_config_key=%s",
		c.host, url.PathEscape(connectionID), url.QueryEscape(mapping.BrokerService))
	logger.Info("fetching user credentials", "url", reqURL)

	body, status, err := c.get(ctx, reqURL)
	if err != nil {
		logger.Error("error retrieving credentials", logging.Err(err), "connection_id", connectionID)
		return nil, nil
	}
	if status == http.StatusNotFound {
		logger.Info("no credentials found", "connection_id", connectionID)
		return nil, nil
	}
	if status < 200 || status >= 300 {
		logger.Error("failed to get credentials", "connection_id", connectionID,
			"status", status, "body", string(body))
		return nil, nil
	}

	var resp connectionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		logger.Error("failed to decode connection response", logging.Err(err))
		return nil, nil
	}

	switch mapping.AuthType {
	case auth.AuthTypeAPIKey:
		return c.decodeAPIKey(logger, resp)
	case auth.AuthTypeDelegated:
		return c.mintDelegatedToken(logger, serviceName, resp)
	case auth.AuthTypeTBA:
		return c.decodeTBA(logger, resp)
	default:
		return c.decodeOAuth2(logger, resp)
	}
}

// decodeOAuth2 builds the oauth2 payload. The broker's top-level metadata is
// merged into the returned credentials: downstream adapters (e.g. firestore)
// read provider side data such as the GCP project id out of it.
func (c *Client) decodeOAuth2(logger *slog.Logger, resp connectionResponse) (auth.Credentials, error) {
	accessToken, _ := resp.Credentials["access_token"].(string)
	if accessToken == "" {
		logger.Error("oauth2 credentials missing access_token")
		return nil, nil
	}
	refreshToken, _ := resp.Credentials["refresh_token"].(string)

	return &auth.OAuth2Credentials{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    epochSeconds(resp.Credentials["expires_at"]),
		Metadata:     resp.Metadata,
	}, nil
}

func (c *Client) decodeAPIKey(logger *slog.Logger, resp connectionResponse) (auth.Credentials, error) {
	apiKey, _ := resp.Credentials["apiKey"].(string)
	if apiKey == "" {
		logger.Error("api_key credentials missing apiKey")
		return nil, nil
	}
	return &auth.APIKeyCredentials{APIKey: apiKey}, nil
}

func (c *Client) decodeTBA(logger *slog.Logger, resp connectionResponse) (auth.Credentials, error) {
	creds := &auth.TBACredentials{}
	creds.ConsumerKey, _ = resp.Credentials["consumer_key"].(string)
	creds.ConsumerSecret, _ = resp.Credentials["consumer_secret"].(string)
	creds.TokenID, _ = resp.Credentials["token_id"].(string)
	creds.TokenSecret, _ = resp.Credentials["token_secret"].(string)
	creds.AccountID, _ = resp.Metadata["accountId"].(string)

	if creds.ConsumerKey == "" || creds.ConsumerSecret == "" ||
		creds.TokenID == "" || creds.TokenSecret == "" {
		logger.Error("tba credentials missing one of consumer_key, consumer_secret, token_id, token_secret")
		return nil, nil
	}
	return creds, nil
}

// mintDelegatedToken synthesizes a short-lived signed JWT from broker-held
// connection metadata. The broker stores tenantId/privateKey/accessToken as
// metadata, not credentials; the minted token exists only in this process and
// is never persisted back.
func (c *Client) mintDelegatedToken(logger *slog.Logger, serviceName string, resp connectionResponse) (auth.Credentials, error) {
	tenantID, _ := resp.Metadata["tenantId"].(string)
	privateKey, _ := resp.Metadata["privateKey"].(string)
	accessToken, _ := resp.Metadata["accessToken"].(string)

	if tenantID == "" || privateKey == "" || accessToken == "" {
		logger.Error("delegated-trust metadata incomplete; need tenantId, privateKey and accessToken")
		return nil, nil
	}

	iat := c.now().Unix()
	exp := iat + int64(mintedTokenTTL.Seconds())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": serviceName,
		"aud": serviceName,
		"acc": accessToken,
		"sub": tenantID,
		"iat": iat,
		"exp": exp,
	})

	signed, err := token.SignedString([]byte(privateKey))
	if err != nil {
		logger.Error("failed to sign delegated-trust token", logging.Err(err))
		return nil, nil
	}

	return &auth.MintedToken{AccessToken: signed, ExpiresAt: exp}, nil
}

// providerResponse is the shape of GET /provider/{name}.
type providerResponse struct {
	OAuthClientID     string `json:"oauth_client_id"`
	OAuthClientSecret string `json:"oauth_client_secret"`
	AuthURL           string `json:"auth_url"`
	TokenURL          string `json:"token_url"`
	OAuthScopes       string `json:"oauth_scopes"`
}

// GetOAuthConfig retrieves the OAuth application configuration for a service.
// Unlike the credential read path, failures here are returned: without a
// client id/secret there is nothing sensible the caller can do.
func (c *Client) GetOAuthConfig(ctx context.Context, serviceName string) (*auth.OAuthConfig, error) {
	logger := logging.WithService(c.logger, serviceName)

	if c.secretKey == "" {
		return nil, fmt.Errorf("Nango secret key is required to get OAuth config")
	}

	mapping := auth.Resolve(serviceName)
	reqURL := fmt.Sprintf("%s/provider/%s", c.host, url.PathEscape(mapping.BrokerService))
	logger.Info("fetching OAuth config", "url", reqURL)

	body, status, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get provider info for %s: %w", serviceName, err)
	}
	if status != http.StatusOK {
		logger.Error("failed to get provider info", "status", status, "body", string(body))
		return nil, fmt.Errorf("failed to get provider info for %s: status %d", serviceName, status)
	}

	var resp providerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode provider info for %s: %w", serviceName, err)
	}

	var scopes []string
	for _, s := range strings.Split(resp.OAuthScopes, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}

	return &auth.OAuthConfig{
		ClientID:     resp.OAuthClientID,
		ClientSecret: resp.OAuthClientSecret,
		AuthURL:      resp.AuthURL,
		TokenURL:     resp.TokenURL,
		Scopes:       scopes,
	}, nil
}

// SaveUserCredentials upserts credentials at the broker with a single PUT.
// Best effort: failures are logged, never returned.
func (c *Client) SaveUserCredentials(ctx context.Context, serviceName, connectionID string, credentials auth.Serializable) {
	logger := logging.WithService(c.logger, serviceName)

	if c.secretKey == "" {
		logger.Error("Nango secret key is required to save user credentials")
		return
	}

	mapping := auth.Resolve(serviceName)
	reqURL := fmt.Sprintf("%s/connection/%s/%s",
		c.host, url.PathEscape(mapping.BrokerService), url.PathEscape(connectionID))
	logger.Info("saving user credentials", "url", reqURL)

	payload, err := json.Marshal(credentials.CredentialMap())
	if err != nil {
		logger.Error("failed to serialize credentials", logging.Err(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, reqURL, bytes.NewReader(payload))
	if err != nil {
		logger.Error("failed to build save request", logging.Err(err))
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("error saving credentials", logging.Err(err), "connection_id", connectionID)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logger.Error("failed to save credentials", "connection_id", connectionID,
			"status", resp.StatusCode, "body", string(body))
		return
	}

	logger.Info("credentials saved", "connection_id", connectionID)
}

// get performs an authenticated GET and returns the body and status code.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// epochSeconds coerces the broker's expiry representation (number or RFC3339
// string) into Unix seconds. Returns 0 when absent or unparseable.
func epochSeconds(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case int64:
		return t
	case string:
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts.Unix()
		}
	}
	return 0
}
