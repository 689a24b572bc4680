// Package localstore implements the credential store client on top of plain
// JSON files, for local development and interactive enrollment.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gumloop/gumcp/internal/auth"
	"github.com/gumloop/gumcp/internal/logging"
)

// Client stores per-user credentials as JSON files under a base directory:
//
//	{dir}/credentials/{service}_{connection_id}.json
//	{dir}/oauth_configs/{service}.json
type Client struct {
	dir    string
	logger *slog.Logger
}

// New creates a file-backed credential client rooted at dir. An empty dir
// falls back to GUMCP_LOCAL_AUTH_DIR, then to ./local_auth.
func New(dir string) *Client {
	if dir == "" {
		dir = os.Getenv("GUMCP_LOCAL_AUTH_DIR")
	}
	if dir == "" {
		dir = "local_auth"
	}
	return &Client{dir: dir, logger: slog.Default()}
}

func (c *Client) credentialsPath(serviceName, connectionID string) string {
	return filepath.Join(c.dir, "credentials", fmt.Sprintf("%s_%s.json", serviceName, connectionID))
}

// GetUserCredentials reads the stored payload and decodes it per the
// service's auth type. Missing or malformed files degrade to (nil, nil),
// matching the broker-backed client's semantics.
func (c *Client) GetUserCredentials(ctx context.Context, serviceName, connectionID string) (auth.Credentials, error) {
	logger := logging.WithService(c.logger, serviceName)

	raw, err := os.ReadFile(c.credentialsPath(serviceName, connectionID))
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("no local credentials found", "connection_id", connectionID)
		} else {
			logger.Error("failed to read local credentials", logging.Err(err))
		}
		return nil, nil
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		logger.Error("failed to decode local credentials", logging.Err(err))
		return nil, nil
	}

	switch auth.Resolve(serviceName).AuthType {
	case auth.AuthTypeAPIKey:
		apiKey, _ := m["apiKey"].(string)
		if apiKey == "" {
			logger.Error("local api_key credentials missing apiKey")
			return nil, nil
		}
		return &auth.APIKeyCredentials{APIKey: apiKey}, nil
	case auth.AuthTypeTBA:
		creds := &auth.TBACredentials{}
		creds.ConsumerKey, _ = m["consumer_key"].(string)
		creds.ConsumerSecret, _ = m["consumer_secret"].(string)
		creds.TokenID, _ = m["token_id"].(string)
		creds.TokenSecret, _ = m["token_secret"].(string)
		creds.AccountID, _ = m["account_id"].(string)
		if creds.ConsumerKey == "" || creds.ConsumerSecret == "" ||
			creds.TokenID == "" || creds.TokenSecret == "" {
			logger.Error("local tba credentials incomplete")
			return nil, nil
		}
		return creds, nil
	default:
		accessToken, _ := m["access_token"].(string)
		if accessToken == "" {
			logger.Error("local oauth2 credentials missing access_token")
			return nil, nil
		}
		refreshToken, _ := m["refresh_token"].(string)
		var expiresAt int64
		if f, ok := m["expires_at"].(float64); ok {
			expiresAt = int64(f)
		}
		metadata, _ := m["metadata"].(map[string]any)
		return &auth.OAuth2Credentials{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    expiresAt,
			Metadata:     metadata,
		}, nil
	}
}

// SaveUserCredentials writes the payload to disk. Best effort: failures are
// logged, never returned.
func (c *Client) SaveUserCredentials(ctx context.Context, serviceName, connectionID string, credentials auth.Serializable) {
	logger := logging.WithService(c.logger, serviceName)

	path := c.credentialsPath(serviceName, connectionID)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		logger.Error("failed to create credentials directory", logging.Err(err))
		return
	}

	raw, err := json.MarshalIndent(credentials.CredentialMap(), "", "  ")
	if err != nil {
		logger.Error("failed to serialize credentials", logging.Err(err))
		return
	}

	if err := os.WriteFile(path, raw, 0o600); err != nil {
		logger.Error("failed to write local credentials", logging.Err(err))
		return
	}
	logger.Info("credentials saved", "connection_id", connectionID, "path", path)
}

// GetOAuthConfig reads the per-service OAuth application configuration from
// {dir}/oauth_configs/{service}.json. Missing configuration is fatal: no
// interactive grant can start without a client id and secret.
func (c *Client) GetOAuthConfig(ctx context.Context, serviceName string) (*auth.OAuthConfig, error) {
	path := filepath.Join(c.dir, "oauth_configs", serviceName+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no OAuth config for %s at %s: %w", serviceName, path, err)
	}

	var cfg struct {
		ClientID     string   `json:"client_id"`
		ClientSecret string   `json:"client_secret"`
		AuthURL      string   `json:"auth_url"`
		TokenURL     string   `json:"token_url"`
		RedirectURI  string   `json:"redirect_uri"`
		Scopes       []string `json:"scopes"`
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid OAuth config for %s: %w", serviceName, err)
	}

	return &auth.OAuthConfig{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		AuthURL:      cfg.AuthURL,
		TokenURL:     cfg.TokenURL,
		RedirectURI:  cfg.RedirectURI,
		Scopes:       cfg.Scopes,
	}, nil
}
