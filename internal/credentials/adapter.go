// Package credentials normalizes broker credential payloads into the shapes
// vendor SDKs expect, and owns the "credentials missing" user experience.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"github.com/gumloop/gumcp/internal/auth"
	"github.com/gumloop/gumcp/internal/auth/factory"
	"github.com/gumloop/gumcp/internal/logging"
)

// ErrCredentialsMissing marks any failure to obtain usable credentials for a
// (service, user) pair, including unrecognized payload shapes. Match with
// errors.Is.
var ErrCredentialsMissing = errors.New("credentials not found")

// refreshWindow is how long before expiry a token is refreshed proactively.
const refreshWindow = 5 * time.Minute

// missingError builds the user-facing error. The remediation text differs by
// deployment mode: local operators can run the interactive auth flow, hosted
// deployments cannot.
func missingError(cfg factory.Config, serviceName, userID string) error {
	if cfg.IsLocal() {
		return fmt.Errorf("%w for user %s on %s; run 'gumcp auth %s %s' first",
			ErrCredentialsMissing, userID, serviceName, serviceName, userID)
	}
	return fmt.Errorf("%w for user %s on %s", ErrCredentialsMissing, userID, serviceName)
}

// Resolve obtains the credential payload for one (service, user) pair. A nil
// store result becomes ErrCredentialsMissing with deployment-mode remediation
// text. In local mode, expiring oauth2 tokens are refreshed and persisted
// before being returned; hosted backends refresh server-side.
func Resolve(ctx context.Context, cfg factory.Config, serviceName, userID, apiKey string) (auth.Credentials, error) {
	client := factory.New(cfg.WithAPIKey(apiKey))

	creds, err := client.GetUserCredentials(ctx, serviceName, userID)
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, missingError(cfg, serviceName, userID)
	}

	if oc, ok := creds.(*auth.OAuth2Credentials); ok && cfg.IsLocal() {
		refreshed, err := refreshIfNeeded(ctx, client, cfg, serviceName, userID, oc)
		if err != nil {
			return nil, err
		}
		return refreshed, nil
	}

	return creds, nil
}

// refreshIfNeeded exchanges the refresh token for a new access token when the
// stored one is expired or inside the refresh window, then persists the
// updated payload. Tokens without an expiry are returned as-is.
func refreshIfNeeded(ctx context.Context, client auth.Client, cfg factory.Config, serviceName, userID string, creds *auth.OAuth2Credentials) (*auth.OAuth2Credentials, error) {
	if creds.ExpiresAt == 0 || time.Now().Unix() <= creds.ExpiresAt-int64(refreshWindow.Seconds()) {
		return creds, nil
	}
	if creds.RefreshToken == "" {
		return nil, missingError(cfg, serviceName, userID)
	}

	oauthCfg, err := client.GetOAuthConfig(ctx, serviceName)
	if err != nil {
		return nil, fmt.Errorf("cannot refresh %s token: %w", serviceName, err)
	}

	conf := &oauth2.Config{
		ClientID:     oauthCfg.ClientID,
		ClientSecret: oauthCfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{AuthURL: oauthCfg.AuthURL, TokenURL: oauthCfg.TokenURL},
	}

	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken}).Token()
	if err != nil {
		slog.Default().Error("token refresh failed", logging.Service(serviceName),
			logging.UserHash(userID), logging.Err(err))
		return nil, missingError(cfg, serviceName, userID)
	}

	refreshed := &auth.OAuth2Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry.Unix(),
		Metadata:     creds.Metadata,
	}
	// Some providers omit the refresh token on renewal; keep the old one.
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = creds.RefreshToken
	}

	client.SaveUserCredentials(ctx, serviceName, userID, refreshed)
	return refreshed, nil
}

// OAuth2Token converts a payload into the oauth2 token object Google-style
// SDKs consume. Minted delegated-trust tokens qualify too: they are bearer
// tokens with an expiry. Any other shape is a missing-credentials condition.
func OAuth2Token(creds auth.Credentials) (*oauth2.Token, error) {
	switch c := creds.(type) {
	case *auth.OAuth2Credentials:
		tok := &oauth2.Token{AccessToken: c.AccessToken, RefreshToken: c.RefreshToken, TokenType: "Bearer"}
		if c.ExpiresAt > 0 {
			tok.Expiry = time.Unix(c.ExpiresAt, 0)
		}
		return tok, nil
	case *auth.MintedToken:
		return &oauth2.Token{AccessToken: c.AccessToken, TokenType: "Bearer", Expiry: time.Unix(c.ExpiresAt, 0)}, nil
	default:
		return nil, fmt.Errorf("%w: payload is not an oauth2 credential", ErrCredentialsMissing)
	}
}

// BearerToken extracts a bearer string from oauth2 or minted payloads.
func BearerToken(creds auth.Credentials) (string, error) {
	switch c := creds.(type) {
	case *auth.OAuth2Credentials:
		return c.AccessToken, nil
	case *auth.MintedToken:
		return c.AccessToken, nil
	default:
		return "", fmt.Errorf("%w: payload is not a bearer credential", ErrCredentialsMissing)
	}
}

// APIKey extracts a raw API key.
func APIKey(creds auth.Credentials) (string, error) {
	c, ok := creds.(*auth.APIKeyCredentials)
	if !ok {
		return "", fmt.Errorf("%w: payload is not an API key", ErrCredentialsMissing)
	}
	return c.APIKey, nil
}

// TBA extracts token-based-access signing material.
func TBA(creds auth.Credentials) (*auth.TBACredentials, error) {
	c, ok := creds.(*auth.TBACredentials)
	if !ok {
		return nil, fmt.Errorf("%w: payload is not a token-based-access credential", ErrCredentialsMissing)
	}
	return c, nil
}
