package auth

import (
	"context"
)

// OAuthConfig is the provider-level OAuth application configuration needed to
// start an interactive grant flow.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURI  string
	Scopes       []string
}

// Client is the contract every credential store backend implements.
//
// Failure semantics are asymmetric on purpose:
//   - GetUserCredentials degrades to (nil, nil) on "not found", transport
//     failures, and malformed payloads alike — callers branch on nil and
//     prompt the user to authenticate, there is no separate error channel.
//   - SaveUserCredentials is best effort; failures are logged, never returned.
//   - GetOAuthConfig is the one fatal path: without a client id/secret no
//     interactive grant can start, so errors propagate.
type Client interface {
	// GetUserCredentials fetches the credential payload stored for
	// (service, connectionID). A nil Credentials with nil error means the
	// broker has no usable record.
	GetUserCredentials(ctx context.Context, serviceName, connectionID string) (Credentials, error)

	// SaveUserCredentials upserts credentials at the broker. Best effort:
	// failures are logged and swallowed.
	SaveUserCredentials(ctx context.Context, serviceName, connectionID string, credentials Serializable)

	// GetOAuthConfig fetches the OAuth application configuration for a
	// service. Errors here are fatal to the caller.
	GetOAuthConfig(ctx context.Context, serviceName string) (*OAuthConfig, error)
}
