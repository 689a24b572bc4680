package auth

// AuthType identifies how a service authenticates against its vendor API.
type AuthType string

const (
	// AuthTypeOAuth2 is the default: access/refresh token pairs held by the broker.
	AuthTypeOAuth2 AuthType = "oauth2"

	// AuthTypeAPIKey is a single static key held by the broker.
	AuthTypeAPIKey AuthType = "api_key"

	// AuthTypeTBA is NetSuite-style token-based access: OAuth 1.0a request
	// signing with consumer and token key pairs.
	AuthTypeTBA AuthType = "tba"

	// AuthTypeDelegated mints a short-lived JWT from broker-held tenant
	// metadata (tenant id, private key, upstream access token). The broker
	// calls this mode "unauthenticated" but it is delegated-trust signing.
	AuthTypeDelegated AuthType = "unauthenticated"
)

// Serializable is implemented by any value that can be written to the
// credential broker as a flat JSON object.
type Serializable interface {
	CredentialMap() map[string]any
}

// CredentialMap is a raw credential bag. It satisfies Serializable by
// returning itself, so ad-hoc maps can be saved without conversion.
type CredentialMap map[string]any

// CredentialMap implements Serializable.
func (m CredentialMap) CredentialMap() map[string]any { return m }

// Credentials is the tagged union of payload shapes a credential store can
// return. Adapters type-switch on the concrete type instead of probing a map
// for well-known keys.
type Credentials interface {
	Serializable
	// Type reports which auth mode produced this payload.
	Type() AuthType
}

// OAuth2Credentials is the oauth2 variant. Metadata carries provider-specific
// side data the broker stores next to the connection (e.g. a GCP project id);
// it is merged in by the store client, it is not part of the token itself.
type OAuth2Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
	Metadata     map[string]any
}

// Type implements Credentials.
func (c *OAuth2Credentials) Type() AuthType { return AuthTypeOAuth2 }

// CredentialMap implements Serializable.
func (c *OAuth2Credentials) CredentialMap() map[string]any {
	m := map[string]any{
		"access_token": c.AccessToken,
	}
	if c.RefreshToken != "" {
		m["refresh_token"] = c.RefreshToken
	}
	if c.ExpiresAt != 0 {
		m["expires_at"] = c.ExpiresAt
	}
	if len(c.Metadata) > 0 {
		m["metadata"] = c.Metadata
	}
	return m
}

// APIKeyCredentials is the api_key variant.
type APIKeyCredentials struct {
	APIKey string
}

// Type implements Credentials.
func (c *APIKeyCredentials) Type() AuthType { return AuthTypeAPIKey }

// CredentialMap implements Serializable.
func (c *APIKeyCredentials) CredentialMap() map[string]any {
	return map[string]any{"apiKey": c.APIKey}
}

// TBACredentials is the token-based-access variant used for OAuth 1.0a
// request signing.
type TBACredentials struct {
	ConsumerKey    string
	ConsumerSecret string
	TokenID        string
	TokenSecret    string
	AccountID      string
}

// Type implements Credentials.
func (c *TBACredentials) Type() AuthType { return AuthTypeTBA }

// CredentialMap implements Serializable.
func (c *TBACredentials) CredentialMap() map[string]any {
	return map[string]any{
		"consumer_key":    c.ConsumerKey,
		"consumer_secret": c.ConsumerSecret,
		"token_id":        c.TokenID,
		"token_secret":    c.TokenSecret,
		"account_id":      c.AccountID,
	}
}

// MintedToken is the delegated-trust variant: a locally signed, time-boxed
// JWT. It is ephemeral and owned by the requesting process; the broker never
// sees it.
type MintedToken struct {
	AccessToken string
	ExpiresAt   int64
}

// Type implements Credentials.
func (c *MintedToken) Type() AuthType { return AuthTypeDelegated }

// CredentialMap implements Serializable.
func (c *MintedToken) CredentialMap() map[string]any {
	return map[string]any{
		"access_token": c.AccessToken,
		"expires_at":   c.ExpiresAt,
	}
}
