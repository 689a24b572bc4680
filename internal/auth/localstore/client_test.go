package localstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gumloop/gumcp/internal/auth"
)

func TestGetUserCredentialsMissingFileIsNil(t *testing.T) {
	client := New(t.TempDir())

	creds, err := client.GetUserCredentials(context.Background(), "gmail", "user-1")
	assert.NoError(t, err)
	assert.Nil(t, creds)
}

func TestOAuth2RoundTrip(t *testing.T) {
	client := New(t.TempDir())
	saved := &auth.OAuth2Credentials{
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    1900000000,
		Metadata:     map[string]any{"projectId": "proj-1"},
	}

	client.SaveUserCredentials(context.Background(), "gmail", "user-1", saved)

	creds, err := client.GetUserCredentials(context.Background(), "gmail", "user-1")
	require.NoError(t, err)
	require.NotNil(t, creds)

	oc, ok := creds.(*auth.OAuth2Credentials)
	require.True(t, ok)
	assert.Equal(t, saved.AccessToken, oc.AccessToken)
	assert.Equal(t, saved.RefreshToken, oc.RefreshToken)
	assert.Equal(t, saved.ExpiresAt, oc.ExpiresAt)
	assert.Equal(t, "proj-1", oc.Metadata["projectId"])
}

func TestAPIKeyRoundTrip(t *testing.T) {
	client := New(t.TempDir())

	client.SaveUserCredentials(context.Background(), "tldv", "user-1",
		&auth.APIKeyCredentials{APIKey: "key-123"})

	creds, err := client.GetUserCredentials(context.Background(), "tldv", "user-1")
	require.NoError(t, err)
	require.NotNil(t, creds)

	ak, ok := creds.(*auth.APIKeyCredentials)
	require.True(t, ok)
	assert.Equal(t, "key-123", ak.APIKey)
}

func TestTBARoundTrip(t *testing.T) {
	client := New(t.TempDir())
	saved := &auth.TBACredentials{
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		TokenID:        "tid",
		TokenSecret:    "ts",
		AccountID:      "1234567",
	}

	client.SaveUserCredentials(context.Background(), "netsuite", "user-1", saved)

	creds, err := client.GetUserCredentials(context.Background(), "netsuite", "user-1")
	require.NoError(t, err)
	require.NotNil(t, creds)

	tba, ok := creds.(*auth.TBACredentials)
	require.True(t, ok)
	assert.Equal(t, saved, tba)
}

func TestIncompleteTBAIsNil(t *testing.T) {
	client := New(t.TempDir())
	client.SaveUserCredentials(context.Background(), "netsuite", "user-1",
		auth.CredentialMap{"consumer_key": "ck"})

	creds, err := client.GetUserCredentials(context.Background(), "netsuite", "user-1")
	assert.NoError(t, err)
	assert.Nil(t, creds)
}

func TestMalformedFileIsNil(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "credentials"), 0o700))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "credentials", "gmail_user-1.json"), []byte("{not json"), 0o600))

	client := New(dir)
	creds, err := client.GetUserCredentials(context.Background(), "gmail", "user-1")
	assert.NoError(t, err)
	assert.Nil(t, creds)
}

func TestCredentialFilePermissions(t *testing.T) {
	dir := t.TempDir()
	client := New(dir)
	client.SaveUserCredentials(context.Background(), "gmail", "user-1",
		&auth.OAuth2Credentials{AccessToken: "at"})

	info, err := os.Stat(filepath.Join(dir, "credentials", "gmail_user-1.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestGetOAuthConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "oauth_configs"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "oauth_configs", "gmail.json"), []byte(`{
		"client_id": "cid",
		"client_secret": "csec",
		"auth_url": "https://example.com/auth",
		"token_url": "https://example.com/token",
		"scopes": ["a", "b"]
	}`), 0o600))

	client := New(dir)

	cfg, err := client.GetOAuthConfig(context.Background(), "gmail")
	require.NoError(t, err)
	assert.Equal(t, "cid", cfg.ClientID)
	assert.Equal(t, []string{"a", "b"}, cfg.Scopes)

	_, err = client.GetOAuthConfig(context.Background(), "slack")
	assert.Error(t, err)
}
