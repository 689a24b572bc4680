package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gumloop/gumcp/internal/auth"
	"github.com/gumloop/gumcp/internal/auth/factory"
	"github.com/gumloop/gumcp/internal/auth/localstore"
)

func localConfig(t *testing.T) (factory.Config, string) {
	t.Helper()
	dir := t.TempDir()
	return factory.Config{Environment: "local", LocalDir: dir}, dir
}

func TestResolveMissingCredentialsLocalMode(t *testing.T) {
	cfg, _ := localConfig(t)

	_, err := Resolve(context.Background(), cfg, "gmail", "user-1", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCredentialsMissing)
	assert.Contains(t, err.Error(), "run 'gumcp auth gmail user-1' first")
}

func TestResolveMissingCredentialsHostedMode(t *testing.T) {
	t.Setenv("NANGO_SECRET_KEY", "")
	t.Setenv("NANGO_HOST", "")
	cfg := factory.Config{Backend: factory.BackendNango}

	_, err := Resolve(context.Background(), cfg, "gmail", "user-1", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCredentialsMissing)
	assert.NotContains(t, err.Error(), "gumcp auth")
}

func TestResolveFreshTokenPassesThrough(t *testing.T) {
	cfg, dir := localConfig(t)
	store := localstore.New(dir)
	store.SaveUserCredentials(context.Background(), "gmail", "user-1", &auth.OAuth2Credentials{
		AccessToken: "fresh-at",
		ExpiresAt:   time.Now().Add(time.Hour).Unix(),
	})

	creds, err := Resolve(context.Background(), cfg, "gmail", "user-1", "")
	require.NoError(t, err)

	oc, ok := creds.(*auth.OAuth2Credentials)
	require.True(t, ok)
	assert.Equal(t, "fresh-at", oc.AccessToken)
}

func TestResolveRefreshesExpiringToken(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "old-rt", r.Form.Get("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		// No refresh_token in the renewal response; the stored one must survive.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "new-at",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenSrv.Close()

	cfg, dir := localConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "oauth_configs"), 0o700))
	oauthCfg := fmt.Sprintf(`{"client_id": "cid", "client_secret": "csec", "token_url": %q}`, tokenSrv.URL)
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "oauth_configs", "gmail.json"), []byte(oauthCfg), 0o600))

	store := localstore.New(dir)
	store.SaveUserCredentials(context.Background(), "gmail", "user-1", &auth.OAuth2Credentials{
		AccessToken:  "old-at",
		RefreshToken: "old-rt",
		ExpiresAt:    time.Now().Add(-time.Minute).Unix(),
	})

	creds, err := Resolve(context.Background(), cfg, "gmail", "user-1", "")
	require.NoError(t, err)

	oc, ok := creds.(*auth.OAuth2Credentials)
	require.True(t, ok)
	assert.Equal(t, "new-at", oc.AccessToken)
	assert.Equal(t, "old-rt", oc.RefreshToken)
	assert.Greater(t, oc.ExpiresAt, time.Now().Unix())

	// The refreshed payload is persisted for the next resolution.
	saved, err := store.GetUserCredentials(context.Background(), "gmail", "user-1")
	require.NoError(t, err)
	savedOC, ok := saved.(*auth.OAuth2Credentials)
	require.True(t, ok)
	assert.Equal(t, "new-at", savedOC.AccessToken)
	assert.Equal(t, "old-rt", savedOC.RefreshToken)
}

func TestResolveExpiredWithoutRefreshTokenIsMissing(t *testing.T) {
	cfg, dir := localConfig(t)
	store := localstore.New(dir)
	store.SaveUserCredentials(context.Background(), "gmail", "user-1", &auth.OAuth2Credentials{
		AccessToken: "old-at",
		ExpiresAt:   time.Now().Add(-time.Minute).Unix(),
	})

	_, err := Resolve(context.Background(), cfg, "gmail", "user-1", "")
	assert.ErrorIs(t, err, ErrCredentialsMissing)
}

func TestOAuth2Token(t *testing.T) {
	tok, err := OAuth2Token(&auth.OAuth2Credentials{
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    1900000000,
	})
	require.NoError(t, err)
	assert.Equal(t, "at", tok.AccessToken)
	assert.Equal(t, "rt", tok.RefreshToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, time.Unix(1900000000, 0), tok.Expiry)

	minted, err := OAuth2Token(&auth.MintedToken{AccessToken: "jwt", ExpiresAt: 1900000000})
	require.NoError(t, err)
	assert.Equal(t, "jwt", minted.AccessToken)

	_, err = OAuth2Token(&auth.APIKeyCredentials{APIKey: "k"})
	assert.ErrorIs(t, err, ErrCredentialsMissing)
}

func TestBearerToken(t *testing.T) {
	got, err := BearerToken(&auth.OAuth2Credentials{AccessToken: "at"})
	require.NoError(t, err)
	assert.Equal(t, "at", got)

	got, err = BearerToken(&auth.MintedToken{AccessToken: "jwt"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", got)

	_, err = BearerToken(&auth.TBACredentials{})
	assert.ErrorIs(t, err, ErrCredentialsMissing)
}

func TestAPIKeyAndTBAExtraction(t *testing.T) {
	key, err := APIKey(&auth.APIKeyCredentials{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "k", key)

	_, err = APIKey(&auth.OAuth2Credentials{AccessToken: "at"})
	assert.ErrorIs(t, err, ErrCredentialsMissing)

	want := &auth.TBACredentials{ConsumerKey: "ck", ConsumerSecret: "cs", TokenID: "tid", TokenSecret: "ts"}
	got, err := TBA(want)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = TBA(&auth.APIKeyCredentials{APIKey: "k"})
	assert.ErrorIs(t, err, ErrCredentialsMissing)
}
