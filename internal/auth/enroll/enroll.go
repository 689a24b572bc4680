// Package enroll implements the interactive credential enrollment flow for
// local deployments. It walks whichever ceremony the service's auth type
// requires and persists the outcome through the configured credential store.
package enroll

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/gumloop/gumcp/internal/auth"
	"github.com/gumloop/gumcp/internal/logging"
)

// DefaultCallbackAddr is where the temporary OAuth callback server listens.
const DefaultCallbackAddr = "localhost:8765"

// Flow drives one enrollment.
type Flow struct {
	client       auth.Client
	logger       *slog.Logger
	callbackAddr string
	input        *bufio.Reader
	output       io.Writer
	openBrowser  func(url string) error
}

// Option customizes a Flow.
type Option func(*Flow)

// WithCallbackAddr overrides the OAuth callback listen address.
func WithCallbackAddr(addr string) Option {
	return func(f *Flow) { f.callbackAddr = addr }
}

// WithPrompt redirects the interactive prompt streams, mainly for tests.
func WithPrompt(in io.Reader, out io.Writer) Option {
	return func(f *Flow) {
		f.input = bufio.NewReader(in)
		f.output = out
	}
}

// WithBrowserOpener overrides how the authorization URL is opened.
func WithBrowserOpener(open func(url string) error) Option {
	return func(f *Flow) { f.openBrowser = open }
}

// New creates an enrollment flow over a credential store.
func New(client auth.Client, opts ...Option) *Flow {
	f := &Flow{
		client:       client,
		logger:       slog.Default(),
		callbackAddr: DefaultCallbackAddr,
		input:        bufio.NewReader(os.Stdin),
		output:       os.Stdout,
		openBrowser:  openBrowser,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run enrolls one (service, user) pair. The ceremony depends on the
// service's auth type: a browser round trip for oauth2, prompted secrets for
// api_key and tba, and a broker mint check for delegated trust.
func (f *Flow) Run(ctx context.Context, serviceName, userID string) error {
	mapping := auth.Resolve(serviceName)
	logger := logging.WithService(f.logger, serviceName)

	switch mapping.AuthType {
	case auth.AuthTypeOAuth2:
		return f.runOAuth2(ctx, serviceName, userID, logger)
	case auth.AuthTypeAPIKey:
		return f.runAPIKey(ctx, serviceName, userID)
	case auth.AuthTypeTBA:
		return f.runTBA(ctx, serviceName, userID)
	case auth.AuthTypeDelegated:
		return f.verifyDelegated(ctx, serviceName, userID)
	default:
		return fmt.Errorf("unsupported auth type %q for %s", mapping.AuthType, serviceName)
	}
}

// runOAuth2 performs the authorization-code flow against the service's
// provider using a short-lived local callback server.
func (f *Flow) runOAuth2(ctx context.Context, serviceName, userID string, logger *slog.Logger) error {
	oauthCfg, err := f.client.GetOAuthConfig(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("no oauth config for %s: %w", serviceName, err)
	}

	redirectURI := oauthCfg.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://" + f.callbackAddr + "/callback"
	}

	conf := &oauth2.Config{
		ClientID:     oauthCfg.ClientID,
		ClientSecret: oauthCfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{AuthURL: oauthCfg.AuthURL, TokenURL: oauthCfg.TokenURL},
		RedirectURL:  redirectURI,
		Scopes:       oauthCfg.Scopes,
	}

	state, err := randomState()
	if err != nil {
		return err
	}

	code, err := f.waitForCode(ctx, conf, state)
	if err != nil {
		return err
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	creds := &auth.OAuth2Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry.Unix(),
	}
	f.client.SaveUserCredentials(ctx, serviceName, userID, creds)

	logger.Info("enrollment complete", logging.UserHash(userID))
	fmt.Fprintf(f.output, "Credentials stored for %s.\n", serviceName)
	return nil
}

// waitForCode serves the callback endpoint until the provider redirects back
// with an authorization code, a timeout fires, or the context is canceled.
func (f *Flow) waitForCode(ctx context.Context, conf *oauth2.Config, state string) (string, error) {
	listener, err := net.Listen("tcp", f.callbackAddr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", f.callbackAddr, err)
	}

	type outcome struct {
		code string
		err  error
	}
	results := make(chan outcome, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			results <- outcome{err: fmt.Errorf("oauth state mismatch")}
			return
		}
		if errMsg := q.Get("error"); errMsg != "" {
			http.Error(w, errMsg, http.StatusBadRequest)
			results <- outcome{err: fmt.Errorf("authorization denied: %s", errMsg)}
			return
		}
		fmt.Fprintln(w, "Authorization complete. You can close this window.")
		results <- outcome{code: q.Get("code")}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(listener) }()
	defer srv.Close()

	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(f.output, "Opening browser for authorization:\n  %s\n", authURL)
	if err := f.openBrowser(authURL); err != nil {
		fmt.Fprintln(f.output, "Could not open a browser; visit the URL above manually.")
	}

	select {
	case res := <-results:
		return res.code, res.err
	case <-time.After(5 * time.Minute):
		return "", fmt.Errorf("timed out waiting for authorization")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (f *Flow) runAPIKey(ctx context.Context, serviceName, userID string) error {
	key, err := f.prompt(fmt.Sprintf("Enter API key for %s: ", serviceName))
	if err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("api key must not be empty")
	}
	f.client.SaveUserCredentials(ctx, serviceName, userID, &auth.APIKeyCredentials{APIKey: key})
	fmt.Fprintf(f.output, "API key stored for %s.\n", serviceName)
	return nil
}

func (f *Flow) runTBA(ctx context.Context, serviceName, userID string) error {
	creds := &auth.TBACredentials{}
	fields := []struct {
		label string
		dst   *string
	}{
		{"consumer key", &creds.ConsumerKey},
		{"consumer secret", &creds.ConsumerSecret},
		{"token id", &creds.TokenID},
		{"token secret", &creds.TokenSecret},
		{"account id", &creds.AccountID},
	}
	for _, field := range fields {
		value, err := f.prompt(fmt.Sprintf("Enter %s for %s: ", field.label, serviceName))
		if err != nil {
			return err
		}
		if value == "" {
			return fmt.Errorf("%s must not be empty", field.label)
		}
		*field.dst = value
	}
	f.client.SaveUserCredentials(ctx, serviceName, userID, creds)
	fmt.Fprintf(f.output, "Token-based access material stored for %s.\n", serviceName)
	return nil
}

// verifyDelegated confirms the broker can mint a token for the pair; there
// is nothing to store locally for delegated trust services.
func (f *Flow) verifyDelegated(ctx context.Context, serviceName, userID string) error {
	creds, err := f.client.GetUserCredentials(ctx, serviceName, userID)
	if err != nil {
		return err
	}
	if creds == nil {
		return fmt.Errorf("the credential broker holds no delegated trust material for %s; enroll the connection there first", serviceName)
	}
	fmt.Fprintf(f.output, "Delegated trust verified for %s; tokens are minted per session.\n", serviceName)
	return nil
}

func (f *Flow) prompt(label string) (string, error) {
	fmt.Fprint(f.output, label)
	line, err := f.input.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
