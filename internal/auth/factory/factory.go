// Package factory selects a credential store backend from deployment
// configuration. The discriminator is resolved once at startup and passed
// down; backends are constructed per call and hold no shared mutable state,
// so the factory is safe to invoke on every request.
package factory

import (
	"os"
	"strings"

	"github.com/gumloop/gumcp/internal/auth"
	"github.com/gumloop/gumcp/internal/auth/localstore"
	"github.com/gumloop/gumcp/internal/auth/nango"
	"github.com/gumloop/gumcp/internal/auth/platform"
)

// Backend names a credential store implementation.
type Backend string

const (
	// BackendLocal stores credentials in JSON files on disk. Default when
	// no environment discriminator is set.
	BackendLocal Backend = "local"

	// BackendNango uses the Nango connection broker.
	BackendNango Backend = "nango"

	// BackendPlatform uses the Gumloop platform API, authenticated with the
	// caller's API key.
	BackendPlatform Backend = "gumloop"
)

// Config carries everything the factory needs. Backend, when set, is an
// explicit override that always wins; otherwise Environment decides.
type Config struct {
	Backend     Backend
	Environment string

	// APIKey is the caller's platform API key (platform backend only).
	APIKey string

	// Nango backend configuration. Empty values fall back to the
	// NANGO_SECRET_KEY / NANGO_HOST environment variables inside the client.
	NangoSecretKey string
	NangoHost      string

	// LocalDir is the base directory for the file-backed store.
	LocalDir string
}

// FromEnv builds a Config from process environment, mirroring how the server
// is deployed: ENVIRONMENT selects the backend, broker secrets ride along.
func FromEnv() Config {
	return Config{
		Environment:    strings.ToLower(os.Getenv("ENVIRONMENT")),
		NangoSecretKey: os.Getenv("NANGO_SECRET_KEY"),
		NangoHost:      os.Getenv("NANGO_HOST"),
		LocalDir:       os.Getenv("GUMCP_LOCAL_AUTH_DIR"),
	}
}

// WithAPIKey returns a copy of the config carrying a request-scoped API key.
func (c Config) WithAPIKey(apiKey string) Config {
	c.APIKey = apiKey
	return c
}

// IsLocal reports whether this deployment runs in local/interactive mode,
// which changes the remediation text of missing-credential errors.
func (c Config) IsLocal() bool {
	return c.resolveBackend() == BackendLocal
}

func (c Config) resolveBackend() Backend {
	if c.Backend != "" {
		return c.Backend
	}
	switch strings.ToLower(c.Environment) {
	case string(BackendNango):
		return BackendNango
	case string(BackendPlatform):
		return BackendPlatform
	default:
		return BackendLocal
	}
}

// New constructs the credential store client the config selects. An explicit
// Backend always wins over the environment discriminator.
func New(cfg Config) auth.Client {
	switch cfg.resolveBackend() {
	case BackendNango:
		return nango.New(cfg.NangoSecretKey, cfg.NangoHost)
	case BackendPlatform:
		return platform.New(cfg.APIKey, "")
	default:
		return localstore.New(cfg.LocalDir)
	}
}
