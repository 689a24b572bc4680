package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gumloop/gumcp/internal/auth/localstore"
	"github.com/gumloop/gumcp/internal/auth/nango"
	"github.com/gumloop/gumcp/internal/auth/platform"
)

func TestBackendSelectionFromEnvironment(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		wantLocal   bool
	}{
		{name: "nango environment", environment: "nango"},
		{name: "gumloop environment", environment: "gumloop"},
		{name: "mixed case environment", environment: "NANGO"},
		{name: "local environment", environment: "local", wantLocal: true},
		{name: "empty environment defaults to local", environment: "", wantLocal: true},
		{name: "unrecognized environment defaults to local", environment: "staging", wantLocal: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Environment: tt.environment}
			assert.Equal(t, tt.wantLocal, cfg.IsLocal())
		})
	}
}

func TestExplicitBackendOverridesEnvironment(t *testing.T) {
	cfg := Config{Backend: BackendLocal, Environment: "nango"}
	assert.True(t, cfg.IsLocal())

	cfg = Config{Backend: BackendNango, Environment: "local"}
	assert.False(t, cfg.IsLocal())
}

func TestNewConstructsMatchingClient(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want interface{}
	}{
		{
			name: "nango backend",
			cfg:  Config{Environment: "nango", NangoSecretKey: "secret"},
			want: &nango.Client{},
		},
		{
			name: "platform backend",
			cfg:  Config{Environment: "gumloop", APIKey: "key"},
			want: &platform.Client{},
		},
		{
			name: "local backend",
			cfg:  Config{Environment: "local", LocalDir: t.TempDir()},
			want: &localstore.Client{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := New(tt.cfg)
			require.NotNil(t, client)
			assert.IsType(t, tt.want, client)
		})
	}
}

func TestWithAPIKeyDoesNotMutateOriginal(t *testing.T) {
	cfg := Config{Environment: "gumloop"}
	scoped := cfg.WithAPIKey("request-key")

	assert.Equal(t, "request-key", scoped.APIKey)
	assert.Empty(t, cfg.APIKey)
}
