package connectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gumloop/gumcp/internal/auth/factory"
)

func TestDefinitionsAreWellFormed(t *testing.T) {
	defs := Definitions(factory.Config{Environment: "local"}, nil)
	require.NotEmpty(t, defs)

	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		assert.NotEmpty(t, def.Name)
		assert.NotNil(t, def.Factory, def.Name)
		assert.False(t, seen[def.Name], "duplicate connector name %q", def.Name)
		seen[def.Name] = true
	}
}

func TestFactoriesBuildIsolatedServers(t *testing.T) {
	defs := Definitions(factory.Config{Environment: "local"}, nil)

	for _, def := range defs {
		first, err := def.Factory("user-1", "")
		require.NoError(t, err, def.Name)
		second, err := def.Factory("user-1", "")
		require.NoError(t, err, def.Name)
		assert.NotSame(t, first, second, def.Name)
	}
}
