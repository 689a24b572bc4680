package server

import (
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namedFactory(name string) Factory {
	return func(userID, apiKey string) (*mcpserver.MCPServer, error) {
		return mcpserver.NewMCPServer(name, ConnectorVersion), nil
	}
}

func TestNewRegistrySkipsInvalidDefinitions(t *testing.T) {
	r := NewRegistry([]Definition{
		{Name: "gmail", Factory: namedFactory("gmail")},
		{Name: "", Factory: namedFactory("anonymous")},
		{Name: "broken", Factory: nil},
	}, nil)

	assert.Equal(t, 1, r.Len())
	_, ok := r.Get("gmail")
	assert.True(t, ok)
	_, ok = r.Get("broken")
	assert.False(t, ok)
}

func TestNewRegistryDuplicateLaterWins(t *testing.T) {
	first := namedFactory("first")
	second := namedFactory("second")

	r := NewRegistry([]Definition{
		{Name: "gmail", Version: "1", Factory: first},
		{Name: "gmail", Version: "2", Factory: second},
	}, nil)

	require.Equal(t, 1, r.Len())
	def, ok := r.Get("gmail")
	require.True(t, ok)
	assert.Equal(t, "2", def.Version)
}

func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry([]Definition{
		{Name: "slack", Factory: namedFactory("slack")},
		{Name: "gmail", Factory: namedFactory("gmail")},
		{Name: "netsuite", Factory: namedFactory("netsuite")},
	}, nil)

	assert.Equal(t, []string{"gmail", "netsuite", "slack"}, r.Names())
}
