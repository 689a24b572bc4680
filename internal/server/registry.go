package server

import (
	"log/slog"
	"sort"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ConnectorVersion is reported by every connector through the MCP initialize
// handshake.
const ConnectorVersion = "0.1.0"

// Factory builds a fresh MCP server bound to one (user, api key) session.
// The returned server is used for exactly one request and then discarded.
type Factory func(userID, apiKey string) (*mcpserver.MCPServer, error)

// Definition describes one connector for registration.
type Definition struct {
	// Name is the logical service name, used as the first path segment.
	Name string

	// Version is reported through the MCP initialize handshake.
	Version string

	// Factory builds the per-session server.
	Factory Factory
}

// Registry is the process-wide connector table. It is populated once at
// startup from a static list and read-only thereafter; request handling
// never mutates it.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry builds a registry from a static definition list. Entries with
// a missing name or factory are skipped with a warning rather than aborting
// startup; a duplicate name is a hard mistake in the registration table and
// the later entry wins with a warning.
func NewRegistry(defs []Definition, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, def := range defs {
		if def.Name == "" || def.Factory == nil {
			logger.Warn("skipping connector with missing name or factory", "name", def.Name)
			continue
		}
		if _, exists := r.defs[def.Name]; exists {
			logger.Warn("duplicate connector registration, overriding", "name", def.Name)
		}
		r.defs[def.Name] = def
		logger.Info("registered connector", "name", def.Name)
	}
	logger.Info("connector registry built", "count", len(r.defs))
	return r
}

// Get looks up a connector definition by service name.
func (r *Registry) Get(name string) (Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Names returns the registered service names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered connectors.
func (r *Registry) Len() int {
	return len(r.defs)
}
