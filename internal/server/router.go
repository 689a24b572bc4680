package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gumloop/gumcp/internal/instrumentation"
	"github.com/gumloop/gumcp/internal/logging"
)

// SessionKey identifies the caller for exactly one request.
type SessionKey struct {
	UserID string
	APIKey string
}

// ParseSessionKey splits a path segment into user id and optional API key.
// The first colon is the sole delimiter; an API key containing colons is
// taken verbatim as everything after it.
func ParseSessionKey(encoded string) SessionKey {
	userID, apiKey, _ := strings.Cut(encoded, ":")
	return SessionKey{UserID: userID, APIKey: apiKey}
}

// Router is the stateless multi-tenant session router. Every inbound tool
// request gets a brand-new connector server instance bound to the session key
// parsed from the path; nothing built for one request survives into the next.
// The only process-wide state it touches is the read-only registry.
type Router struct {
	registry *Registry
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithMetrics attaches a metrics recorder for session-construction counters.
func WithMetrics(m *instrumentation.Metrics) RouterOption {
	return func(r *Router) { r.metrics = m }
}

// WithRouterLogger overrides the default logger.
func WithRouterLogger(l *slog.Logger) RouterOption {
	return func(r *Router) { r.logger = l }
}

// NewRouter creates a session router over a built registry.
func NewRouter(registry *Registry, opts ...RouterOption) *Router {
	r := &Router{
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// statusResponse is the JSON body of the root and health endpoints.
type statusResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message,omitempty"`
	Servers []string `json:"servers"`
	Mode    string   `json:"mode"`
}

// Handler returns the HTTP handler serving /{service}/{session_key} plus the
// root and health endpoints.
func (r *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health_check", r.handleHealth)
	mux.HandleFunc("/{$}", r.handleRoot)
	mux.HandleFunc("/", r.handleSession)
	return mux
}

func (r *Router) handleRoot(w http.ResponseWriter, _ *http.Request) {
	r.writeStatus(w, statusResponse{
		Status:  "ok",
		Message: "gumcp stateless server running",
		Servers: r.registry.Names(),
		Mode:    "stateless",
	})
}

func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	r.writeStatus(w, statusResponse{
		Status:  "ok",
		Servers: r.registry.Names(),
		Mode:    "stateless",
	})
}

func (r *Router) writeStatus(w http.ResponseWriter, resp statusResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// handleSession serves one tool-protocol request. A fresh connector server is
// constructed for the parsed session, wrapped in a stateless streamable HTTP
// transport, used once, and discarded.
func (r *Router) handleSession(w http.ResponseWriter, req *http.Request) {
	parts := strings.SplitN(strings.Trim(req.URL.Path, "/"), "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		http.NotFound(w, req)
		return
	}
	serviceName := parts[0]
	session := ParseSessionKey(parts[1])

	def, ok := r.registry.Get(serviceName)
	if !ok {
		r.logger.Info("unknown connector requested", logging.Service(serviceName))
		http.NotFound(w, req)
		return
	}

	logger := logging.WithService(r.logger, serviceName)
	logger.Info("creating stateless server for session", logging.UserHash(session.UserID))

	srv, err := def.Factory(session.UserID, session.APIKey)
	if err != nil {
		logger.Error("failed to construct connector server", logging.Err(err))
		http.Error(w, "failed to construct connector server", http.StatusInternalServerError)
		return
	}

	if r.metrics != nil {
		r.metrics.RecordSessionConstruction(req.Context(), serviceName)
	}

	httpSrv := mcpserver.NewStreamableHTTPServer(srv,
		mcpserver.WithStateLess(true),
	)
	httpSrv.ServeHTTP(w, req)
}
