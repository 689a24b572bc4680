// Package common holds the per-session plumbing shared by all connector tool
// packages: credential resolution, tool instrumentation, and result helpers.
package common

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gumloop/gumcp/internal/auth"
	"github.com/gumloop/gumcp/internal/auth/factory"
	"github.com/gumloop/gumcp/internal/credentials"
	"github.com/gumloop/gumcp/internal/instrumentation"
	"github.com/gumloop/gumcp/internal/logging"
)

// HandlerFunc is the mcp-go tool handler signature.
type HandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Session carries the identity one connector server instance is bound to.
// A Session lives for exactly one request; connector factories build a fresh
// one per inbound session and never share it.
type Session struct {
	Service string
	UserID  string
	APIKey  string
	Config  factory.Config
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// NewSession builds the session context for one connector request.
func NewSession(service, userID, apiKey string, cfg factory.Config, metrics *instrumentation.Metrics) *Session {
	return &Session{
		Service: service,
		UserID:  userID,
		APIKey:  apiKey,
		Config:  cfg,
		Metrics: metrics,
		Logger:  logging.WithService(slog.Default(), service),
	}
}

// Credentials resolves the session's credential payload from the configured
// backend, recording fetch metrics.
func (s *Session) Credentials(ctx context.Context) (auth.Credentials, error) {
	start := time.Now()
	creds, err := credentials.Resolve(ctx, s.Config, s.Service, s.UserID, s.APIKey)
	if s.Metrics != nil {
		status := instrumentation.StatusSuccess
		authType := ""
		if err != nil {
			status = "missing"
			if !errors.Is(err, credentials.ErrCredentialsMissing) {
				status = instrumentation.StatusError
			}
		} else {
			authType = string(creds.Type())
		}
		s.Metrics.RecordCredentialFetch(ctx, s.Service, authType, status, time.Since(start))
	}
	return creds, err
}

// Instrumented wraps a tool handler with invocation metrics and logging.
// A handler error or an IsError result both count as errors.
func (s *Session) Instrumented(toolName string, handler HandlerFunc) HandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
		}

		if s.Metrics != nil {
			s.Metrics.RecordToolInvocation(ctx, toolName, status, duration)
		}
		s.Logger.Info("tool invoked",
			logging.Tool(toolName),
			logging.UserHash(s.UserID),
			logging.Status(status),
			slog.Duration("duration", duration),
			logging.Err(err),
		)

		return result, err
	}
}

// ErrorResult converts an error into a structured tool error result. MCP
// tool failures travel inside the result, not as protocol errors, so the
// model can read and react to them.
func ErrorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}
