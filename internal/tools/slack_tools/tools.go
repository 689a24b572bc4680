// Package slack_tools exposes the slack connector's MCP tools.
package slack_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gumloop/gumcp/internal/auth/factory"
	"github.com/gumloop/gumcp/internal/credentials"
	"github.com/gumloop/gumcp/internal/instrumentation"
	"github.com/gumloop/gumcp/internal/server"
	"github.com/gumloop/gumcp/internal/slack"
	"github.com/gumloop/gumcp/internal/tools/common"
)

// ServiceName is the path segment this connector is mounted under.
const ServiceName = "slack"

// Definition returns the connector registration entry. The slack client and
// its channel-name cache are built once per session inside the factory, so
// the cache never leaks between tenants.
func Definition(cfg factory.Config, metrics *instrumentation.Metrics) server.Definition {
	return server.Definition{
		Name:    ServiceName,
		Version: server.ConnectorVersion,
		Factory: func(userID, apiKey string) (*mcpserver.MCPServer, error) {
			srv := mcpserver.NewMCPServer("gumcp-slack", server.ConnectorVersion,
				mcpserver.WithToolCapabilities(true))
			sess := common.NewSession(ServiceName, userID, apiKey, cfg, metrics)
			registerTools(srv, sess, &lazyClient{sess: sess})
			return srv, nil
		},
	}
}

// lazyClient defers credential resolution to the first tool call while still
// sharing one client (and so one channel cache) across the calls of a single
// session.
type lazyClient struct {
	sess   *common.Session
	client *slack.Client
}

func (l *lazyClient) get(ctx context.Context) (*slack.Client, error) {
	if l.client != nil {
		return l.client, nil
	}
	creds, err := l.sess.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	token, err := credentials.BearerToken(creds)
	if err != nil {
		return nil, err
	}
	l.client = slack.NewClient(token)
	return l.client, nil
}

func registerTools(s *mcpserver.MCPServer, sess *common.Session, lc *lazyClient) {
	listTool := mcp.NewTool("list_channels",
		mcp.WithDescription("List the workspace's channels"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of channels to return (default: 100)"),
		),
	)
	s.AddTool(listTool, sess.Instrumented("list_channels", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListChannels(ctx, request, lc)
	}))

	postTool := mcp.NewTool("post_message",
		mcp.WithDescription("Post a text message to a channel"),
		mcp.WithString("channel",
			mcp.Required(),
			mcp.Description("Channel name or id"),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Message text"),
		),
	)
	s.AddTool(postTool, sess.Instrumented("post_message", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handlePostMessage(ctx, request, lc)
	}))

	historyTool := mcp.NewTool("get_channel_history",
		mcp.WithDescription("Read recent messages of a channel"),
		mcp.WithString("channel",
			mcp.Required(),
			mcp.Description("Channel name or id"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of messages to return (default: 20)"),
		),
	)
	s.AddTool(historyTool, sess.Instrumented("get_channel_history", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleHistory(ctx, request, lc)
	}))
}

func handleListChannels(ctx context.Context, request mcp.CallToolRequest, lc *lazyClient) (*mcp.CallToolResult, error) {
	limit := 100
	if v, ok := request.GetArguments()["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}
	c, err := lc.get(ctx)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	channels, err := c.ListChannels(ctx, limit)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(channels)
}

func handlePostMessage(ctx context.Context, request mcp.CallToolRequest, lc *lazyClient) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	channel, _ := args["channel"].(string)
	text, _ := args["text"].(string)
	if channel == "" || text == "" {
		return mcp.NewToolResultError("channel and text are required"), nil
	}
	c, err := lc.get(ctx)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	ts, err := c.PostMessage(ctx, channel, text)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.TextResult("Message posted to %s at %s", channel, ts), nil
}

func handleHistory(ctx context.Context, request mcp.CallToolRequest, lc *lazyClient) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	channel, _ := args["channel"].(string)
	if channel == "" {
		return mcp.NewToolResultError("channel is required"), nil
	}
	limit := 20
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}
	c, err := lc.get(ctx)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	messages, err := c.GetChannelHistory(ctx, channel, limit)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(messages)
}
