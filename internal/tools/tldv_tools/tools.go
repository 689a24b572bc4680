// Package tldv_tools exposes the tldv connector's MCP tools.
package tldv_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gumloop/gumcp/internal/auth/factory"
	"github.com/gumloop/gumcp/internal/credentials"
	"github.com/gumloop/gumcp/internal/instrumentation"
	"github.com/gumloop/gumcp/internal/server"
	"github.com/gumloop/gumcp/internal/tldv"
	"github.com/gumloop/gumcp/internal/tools/common"
)

// ServiceName is the path segment this connector is mounted under.
const ServiceName = "tldv"

// Definition returns the connector registration entry.
func Definition(cfg factory.Config, metrics *instrumentation.Metrics) server.Definition {
	return server.Definition{
		Name:    ServiceName,
		Version: server.ConnectorVersion,
		Factory: func(userID, apiKey string) (*mcpserver.MCPServer, error) {
			srv := mcpserver.NewMCPServer("gumcp-tldv", server.ConnectorVersion,
				mcpserver.WithToolCapabilities(true))
			sess := common.NewSession(ServiceName, userID, apiKey, cfg, metrics)
			registerTools(srv, sess)
			return srv, nil
		},
	}
}

func registerTools(s *mcpserver.MCPServer, sess *common.Session) {
	listTool := mcp.NewTool("list_meetings",
		mcp.WithDescription("List recorded meetings"),
		mcp.WithString("query",
			mcp.Description("Optional search query over meeting names"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of meetings to return (default: 20)"),
		),
	)
	s.AddTool(listTool, sess.Instrumented("list_meetings", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListMeetings(ctx, request, sess)
	}))

	getTool := mcp.NewTool("get_meeting",
		mcp.WithDescription("Fetch one meeting by id"),
		mcp.WithString("meeting_id",
			mcp.Required(),
			mcp.Description("The id of the meeting"),
		),
	)
	s.AddTool(getTool, sess.Instrumented("get_meeting", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetMeeting(ctx, request, sess)
	}))

	transcriptTool := mcp.NewTool("get_transcript",
		mcp.WithDescription("Fetch the transcript of a meeting"),
		mcp.WithString("meeting_id",
			mcp.Required(),
			mcp.Description("The id of the meeting"),
		),
	)
	s.AddTool(transcriptTool, sess.Instrumented("get_transcript", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetTranscript(ctx, request, sess)
	}))

	highlightsTool := mcp.NewTool("get_highlights",
		mcp.WithDescription("Fetch the highlights of a meeting"),
		mcp.WithString("meeting_id",
			mcp.Required(),
			mcp.Description("The id of the meeting"),
		),
	)
	s.AddTool(highlightsTool, sess.Instrumented("get_highlights", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetHighlights(ctx, request, sess)
	}))
}

// client resolves the session's API key into a tl;dv client.
func client(ctx context.Context, sess *common.Session) (*tldv.Client, error) {
	creds, err := sess.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	apiKey, err := credentials.APIKey(creds)
	if err != nil {
		return nil, err
	}
	return tldv.NewClient(apiKey), nil
}

func meetingID(request mcp.CallToolRequest) (string, bool) {
	id, _ := request.GetArguments()["meeting_id"].(string)
	return id, id != ""
}

func handleListMeetings(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	query, _ := args["query"].(string)
	limit := 20
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	meetings, err := c.ListMeetings(ctx, query, limit)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(meetings)
}

func handleGetMeeting(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	id, ok := meetingID(request)
	if !ok {
		return mcp.NewToolResultError("meeting_id is required"), nil
	}
	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	meeting, err := c.GetMeeting(ctx, id)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(meeting)
}

func handleGetTranscript(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	id, ok := meetingID(request)
	if !ok {
		return mcp.NewToolResultError("meeting_id is required"), nil
	}
	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	entries, err := c.GetTranscript(ctx, id)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(entries)
}

func handleGetHighlights(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	id, ok := meetingID(request)
	if !ok {
		return mcp.NewToolResultError("meeting_id is required"), nil
	}
	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	highlights, err := c.GetHighlights(ctx, id)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(highlights)
}
