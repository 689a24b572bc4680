// Package gmail_tools exposes the gmail connector's MCP tools.
package gmail_tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gumloop/gumcp/internal/auth/factory"
	"github.com/gumloop/gumcp/internal/credentials"
	"github.com/gumloop/gumcp/internal/gmail"
	"github.com/gumloop/gumcp/internal/instrumentation"
	"github.com/gumloop/gumcp/internal/server"
	"github.com/gumloop/gumcp/internal/tools/common"
)

// ServiceName is the path segment this connector is mounted under.
const ServiceName = "gmail"

// Definition returns the connector registration entry. The factory builds a
// fresh server per session; nothing inside it outlives the request.
func Definition(cfg factory.Config, metrics *instrumentation.Metrics) server.Definition {
	return server.Definition{
		Name:    ServiceName,
		Version: server.ConnectorVersion,
		Factory: func(userID, apiKey string) (*mcpserver.MCPServer, error) {
			srv := mcpserver.NewMCPServer("gumcp-gmail", server.ConnectorVersion,
				mcpserver.WithToolCapabilities(true))
			sess := common.NewSession(ServiceName, userID, apiKey, cfg, metrics)
			registerTools(srv, sess)
			return srv, nil
		},
	}
}

func registerTools(s *mcpserver.MCPServer, sess *common.Session) {
	searchTool := mcp.NewTool("search_emails",
		mcp.WithDescription("Search Gmail messages matching a query"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Gmail search query (e.g., 'in:inbox', 'from:user@example.com')"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of results to return (default: 10)"),
		),
	)
	s.AddTool(searchTool, sess.Instrumented("search_emails", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSearch(ctx, request, sess)
	}))

	getTool := mcp.NewTool("get_email",
		mcp.WithDescription("Read a Gmail message including its body"),
		mcp.WithString("message_id",
			mcp.Required(),
			mcp.Description("The ID of the message to read"),
		),
	)
	s.AddTool(getTool, sess.Instrumented("get_email", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGet(ctx, request, sess)
	}))

	sendTool := mcp.NewTool("send_email",
		mcp.WithDescription("Send a plain-text email from the authenticated account"),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient email address"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Plain-text email body"),
		),
	)
	s.AddTool(sendTool, sess.Instrumented("send_email", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSend(ctx, request, sess)
	}))

	labelsTool := mcp.NewTool("list_labels",
		mcp.WithDescription("List the account's Gmail labels"),
	)
	s.AddTool(labelsTool, sess.Instrumented("list_labels", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListLabels(ctx, request, sess)
	}))

	modifyTool := mcp.NewTool("modify_labels",
		mcp.WithDescription("Add or remove labels on a Gmail message"),
		mcp.WithString("message_id",
			mcp.Required(),
			mcp.Description("The ID of the message to modify"),
		),
		mcp.WithString("add_labels",
			mcp.Description("Comma-separated label IDs to add"),
		),
		mcp.WithString("remove_labels",
			mcp.Description("Comma-separated label IDs to remove"),
		),
	)
	s.AddTool(modifyTool, sess.Instrumented("modify_labels", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleModifyLabels(ctx, request, sess)
	}))
}

// client resolves the session's credentials into a Gmail client.
func client(ctx context.Context, sess *common.Session) (*gmail.Client, error) {
	creds, err := sess.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	token, err := credentials.OAuth2Token(creds)
	if err != nil {
		return nil, err
	}
	return gmail.NewClient(ctx, token)
}

func handleSearch(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	maxResults := int64(10)
	if v, ok := args["max_results"].(float64); ok && v > 0 {
		maxResults = int64(v)
	}

	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	messages, err := c.Search(query, maxResults)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(messages)
}

func handleGet(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, ok := args["message_id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("message_id is required"), nil
	}

	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	msg, err := c.GetMessage(id)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(msg)
}

func handleSend(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	to, _ := args["to"].(string)
	subject, _ := args["subject"].(string)
	body, _ := args["body"].(string)
	if to == "" || subject == "" || body == "" {
		return mcp.NewToolResultError("to, subject and body are required"), nil
	}

	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	id, err := c.SendEmail(to, subject, body)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.TextResult("Email sent with id %s", id), nil
}

func handleListLabels(ctx context.Context, _ mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	labels, err := c.ListLabels()
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(labels)
}

func handleModifyLabels(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, ok := args["message_id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("message_id is required"), nil
	}
	add := splitLabels(args["add_labels"])
	remove := splitLabels(args["remove_labels"])
	if len(add) == 0 && len(remove) == 0 {
		return mcp.NewToolResultError("at least one of add_labels or remove_labels is required"), nil
	}

	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	if err := c.ModifyLabels(id, add, remove); err != nil {
		return common.ErrorResult(err), nil
	}
	return common.TextResult("Labels updated on message %s", id), nil
}

func splitLabels(v interface{}) []string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	return labels
}
