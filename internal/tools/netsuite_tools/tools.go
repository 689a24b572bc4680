// Package netsuite_tools exposes the netsuite connector's MCP tools.
package netsuite_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gumloop/gumcp/internal/auth/factory"
	"github.com/gumloop/gumcp/internal/credentials"
	"github.com/gumloop/gumcp/internal/instrumentation"
	"github.com/gumloop/gumcp/internal/netsuite"
	"github.com/gumloop/gumcp/internal/server"
	"github.com/gumloop/gumcp/internal/tools/common"
)

// ServiceName is the path segment this connector is mounted under.
const ServiceName = "netsuite"

// Definition returns the connector registration entry.
func Definition(cfg factory.Config, metrics *instrumentation.Metrics) server.Definition {
	return server.Definition{
		Name:    ServiceName,
		Version: server.ConnectorVersion,
		Factory: func(userID, apiKey string) (*mcpserver.MCPServer, error) {
			srv := mcpserver.NewMCPServer("gumcp-netsuite", server.ConnectorVersion,
				mcpserver.WithToolCapabilities(true))
			sess := common.NewSession(ServiceName, userID, apiKey, cfg, metrics)
			registerTools(srv, sess)
			return srv, nil
		},
	}
}

func registerTools(s *mcpserver.MCPServer, sess *common.Session) {
	queryTool := mcp.NewTool("run_suiteql",
		mcp.WithDescription("Run a SuiteQL query against the NetSuite account"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("SuiteQL query, e.g. 'SELECT id, companyname FROM customer'"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of rows to return (default: 100)"),
		),
	)
	s.AddTool(queryTool, sess.Instrumented("run_suiteql", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSuiteQL(ctx, request, sess)
	}))

	recordTool := mcp.NewTool("get_record",
		mcp.WithDescription("Fetch one NetSuite record by type and internal id"),
		mcp.WithString("record_type",
			mcp.Required(),
			mcp.Description("Record type, e.g. 'customer', 'salesOrder', 'invoice'"),
		),
		mcp.WithString("record_id",
			mcp.Required(),
			mcp.Description("The record's internal id"),
		),
	)
	s.AddTool(recordTool, sess.Instrumented("get_record", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetRecord(ctx, request, sess)
	}))
}

// client resolves the session's token-based-access material into a signing
// NetSuite client.
func client(ctx context.Context, sess *common.Session) (*netsuite.Client, error) {
	creds, err := sess.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	tba, err := credentials.TBA(creds)
	if err != nil {
		return nil, err
	}
	return netsuite.NewClient(tba)
}

func handleSuiteQL(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	query, _ := args["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	limit := 100
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	result, err := c.SuiteQL(ctx, query, limit)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(result)
}

func handleGetRecord(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	recordType, _ := args["record_type"].(string)
	recordID, _ := args["record_id"].(string)
	if recordType == "" || recordID == "" {
		return mcp.NewToolResultError("record_type and record_id are required"), nil
	}

	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	record, err := c.GetRecord(ctx, recordType, recordID)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(record)
}
