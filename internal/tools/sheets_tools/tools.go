// Package sheets_tools exposes the gsheets connector's MCP tools.
package sheets_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gumloop/gumcp/internal/auth/factory"
	"github.com/gumloop/gumcp/internal/credentials"
	"github.com/gumloop/gumcp/internal/instrumentation"
	"github.com/gumloop/gumcp/internal/server"
	"github.com/gumloop/gumcp/internal/sheets"
	"github.com/gumloop/gumcp/internal/tools/common"
)

// ServiceName is the path segment this connector is mounted under.
const ServiceName = "gsheets"

// Definition returns the connector registration entry.
func Definition(cfg factory.Config, metrics *instrumentation.Metrics) server.Definition {
	return server.Definition{
		Name:    ServiceName,
		Version: server.ConnectorVersion,
		Factory: func(userID, apiKey string) (*mcpserver.MCPServer, error) {
			srv := mcpserver.NewMCPServer("gumcp-gsheets", server.ConnectorVersion,
				mcpserver.WithToolCapabilities(true))
			sess := common.NewSession(ServiceName, userID, apiKey, cfg, metrics)
			registerTools(srv, sess)
			return srv, nil
		},
	}
}

func registerTools(s *mcpserver.MCPServer, sess *common.Session) {
	readTool := mcp.NewTool("read_range",
		mcp.WithDescription("Read a cell range from a spreadsheet"),
		mcp.WithString("spreadsheet_id",
			mcp.Required(),
			mcp.Description("The spreadsheet ID from its URL"),
		),
		mcp.WithString("range",
			mcp.Required(),
			mcp.Description("A1-notation range, e.g. 'Sheet1!A1:C10'"),
		),
	)
	s.AddTool(readTool, sess.Instrumented("read_range", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRead(ctx, request, sess)
	}))

	updateTool := mcp.NewTool("update_range",
		mcp.WithDescription("Overwrite a cell range with new rows"),
		mcp.WithString("spreadsheet_id",
			mcp.Required(),
			mcp.Description("The spreadsheet ID from its URL"),
		),
		mcp.WithString("range",
			mcp.Required(),
			mcp.Description("A1-notation range to write, e.g. 'Sheet1!A1'"),
		),
		mcp.WithArray("values",
			mcp.Required(),
			mcp.Description("Rows to write; each row is an array of cell values"),
		),
	)
	s.AddTool(updateTool, sess.Instrumented("update_range", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleUpdate(ctx, request, sess)
	}))

	appendTool := mcp.NewTool("append_rows",
		mcp.WithDescription("Append rows after the last row of a range's table"),
		mcp.WithString("spreadsheet_id",
			mcp.Required(),
			mcp.Description("The spreadsheet ID from its URL"),
		),
		mcp.WithString("range",
			mcp.Required(),
			mcp.Description("A1-notation range locating the table, e.g. 'Sheet1!A:C'"),
		),
		mcp.WithArray("values",
			mcp.Required(),
			mcp.Description("Rows to append; each row is an array of cell values"),
		),
	)
	s.AddTool(appendTool, sess.Instrumented("append_rows", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleAppend(ctx, request, sess)
	}))

	createTool := mcp.NewTool("create_spreadsheet",
		mcp.WithDescription("Create a new spreadsheet"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Title of the new spreadsheet"),
		),
	)
	s.AddTool(createTool, sess.Instrumented("create_spreadsheet", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCreate(ctx, request, sess)
	}))

	listTool := mcp.NewTool("list_sheets",
		mcp.WithDescription("List the sheet names inside a spreadsheet"),
		mcp.WithString("spreadsheet_id",
			mcp.Required(),
			mcp.Description("The spreadsheet ID from its URL"),
		),
	)
	s.AddTool(listTool, sess.Instrumented("list_sheets", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListSheets(ctx, request, sess)
	}))
}

func client(ctx context.Context, sess *common.Session) (*sheets.Client, error) {
	creds, err := sess.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	token, err := credentials.OAuth2Token(creds)
	if err != nil {
		return nil, err
	}
	return sheets.NewClient(ctx, token)
}

func requireSheetArgs(request mcp.CallToolRequest) (spreadsheetID, rng string, err error) {
	args := request.GetArguments()
	spreadsheetID, _ = args["spreadsheet_id"].(string)
	rng, _ = args["range"].(string)
	if spreadsheetID == "" || rng == "" {
		return "", "", fmt.Errorf("spreadsheet_id and range are required")
	}
	return spreadsheetID, rng, nil
}

// rowsFromArg converts the JSON argument shape into the Sheets API row type.
func rowsFromArg(v interface{}) ([][]interface{}, error) {
	raw, ok := v.([]interface{})
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("values must be a non-empty array of rows")
	}
	rows := make([][]interface{}, 0, len(raw))
	for i, r := range raw {
		row, ok := r.([]interface{})
		if !ok {
			return nil, fmt.Errorf("row %d is not an array", i)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func handleRead(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	spreadsheetID, rng, err := requireSheetArgs(request)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	values, err := c.GetValues(spreadsheetID, rng)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(values)
}

func handleUpdate(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	spreadsheetID, rng, err := requireSheetArgs(request)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	rows, err := rowsFromArg(request.GetArguments()["values"])
	if err != nil {
		return common.ErrorResult(err), nil
	}
	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	cells, err := c.UpdateValues(spreadsheetID, rng, rows)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.TextResult("Updated %d cells in %s", cells, rng), nil
}

func handleAppend(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	spreadsheetID, rng, err := requireSheetArgs(request)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	rows, err := rowsFromArg(request.GetArguments()["values"])
	if err != nil {
		return common.ErrorResult(err), nil
	}
	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	appended, err := c.AppendValues(spreadsheetID, rng, rows)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.TextResult("Appended %d rows to %s", appended, rng), nil
}

func handleCreate(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	title, _ := request.GetArguments()["title"].(string)
	if title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}
	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	id, url, err := c.CreateSpreadsheet(title)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(map[string]string{"spreadsheetId": id, "url": url})
}

func handleListSheets(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	spreadsheetID, _ := request.GetArguments()["spreadsheet_id"].(string)
	if spreadsheetID == "" {
		return mcp.NewToolResultError("spreadsheet_id is required"), nil
	}
	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	titles, err := c.ListSheets(spreadsheetID)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(titles)
}
