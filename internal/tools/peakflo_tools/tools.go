// Package peakflo_tools exposes the peakflo connector's MCP tools. The
// bearer token used here is minted fresh by the broker for every session
// from the tenant's delegated trust material.
package peakflo_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gumloop/gumcp/internal/auth/factory"
	"github.com/gumloop/gumcp/internal/credentials"
	"github.com/gumloop/gumcp/internal/instrumentation"
	"github.com/gumloop/gumcp/internal/peakflo"
	"github.com/gumloop/gumcp/internal/server"
	"github.com/gumloop/gumcp/internal/tools/common"
)

// ServiceName is the path segment this connector is mounted under.
const ServiceName = "peakflo"

// Definition returns the connector registration entry.
func Definition(cfg factory.Config, metrics *instrumentation.Metrics) server.Definition {
	return server.Definition{
		Name:    ServiceName,
		Version: server.ConnectorVersion,
		Factory: func(userID, apiKey string) (*mcpserver.MCPServer, error) {
			srv := mcpserver.NewMCPServer("gumcp-peakflo", server.ConnectorVersion,
				mcpserver.WithToolCapabilities(true))
			sess := common.NewSession(ServiceName, userID, apiKey, cfg, metrics)
			registerTools(srv, sess)
			return srv, nil
		},
	}
}

func registerTools(s *mcpserver.MCPServer, sess *common.Session) {
	listCustomersTool := mcp.NewTool("list_customers",
		mcp.WithDescription("List customers"),
		mcp.WithString("search",
			mcp.Description("Optional name filter"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of customers to return (default: 20)"),
		),
	)
	s.AddTool(listCustomersTool, sess.Instrumented("list_customers", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListCustomers(ctx, request, sess)
	}))

	getCustomerTool := mcp.NewTool("get_customer",
		mcp.WithDescription("Fetch one customer by id"),
		mcp.WithString("customer_id",
			mcp.Required(),
			mcp.Description("The id of the customer"),
		),
	)
	s.AddTool(getCustomerTool, sess.Instrumented("get_customer", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetCustomer(ctx, request, sess)
	}))

	listInvoicesTool := mcp.NewTool("list_invoices",
		mcp.WithDescription("List invoices, optionally filtered by customer and status"),
		mcp.WithString("customer_id",
			mcp.Description("Only return invoices of this customer"),
		),
		mcp.WithString("status",
			mcp.Description("Only return invoices in this status, e.g. 'overdue'"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of invoices to return (default: 20)"),
		),
	)
	s.AddTool(listInvoicesTool, sess.Instrumented("list_invoices", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListInvoices(ctx, request, sess)
	}))

	getInvoiceTool := mcp.NewTool("get_invoice",
		mcp.WithDescription("Fetch one invoice by id"),
		mcp.WithString("invoice_id",
			mcp.Required(),
			mcp.Description("The id of the invoice"),
		),
	)
	s.AddTool(getInvoiceTool, sess.Instrumented("get_invoice", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetInvoice(ctx, request, sess)
	}))
}

// client resolves the session's minted bearer token into a Peakflo client.
func client(ctx context.Context, sess *common.Session) (*peakflo.Client, error) {
	creds, err := sess.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	token, err := credentials.BearerToken(creds)
	if err != nil {
		return nil, err
	}
	return peakflo.NewClient(token), nil
}

func handleListCustomers(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	search, _ := args["search"].(string)
	limit := 20
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	customers, err := c.ListCustomers(ctx, search, limit)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(customers)
}

func handleGetCustomer(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	id, _ := request.GetArguments()["customer_id"].(string)
	if id == "" {
		return mcp.NewToolResultError("customer_id is required"), nil
	}
	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	customer, err := c.GetCustomer(ctx, id)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(customer)
}

func handleListInvoices(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	customerID, _ := args["customer_id"].(string)
	status, _ := args["status"].(string)
	limit := 20
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	invoices, err := c.ListInvoices(ctx, customerID, status, limit)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(invoices)
}

func handleGetInvoice(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	id, _ := request.GetArguments()["invoice_id"].(string)
	if id == "" {
		return mcp.NewToolResultError("invoice_id is required"), nil
	}
	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	invoice, err := c.GetInvoice(ctx, id)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(invoice)
}
