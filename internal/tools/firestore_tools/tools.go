// Package firestore_tools exposes the firestore connector's MCP tools.
//
// The target project id is not a tool argument: it travels in the broker
// connection metadata and is merged into the oauth2 payload at fetch time,
// so each tenant's sessions are pinned to the project enrolled for them.
package firestore_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gumloop/gumcp/internal/auth"
	"github.com/gumloop/gumcp/internal/auth/factory"
	"github.com/gumloop/gumcp/internal/credentials"
	"github.com/gumloop/gumcp/internal/firestore"
	"github.com/gumloop/gumcp/internal/instrumentation"
	"github.com/gumloop/gumcp/internal/server"
	"github.com/gumloop/gumcp/internal/tools/common"
)

// ServiceName is the path segment this connector is mounted under.
const ServiceName = "firestore"

// Definition returns the connector registration entry.
func Definition(cfg factory.Config, metrics *instrumentation.Metrics) server.Definition {
	return server.Definition{
		Name:    ServiceName,
		Version: server.ConnectorVersion,
		Factory: func(userID, apiKey string) (*mcpserver.MCPServer, error) {
			srv := mcpserver.NewMCPServer("gumcp-firestore", server.ConnectorVersion,
				mcpserver.WithToolCapabilities(true))
			sess := common.NewSession(ServiceName, userID, apiKey, cfg, metrics)
			registerTools(srv, sess)
			return srv, nil
		},
	}
}

func registerTools(s *mcpserver.MCPServer, sess *common.Session) {
	listCollectionsTool := mcp.NewTool("list_collections",
		mcp.WithDescription("List the top-level Firestore collections"),
	)
	s.AddTool(listCollectionsTool, sess.Instrumented("list_collections", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListCollections(ctx, request, sess)
	}))

	listDocsTool := mcp.NewTool("list_documents",
		mcp.WithDescription("List the documents of a collection"),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Collection id, e.g. 'users'"),
		),
		mcp.WithNumber("page_size",
			mcp.Description("Maximum number of documents to return (default: 20)"),
		),
	)
	s.AddTool(listDocsTool, sess.Instrumented("list_documents", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListDocuments(ctx, request, sess)
	}))

	getDocTool := mcp.NewTool("get_document",
		mcp.WithDescription("Fetch one document by path"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Collection-relative document path, e.g. 'users/alice'"),
		),
	)
	s.AddTool(getDocTool, sess.Instrumented("get_document", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetDocument(ctx, request, sess)
	}))

	createDocTool := mcp.NewTool("create_document",
		mcp.WithDescription("Create a document in a collection"),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Collection id, e.g. 'users'"),
		),
		mcp.WithString("document_id",
			mcp.Description("Document id; omit to let Firestore assign one"),
		),
		mcp.WithObject("fields",
			mcp.Required(),
			mcp.Description("Document fields as a JSON object"),
		),
	)
	s.AddTool(createDocTool, sess.Instrumented("create_document", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCreateDocument(ctx, request, sess)
	}))

	deleteDocTool := mcp.NewTool("delete_document",
		mcp.WithDescription("Delete one document by path"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Collection-relative document path, e.g. 'users/alice'"),
		),
	)
	s.AddTool(deleteDocTool, sess.Instrumented("delete_document", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleDeleteDocument(ctx, request, sess)
	}))
}

// client resolves the session's credentials into a Firestore client, pulling
// the project id out of the merged connection metadata.
func client(ctx context.Context, sess *common.Session) (*firestore.Client, error) {
	creds, err := sess.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	token, err := credentials.OAuth2Token(creds)
	if err != nil {
		return nil, err
	}

	projectID := ""
	if oc, ok := creds.(*auth.OAuth2Credentials); ok {
		if v, ok := oc.Metadata["projectId"].(string); ok {
			projectID = v
		}
	}
	if projectID == "" {
		return nil, fmt.Errorf("connection metadata is missing the firestore project id")
	}

	return firestore.NewClient(ctx, token, projectID)
}

func handleListCollections(ctx context.Context, _ mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	collections, err := c.ListCollections(ctx)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(collections)
}

func handleListDocuments(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	collection, _ := args["collection"].(string)
	if collection == "" {
		return mcp.NewToolResultError("collection is required"), nil
	}
	pageSize := int64(20)
	if v, ok := args["page_size"].(float64); ok && v > 0 {
		pageSize = int64(v)
	}

	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	docs, err := c.ListDocuments(ctx, collection, pageSize)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(docs)
}

func handleGetDocument(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	path, _ := request.GetArguments()["path"].(string)
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	doc, err := c.GetDocument(ctx, path)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(doc)
}

func handleCreateDocument(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	collection, _ := args["collection"].(string)
	if collection == "" {
		return mcp.NewToolResultError("collection is required"), nil
	}
	fields, ok := args["fields"].(map[string]interface{})
	if !ok || len(fields) == 0 {
		return mcp.NewToolResultError("fields must be a non-empty object"), nil
	}
	documentID, _ := args["document_id"].(string)

	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	doc, err := c.CreateDocument(ctx, collection, documentID, fields)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(doc)
}

func handleDeleteDocument(ctx context.Context, request mcp.CallToolRequest, sess *common.Session) (*mcp.CallToolResult, error) {
	path, _ := request.GetArguments()["path"].(string)
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	c, err := client(ctx, sess)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	if err := c.DeleteDocument(ctx, path); err != nil {
		return common.ErrorResult(err), nil
	}
	return common.TextResult("Deleted document %s", path), nil
}
