package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/urlnotes/urlnotes-go/client"
)

// ResourceHandler exposes the get_or_create_resource tool.
type ResourceHandler struct {
	client *client.Client
}

func NewResourceHandler(c *client.Client) *ResourceHandler {
	return &ResourceHandler{client: c}
}

// RegisterTools registers the get_or_create_resource tool.
func (rh *ResourceHandler) RegisterTools(s *server.MCPServer) error {
	tool := mcp.NewTool("get_or_create_resource",
		mcp.WithDescription("Resolve the resource record for a URL, creating it when absent. Tolerates concurrent creators: if another client creates the same resource first, the winning record is returned."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Absolute http(s) URL of the resource")),
	)
	s.AddTool(tool, rh.handleGetOrCreate)
	return nil
}

func (rh *ResourceHandler) handleGetOrCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := rh.client.GetOrCreateResource(ctx, rawURL)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resolve resource failed: %v", err)), nil
	}

	b, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(b)), nil
}
