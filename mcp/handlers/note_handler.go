package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/urlnotes/urlnotes-go/client"
)

// NoteHandler exposes the add_note and list_notes tools.
type NoteHandler struct {
	client *client.Client
}

func NewNoteHandler(c *client.Client) *NoteHandler {
	return &NoteHandler{client: c}
}

// RegisterTools registers the note tools.
func (nh *NoteHandler) RegisterTools(s *server.MCPServer) error {
	addTool := mcp.NewTool("add_note",
		mcp.WithDescription("Attach a note to the resource for a URL. The resource is created first when absent."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Absolute http(s) URL the note attaches to")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note content (opaque rich-text JSON string)")),
	)
	s.AddTool(addTool, nh.handleAdd)

	listTool := mcp.NewTool("list_notes",
		mcp.WithDescription("List the notes attached to the resource for a URL."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Absolute http(s) URL whose notes to list")),
	)
	s.AddTool(listTool, nh.handleList)
	return nil
}

func (nh *NoteHandler) handleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := nh.client.GetOrCreateResource(ctx, rawURL); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resolve resource failed: %v", err)), nil
	}
	note, err := nh.client.CreateNote(ctx, rawURL, client.CreateNoteRequest{Content: content})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("add note failed: %v", err)), nil
	}

	b, _ := json.MarshalIndent(note, "", "  ")
	return mcp.NewToolResultText(string(b)), nil
}

func (nh *NoteHandler) handleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	notes, err := nh.client.GetNotes(ctx, rawURL)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list notes failed: %v", err)), nil
	}

	payload := map[string]any{"notes": notes, "count": len(notes)}
	b, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(b)), nil
}
