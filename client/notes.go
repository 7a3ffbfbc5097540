package client

import (
	"context"
	"net/http"
)

// Note operations. Notes are children of the resource addressed by
// `/notes?url=`; they are created and listed, never edited or deleted.

const notesPath = "/notes"

// CreateNote attaches a note to the resource for the given URL. Content is
// treated as an opaque rich-text JSON string.
func (c *Client) CreateNote(ctx context.Context, rawURL string, req CreateNoteRequest) (*Note, error) {
	if err := validateResourceURL(rawURL); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var n Note
	if err := c.callJSON(ctx, "create note", http.MethodPost, notesPath, urlQuery(rawURL), req, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// GetNotes lists the notes attached to the resource for the given URL.
func (c *Client) GetNotes(ctx context.Context, rawURL string) ([]Note, error) {
	if err := validateResourceURL(rawURL); err != nil {
		return nil, err
	}
	var notes []Note
	if err := c.callJSON(ctx, "get notes", http.MethodGet, notesPath, urlQuery(rawURL), nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}
