package client

import "time"

// ------------------------------
// Core domain types and payloads
// ------------------------------

// User is the account record returned by login, signup and /users/me.
type User struct {
	UUID      string    `json:"uuid"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Credentials is the username/password pair sent form-encoded to /auth/token.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserCreate is the payload for POST /users.
type UserCreate struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// Resource is the server-side record for a single normalized URL. The backend
// keeps at most one Resource per normalized URL; GetOrCreateResource upholds
// "exactly one creation wins" from this side.
type Resource struct {
	URL         string `json:"url"`
	URLHash     string `json:"url_hash"`
	TLD         string `json:"tld"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	FaviconURL  string `json:"favicon_url"`
	SiteName    string `json:"site_name"`
	Notes       []Note `json:"notes"`
}

// Note is a free-form rich-text annotation attached to exactly one Resource.
// Content is an opaque editor-state JSON string; the client never inspects it.
type Note struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateNoteRequest is the payload for POST /notes.
type CreateNoteRequest struct {
	Content string `json:"content"`
}

// tokenResponse is the body returned by POST /auth/token (login and refresh).
type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// validationErrorItem mirrors one element of a structured validation error
// body, `{"detail": [{loc, msg, type}, ...]}`.
type validationErrorItem struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}
