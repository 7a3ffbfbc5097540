package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// Auth and account operations.

const (
	authPath  = "/auth/token"
	usersPath = "/users"
)

// Login exchanges credentials for a session token, stores it, and returns the
// authenticated user. The exchange is form-encoded per the backend contract.
func (c *Client) Login(ctx context.Context, creds Credentials) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	const op = "login"
	res, err := c.call(ctx, op, http.MethodPost, authPath, nil,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, err
	}
	if !res.ok() {
		return nil, httpError(op, res.Status, res.Body)
	}
	var tok tokenResponse
	if err := res.decode(op, &tok); err != nil {
		return nil, err
	}
	if err := c.store.Set(tok.AccessToken); err != nil {
		return nil, fmt.Errorf("store session token: %w", err)
	}

	return c.GetCurrentUser(ctx)
}

// Signup registers a new account and returns the current user.
func (c *Client) Signup(ctx context.Context, req UserCreate) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := c.callJSON(ctx, "signup", http.MethodPost, usersPath, nil, req, nil); err != nil {
		return nil, err
	}
	return c.GetCurrentUser(ctx)
}

// GetCurrentUser returns the user owning the stored session token.
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	var u User
	if err := c.callJSON(ctx, "get current user", http.MethodGet, usersPath+"/me", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout is local-only: it clears the stored token and never issues a network
// call. The backend exposes no session-invalidation endpoint.
func (c *Client) Logout(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.store.Clear()
}

// refreshToken is the exchange behind the refresh gate: it trades the stored
// token for a new one. On any failure the stored token is cleared so the next
// request starts from a logged-out state.
func (c *Client) refreshToken(ctx context.Context) (string, error) {
	current, err := c.store.Get()
	if err != nil || current == "" {
		_ = c.store.Clear()
		return "", fmt.Errorf("no session token to refresh")
	}

	// Mark the exchange so its own 401 can never re-enter the gate.
	ctx = withRefreshExchange(ctx)

	var tok tokenResponse
	err = c.callJSON(ctx, "refresh token", http.MethodPost, authPath, nil,
		tokenResponse{AccessToken: current}, &tok)
	if err != nil {
		_ = c.store.Clear()
		return "", err
	}
	if tok.AccessToken == "" {
		_ = c.store.Clear()
		return "", fmt.Errorf("refresh returned no token")
	}
	if err := c.store.Set(tok.AccessToken); err != nil {
		return "", fmt.Errorf("store refreshed token: %w", err)
	}
	log.Debug().Msg("session token refreshed")
	return tok.AccessToken, nil
}
