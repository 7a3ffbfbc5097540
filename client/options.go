package client

// This file defines functional options that configure the Client during
// construction. Keeping them in a standalone file avoids cluttering
// client.go and makes it easy to discover all available knobs at a glance.

import (
	"fmt"
	"net/http"
	"time"
)

// Option mutates the Client during New().
type Option func(*Client) error

// WithHTTPClient injects a custom *http.Client. Useful for setting transport
// timeouts, tracing, custom TLS settings, etc. The auth transport is layered
// on top of whatever transport the injected client carries.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("nil http client")
		}
		c.http = hc
		return nil
	}
}

// WithTokenStore injects the session token store. Tests typically pass a
// MemoryTokenStore; the CLI passes a FileTokenStore.
func WithTokenStore(s TokenStore) Option {
	return func(c *Client) error {
		if s == nil {
			return fmt.Errorf("nil token store")
		}
		c.store = s
		return nil
	}
}

// WithRefreshWindow sets how long a refresh outcome is memoized. A burst of
// 401s inside the window triggers at most one token exchange.
func WithRefreshWindow(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("refresh window must be positive")
		}
		c.refreshWindow = d
		return nil
	}
}

// WithDebugLogging wraps the client's transport such that every request/response
// is logged when `enabled` is true.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled {
			transport := c.http.Transport
			if transport == nil {
				transport = http.DefaultTransport
			}
			c.http.Transport = &debugTransport{base: transport}
		}
		return nil
	}
}
