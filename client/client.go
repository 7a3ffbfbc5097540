package client

import (
	"net/http"
	"net/http/httputil"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// --------------------------------------------------------------------
// debugTransport – optional HTTP round-trip logger
// --------------------------------------------------------------------

type debugTransport struct{ base http.RoundTripper }

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if os.Getenv("URLNOTES_DEBUG") == "true" || os.Getenv("DEBUG") == "true" {
		reqDump, err := httputil.DumpRequestOut(req, true)
		if err == nil {
			log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Str("request_dump", string(reqDump)).Msg("HTTP request")
		}
	}

	resp, err := dt.base.RoundTrip(req)
	if err != nil {
		if os.Getenv("URLNOTES_DEBUG") == "true" || os.Getenv("DEBUG") == "true" {
			log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("HTTP request failed")
		}
		return nil, err
	}

	if os.Getenv("URLNOTES_DEBUG") == "true" || os.Getenv("DEBUG") == "true" {
		respDump, err := httputil.DumpResponse(resp, true)
		if err == nil {
			log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Int("status_code", resp.StatusCode).Str("response_dump", string(respDump)).Msg("HTTP response")
		}
	}
	return resp, nil
}

// --------------------------------------------------------------------
// Client core
// --------------------------------------------------------------------

// Client talks to the urlnotes backend. It is safe for concurrent use; the
// only shared mutable state is the TokenStore, and the refresh gate collapses
// concurrent refreshers into one exchange.
type Client struct {
	baseURL   string
	http      *http.Client
	store     TokenStore
	refresher *refresher

	refreshWindow time.Duration
}

// New constructs a Client with optional functional arguments. The default
// token store is in-memory; pass WithTokenStore to persist sessions.
func New(base string, opts ...Option) *Client {
	c := &Client{
		baseURL:       base,
		http:          &http.Client{Timeout: 30 * time.Second},
		store:         NewMemoryTokenStore(),
		refreshWindow: 10 * time.Second,
	}

	// Auto-enable debug via env variable without changing code.
	if os.Getenv("URLNOTES_DEBUG") == "true" || os.Getenv("DEBUG") == "true" {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			panic(err)
		}
	}

	c.refresher = newRefresher(c.refreshWindow, c.refreshToken)

	rt := c.http.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	c.http.Transport = &authTransport{base: rt, store: c.store, refresher: c.refresher}

	return c
}

// NewFromConfig builds a Client from environment-driven configuration,
// wiring a file-backed token store at cfg.TokenPath.
func NewFromConfig(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := NewFileTokenStore(cfg.TokenPath)
	if err != nil {
		return nil, err
	}
	all := append([]Option{
		WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		WithTokenStore(store),
		WithRefreshWindow(cfg.RefreshWindow),
	}, opts...)
	return New(cfg.BaseURL, all...), nil
}

// TokenStore exposes the session store, mainly so callers can check whether
// a session exists without issuing a request.
func (c *Client) TokenStore() TokenStore { return c.store }
