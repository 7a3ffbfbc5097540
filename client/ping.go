package client

import (
	"context"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// Ping issues one unauthenticated request against the backend root and
// reports whether anything answered. Any HTTP status counts as alive.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, "ping", http.MethodGet, "/", nil, nil, "")
	return err
}

// WaitReady polls the backend with exponential backoff until it answers or
// the context is done. Used by the CLI to wait for a backend coming up;
// regular API operations are never retried this way.
func (c *Client) WaitReady(ctx context.Context) error {
	bo := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		if err := c.Ping(ctx); err != nil {
			log.Debug().Err(err).Int("attempt", attempt).Msg("backend not reachable yet")
			return err
		}
		return nil
	}, bo)
}
