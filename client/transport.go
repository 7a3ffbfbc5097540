package client

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ctxKey int

// refreshExchangeKey marks the refresh exchange request itself so a 401 on it
// can never re-enter the gate.
const refreshExchangeKey ctxKey = iota

func withRefreshExchange(ctx context.Context) context.Context {
	return context.WithValue(ctx, refreshExchangeKey, true)
}

func isRefreshExchange(ctx context.Context) bool {
	v, _ := ctx.Value(refreshExchangeKey).(bool)
	return v
}

// authTransport injects the bearer token on every outgoing request and, on a
// 401, runs one refresh through the gate and replays the request exactly
// once. The token is read from the store per request, never cached here.
type authTransport struct {
	base      http.RoundTripper
	store     TokenStore
	refresher *refresher
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := t.store.Get()
	if err != nil {
		log.Warn().Err(err).Msg("token store read failed, sending unauthenticated")
		tok = ""
	}

	authed := req.Clone(req.Context())
	if tok != "" {
		authed.Header.Set("Authorization", "Bearer "+tok)
	} else {
		authed.Header.Del("Authorization")
	}
	authed.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := t.base.RoundTrip(authed)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || isRefreshExchange(req.Context()) {
		return resp, nil
	}

	newTok, ok := t.refresher.token(req.Context())
	if !ok {
		// Refresh failed; the store has been cleared, surface the 401.
		return resp, nil
	}

	replay := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return resp, nil
		}
		replay.Body = body
	}
	replay.Header.Set("Authorization", "Bearer "+newTok)
	replay.Header.Set("X-Request-Id", uuid.NewString())

	// Done with the 401 response; drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	unauthorizedReplaysTotal.Inc()
	log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Msg("replaying request with refreshed token")

	// Replay goes straight to the base transport: one retry, no second gate.
	return t.base.RoundTrip(replay)
}
