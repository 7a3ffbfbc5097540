package client

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// refresher collapses concurrent token refreshes into a single exchange.
//
// A burst of 401s makes every failing request call token(); singleflight
// guarantees one in-flight exchange, and the armed window memoizes its
// outcome so stragglers arriving just after completion reuse it instead of
// hitting the backend again. After the window expires the next 401 re-arms
// a fresh exchange.
type refresher struct {
	exchange func(ctx context.Context) (string, error)
	window   time.Duration

	group singleflight.Group

	mu         sync.Mutex
	armedUntil time.Time
	lastToken  string
	lastOK     bool
}

func newRefresher(window time.Duration, exchange func(ctx context.Context) (string, error)) *refresher {
	return &refresher{exchange: exchange, window: window}
}

// token returns a fresh bearer token, or ok=false when the exchange failed.
// At most one exchange round-trip happens per window regardless of how many
// goroutines call token concurrently.
func (r *refresher) token(ctx context.Context) (string, bool) {
	r.mu.Lock()
	if time.Now().Before(r.armedUntil) {
		tok, ok := r.lastToken, r.lastOK
		r.mu.Unlock()
		return tok, ok
	}
	r.mu.Unlock()

	v, err, _ := r.group.Do("refresh", func() (any, error) {
		tok, err := r.exchange(ctx)
		ok := err == nil && tok != ""

		r.mu.Lock()
		r.lastToken = tok
		r.lastOK = ok
		r.armedUntil = time.Now().Add(r.window)
		r.mu.Unlock()

		if ok {
			tokenRefreshTotal.WithLabelValues("success").Inc()
		} else {
			tokenRefreshTotal.WithLabelValues("failure").Inc()
		}
		return tok, err
	})

	tok, _ := v.(string)
	return tok, err == nil && tok != ""
}
