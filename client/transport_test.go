package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// authedServer answers /users/me with 200 only for the given token and
// exchanges any token at POST /auth/token, counting exchanges.
type authedServer struct {
	*httptest.Server
	goodToken    string
	refuseToken  bool // make the exchange itself fail with 401
	exchanges    int32
	userRequests int32
}

func newAuthedServer(t *testing.T, goodToken string) *authedServer {
	t.Helper()
	as := &authedServer{goodToken: goodToken}
	as.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/auth/token":
			atomic.AddInt32(&as.exchanges, 1)
			if as.refuseToken {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"detail":"token expired beyond refresh"}`))
				return
			}
			// Simulate exchange latency so concurrent 401s pile up on the gate.
			time.Sleep(50 * time.Millisecond)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"` + as.goodToken + `"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/users/me":
			atomic.AddInt32(&as.userRequests, 1)
			if r.Header.Get("Authorization") != "Bearer "+as.goodToken {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"detail":"could not validate credentials"}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"uuid":"u-1","username":"ada","email":"ada@example.com","is_active":true,"created_at":"2025-01-01T00:00:00Z"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"not found"}`))
		}
	}))
	return as
}

func TestAuthTransport_InjectsBearerFromStore(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	store := NewMemoryTokenStore()
	_ = store.Set("tok-123")
	c := New(srv.URL, WithTokenStore(store))

	if _, err := c.GetNotes(context.Background(), testURL); err != nil {
		t.Fatalf("GetNotes error: %v", err)
	}
	if seen != "Bearer tok-123" {
		t.Fatalf("authorization header %q, want Bearer tok-123", seen)
	}

	// The token is re-read per request, not cached.
	_ = store.Set("tok-456")
	if _, err := c.GetNotes(context.Background(), testURL); err != nil {
		t.Fatalf("GetNotes error: %v", err)
	}
	if seen != "Bearer tok-456" {
		t.Fatalf("authorization header %q after store update, want Bearer tok-456", seen)
	}
}

func TestAuthTransport_OmitsHeaderWhenLoggedOut(t *testing.T) {
	var present bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header["Authorization"]
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.GetNotes(context.Background(), testURL); err != nil {
		t.Fatalf("GetNotes error: %v", err)
	}
	if present {
		t.Fatal("authorization header sent with no stored token")
	}
}

func TestAuthTransport_RefreshAndReplayOnce(t *testing.T) {
	as := newAuthedServer(t, "fresh-token")
	defer as.Close()

	store := NewMemoryTokenStore()
	_ = store.Set("stale-token")
	c := New(as.URL, WithTokenStore(store))

	user, err := c.GetCurrentUser(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentUser error: %v", err)
	}
	if user.Username != "ada" {
		t.Fatalf("unexpected user %+v", user)
	}
	if n := atomic.LoadInt32(&as.exchanges); n != 1 {
		t.Fatalf("want 1 exchange, got %d", n)
	}
	// One 401 attempt plus one replay.
	if n := atomic.LoadInt32(&as.userRequests); n != 2 {
		t.Fatalf("want 2 /users/me requests, got %d", n)
	}
	if tok, _ := store.Get(); tok != "fresh-token" {
		t.Fatalf("store holds %q, want fresh-token", tok)
	}
}

func TestAuthTransport_ConcurrentUnauthorizedSingleExchange(t *testing.T) {
	as := newAuthedServer(t, "fresh-token")
	defer as.Close()

	store := NewMemoryTokenStore()
	_ = store.Set("stale-token")
	c := New(as.URL, WithTokenStore(store), WithRefreshWindow(time.Minute))

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.GetCurrentUser(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&as.exchanges); got != 1 {
		t.Fatalf("%d concurrent 401s caused %d exchanges, want 1", n, got)
	}
}

func TestAuthTransport_RefreshFailureClearsTokenAndSurfaces401(t *testing.T) {
	as := newAuthedServer(t, "fresh-token")
	as.refuseToken = true
	defer as.Close()

	store := NewMemoryTokenStore()
	_ = store.Set("stale-token")
	c := New(as.URL, WithTokenStore(store))

	_, err := c.GetCurrentUser(context.Background())
	if !IsAuthExpired(err) {
		t.Fatalf("expected the original 401 to surface, got %v", err)
	}
	if tok, _ := store.Get(); tok != "" {
		t.Fatalf("store still holds %q after failed refresh", tok)
	}
	// Exactly one exchange attempt, and the exchange's own 401 must not
	// re-enter the gate.
	if got := atomic.LoadInt32(&as.exchanges); got != 1 {
		t.Fatalf("want 1 exchange attempt, got %d", got)
	}
	// Original request only; no replay without a new token.
	if got := atomic.LoadInt32(&as.userRequests); got != 1 {
		t.Fatalf("want 1 /users/me request, got %d", got)
	}
}

func TestAuthTransport_WindowReArmsAfterExpiry(t *testing.T) {
	as := newAuthedServer(t, "fresh-token")
	defer as.Close()

	store := NewMemoryTokenStore()
	c := New(as.URL, WithTokenStore(store), WithRefreshWindow(10*time.Millisecond))

	_ = store.Set("stale-token")
	if _, err := c.GetCurrentUser(context.Background()); err != nil {
		t.Fatalf("first call error: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	// Stale again after the window expired: a second exchange is allowed.
	_ = store.Set("stale-token")
	if _, err := c.GetCurrentUser(context.Background()); err != nil {
		t.Fatalf("second call error: %v", err)
	}
	if got := atomic.LoadInt32(&as.exchanges); got != 2 {
		t.Fatalf("want 2 exchanges across windows, got %d", got)
	}
}

func TestAuthTransport_NoRefreshWithoutStoredToken(t *testing.T) {
	as := newAuthedServer(t, "fresh-token")
	defer as.Close()

	c := New(as.URL) // empty store

	_, err := c.GetCurrentUser(context.Background())
	if !IsAuthExpired(err) {
		t.Fatalf("expected 401, got %v", err)
	}
	// The exchange reads the store first and finds nothing to trade in.
	if got := atomic.LoadInt32(&as.exchanges); got != 0 {
		t.Fatalf("exchange attempted with no stored token: %d", got)
	}
}
