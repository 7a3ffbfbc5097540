package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const testURL = "https://example.com/articles/42"

func writeResource(t *testing.T, w http.ResponseWriter, title string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	r := Resource{URL: testURL, URLHash: "h42", TLD: "com", Title: title, Notes: []Note{}}
	if err := json.NewEncoder(w).Encode(&r); err != nil {
		t.Fatalf("encode resource: %v", err)
	}
}

func TestGetOrCreateResource_ExistingSkipsCreate(t *testing.T) {
	var gets, posts int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/resources" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("url"); got != testURL {
			t.Fatalf("unexpected url param %q", got)
		}
		switch r.Method {
		case http.MethodGet:
			atomic.AddInt32(&gets, 1)
			writeResource(t, w, "existing")
		case http.MethodPost:
			atomic.AddInt32(&posts, 1)
			t.Error("create issued for an existing resource")
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.GetOrCreateResource(context.Background(), testURL)
	if err != nil {
		t.Fatalf("GetOrCreateResource error: %v", err)
	}
	if res.Title != "existing" {
		t.Fatalf("unexpected resource %+v", res)
	}
	if gets != 1 || posts != 0 {
		t.Fatalf("want 1 GET / 0 POST, got %d/%d", gets, posts)
	}
}

func TestGetOrCreateResource_CreatesWhenAbsent(t *testing.T) {
	var gets, posts int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			atomic.AddInt32(&gets, 1)
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"resource not found"}`))
		case http.MethodPost:
			atomic.AddInt32(&posts, 1)
			w.WriteHeader(http.StatusCreated)
			writeResource(t, w, "fresh")
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.GetOrCreateResource(context.Background(), testURL)
	if err != nil {
		t.Fatalf("GetOrCreateResource error: %v", err)
	}
	if res.Title != "fresh" {
		t.Fatalf("expected POST body, got %+v", res)
	}
	if gets != 1 || posts != 1 {
		t.Fatalf("want 1 GET / 1 POST, got %d/%d", gets, posts)
	}
}

func TestGetOrCreateResource_LostRaceRefetches(t *testing.T) {
	var gets int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			switch atomic.AddInt32(&gets, 1) {
			case 1:
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"detail":"resource not found"}`))
			default:
				writeResource(t, w, "winner")
			}
		case http.MethodPost:
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"detail":"resource already exists"}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.GetOrCreateResource(context.Background(), testURL)
	if err != nil {
		t.Fatalf("GetOrCreateResource error: %v", err)
	}
	if res.Title != "winner" {
		t.Fatalf("expected the race winner's record, got %+v", res)
	}
	if gets != 2 {
		t.Fatalf("want exactly 2 GETs, got %d", gets)
	}
}

func TestGetOrCreateResource_SecondGetFailureDoesNotLoop(t *testing.T) {
	var gets, posts int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			atomic.AddInt32(&gets, 1)
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"resource not found"}`))
		case http.MethodPost:
			atomic.AddInt32(&posts, 1)
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"detail":"resource already exists"}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetOrCreateResource(context.Background(), testURL)
	if err == nil {
		t.Fatal("expected error when the final GET fails")
	}
	if !IsNotFound(err) {
		t.Fatalf("expected a 404 typed error, got %v", err)
	}
	// 404 after a 409 is a genuine failure; the protocol must not re-enter
	// the create step.
	if gets != 2 || posts != 1 {
		t.Fatalf("want 2 GETs / 1 POST, got %d/%d", gets, posts)
	}
}

func TestGetOrCreateResource_UnexpectedStatusPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			t.Fatal("create issued after a non-404 failure")
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"database exploded"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetOrCreateResource(context.Background(), testURL)
	if err == nil {
		t.Fatal("expected error")
	}
	var ae *APIError
	if !errors.As(err, &ae) || ae.Status != http.StatusInternalServerError {
		t.Fatalf("expected a 500 typed error, got %v", err)
	}
	if ae.Detail != "database exploded" {
		t.Fatalf("expected server detail, got %q", ae.Detail)
	}
}

func TestGetOrCreateResource_Idempotent(t *testing.T) {
	var posts int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeResource(t, w, "stable")
		case http.MethodPost:
			atomic.AddInt32(&posts, 1)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	first, err := c.GetOrCreateResource(context.Background(), testURL)
	if err != nil {
		t.Fatalf("first call error: %v", err)
	}
	second, err := c.GetOrCreateResource(context.Background(), testURL)
	if err != nil {
		t.Fatalf("second call error: %v", err)
	}
	if first.URLHash != second.URLHash || first.Title != second.Title {
		t.Fatalf("resources differ: %+v vs %+v", first, second)
	}
	if posts != 0 {
		t.Fatalf("sequential calls issued %d POSTs, want 0", posts)
	}
}

func TestGetResource_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"resource not found"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetResource(context.Background(), testURL)
	if !IsNotFound(err) {
		t.Fatalf("expected IsNotFound, got %v", err)
	}
}

func TestCreateResource_Conflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"detail":"resource already exists"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.CreateResource(context.Background(), testURL)
	if !IsConflict(err) {
		t.Fatalf("expected IsConflict, got %v", err)
	}
}

func TestResourceOps_RejectBadURL(t *testing.T) {
	c := New("http://unused.invalid")
	for _, bad := range []string{"", "notaurl", "ftp://example.com/x", "/relative/path"} {
		if _, err := c.GetOrCreateResource(context.Background(), bad); err == nil {
			t.Errorf("GetOrCreateResource(%q) accepted invalid url", bad)
		}
	}
}
