package searchclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func TestSearchPostsShortName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/documents/search" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer cred" {
			t.Fatalf("authorization = %q", got)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["shortName"] != "erp" {
			t.Fatalf("shortName = %q", body["shortName"])
		}
		_, _ = w.Write([]byte(`[{"documentId":"7","title":"ERP Guide","createdAt":"2024-12-01T00:00:00Z","commentCount":2}]`))
	}))
	defer srv.Close()

	hits, err := NewClient(srv.URL, DefaultBreakerConfig()).Search(context.Background(), "cred", "erp")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].DocumentID != "7" || hits[0].CommentCount != 2 {
		t.Fatalf("unexpected hits %+v", hits)
	}
	if !hits[0].CreatedAt.Equal(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("createdAt = %v", hits[0].CreatedAt)
	}
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, BreakerConfig{MaxRequests: 1, Timeout: time.Minute, FailureThreshold: 0.5, MinRequests: 2})
	for i := 0; i < 5; i++ {
		_, err := c.Search(context.Background(), "", "x")
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
			t.Fatalf("call %d: expected 401 APIError, got %v", i, err)
		}
	}
	if c.State() != gobreaker.StateClosed {
		t.Fatalf("breaker state = %v, want closed", c.State())
	}
}

func TestServerErrorsOpenBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, BreakerConfig{MaxRequests: 1, Timeout: time.Minute, FailureThreshold: 0.5, MinRequests: 2})
	for i := 0; i < 2; i++ {
		if _, err := c.Search(context.Background(), "", "x"); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}
	_, err := c.Search(context.Background(), "", "x")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("remote calls = %d, want 2", calls.Load())
	}
}
