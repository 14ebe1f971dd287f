package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/users" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "golang berlin" {
			t.Errorf("unexpected query %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"total_count": 2,
			"items": [
				{"login": "ada", "html_url": "https://github.com/ada", "score": 12.5},
				{"login": "grace", "html_url": "https://github.com/grace", "score": 9.1}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(1000))

	resp, err := c.SearchUsers(context.Background(), "golang berlin", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TotalCount != 2 {
		t.Errorf("expected total 2, got %d", resp.TotalCount)
	}
	if len(resp.Items) != 2 || resp.Items[0].Login != "ada" {
		t.Errorf("unexpected items: %+v", resp.Items)
	}
}

func TestSearchUsers_NonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"API rate limit exceeded"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL), WithRateLimit(1000))

	if _, err := c.SearchUsers(context.Background(), "q", 5); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestSearchUsers_NoTokenOmitsAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("expected no auth header without token")
		}
		_, _ = w.Write([]byte(`{"total_count":0,"items":[]}`))
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL), WithRateLimit(1000))
	if _, err := c.SearchUsers(context.Background(), "q", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
