package imagesearch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"breakdown/internal/domain"
)

func TestPexelsClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "key-123" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("query"); got != "copper wire" {
			t.Errorf("query = %q", got)
		}
		if got := r.URL.Query().Get("per_page"); got != "1" {
			t.Errorf("per_page = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"photos":[{"url":"https://pexels.com/p/1","photographer":"A","src":{"large":"https://img/large.jpg","medium":"https://img/medium.jpg"}}]}`))
	}))
	defer srv.Close()

	c := NewPexelsClientWithConfig("key-123", srv.URL, time.Second)
	res, err := c.Search(context.Background(), "copper wire")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.ImageURL != "https://img/large.jpg" || res.ThumbnailURL != "https://img/medium.jpg" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestPexelsClient_NoPhotos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"photos":[]}`))
	}))
	defer srv.Close()

	res, err := NewPexelsClientWithConfig("k", srv.URL, time.Second).Search(context.Background(), "x")
	if err != nil || res != nil {
		t.Fatalf("expected nil result, got %+v, %v", res, err)
	}
}

func TestPexelsClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	_, err := NewPexelsClientWithConfig("k", srv.URL, time.Second).Search(context.Background(), "x")
	if !errors.Is(err, domain.ErrEnrichment) {
		t.Fatalf("expected ErrEnrichment, got %v", err)
	}
}
