package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestMyRoles_CachesPerToken(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/me/roles" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer token-a" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		calls.Add(1)
		w.Write([]byte(`{"id":"user-1","roles":["TUTOR"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rr, err := c.MyRoles(ctx, "Bearer token-a")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rr.ID != "user-1" || len(rr.Roles) != 1 || rr.Roles[0] != "TUTOR" {
			t.Fatalf("unexpected roles response: %+v", rr)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}

	if _, err := c.MyRoles(ctx, "Bearer token-b"); err == nil {
		t.Fatalf("expected error for unknown token")
	}
}

func TestMyRoles_CacheExpires(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"id":"user-1","roles":["STUDENT"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Millisecond)
	ctx := context.Background()

	if _, err := c.MyRoles(ctx, "Bearer token-a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := c.MyRoles(ctx, "Bearer token-a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected cache to expire, got %d calls", got)
	}
}

func TestGetPublicProfile_CachesPerUser(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("id") != "user-1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"name":"Ana","avatarUrl":"https://cdn/ana.png"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		p, err := c.GetPublicProfile(ctx, "user-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Name != "Ana" || p.AvatarURL != "https://cdn/ana.png" {
			t.Fatalf("unexpected profile: %+v", p)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}

	if _, err := c.GetPublicProfile(ctx, "user-2"); err == nil {
		t.Fatalf("expected error for missing user")
	}
}
