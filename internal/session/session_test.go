package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"itask-cli/internal/model"
	"itask-cli/internal/store"
)

func openKV(t *testing.T) *store.KV {
	t.Helper()
	kv, err := store.Store{Dir: t.TempDir()}.OpenKV(context.Background())
	if err != nil {
		t.Fatalf("OpenKV: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestSession_BeginPersistsAndLoads(t *testing.T) {
	ctx := context.Background()
	kv := openKV(t)
	s := New(kv)
	if s.Authenticated() {
		t.Fatalf("fresh session should be anonymous")
	}
	if err := s.Begin(ctx, "tok", model.RoleAdmin, "Ada"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !s.IsAdmin() || s.Username() != "Ada" {
		t.Fatalf("unexpected in-memory session")
	}

	loaded, err := Load(ctx, kv)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Token() != "tok" || loaded.Role() != model.RoleAdmin || loaded.Username() != "Ada" {
		t.Fatalf("unexpected loaded session: token=%q role=%q name=%q", loaded.Token(), loaded.Role(), loaded.Username())
	}
}

func TestSession_EndClearsAllKeys(t *testing.T) {
	ctx := context.Background()
	kv := openKV(t)
	s := New(kv)
	_ = s.Begin(ctx, "tok", model.RoleUser, "Bob")
	_ = s.MarkFeedback(ctx, true)

	if err := s.End(ctx); err != nil {
		t.Fatalf("End: %v", err)
	}
	if s.Authenticated() || s.FeedbackSubmitted() {
		t.Fatalf("expected cleared session")
	}
	all, err := kv.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range Keys {
		if _, ok := all[k]; ok {
			t.Fatalf("key %q still persisted", k)
		}
	}
}

func TestSession_FeedbackFlag(t *testing.T) {
	ctx := context.Background()
	kv := openKV(t)
	s := New(kv)
	_ = s.Begin(ctx, "tok", "", "Bob")
	if s.Role() != model.RoleUser {
		t.Fatalf("empty role should default to user, got %q", s.Role())
	}
	if err := s.MarkFeedback(ctx, true); err != nil {
		t.Fatal(err)
	}
	loaded, _ := Load(ctx, kv)
	if !loaded.FeedbackSubmitted() {
		t.Fatalf("expected persisted feedback flag")
	}

	// A new login resets the flag.
	_ = loaded.Begin(ctx, "tok2", model.RoleUser, "Bob")
	again, _ := Load(ctx, kv)
	if again.FeedbackSubmitted() {
		t.Fatalf("expected feedback flag reset on login")
	}
}

func TestSession_BeginRejectsEmptyToken(t *testing.T) {
	if err := New(nil).Begin(context.Background(), "  ", model.RoleUser, "x"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSession_ClaimsAndExpiry(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(nil)
	if _, err := s.Claims(); err != ErrNoSession {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	tok := signed(t, tokenClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	_ = s.Begin(context.Background(), tok, model.RoleAdmin, "Ada")
	c, err := s.Claims()
	if err != nil {
		t.Fatalf("Claims: %v", err)
	}
	if c.Subject != "u1" || c.Role != "admin" || !c.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected claims: %+v", c)
	}
	if s.Expired(now) {
		t.Fatalf("should not be expired yet")
	}
	if !s.Expired(now.Add(2 * time.Hour)) {
		t.Fatalf("should be expired")
	}
}

func TestSession_OpaqueTokenNeverExpires(t *testing.T) {
	s := New(nil)
	_ = s.Begin(context.Background(), "not-a-jwt", model.RoleUser, "x")
	if s.Expired(time.Now()) {
		t.Fatalf("opaque token should not be treated as expired")
	}
}
