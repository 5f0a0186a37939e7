// Package session holds the signed-in user's token, role and display name for
// the lifetime of the process, persisted to the local key/value table so the
// CLI and TUI share one login.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"itask-cli/internal/model"
)

const (
	KeyToken             = "token"
	KeyRole              = "role"
	KeyUsername          = "username"
	KeyFeedbackSubmitted = "feedbackSubmitted"
)

// Keys lists every persisted key. Logout removes all of them.
var Keys = []string{KeyToken, KeyRole, KeyUsername, KeyFeedbackSubmitted}

var ErrNoSession = errors.New("no session")

// Backend is where the session persists. store.KV satisfies it.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	SetMany(ctx context.Context, pairs map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

type Session struct {
	mu sync.RWMutex

	backend           Backend
	token             string
	role              model.Role
	username          string
	feedbackSubmitted bool
}

// New returns an empty session. backend may be nil for a memory-only session.
func New(backend Backend) *Session {
	return &Session{backend: backend}
}

// Load reads the persisted session from backend.
func Load(ctx context.Context, backend Backend) (*Session, error) {
	s := New(backend)
	if backend == nil {
		return s, nil
	}
	vals := make(map[string]string, len(Keys))
	for _, k := range Keys {
		v, err := backend.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		vals[k] = v
	}
	s.token = strings.TrimSpace(vals[KeyToken])
	s.role = model.Role(strings.TrimSpace(vals[KeyRole]))
	s.username = vals[KeyUsername]
	s.feedbackSubmitted = vals[KeyFeedbackSubmitted] == "true"
	if s.token != "" && s.role == "" {
		s.role = model.RoleUser
	}
	return s, nil
}

// Token implements api.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Role() model.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

func (s *Session) FeedbackSubmitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feedbackSubmitted
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func (s *Session) IsAdmin() bool {
	return s.Authenticated() && s.Role() == model.RoleAdmin
}

// Begin records a fresh login. A new login always starts with feedback unknown.
func (s *Session) Begin(ctx context.Context, token string, role model.Role, username string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("begin session: empty token")
	}
	if role == "" {
		role = model.RoleUser
	}
	s.mu.Lock()
	s.token = token
	s.role = role
	s.username = username
	s.feedbackSubmitted = false
	s.mu.Unlock()

	if s.backend == nil {
		return nil
	}
	if err := s.backend.Delete(ctx, KeyFeedbackSubmitted); err != nil {
		return err
	}
	return s.backend.SetMany(ctx, map[string]string{
		KeyToken:    token,
		KeyRole:     string(role),
		KeyUsername: username,
	})
}

// End clears every session key.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.role = ""
	s.username = ""
	s.feedbackSubmitted = false
	s.mu.Unlock()
	if s.backend == nil {
		return nil
	}
	return s.backend.Delete(ctx, Keys...)
}

func (s *Session) MarkFeedback(ctx context.Context, submitted bool) error {
	s.mu.Lock()
	s.feedbackSubmitted = submitted
	s.mu.Unlock()
	if s.backend == nil {
		return nil
	}
	if !submitted {
		return s.backend.Delete(ctx, KeyFeedbackSubmitted)
	}
	return s.backend.SetMany(ctx, map[string]string{KeyFeedbackSubmitted: "true"})
}

// Claims is what the client can read from its token without the server key.
type Claims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

type tokenClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Claims decodes the token payload without verifying its signature. Only the
// backend can verify; this is for display and early expiry checks.
func (s *Session) Claims() (Claims, error) {
	tok := s.Token()
	if tok == "" {
		return Claims{}, ErrNoSession
	}
	var tc tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &tc); err != nil {
		return Claims{}, err
	}
	out := Claims{Subject: tc.Subject, Role: tc.Role}
	if tc.ExpiresAt != nil {
		out.ExpiresAt = tc.ExpiresAt.Time
	}
	return out, nil
}

// Expired reports whether the token carries an expiry that is already past.
// Opaque tokens are never considered expired.
func (s *Session) Expired(now time.Time) bool {
	c, err := s.Claims()
	if err != nil || c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(c.ExpiresAt)
}
