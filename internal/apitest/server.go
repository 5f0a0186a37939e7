// Package apitest is an in-memory stand-in for the iTask backend. It speaks
// the same routes and JSON shapes so the client, controllers and commands can
// be exercised end to end with httptest.
package apitest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

type user struct {
	ID       string
	Name     string
	Email    string
	Role     string
	Hash     []byte
	JoinedAt time.Time
}

type todo struct {
	ID          string    `json:"_id"`
	TaskName    string    `json:"taskname"`
	IsCompleted bool      `json:"iscompleted"`
	CreatedAt   time.Time `json:"createdAt"`
	owner       string
	seq         int
}

type feedback struct {
	ID         string
	UserID     string
	Suggestion string
	Rating     int
}

// Request is one request the server received.
type Request struct {
	Method string
	Path   string
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Server struct {
	mu sync.Mutex

	secret   []byte
	now      func() time.Time
	seq      int
	users    map[string]*user
	todos    map[string]*todo
	feedback map[string]*feedback
	google   map[string]string // idToken -> email
	failures map[string]int    // todo id -> forced status for edit/delete
	requests []Request

	router *mux.Router
	http   *httptest.Server
}

func New() *Server {
	s := &Server{
		secret:   []byte(uuid.NewString()),
		now:      func() time.Time { return time.Now().UTC() },
		users:    map[string]*user{},
		todos:    map[string]*todo{},
		feedback: map[string]*feedback{},
		google:   map[string]string{},
		failures: map[string]int{},
	}
	s.routes()
	return s
}

// Start serves the fake backend on a loopback listener.
func Start() *Server {
	s := New()
	s.http = httptest.NewServer(s)
	return s
}

func (s *Server) URL() string {
	if s.http == nil {
		return ""
	}
	return s.http.URL
}

func (s *Server) Close() {
	if s.http != nil {
		s.http.Close()
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path})
	s.mu.Unlock()
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := mux.NewRouter()
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/signup", s.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/auth/google-login", s.handleGoogleLogin).Methods(http.MethodPost)

	r.HandleFunc("/get-todo-list", s.authed(s.handleListTodos)).Methods(http.MethodGet)
	r.HandleFunc("/add-todo", s.authed(s.handleAddTodo)).Methods(http.MethodPost)
	r.HandleFunc("/edit-todo/{id}", s.authed(s.handleEditTodo)).Methods(http.MethodPut)
	r.HandleFunc("/delete-todo/{id}", s.authed(s.handleDeleteTodo)).Methods(http.MethodDelete)

	r.HandleFunc("/feedback/user-feedback", s.authed(s.handleUserFeedback)).Methods(http.MethodGet)
	r.HandleFunc("/feedback/add-feedback", s.authed(s.handleAddFeedback)).Methods(http.MethodPost)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/stats", s.adminOnly(s.handleStats)).Methods(http.MethodGet)
	admin.HandleFunc("/users", s.adminOnly(s.handleUsers)).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}/role", s.adminOnly(s.handleSetRole)).Methods(http.MethodPatch)
	admin.HandleFunc("/users/{id}", s.adminOnly(s.handleDeleteUser)).Methods(http.MethodDelete)
	admin.HandleFunc("/feedbacks", s.adminOnly(s.handleFeedbacks)).Methods(http.MethodGet)
	admin.HandleFunc("/feedbacks/{id}", s.adminOnly(s.handleDeleteFeedback)).Methods(http.MethodDelete)
	s.router = r
}

// Seeding helpers.

func (s *Server) AddUser(name, email, password, role string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(name, email, password, role)
}

func (s *Server) addUserLocked(name, email, password, role string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	if role == "" {
		role = "user"
	}
	u := &user{
		ID:       uuid.NewString(),
		Name:     name,
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Role:     role,
		Hash:     hash,
		JoinedAt: s.now(),
	}
	s.users[u.ID] = u
	return u.ID
}

// RegisterGoogleToken makes idToken exchangeable for a session of email.
func (s *Server) RegisterGoogleToken(idToken, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.google[idToken] = strings.ToLower(email)
}

func (s *Server) SeedTodo(userID, text string, completed bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTodoLocked(userID, text, completed).ID
}

func (s *Server) addTodoLocked(userID, text string, completed bool) *todo {
	s.seq++
	t := &todo{
		ID:          uuid.NewString(),
		TaskName:    text,
		IsCompleted: completed,
		CreatedAt:   s.now(),
		owner:       userID,
		seq:         s.seq,
	}
	s.todos[t.ID] = t
	return t
}

func (s *Server) SeedFeedback(userID, suggestion string, rating int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := &feedback{ID: uuid.NewString(), UserID: userID, Suggestion: suggestion, Rating: rating}
	s.feedback[f.ID] = f
	return f.ID
}

// FailTodo forces edit/delete of the given todo ids to answer status.
func (s *Server) FailTodo(status int, ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.failures[id] = status
	}
}

// TokenFor issues a session token for userID.
func (s *Server) TokenFor(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[userID]
	if u == nil {
		return ""
	}
	tok, err := s.issueLocked(u, 24*time.Hour)
	if err != nil {
		panic(err)
	}
	return tok
}

// ExpiredTokenFor issues an already expired token for userID.
func (s *Server) ExpiredTokenFor(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, err := s.issueLocked(s.users[userID], -time.Hour)
	if err != nil {
		panic(err)
	}
	return tok
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests matched method and path prefix.
func (s *Server) Count(method, pathPrefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			n++
		}
	}
	return n
}

// Todos returns the todos owned by userID in creation order.
func (s *Server) Todos(userID string) []todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.todosLocked(userID)
}

func (s *Server) todosLocked(userID string) []todo {
	out := make([]todo, 0)
	for _, t := range s.todos {
		if t.owner == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (s *Server) UserRole(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.users[userID]; u != nil {
		return u.Role
	}
	return ""
}

func (s *Server) issueLocked(u *user, ttl time.Duration) (string, error) {
	if u == nil {
		return "", errors.New("unknown user")
	}
	now := s.now()
	claims := Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"message": msg})
}

func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
