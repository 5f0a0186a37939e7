package apitest

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

type ctxKey struct{}

func userIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if raw == "" {
			writeMessage(w, http.StatusUnauthorized, "No token provided")
			return
		}
		var claims Claims
		_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		s.mu.Lock()
		_, ok := s.users[claims.Subject]
		s.mu.Unlock()
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "User not found")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims.Subject)))
	}
}

func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		u := s.users[userIDFrom(r)]
		isAdmin := u != nil && u.Role == "admin"
		s.mu.Unlock()
		if !isAdmin {
			writeMessage(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r)
	})
}

func userJSON(u *user) map[string]any {
	return map[string]any{"_id": u.ID, "name": u.Name, "email": u.Email, "role": u.Role}
}

func (s *Server) findByEmailLocked(email string) *user {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.findByEmailLocked(in.Email)
	if u == nil || bcrypt.CompareHashAndPassword(u.Hash, []byte(in.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid email or password"})
		return
	}
	tok, err := s.issueLocked(u, 24*time.Hour)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": tok, "user": userJSON(u)})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findByEmailLocked(in.Email) != nil {
		writeMessage(w, http.StatusConflict, "User already exists")
		return
	}
	id := s.addUserLocked(in.Name, in.Email, in.Password, "user")
	u := s.users[id]
	tok, err := s.issueLocked(u, 24*time.Hour)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully!",
		"token":   tok,
		"user":    map[string]any{"name": u.Name},
	})
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		IDToken string `json:"idToken"`
	}
	if err := decode(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.google[in.IDToken]
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Invalid Google token")
		return
	}
	u := s.findByEmailLocked(email)
	if u == nil {
		name := strings.SplitN(email, "@", 2)[0]
		u = s.users[s.addUserLocked(name, email, uuid.NewString(), "user")]
	}
	tok, err := s.issueLocked(u, 24*time.Hour)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": tok, "user": userJSON(u)})
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := s.todosLocked(userIDFrom(r))
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"users": list})
}

type todoBody struct {
	TaskName    string `json:"taskname"`
	IsCompleted bool   `json:"iscompleted"`
}

func (s *Server) handleAddTodo(w http.ResponseWriter, r *http.Request) {
	var in todoBody
	if err := decode(r, &in); err != nil || strings.TrimSpace(in.TaskName) == "" {
		writeMessage(w, http.StatusBadRequest, "taskname is required")
		return
	}
	uid := userIDFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.todosLocked(uid) {
		if strings.EqualFold(t.TaskName, in.TaskName) {
			writeMessage(w, http.StatusBadRequest, "Todo already exists")
			return
		}
	}
	t := s.addTodoLocked(uid, in.TaskName, in.IsCompleted)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) ownedTodoLocked(w http.ResponseWriter, r *http.Request) *todo {
	id := mux.Vars(r)["id"]
	if status, ok := s.failures[id]; ok {
		writeMessage(w, status, "forced failure")
		return nil
	}
	t := s.todos[id]
	if t == nil || t.owner != userIDFrom(r) {
		writeMessage(w, http.StatusNotFound, "Todo not found")
		return nil
	}
	return t
}

func (s *Server) handleEditTodo(w http.ResponseWriter, r *http.Request) {
	var in todoBody
	if err := decode(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.ownedTodoLocked(w, r)
	if t == nil {
		return
	}
	if strings.TrimSpace(in.TaskName) != "" {
		t.TaskName = in.TaskName
	}
	t.IsCompleted = in.IsCompleted
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.ownedTodoLocked(w, r)
	if t == nil {
		return
	}
	delete(s.todos, t.ID)
	writeMessage(w, http.StatusOK, "Todo deleted")
}

func (s *Server) feedbackOfLocked(userID string) *feedback {
	for _, f := range s.feedback {
		if f.UserID == userID {
			return f
		}
	}
	return nil
}

func (s *Server) handleUserFeedback(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.feedbackOfLocked(userIDFrom(r))
	if f == nil {
		writeJSON(w, http.StatusOK, map[string]any{"hasFeedback": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hasFeedback": true, "suggestion": f.Suggestion, "rating": f.Rating})
}

func (s *Server) handleAddFeedback(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Suggestion string `json:"suggestion"`
		Rating     int    `json:"rating"`
	}
	if err := decode(r, &in); err != nil || strings.TrimSpace(in.Suggestion) == "" || in.Rating < 1 || in.Rating > 5 {
		writeMessage(w, http.StatusBadRequest, "Suggestion and rating (1-5) are required")
		return
	}
	uid := userIDFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.feedbackOfLocked(uid) != nil {
		writeMessage(w, http.StatusBadRequest, "You have already submitted feedback")
		return
	}
	f := &feedback{ID: uuid.NewString(), UserID: uid, Suggestion: in.Suggestion, Rating: in.Rating}
	s.feedback[f.ID] = f
	writeMessage(w, http.StatusCreated, "Feedback submitted")
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	admins := 0
	for _, u := range s.users {
		if u.Role == "admin" {
			admins++
		}
	}
	sum := 0
	for _, f := range s.feedback {
		sum += f.Rating
	}
	avg := "0"
	if len(s.feedback) > 0 {
		// The real backend sends the average pre-formatted.
		avg = strconv.FormatFloat(float64(sum)/float64(len(s.feedback)), 'f', 1, 64)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalUsers":     len(s.users),
		"totalAdmins":    admins,
		"totalFeedbacks": len(s.feedback),
		"avgRating":      avg,
	})
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]*user, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].JoinedAt.Equal(users[j].JoinedAt) {
			return users[i].Email < users[j].Email
		}
		return users[i].JoinedAt.Before(users[j].JoinedAt)
	})
	out := make([]map[string]any, 0, len(users))
	for _, u := range users {
		out = append(out, userJSON(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Role string `json:"role"`
	}
	if err := decode(r, &in); err != nil || (in.Role != "admin" && in.Role != "user") {
		writeMessage(w, http.StatusBadRequest, "Invalid role")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[mux.Vars(r)["id"]]
	if u == nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	u.Role = in.Role
	writeJSON(w, http.StatusOK, map[string]any{"user": userJSON(u)})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users[id] == nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	delete(s.users, id)
	for fid, f := range s.feedback {
		if f.UserID == id {
			delete(s.feedback, fid)
		}
	}
	for tid, t := range s.todos {
		if t.owner == id {
			delete(s.todos, tid)
		}
	}
	writeMessage(w, http.StatusOK, "User deleted")
}

func (s *Server) handleFeedbacks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*feedback, 0, len(s.feedback))
	for _, f := range s.feedback {
		list = append(list, f)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	out := make([]map[string]any, 0, len(list))
	for _, f := range list {
		row := map[string]any{"_id": f.ID, "suggestion": f.Suggestion, "rating": f.Rating}
		if u := s.users[f.UserID]; u != nil {
			row["userId"] = map[string]any{"name": u.Name, "email": u.Email}
		}
		out = append(out, row)
	}
	writeJSON(w, http.StatusOK, map[string]any{"feedbacks": out})
}

func (s *Server) handleDeleteFeedback(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.feedback[id] == nil {
		writeMessage(w, http.StatusNotFound, "Feedback not found")
		return
	}
	delete(s.feedback, id)
	writeMessage(w, http.StatusOK, "Feedback deleted")
}
