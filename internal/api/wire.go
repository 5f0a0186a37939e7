package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"itask-cli/internal/model"
)

// Wire shapes follow the backend's field names (_id, taskname, iscompleted).

type wireTodo struct {
	ID          string     `json:"_id"`
	TaskName    string     `json:"taskname"`
	IsCompleted bool       `json:"iscompleted"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

func (w wireTodo) toModel() model.Todo {
	t := model.Todo{ID: w.ID, Text: w.TaskName, Completed: w.IsCompleted}
	if w.CreatedAt != nil {
		t.CreatedAt = w.CreatedAt.UTC()
	}
	return t
}

type wireUser struct {
	ID    string     `json:"_id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

func (w wireUser) toModel() model.User {
	return model.User{ID: w.ID, Name: w.Name, Email: w.Email, Role: w.Role}
}

type wireFeedback struct {
	ID         string `json:"_id"`
	Suggestion string `json:"suggestion"`
	Rating     int    `json:"rating"`
	UserID     *struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"userId,omitempty"`
}

func (w wireFeedback) toModel() model.Feedback {
	f := model.Feedback{ID: w.ID, Suggestion: w.Suggestion, Rating: w.Rating}
	if w.UserID != nil {
		f.UserName = w.UserID.Name
		f.UserEmail = w.UserID.Email
	}
	return f
}

// looseFloat accepts a JSON number, a numeric string or null.
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = looseFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = looseFloat(v)
	return nil
}

type wireStats struct {
	TotalUsers     int        `json:"totalUsers"`
	TotalAdmins    int        `json:"totalAdmins"`
	TotalFeedbacks int        `json:"totalFeedbacks"`
	AvgRating      looseFloat `json:"avgRating"`
}

// Requests.

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type TodoRequest struct {
	TaskName    string `json:"taskname" validate:"required"`
	IsCompleted bool   `json:"iscompleted"`
}

type FeedbackRequest struct {
	Suggestion string `json:"suggestion" validate:"required"`
	Rating     int    `json:"rating" validate:"min=1,max=5"`
}

type RoleRequest struct {
	Role model.Role `json:"role" validate:"oneof=user admin"`
}
