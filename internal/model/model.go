package model

import (
	"errors"
	"fmt"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Toggled returns the role an admin toggle flips to.
func (r Role) Toggled() Role {
	if r == RoleAdmin {
		return RoleUser
	}
	return RoleAdmin
}

type Todo struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

func (t Todo) State() TodoState {
	if t.Completed {
		return StateCompleted
	}
	return StatePending
}

// TodoState is the client-visible lifecycle of a todo: Pending <-> Completed -> Deleted.
type TodoState int

const (
	StatePending TodoState = iota
	StateCompleted
	StateDeleted
)

func (s TodoState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCompleted:
		return "completed"
	case StateDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type TodoAction int

const (
	ActionComplete TodoAction = iota
	ActionReopen
	ActionDelete
)

func (a TodoAction) String() string {
	switch a {
	case ActionComplete:
		return "complete"
	case ActionReopen:
		return "reopen"
	case ActionDelete:
		return "delete"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

var ErrInvalidTransition = errors.New("invalid transition")

// Transition applies action to state. Deleted is terminal.
func Transition(s TodoState, a TodoAction) (TodoState, error) {
	switch s {
	case StatePending:
		switch a {
		case ActionComplete:
			return StateCompleted, nil
		case ActionDelete:
			return StateDeleted, nil
		}
	case StateCompleted:
		switch a {
		case ActionReopen:
			return StatePending, nil
		case ActionDelete:
			return StateDeleted, nil
		}
	}
	return s, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, a, s)
}

// Tab is one of the two views over the todo list.
type Tab string

const (
	TabPending   Tab = "todo"
	TabCompleted Tab = "completed"
)

func (t Tab) Other() Tab {
	if t == TabCompleted {
		return TabPending
	}
	return TabCompleted
}

// Holds reports whether td is listed under this tab.
// TabOf is the tab that lists td.
func TabOf(td Todo) Tab {
	if td.Completed {
		return TabCompleted
	}
	return TabPending
}

func (t Tab) Holds(td Todo) bool { return TabOf(td) == t }

func (t Tab) Label() string {
	if t == TabCompleted {
		return "Completed Todo"
	}
	return "Todo"
}

func ParseTab(s string) (Tab, error) {
	switch s {
	case "", "todo", "pending":
		return TabPending, nil
	case "completed", "done":
		return TabCompleted, nil
	default:
		return "", fmt.Errorf("unknown tab: %q (expected todo|completed)", s)
	}
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

type Feedback struct {
	ID         string `json:"id"`
	Suggestion string `json:"suggestion"`
	Rating     int    `json:"rating"`
	UserName   string `json:"userName,omitempty"`
	UserEmail  string `json:"userEmail,omitempty"`
}

type Stats struct {
	TotalUsers     int     `json:"totalUsers"`
	TotalAdmins    int     `json:"totalAdmins"`
	TotalFeedbacks int     `json:"totalFeedbacks"`
	AvgRating      float64 `json:"avgRating"`
}
