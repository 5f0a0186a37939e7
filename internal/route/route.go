// Package route is the client-side screen surface: which paths exist, which
// need a session, and where a login lands.
package route

import (
	"strings"

	"itask-cli/internal/model"
)

type Route string

const (
	Root     Route = "/"
	Login    Route = "/login"
	Register Route = "/register"
	Forgot   Route = "/forgot"
	Reset    Route = "/reset"
	Home     Route = "/home"
	Todo     Route = "/todo"
	Admin    Route = "/admin"
)

// All lists the known routes in display order.
var All = []Route{Root, Login, Register, Forgot, Reset, Home, Todo, Admin}

func (r Route) Private() bool {
	switch r {
	case Home, Todo, Admin:
		return true
	}
	return false
}

func (r Route) Known() bool {
	for _, k := range All {
		if k == r {
			return true
		}
	}
	return false
}

// Normalize accepts "todo", "/todo", "/todo/" and the like.
func Normalize(p string) Route {
	p = strings.TrimSpace(p)
	if p == "" {
		return Root
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return Route(strings.ToLower(p))
}

// Resolve maps a requested path to the screen that is actually shown.
// Unknown paths and private paths without a session go to /login; "/" is the
// login screen.
func Resolve(path string, authenticated bool) Route {
	r := Normalize(path)
	if !r.Known() || r == Root {
		return Login
	}
	if r.Private() && !authenticated {
		return Login
	}
	return r
}

// AfterLogin is where a successful login lands.
func AfterLogin(role model.Role) Route {
	if role == model.RoleAdmin {
		return Admin
	}
	return Home
}

// Start is the first screen for a process with the given session state.
func Start(authenticated bool, role model.Role) Route {
	if !authenticated {
		return Login
	}
	return AfterLogin(role)
}
