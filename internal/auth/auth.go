// Package auth runs what happens after an auth form validates: the backend
// call, the session update and the screen to land on.
package auth

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"itask-cli/internal/api"
	"itask-cli/internal/form"
	"itask-cli/internal/model"
	"itask-cli/internal/route"
	"itask-cli/internal/session"
)

type API interface {
	Login(ctx context.Context, req api.LoginRequest) (api.AuthResult, error)
	Signup(ctx context.Context, req api.SignupRequest) (api.AuthResult, error)
	GoogleLogin(ctx context.Context, idToken string) (api.AuthResult, error)
}

// Outcome is where a flow lands and what it tells the user.
type Outcome struct {
	Route route.Route `json:"route"`
	Toast string      `json:"message"`
	User  model.User  `json:"user"`
}

// Error is a failed flow with the text to show.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

type Flows struct {
	api  API
	sess *session.Session
	log  *zap.Logger
}

func New(a API, sess *session.Session, log *zap.Logger) *Flows {
	if log == nil {
		log = zap.NewNop()
	}
	return &Flows{api: a, sess: sess, log: log}
}

func (f *Flows) Login(ctx context.Context, v form.Values) (Outcome, error) {
	res, err := f.api.Login(ctx, api.LoginRequest{
		Email:    strings.TrimSpace(v["email"]),
		Password: v["password"],
	})
	if err != nil {
		f.log.Warn("login failed", zap.Error(err))
		return Outcome{}, &Error{Message: api.ServerMessage(err, "Login error"), Err: err}
	}
	return f.begin(ctx, res, "Login successful")
}

func (f *Flows) Google(ctx context.Context, idToken string) (Outcome, error) {
	if strings.TrimSpace(idToken) == "" {
		return Outcome{}, &Error{Message: "Google login failed"}
	}
	res, err := f.api.GoogleLogin(ctx, idToken)
	if err != nil {
		f.log.Warn("google login failed", zap.Error(err))
		var apiErr *api.APIError
		if !errors.As(err, &apiErr) {
			return Outcome{}, &Error{Message: "Google login failed", Err: err}
		}
		return Outcome{}, &Error{Message: api.ServerMessage(err, "Google login error"), Err: err}
	}
	return f.begin(ctx, res, "Logged in with Google")
}

// Register creates the account. When the backend also issues a token the
// user is signed in; otherwise they land on the login screen.
func (f *Flows) Register(ctx context.Context, v form.Values) (Outcome, error) {
	res, err := f.api.Signup(ctx, api.SignupRequest{
		Name:     strings.TrimSpace(v["name"]),
		Email:    strings.TrimSpace(v["email"]),
		Password: v["password"],
	})
	if err != nil {
		f.log.Warn("signup failed", zap.Error(err))
		return Outcome{}, &Error{Message: api.ServerMessage(err, "Registration failed"), Err: err}
	}
	toast := strings.TrimSpace(res.Message)
	if toast == "" {
		toast = "User registered successfully!"
	}
	if res.Token == "" {
		return Outcome{Route: route.Login, Toast: toast, User: res.User}, nil
	}
	if err := f.sess.Begin(ctx, res.Token, res.User.Role, res.User.Name); err != nil {
		return Outcome{}, err
	}
	return Outcome{Route: route.Home, Toast: toast, User: res.User}, nil
}

// Forgot records a reset request. The backend has no reset endpoint.
func (f *Flows) Forgot(ctx context.Context, v form.Values) (Outcome, error) {
	f.log.Info("password reset link requested", zap.String("email", strings.TrimSpace(v["email"])))
	return Outcome{Route: route.Login, Toast: "Reset link requested"}, nil
}

// Reset records a new password locally only; see Forgot.
func (f *Flows) Reset(ctx context.Context, v form.Values) (Outcome, error) {
	f.log.Info("password reset submitted")
	return Outcome{Route: route.Login, Toast: "Password reset requested"}, nil
}

func (f *Flows) Logout(ctx context.Context) (Outcome, error) {
	if err := f.sess.End(ctx); err != nil {
		return Outcome{}, err
	}
	return Outcome{Route: route.Login, Toast: "Logged out"}, nil
}

func (f *Flows) begin(ctx context.Context, res api.AuthResult, toast string) (Outcome, error) {
	if err := f.sess.Begin(ctx, res.Token, res.User.Role, res.User.Name); err != nil {
		return Outcome{}, err
	}
	f.log.Info("signed in", zap.String("role", string(res.User.Role)))
	return Outcome{Route: route.AfterLogin(res.User.Role), Toast: toast, User: res.User}, nil
}

// Submit is the handler a screen runs once its form validated.
type Submit func(ctx context.Context, v form.Values) (Outcome, error)

// For returns the submit handler of an auth screen.
func (f *Flows) For(r route.Route) (Submit, bool) {
	switch r {
	case route.Login, route.Root:
		return f.Login, true
	case route.Register:
		return f.Register, true
	case route.Forgot:
		return f.Forgot, true
	case route.Reset:
		return f.Reset, true
	}
	return nil, false
}

// Screen is the form schema of an auth route.
func Screen(r route.Route) (form.Screen, bool) {
	switch r {
	case route.Login, route.Root:
		return form.Login(), true
	case route.Register:
		return form.Register(), true
	case route.Forgot:
		return form.Forgot(), true
	case route.Reset:
		return form.Reset(), true
	}
	return form.Screen{}, false
}
