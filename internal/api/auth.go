package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"itask-cli/internal/model"
)

// AuthResult is what a successful login or signup hands back.
type AuthResult struct {
	Token   string
	User    model.User
	Message string
}

type authResponse struct {
	Success *bool     `json:"success,omitempty"`
	Message string    `json:"message"`
	Token   string    `json:"token"`
	User    *wireUser `json:"user"`
}

func (r authResponse) result() AuthResult {
	out := AuthResult{Token: r.Token, Message: r.Message}
	if r.User != nil {
		out.User = r.User.toModel()
	}
	if out.User.Role == "" {
		out.User.Role = model.RoleUser
	}
	return out
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (AuthResult, error) {
	var resp authResponse
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", req, &resp, false); err != nil {
		return AuthResult{}, err
	}
	if resp.Success != nil && !*resp.Success {
		msg := strings.TrimSpace(resp.Message)
		if msg == "" {
			msg = "Login failed"
		}
		return AuthResult{}, &APIError{Op: "login", Status: http.StatusUnauthorized, Message: msg}
	}
	if strings.TrimSpace(resp.Token) == "" || resp.User == nil {
		return AuthResult{}, errors.New("login: response missing token or user")
	}
	return resp.result(), nil
}

// Signup registers a new account. The backend may or may not log the user in
// right away; Token is empty when it does not.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (AuthResult, error) {
	var resp authResponse
	if err := c.do(ctx, "signup", http.MethodPost, "/auth/signup", req, &resp, false); err != nil {
		return AuthResult{}, err
	}
	out := resp.result()
	if out.User.Name == "" {
		out.User.Name = req.Name
	}
	if out.User.Email == "" {
		out.User.Email = req.Email
	}
	return out, nil
}

// GoogleLogin exchanges an identity-provider ID token for a backend session.
func (c *Client) GoogleLogin(ctx context.Context, idToken string) (AuthResult, error) {
	var resp authResponse
	if err := c.do(ctx, "google-login", http.MethodPost, "/auth/google-login", GoogleLoginRequest{IDToken: strings.TrimSpace(idToken)}, &resp, false); err != nil {
		return AuthResult{}, err
	}
	if strings.TrimSpace(resp.Token) == "" || resp.User == nil {
		return AuthResult{}, errors.New("google login failed")
	}
	return resp.result(), nil
}
