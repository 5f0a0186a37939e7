package api

import (
	"context"
	"net/http"
	"net/url"

	"itask-cli/internal/model"
)

func (c *Client) AdminStats(ctx context.Context) (model.Stats, error) {
	var w wireStats
	if err := c.do(ctx, "admin stats", http.MethodGet, "/admin/stats", nil, &w, true); err != nil {
		return model.Stats{}, err
	}
	return model.Stats{
		TotalUsers:     w.TotalUsers,
		TotalAdmins:    w.TotalAdmins,
		TotalFeedbacks: w.TotalFeedbacks,
		AvgRating:      float64(w.AvgRating),
	}, nil
}

func (c *Client) AdminUsers(ctx context.Context) ([]model.User, error) {
	var resp struct {
		Users []wireUser `json:"users"`
	}
	if err := c.do(ctx, "admin users", http.MethodGet, "/admin/users", nil, &resp, true); err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(resp.Users))
	for _, u := range resp.Users {
		out = append(out, u.toModel())
	}
	return out, nil
}

func (c *Client) SetUserRole(ctx context.Context, userID string, role model.Role) error {
	return c.do(ctx, "set role", http.MethodPatch, "/admin/users/"+url.PathEscape(userID)+"/role", RoleRequest{Role: role}, nil, true)
}

func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.do(ctx, "delete user", http.MethodDelete, "/admin/users/"+url.PathEscape(userID), nil, nil, true)
}

func (c *Client) AdminFeedbacks(ctx context.Context) ([]model.Feedback, error) {
	var resp struct {
		Feedbacks []wireFeedback `json:"feedbacks"`
	}
	if err := c.do(ctx, "admin feedbacks", http.MethodGet, "/admin/feedbacks", nil, &resp, true); err != nil {
		return nil, err
	}
	out := make([]model.Feedback, 0, len(resp.Feedbacks))
	for _, f := range resp.Feedbacks {
		out = append(out, f.toModel())
	}
	return out, nil
}

func (c *Client) DeleteFeedback(ctx context.Context, feedbackID string) error {
	return c.do(ctx, "delete feedback", http.MethodDelete, "/admin/feedbacks/"+url.PathEscape(feedbackID), nil, nil, true)
}
