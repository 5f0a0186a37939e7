package api

import (
	"context"
	"net/http"
)

type FeedbackStatus struct {
	HasFeedback bool   `json:"hasFeedback"`
	Suggestion  string `json:"suggestion,omitempty"`
	Rating      int    `json:"rating,omitempty"`
}

func (c *Client) UserFeedback(ctx context.Context) (FeedbackStatus, error) {
	var out FeedbackStatus
	if err := c.do(ctx, "user feedback", http.MethodGet, "/feedback/user-feedback", nil, &out, true); err != nil {
		return FeedbackStatus{}, err
	}
	return out, nil
}

func (c *Client) AddFeedback(ctx context.Context, req FeedbackRequest) error {
	return c.do(ctx, "add feedback", http.MethodPost, "/feedback/add-feedback", req, nil, true)
}
