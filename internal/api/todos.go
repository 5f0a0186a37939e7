package api

import (
	"context"
	"net/http"
	"net/url"

	"itask-cli/internal/model"
)

type todoListResponse struct {
	// The backend names the list "users".
	Users []wireTodo `json:"users"`
}

func (c *Client) ListTodos(ctx context.Context) ([]model.Todo, error) {
	var resp todoListResponse
	if err := c.do(ctx, "list todos", http.MethodGet, "/get-todo-list", nil, &resp, true); err != nil {
		return nil, err
	}
	out := make([]model.Todo, 0, len(resp.Users))
	for _, w := range resp.Users {
		out = append(out, w.toModel())
	}
	return out, nil
}

func (c *Client) AddTodo(ctx context.Context, text string) (model.Todo, error) {
	var resp wireTodo
	req := TodoRequest{TaskName: text, IsCompleted: false}
	if err := c.do(ctx, "add todo", http.MethodPost, "/add-todo", req, &resp, true); err != nil {
		return model.Todo{}, err
	}
	return resp.toModel(), nil
}

// EditTodo replaces text and completed flag and returns the server's copy.
func (c *Client) EditTodo(ctx context.Context, id, text string, completed bool) (model.Todo, error) {
	var resp wireTodo
	req := TodoRequest{TaskName: text, IsCompleted: completed}
	if err := c.do(ctx, "edit todo", http.MethodPut, "/edit-todo/"+url.PathEscape(id), req, &resp, true); err != nil {
		return model.Todo{}, err
	}
	return resp.toModel(), nil
}

func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.do(ctx, "delete todo", http.MethodDelete, "/delete-todo/"+url.PathEscape(id), nil, nil, true)
}
