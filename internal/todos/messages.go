package todos

import (
	"errors"

	"itask-cli/internal/api"
)

func LoadToast(err error) string {
	if err != nil {
		return "Failed to fetch todos"
	}
	return "Todos loaded successfully!"
}

func SubmitToast(sub Submission, err error) string {
	var inErr InputError
	switch {
	case errors.As(err, &inErr):
		return inErr.Error()
	case err == nil && sub.IsUpdate():
		return "Todo updated!"
	case err == nil:
		return "Todo added successfully!"
	case sub.IsUpdate():
		return "Failed to update todo"
	case errors.Is(err, api.ErrConflict):
		return "Todo already exists"
	default:
		return "Failed to add todo"
	}
}
