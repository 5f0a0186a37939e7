package todos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"itask-cli/internal/model"
)

// Action is a confirmed-or-pending change to one or more todos. Items are a
// snapshot taken when the action was requested.
type Action struct {
	Kind  model.TodoAction
	Items []model.Todo
	Bulk  bool
}

func (a Action) IDs() []string {
	ids := make([]string, 0, len(a.Items))
	for _, td := range a.Items {
		ids = append(ids, td.ID)
	}
	return ids
}

type Outcome struct {
	ID   string
	Todo model.Todo // server copy for complete/reopen
	Err  error
}

type BatchResult struct {
	Action   Action
	Outcomes []Outcome
}

func (r BatchResult) Succeeded() []string {
	var out []string
	for _, o := range r.Outcomes {
		if o.Err == nil {
			out = append(out, o.ID)
		}
	}
	return out
}

// Err is nil when every member succeeded, otherwise a *BatchError.
func (r BatchResult) Err() error {
	be := &BatchError{Kind: r.Action.Kind, Total: len(r.Outcomes), Errs: map[string]error{}}
	for _, o := range r.Outcomes {
		if o.Err != nil {
			be.Failed = append(be.Failed, o.ID)
			be.Errs[o.ID] = o.Err
		}
	}
	if len(be.Failed) == 0 {
		return nil
	}
	return be
}

// BatchError lists the members of a bulk action the backend did not apply.
// Members not listed were applied.
type BatchError struct {
	Kind   model.TodoAction
	Total  int
	Failed []string
	Errs   map[string]error
}

func (e *BatchError) Error() string {
	first := e.Errs[e.Failed[0]]
	return fmt.Sprintf("%s failed for %d of %d todo(s) [%s]: %v",
		e.Kind, len(e.Failed), e.Total, strings.Join(e.Failed, ", "), first)
}

func (e *BatchError) Unwrap() []error {
	out := make([]error, 0, len(e.Failed))
	for _, id := range e.Failed {
		out = append(out, e.Errs[id])
	}
	return out
}

// Partial reports whether some members did succeed.
func (e *BatchError) Partial() bool { return len(e.Failed) < e.Total }

// Requests. Each opens the confirmation dialog; nothing is sent until Confirm.

func (c *Controller) AskComplete(id string) error {
	return c.ask(model.ActionComplete, false, id)
}

func (c *Controller) AskReopen(id string) error {
	return c.ask(model.ActionReopen, false, id)
}

func (c *Controller) AskDelete(id string) error {
	return c.ask(model.ActionDelete, false, id)
}

// AskCompleteSelected asks to complete the pending tab's selection.
func (c *Controller) AskCompleteSelected() error {
	return c.ask(model.ActionComplete, true, c.Selected(model.TabPending)...)
}

// AskReopenSelected asks to move the completed tab's selection back.
func (c *Controller) AskReopenSelected() error {
	return c.ask(model.ActionReopen, true, c.Selected(model.TabCompleted)...)
}

// AskDeleteSelected asks to delete the active tab's selection.
func (c *Controller) AskDeleteSelected() error {
	return c.ask(model.ActionDelete, true, c.Selected(c.tab)...)
}

func (c *Controller) ask(kind model.TodoAction, bulk bool, ids ...string) error {
	if len(ids) == 0 {
		return ErrNothingSelected
	}
	items := make([]model.Todo, 0, len(ids))
	for _, id := range ids {
		td, ok := c.Get(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownTodo, id)
		}
		if _, err := model.Transition(td.State(), kind); err != nil {
			return fmt.Errorf("todo %s: %w", id, err)
		}
		items = append(items, td)
	}
	title, msg := prompt(kind, bulk, c.tab)
	return c.Dialog.Ask(title, msg, Action{Kind: kind, Items: items, Bulk: bulk})
}

func prompt(kind model.TodoAction, bulk bool, tab model.Tab) (string, string) {
	switch {
	case kind == model.ActionComplete && bulk:
		return "Move to completed", "Are you sure you want to move selected todos to completed?"
	case kind == model.ActionComplete:
		return "Move to completed", "Are you sure you want to move this todo to completed?"
	case kind == model.ActionReopen && bulk:
		return "Move to todo", "Are you sure you want to move selected todos back to todo?"
	case kind == model.ActionReopen:
		return "Move to todo", "Are you sure you want to move this todo back to todo?"
	case bulk && tab == model.TabCompleted:
		return "Delete Completed Todos", "Are you sure you want to permanently delete selected completed todos?"
	case bulk:
		return "Delete Todos", "Are you sure you want to permanently delete selected todos?"
	default:
		return "Delete Todo", "Are you sure you want to permanently delete this todo?"
	}
}

// Confirm runs the pending action and applies whatever the backend accepted.
// It reports false when no confirmation was pending.
func (c *Controller) Confirm(ctx context.Context) (BatchResult, bool, error) {
	action, ok := c.Dialog.Confirm()
	if !ok {
		return BatchResult{}, false, nil
	}
	res := c.ExecuteBatch(ctx, action)
	c.ApplyBatch(res)
	return res, true, res.Err()
}

// Cancel discards the pending confirmation.
func (c *Controller) Cancel() { c.Dialog.Cancel() }

// ExecuteBatch sends one request per member concurrently and waits for all of
// them. It reads no controller state besides its configuration.
func (c *Controller) ExecuteBatch(ctx context.Context, action Action) BatchResult {
	res := BatchResult{Action: action, Outcomes: make([]Outcome, len(action.Items))}

	var g errgroup.Group
	g.SetLimit(c.limit)
	for i, td := range action.Items {
		res.Outcomes[i].ID = td.ID
		g.Go(func() error {
			out := &res.Outcomes[i]
			switch action.Kind {
			case model.ActionDelete:
				out.Err = c.api.DeleteTodo(ctx, td.ID)
			case model.ActionComplete, model.ActionReopen:
				out.Todo, out.Err = c.api.EditTodo(ctx, td.ID, td.Text, action.Kind == model.ActionComplete)
			default:
				out.Err = fmt.Errorf("unsupported action %s", action.Kind)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := res.Err(); err != nil {
		c.log.Warn("todo batch failed",
			zap.Stringer("action", action.Kind),
			zap.Strings("failed", err.(*BatchError).Failed),
			zap.Int("total", len(action.Items)),
			zap.Error(err),
		)
	}
	return res
}

// ApplyBatch applies the members the backend accepted. Failed members keep
// their previous state.
func (c *Controller) ApplyBatch(res BatchResult) {
	for _, o := range res.Outcomes {
		if o.Err != nil {
			continue
		}
		i := c.index(o.ID)
		if i < 0 {
			continue
		}
		cur := c.items[i]
		next, err := model.Transition(cur.State(), res.Action.Kind)
		if err != nil {
			c.log.Debug("skip stale batch member", zap.String("id", o.ID), zap.Error(err))
			continue
		}
		switch next {
		case model.StateDeleted:
			c.items = append(c.items[:i], c.items[i+1:]...)
			if c.editID == o.ID {
				c.editID = ""
			}
		default:
			td := o.Todo
			if td.ID == "" {
				td = cur
			}
			td.Completed = next == model.StateCompleted
			c.items[i] = td
		}
	}
	c.prune()
}

// Toast is the one-line notice for a finished action.
func (r BatchResult) Toast() string {
	err := r.Err()
	bulk := r.Action.Bulk
	var be *BatchError
	partial := errors.As(err, &be) && be.Partial()
	switch r.Action.Kind {
	case model.ActionComplete:
		switch {
		case err == nil && bulk:
			return "Selected todos moved to completed!"
		case err == nil:
			return "Todo moved to completed!"
		case partial:
			return fmt.Sprintf("Moved %d of %d todos; %d failed", be.Total-len(be.Failed), be.Total, len(be.Failed))
		case bulk:
			return "Failed to move selected todos"
		default:
			return "Failed to move todo to completed"
		}
	case model.ActionReopen:
		switch {
		case err == nil && bulk:
			return "Selected todos moved back to todo!"
		case err == nil:
			return "Todo moved back to todo!"
		case partial:
			return fmt.Sprintf("Moved %d of %d todos; %d failed", be.Total-len(be.Failed), be.Total, len(be.Failed))
		default:
			return "Failed to move todo back"
		}
	default:
		switch {
		case err == nil && bulk:
			return "Selected todos deleted!"
		case err == nil:
			return "Todo deleted!"
		case partial:
			return fmt.Sprintf("Deleted %d of %d todos; %d failed", be.Total-len(be.Failed), be.Total, len(be.Failed))
		case bulk:
			return "Failed to delete selected todos"
		default:
			return "Failed to delete todo"
		}
	}
}
