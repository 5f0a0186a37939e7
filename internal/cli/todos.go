package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"itask-cli/internal/model"
	"itask-cli/internal/todos"
)

func newTodosCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "todos",
		Aliases: []string{"todo"},
		Short:   "Todo list commands",
	}
	cmd.AddCommand(newTodosListCmd(app))
	cmd.AddCommand(newTodosReloadCmd(app))
	cmd.AddCommand(newTodosAddCmd(app))
	cmd.AddCommand(newTodosEditCmd(app))
	cmd.AddCommand(newTodosActionCmd(app, model.ActionComplete))
	cmd.AddCommand(newTodosActionCmd(app, model.ActionReopen))
	cmd.AddCommand(newTodosActionCmd(app, model.ActionDelete))
	cmd.AddCommand(newTodosExportCmd(app))
	return cmd
}

// loadTodos opens a signed-in session and returns a loaded controller.
func loadTodos(cmd *cobra.Command, app *App) (*todos.Controller, error) {
	ctx := cmdContext(cmd)
	if err := app.requireSession(ctx); err != nil {
		return nil, err
	}
	c := todos.New(app.client, todos.WithLogger(app.log))
	if err := c.Load(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", todos.LoadToast(err), err)
	}
	return c, nil
}

type todoRows []model.Todo

func (r todoRows) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(r))
	for _, td := range r {
		state := " "
		if td.Completed {
			state = "x"
		}
		rows = append(rows, []string{td.ID, state, td.Text})
	}
	return []string{"ID", "Done", "Text"}, rows
}

func newTodosListCmd(app *App) *cobra.Command {
	var tab string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadTodos(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			items := c.Items()
			if tab != "all" {
				t, err := model.ParseTab(tab)
				if err != nil {
					return writeErr(cmd, err)
				}
				items = c.List(t)
			}
			return writeData(cmd, app, todoRows(nonNil(items)))
		},
	}

	cmd.Flags().StringVar(&tab, "tab", "all", "Which todos to list (all|todo|completed)")
	return cmd
}

type todoCounts struct {
	Pending   int    `json:"pending"`
	Completed int    `json:"completed"`
	Message   string `json:"message"`
}

func newTodosReloadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Fetch the list again and show how many todos each tab holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			if err := app.requireSession(ctx); err != nil {
				return writeErr(cmd, err)
			}
			c := todos.New(app.client, todos.WithLogger(app.log))
			if err := c.Reload(ctx); err != nil {
				return writeErr(cmd, fmt.Errorf("%s: %w", todos.LoadToast(err), err))
			}
			return writeData(cmd, app, todoCounts{
				Pending:   len(c.Pending()),
				Completed: len(c.Completed()),
				Message:   todos.LoadToast(nil),
			})
		},
	}
}

type submitResult struct {
	Todo    model.Todo `json:"todo"`
	Message string     `json:"message"`
}

func newTodosAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>",
		Short: "Add a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadTodos(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return submitTodo(cmd, app, c, strings.Join(args, " "))
		},
	}
}

func newTodosEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text>",
		Short: "Change the text of a todo",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadTodos(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := c.BeginEdit(args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return submitTodo(cmd, app, c, strings.Join(args[1:], " "))
		},
	}
}

func submitTodo(cmd *cobra.Command, app *App, c *todos.Controller, text string) error {
	sub, err := c.Prepare(text)
	if err != nil {
		return writeErr(cmd, err)
	}
	td, err := c.Send(cmdContext(cmd), sub)
	if err != nil {
		return writeErr(cmd, fmt.Errorf("%s: %w", todos.SubmitToast(sub, err), err))
	}
	c.ApplySubmitted(sub, td)
	return writeData(cmd, app, submitResult{Todo: td, Message: todos.SubmitToast(sub, nil)})
}

type batchOutput struct {
	Action    string            `json:"action"`
	Succeeded []string          `json:"succeeded"`
	Failed    map[string]string `json:"failed,omitempty"`
	Message   string            `json:"message"`
}

func newBatchOutput(res todos.BatchResult) batchOutput {
	out := batchOutput{
		Action:    res.Action.Kind.String(),
		Succeeded: res.Succeeded(),
		Message:   res.Toast(),
	}
	if out.Succeeded == nil {
		out.Succeeded = []string{}
	}
	var be *todos.BatchError
	if errors.As(res.Err(), &be) {
		out.Failed = map[string]string{}
		for id, err := range be.Errs {
			out.Failed[id] = err.Error()
		}
	}
	return out
}

func (o batchOutput) Table() ([]string, [][]string) {
	var rows [][]string
	for _, id := range o.Succeeded {
		rows = append(rows, []string{id, "ok", ""})
	}
	failed := make([]string, 0, len(o.Failed))
	for id := range o.Failed {
		failed = append(failed, id)
	}
	sort.Strings(failed)
	for _, id := range failed {
		rows = append(rows, []string{id, "failed", o.Failed[id]})
	}
	return []string{"ID", o.Action, "Error"}, rows
}

var actionHelp = map[model.TodoAction]struct{ use, short string }{
	model.ActionComplete: {"complete", "Move todos to completed"},
	model.ActionReopen:   {"reopen", "Move completed todos back to todo"},
	model.ActionDelete:   {"delete", "Permanently delete todos"},
}

// newTodosActionCmd builds complete, reopen and delete. One id asks about a
// single todo; several ids or --all ask about a selection.
func newTodosActionCmd(app *App, kind model.TodoAction) *cobra.Command {
	var (
		yes bool
		all bool
		tab string
	)
	help := actionHelp[kind]

	cmd := &cobra.Command{
		Use:   help.use + " [id...]",
		Short: help.short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return writeErr(cmd, errors.New("pass at least one todo id, or --all"))
			}
			c, err := loadTodos(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := askTodoAction(c, kind, args, all, tab); err != nil {
				return writeErr(cmd, err)
			}

			req, _ := c.Dialog.Pending()
			if !yes {
				ok, err := newPrompter(cmd).confirm(req.Title, req.Message)
				if err != nil {
					return writeErr(cmd, err)
				}
				if !ok {
					c.Cancel()
					return writeErr(cmd, errCancelled)
				}
			}

			res, _, err := c.Confirm(cmdContext(cmd))
			if werr := writeData(cmd, app, newBatchOutput(res)); werr != nil {
				return werr
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().BoolVar(&all, "all", false, "Act on every todo of the tab")
	if kind == model.ActionDelete {
		cmd.Flags().StringVar(&tab, "tab", "todo", "Tab --all deletes from (todo|completed)")
	}
	return cmd
}

func askTodoAction(c *todos.Controller, kind model.TodoAction, ids []string, all bool, tab string) error {
	target := model.TabPending
	switch kind {
	case model.ActionReopen:
		target = model.TabCompleted
	case model.ActionDelete:
		t, err := model.ParseTab(tab)
		if err != nil {
			return err
		}
		target = t
		if len(ids) > 0 {
			td, ok := c.Get(ids[0])
			if !ok {
				return fmt.Errorf("%w: %s", todos.ErrUnknownTodo, ids[0])
			}
			target = model.TabOf(td)
		}
	}

	if len(ids) == 1 && !all {
		switch kind {
		case model.ActionComplete:
			return c.AskComplete(ids[0])
		case model.ActionReopen:
			return c.AskReopen(ids[0])
		default:
			return c.AskDelete(ids[0])
		}
	}

	c.SwitchTab(target)
	if all {
		c.SelectAll(true)
	}
	for _, id := range ids {
		td, ok := c.Get(id)
		if !ok {
			return fmt.Errorf("%w: %s", todos.ErrUnknownTodo, id)
		}
		if model.TabOf(td) != target {
			return fmt.Errorf("todo %s is not on the %s tab", id, target)
		}
		if err := c.SetSelected(id, true); err != nil {
			return err
		}
	}
	switch kind {
	case model.ActionComplete:
		return c.AskCompleteSelected()
	case model.ActionReopen:
		return c.AskReopenSelected()
	default:
		return c.AskDeleteSelected()
	}
}
