// Package todos keeps the local copy of the signed-in user's todo list in step
// with the backend. Every visible change happens only after the backend
// acknowledges it; nothing is mutated on failure.
//
// The Controller is not safe for concurrent use. It belongs to one event
// loop (the TUI) or one command. Remote calls are split from state changes
// (Fetch/Replace, Send/ApplySubmitted, ExecuteBatch/ApplyBatch) so a UI can
// run the network half elsewhere and apply the result on its own loop.
package todos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"itask-cli/internal/confirm"
	"itask-cli/internal/model"
)

const minTextLen = 3

var (
	ErrNothingSelected = errors.New("no todos selected")
	ErrUnknownTodo     = errors.New("unknown todo")
)

// API is the slice of the backend the controller needs. *api.Client
// satisfies it.
type API interface {
	ListTodos(ctx context.Context) ([]model.Todo, error)
	AddTodo(ctx context.Context, text string) (model.Todo, error)
	EditTodo(ctx context.Context, id, text string, completed bool) (model.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
}

// InputError is a local rejection of the todo text; nothing was sent.
type InputError string

func (e InputError) Error() string { return string(e) }

// ValidateText checks todo text the same way for create and update.
func ValidateText(text string) error {
	t := strings.TrimSpace(text)
	if t == "" {
		return InputError("Todo is required.")
	}
	if len([]rune(t)) <= minTextLen {
		return InputError("Todo must be more than 3 characters.")
	}
	if !hasASCIILetter(t) {
		return InputError("Todo must contain at least one alphabet (A-Z).")
	}
	return nil
}

func hasASCIILetter(s string) bool {
	for _, r := range s {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

type Controller struct {
	api   API
	log   *zap.Logger
	limit int

	items    []model.Todo
	selected map[model.Tab]map[string]bool
	tab      model.Tab
	editID   string
	started  bool
	loaded   bool

	// Dialog gates complete and delete. At most one request is pending.
	Dialog confirm.Dialog[Action]
}

type Option func(*Controller)

func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithConcurrency caps in-flight requests of one bulk action.
func WithConcurrency(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.limit = n
		}
	}
}

func New(api API, opts ...Option) *Controller {
	c := &Controller{
		api:   api,
		log:   zap.NewNop(),
		limit: 8,
		tab:   model.TabPending,
		selected: map[model.Tab]map[string]bool{
			model.TabPending:   {},
			model.TabCompleted: {},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches the list the first time it is called and is a no-op after.
func (c *Controller) Load(ctx context.Context) error {
	if !c.BeginLoad() {
		return nil
	}
	items, err := c.Fetch(ctx)
	if err != nil {
		return err
	}
	c.Replace(items)
	return nil
}

// BeginLoad claims the one initial load. It reports false if a load was
// already started.
func (c *Controller) BeginLoad() bool {
	if c.started {
		return false
	}
	c.started = true
	return true
}

// Reload always refetches.
func (c *Controller) Reload(ctx context.Context) error {
	items, err := c.Fetch(ctx)
	if err != nil {
		return err
	}
	c.started = true
	c.Replace(items)
	return nil
}

// Fetch reads the authoritative list. It does not touch controller state.
func (c *Controller) Fetch(ctx context.Context) ([]model.Todo, error) {
	items, err := c.api.ListTodos(ctx)
	if err != nil {
		c.log.Warn("fetch todos failed", zap.Error(err))
		return nil, err
	}
	return items, nil
}

// Replace swaps in a freshly fetched list.
func (c *Controller) Replace(items []model.Todo) {
	c.items = append([]model.Todo(nil), items...)
	c.loaded = true
	if c.editID != "" && c.index(c.editID) < 0 {
		c.editID = ""
	}
	c.prune()
}

func (c *Controller) Loaded() bool { return c.loaded }

func (c *Controller) Items() []model.Todo {
	return append([]model.Todo(nil), c.items...)
}

func (c *Controller) Get(id string) (model.Todo, bool) {
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	return model.Todo{}, false
}

func (c *Controller) Pending() []model.Todo   { return c.List(model.TabPending) }
func (c *Controller) Completed() []model.Todo { return c.List(model.TabCompleted) }

// List returns the todos shown under tab, in server order.
func (c *Controller) List(tab model.Tab) []model.Todo {
	out := make([]model.Todo, 0, len(c.items))
	for _, td := range c.items {
		if tab.Holds(td) {
			out = append(out, td)
		}
	}
	return out
}

func (c *Controller) index(id string) int {
	for i, td := range c.items {
		if td.ID == id {
			return i
		}
	}
	return -1
}

// Create/update.

// Submission is a validated add or update, captured before it is sent.
type Submission struct {
	EditID    string
	Text      string
	Completed bool
}

func (s Submission) IsUpdate() bool { return s.EditID != "" }

// Prepare validates text and captures what Submit would send: an update of
// the todo being edited, or a new todo.
func (c *Controller) Prepare(text string) (Submission, error) {
	if err := ValidateText(text); err != nil {
		return Submission{}, err
	}
	sub := Submission{Text: strings.TrimSpace(text)}
	if id := c.editID; id != "" {
		cur, ok := c.Get(id)
		if !ok {
			c.editID = ""
			return Submission{}, fmt.Errorf("%w: %s", ErrUnknownTodo, id)
		}
		sub.EditID = cur.ID
		sub.Completed = cur.Completed
	}
	return sub, nil
}

// Send performs the remote half of a submission.
func (c *Controller) Send(ctx context.Context, sub Submission) (model.Todo, error) {
	if sub.IsUpdate() {
		td, err := c.api.EditTodo(ctx, sub.EditID, sub.Text, sub.Completed)
		if err != nil {
			c.log.Warn("update todo failed", zap.String("id", sub.EditID), zap.Error(err))
			return model.Todo{}, err
		}
		return td, nil
	}
	td, err := c.api.AddTodo(ctx, sub.Text)
	if err != nil {
		c.log.Warn("add todo failed", zap.Error(err))
		return model.Todo{}, err
	}
	return td, nil
}

// ApplySubmitted records the server's copy of a created or updated todo.
func (c *Controller) ApplySubmitted(sub Submission, td model.Todo) {
	if sub.IsUpdate() {
		if td.ID == "" {
			td.ID = sub.EditID
		}
		if i := c.index(sub.EditID); i >= 0 {
			c.items[i] = td
		}
		if c.editID == sub.EditID {
			c.editID = ""
		}
		c.prune()
		return
	}
	if i := c.index(td.ID); i >= 0 {
		c.items[i] = td
		return
	}
	c.items = append(c.items, td)
}

// Submit adds a todo, or updates the one being edited.
func (c *Controller) Submit(ctx context.Context, text string) (model.Todo, error) {
	sub, err := c.Prepare(text)
	if err != nil {
		return model.Todo{}, err
	}
	td, err := c.Send(ctx, sub)
	if err != nil {
		return model.Todo{}, err
	}
	c.ApplySubmitted(sub, td)
	return td, nil
}

// BeginEdit puts the input in update mode for id and returns its text. The
// input lives on the todo tab, so the controller switches there.
func (c *Controller) BeginEdit(id string) (string, error) {
	td, ok := c.Get(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTodo, id)
	}
	c.editID = id
	c.SwitchTab(model.TabPending)
	return td.Text, nil
}

func (c *Controller) CancelEdit() { c.editID = "" }

// Editing reports the id in update mode, if any.
func (c *Controller) Editing() (string, bool) {
	return c.editID, c.editID != ""
}

// Tabs and selection.

func (c *Controller) Tab() model.Tab { return c.tab }

// SwitchTab makes tab active and clears the other tab's selection.
func (c *Controller) SwitchTab(tab model.Tab) {
	if tab != model.TabCompleted {
		tab = model.TabPending
	}
	c.tab = tab
	c.selected[tab.Other()] = map[string]bool{}
}

// Toggle flips id in the selection of the tab that lists it.
func (c *Controller) Toggle(id string) error {
	td, ok := c.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTodo, id)
	}
	set := c.selected[model.TabOf(td)]
	if set[id] {
		delete(set, id)
	} else {
		set[id] = true
	}
	return nil
}

// SetSelected adds or removes id from its tab's selection.
func (c *Controller) SetSelected(id string, on bool) error {
	td, ok := c.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTodo, id)
	}
	set := c.selected[model.TabOf(td)]
	if on {
		set[id] = true
	} else {
		delete(set, id)
	}
	return nil
}

// SelectAll selects exactly the active tab's todos, or clears the selection.
func (c *Controller) SelectAll(on bool) {
	set := map[string]bool{}
	if on {
		for _, td := range c.List(c.tab) {
			set[td.ID] = true
		}
	}
	c.selected[c.tab] = set
}

// AllSelected reports whether the active tab is non-empty and fully selected.
func (c *Controller) AllSelected() bool {
	list := c.List(c.tab)
	if len(list) == 0 {
		return false
	}
	for _, td := range list {
		if !c.selected[c.tab][td.ID] {
			return false
		}
	}
	return true
}

func (c *Controller) IsSelected(id string) bool {
	for _, set := range c.selected {
		if set[id] {
			return true
		}
	}
	return false
}

// Selected returns the selected ids of tab in list order.
func (c *Controller) Selected(tab model.Tab) []string {
	var out []string
	for _, td := range c.List(tab) {
		if c.selected[tab][td.ID] {
			out = append(out, td.ID)
		}
	}
	return out
}

// prune drops selected ids that no longer exist or moved to the other tab.
func (c *Controller) prune() {
	for tab, set := range c.selected {
		for id := range set {
			td, ok := c.Get(id)
			if !ok || !tab.Holds(td) {
				delete(set, id)
			}
		}
	}
}
