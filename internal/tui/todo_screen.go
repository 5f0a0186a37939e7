package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"itask-cli/internal/model"
	"itask-cli/internal/route"
	"itask-cli/internal/todos"
)

type todoScreen struct {
	c *todos.Controller

	input  textinput.Model
	typing bool
	cursor int

	loading bool
	busy    bool
	acting  bool

	confirmFocus confirmFocus
}

func newTodoScreen(c *todos.Controller) *todoScreen {
	in := textinput.New()
	in.Placeholder = "Add a new todo..."
	in.Prompt = "> "
	in.CharLimit = 200
	return &todoScreen{c: c, input: in}
}

func (s *todoScreen) visible() []model.Todo { return s.c.List(s.c.Tab()) }

func (s *todoScreen) current() (model.Todo, bool) {
	list := s.visible()
	if s.cursor < 0 || s.cursor >= len(list) {
		return model.Todo{}, false
	}
	return list[s.cursor], true
}

func (s *todoScreen) clampCursor() {
	n := len(s.visible())
	if s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

func (s *todoScreen) startTyping() {
	s.typing = true
	_ = s.input.Focus()
}

func (s *todoScreen) stopTyping() {
	s.typing = false
	s.input.Blur()
}

type todosLoadedMsg struct {
	items  []model.Todo
	err    error
	reload bool
}

type todoSubmittedMsg struct {
	sub todos.Submission
	td  model.Todo
	err error
}

type batchDoneMsg struct{ res todos.BatchResult }

func (m *appModel) enterTodo() tea.Cmd {
	s := m.todo
	if !s.c.BeginLoad() {
		return nil
	}
	return m.fetchTodos(false)
}

func (m *appModel) fetchTodos(reload bool) tea.Cmd {
	s := m.todo
	s.loading = true
	c := s.c
	return func() tea.Msg {
		items, err := c.Fetch(context.Background())
		return todosLoadedMsg{items: items, err: err, reload: reload}
	}
}

func (m *appModel) applyTodosLoaded(msg todosLoadedMsg) tea.Cmd {
	s := m.todo
	s.loading = false
	if msg.err != nil {
		return m.flashErr(todos.LoadToast(msg.err))
	}
	s.c.Replace(msg.items)
	s.clampCursor()
	if msg.reload {
		return m.flash(todos.LoadToast(nil), toastSuccess)
	}
	return nil
}

func (m *appModel) applyTodoSubmitted(msg todoSubmittedMsg) tea.Cmd {
	s := m.todo
	s.busy = false
	if msg.err != nil {
		return m.flashErr(todos.SubmitToast(msg.sub, msg.err))
	}
	s.c.ApplySubmitted(msg.sub, msg.td)
	s.input.SetValue("")
	if msg.sub.IsUpdate() {
		s.stopTyping()
	}
	s.clampCursor()
	return m.flash(todos.SubmitToast(msg.sub, nil), toastSuccess)
}

func (m *appModel) applyBatch(msg batchDoneMsg) tea.Cmd {
	s := m.todo
	s.acting = false
	s.c.ApplyBatch(msg.res)
	s.clampCursor()
	if msg.res.Err() != nil {
		return m.flashErr(msg.res.Toast())
	}
	return m.flash(msg.res.Toast(), toastSuccess)
}

func (m *appModel) updateTodo(msg tea.KeyMsg) (tea.Cmd, bool) {
	s := m.todo
	if s.c.Dialog.Open() {
		return m.updateTodoConfirm(msg), false
	}
	if s.typing {
		return m.updateTodoInput(msg), false
	}

	switch msg.String() {
	case "q":
		return nil, true
	case "esc":
		if _, editing := s.c.Editing(); editing {
			s.c.CancelEdit()
			s.input.SetValue("")
			return nil, false
		}
		return m.navigate(string(route.Home)), false
	case "tab":
		s.c.SwitchTab(s.c.Tab().Other())
		s.cursor = 0
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(s.visible())-1 {
			s.cursor++
		}
	case "i", "a":
		if s.c.Tab() != model.TabPending {
			s.c.SwitchTab(model.TabPending)
			s.cursor = 0
		}
		s.startTyping()
	case "e":
		td, ok := s.current()
		if !ok {
			return nil, false
		}
		text, err := s.c.BeginEdit(td.ID)
		if err != nil {
			return m.flashErr(err.Error()), false
		}
		s.input.SetValue(text)
		s.input.CursorEnd()
		s.cursorTo(td.ID)
		s.startTyping()
	case " ":
		if td, ok := s.current(); ok {
			_ = s.c.Toggle(td.ID)
		}
	case "A":
		s.c.SelectAll(!s.c.AllSelected())
	case "c":
		if s.c.Tab() == model.TabPending {
			return m.askTodo(model.ActionComplete), false
		}
	case "u":
		if s.c.Tab() == model.TabCompleted {
			return m.askTodo(model.ActionReopen), false
		}
	case "d":
		return m.askTodo(model.ActionDelete), false
	case "r":
		if !s.loading {
			return m.fetchTodos(true), false
		}
	}
	return nil, false
}

// inputLabel names the input's mode. A completed todo being edited is not
// listed on the todo tab, so its text is shown in the label.
func (s *todoScreen) inputLabel() string {
	id, editing := s.c.Editing()
	if !editing {
		return "New todo"
	}
	if td, ok := s.c.Get(id); ok && td.Completed {
		return "Update completed todo: " + td.Text
	}
	return "Update todo"
}

func (s *todoScreen) cursorTo(id string) {
	for i, td := range s.visible() {
		if td.ID == id {
			s.cursor = i
			return
		}
	}
}

// askTodo opens the confirmation for the selection of the active tab, or for
// the todo under the cursor when nothing is selected.
func (m *appModel) askTodo(kind model.TodoAction) tea.Cmd {
	s := m.todo
	if s.acting {
		return nil
	}
	var err error
	if len(s.c.Selected(s.c.Tab())) > 0 {
		switch kind {
		case model.ActionComplete:
			err = s.c.AskCompleteSelected()
		case model.ActionReopen:
			err = s.c.AskReopenSelected()
		default:
			err = s.c.AskDeleteSelected()
		}
	} else {
		td, ok := s.current()
		if !ok {
			return m.flashErr("No todos selected")
		}
		switch kind {
		case model.ActionComplete:
			err = s.c.AskComplete(td.ID)
		case model.ActionReopen:
			err = s.c.AskReopen(td.ID)
		default:
			err = s.c.AskDelete(td.ID)
		}
	}
	switch {
	case errors.Is(err, todos.ErrNothingSelected):
		return m.flashErr("No todos selected")
	case errors.Is(err, model.ErrInvalidTransition):
		if kind == model.ActionReopen {
			return m.flashErr("Only completed todos can be moved back")
		}
		return m.flashErr("Todo is already completed")
	case err != nil:
		return m.flashErr(err.Error())
	}
	s.confirmFocus = confirmFocusConfirm
	return nil
}

func (m *appModel) updateTodoConfirm(msg tea.KeyMsg) tea.Cmd {
	s := m.todo
	switch msg.String() {
	case "tab", "shift+tab", "left", "right":
		if s.confirmFocus == confirmFocusConfirm {
			s.confirmFocus = confirmFocusCancel
		} else {
			s.confirmFocus = confirmFocusConfirm
		}
		return nil
	case "n", "esc":
		s.c.Cancel()
		return nil
	case "enter":
		if s.confirmFocus == confirmFocusCancel {
			s.c.Cancel()
			return nil
		}
	case "y":
	default:
		return nil
	}

	action, ok := s.c.Dialog.Confirm()
	if !ok {
		return nil
	}
	s.acting = true
	c := s.c
	return func() tea.Msg {
		return batchDoneMsg{res: c.ExecuteBatch(context.Background(), action)}
	}
}

func (m *appModel) updateTodoInput(msg tea.KeyMsg) tea.Cmd {
	s := m.todo
	switch msg.String() {
	case "esc":
		if _, editing := s.c.Editing(); editing {
			s.c.CancelEdit()
			s.input.SetValue("")
		}
		s.stopTyping()
		return nil
	case "enter":
		if s.busy {
			return nil
		}
		sub, err := s.c.Prepare(s.input.Value())
		if err != nil {
			return m.flashErr(todos.SubmitToast(todos.Submission{}, err))
		}
		s.busy = true
		c := s.c
		return func() tea.Msg {
			td, err := c.Send(context.Background(), sub)
			return todoSubmittedMsg{sub: sub, td: td, err: err}
		}
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return cmd
}

func (m appModel) viewTodo(width int) (string, string) {
	s := m.todo
	bodyW := width - 4
	if bodyW > 80 {
		bodyW = 80
	}

	var b strings.Builder
	tabs := make([]string, 0, 2)
	for _, t := range []model.Tab{model.TabPending, model.TabCompleted} {
		label := t.Label() + " (" + strconv.Itoa(len(s.c.List(t))) + ")"
		if t == s.c.Tab() {
			tabs = append(tabs, styleTabActive().Render(label))
		} else {
			tabs = append(tabs, styleTabInactive().Render(label))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs[0], " ", tabs[1]))
	b.WriteString("\n\n")

	if s.c.Tab() == model.TabPending {
		label := s.inputLabel()
		if s.busy {
			label += " (saving...)"
		}
		b.WriteString(styleMuted().Render(label) + "\n")
		b.WriteString(renderInputLine(bodyW, s.input.View()) + "\n\n")
	}

	list := s.visible()
	switch {
	case s.loading && !s.c.Loaded():
		b.WriteString(styleMuted().Render("Loading..."))
	case len(list) == 0 && s.c.Tab() == model.TabCompleted:
		b.WriteString(styleMuted().Render("No completed todos yet."))
	case len(list) == 0:
		b.WriteString(styleMuted().Render("Nothing to do. Press a to add a todo."))
	default:
		editID, _ := s.c.Editing()
		for i, td := range list {
			box := "[ ]"
			if s.c.IsSelected(td.ID) {
				box = "[x]"
			}
			text := td.Text
			if td.Completed {
				text = lipgloss.NewStyle().Strikethrough(true).Render(text)
			}
			if td.ID == editID {
				text += styleMuted().Render("  (editing)")
			}
			line := box + " " + text
			if i == s.cursor && !s.typing {
				line = styleSelected().Render(line)
			}
			b.WriteString(line + "\n")
		}
		if n := len(s.c.Selected(s.c.Tab())); n > 0 {
			b.WriteString("\n" + styleMuted().Render(plural(n, "todo", "todos")+" selected"))
		}
	}

	help := "tab: switch   a: add   e: edit   space: select   A: all   c: complete   d: delete   r: reload   esc: home"
	if s.c.Tab() == model.TabCompleted {
		help = "tab: switch   space: select   A: all   u: move back   d: delete   r: reload   esc: home"
	}
	if s.typing {
		help = "enter: save   esc: stop typing"
	}
	return strings.TrimRight(b.String(), "\n"), help
}
