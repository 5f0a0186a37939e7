package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"itask-cli/internal/admin"
	"itask-cli/internal/api"
	"itask-cli/internal/auth"
	"itask-cli/internal/feedback"
	"itask-cli/internal/model"
	"itask-cli/internal/route"
	"itask-cli/internal/session"
	"itask-cli/internal/store"
	"itask-cli/internal/todos"
)

const defaultToastTTL = 3 * time.Second

type toastKind int

const (
	toastInfo toastKind = iota
	toastSuccess
	toastError
)

type toastDoneMsg struct{ seq int }

type appModel struct {
	client *api.Client
	sess   *session.Session
	store  store.Store
	log    *zap.Logger
	flows  *auth.Flows
	fb     *feedback.Service

	width  int
	height int

	route route.Route

	auth  *authScreen
	home  *homeScreen
	todo  *todoScreen
	admin *adminScreen

	toast     string
	toastKind toastKind
	toastSeq  int
	toastTTL  time.Duration
}

func newAppModel(opts Options) appModel {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	sess := opts.Session
	if sess == nil {
		sess = session.New(nil)
	}
	m := appModel{
		client:   opts.Client,
		sess:     sess,
		store:    opts.Store,
		log:      log,
		flows:    auth.New(opts.Client, sess, log),
		fb:       feedback.New(opts.Client, sess, log),
		toastTTL: defaultToastTTL,
	}
	m.resetUserScreens()

	if st, err := opts.Store.LoadTUIState(); err == nil && st != nil {
		if tab, err := model.ParseTab(st.Tab); err == nil {
			m.todo.c.SwitchTab(tab)
		}
		m.admin.tab = admin.ParseTab(st.AdminTab)
	}

	start := opts.Start
	if start == "" {
		start = route.Start(sess.Authenticated(), sess.Role())
	}
	m.route = m.resolve(string(start))
	if m.route.Private() {
		return m
	}
	m.auth = newAuthScreen(m.route)
	return m
}

// resetUserScreens drops everything loaded for the previous account.
func (m *appModel) resetUserScreens() {
	m.home = newHomeScreen()
	m.todo = newTodoScreen(todos.New(m.client, todos.WithLogger(m.log)))
	m.admin = newAdminScreen(admin.New(m.client, m.log))
}

func (m appModel) Init() tea.Cmd {
	return m.enter()
}

func (m *appModel) resolve(path string) route.Route {
	r := route.Resolve(path, m.sess.Authenticated())
	if r == route.Admin && !m.sess.IsAdmin() {
		return route.Home
	}
	return r
}

func (m *appModel) navigate(path string) tea.Cmd {
	m.route = m.resolve(path)
	m.auth = nil
	switch m.route {
	case route.Login, route.Register, route.Forgot, route.Reset:
		m.auth = newAuthScreen(m.route)
	}
	return m.enter()
}

// enter starts whatever the current screen needs from the backend.
func (m *appModel) enter() tea.Cmd {
	switch m.route {
	case route.Home:
		return m.enterHome()
	case route.Todo:
		return m.enterTodo()
	case route.Admin:
		return m.enterAdmin()
	}
	return nil
}

func (m *appModel) flash(text string, kind toastKind) tea.Cmd {
	m.toast = text
	m.toastKind = kind
	m.toastSeq++
	if m.toastTTL <= 0 {
		return nil
	}
	seq := m.toastSeq
	return tea.Tick(m.toastTTL, func(time.Time) tea.Msg { return toastDoneMsg{seq: seq} })
}

func (m *appModel) flashErr(text string) tea.Cmd { return m.flash(text, toastError) }

func (m *appModel) logout() tea.Cmd {
	return func() tea.Msg {
		out, err := m.flows.Logout(context.Background())
		return authDoneMsg{out: out, err: err, logout: true}
	}
}

func (m appModel) saveState() {
	st := &store.TUIState{
		Route:    string(m.route),
		Tab:      string(m.todo.c.Tab()),
		AdminTab: string(m.admin.tab),
	}
	if err := m.store.SaveTUIState(st); err != nil {
		m.log.Debug("save tui state failed", zap.Error(err))
	}
}

func (m appModel) quit() (tea.Model, tea.Cmd) {
	m.saveState()
	return m, tea.Quit
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case toastDoneMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil

	case authDoneMsg:
		cmd := m.applyAuth(msg)
		return m, cmd
	case feedbackCheckedMsg:
		cmd := m.applyFeedbackChecked(msg)
		return m, cmd
	case feedbackSentMsg:
		cmd := m.applyFeedbackSent(msg)
		return m, cmd
	case todosLoadedMsg:
		cmd := m.applyTodosLoaded(msg)
		return m, cmd
	case todoSubmittedMsg:
		cmd := m.applyTodoSubmitted(msg)
		return m, cmd
	case batchDoneMsg:
		cmd := m.applyBatch(msg)
		return m, cmd
	case adminLoadedMsg:
		cmd := m.applyAdminLoaded(msg)
		return m, cmd
	case adminMutatedMsg:
		cmd := m.applyAdminMutated(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if msg.String() == "ctrl+o" && m.route.Private() {
			cmd := m.logout()
			return m, cmd
		}
		var cmd tea.Cmd
		var quit bool
		switch m.route {
		case route.Home:
			cmd, quit = m.updateHome(msg)
		case route.Todo:
			cmd, quit = m.updateTodo(msg)
		case route.Admin:
			cmd, quit = m.updateAdmin(msg)
		default:
			cmd = m.updateAuth(msg)
		}
		if quit {
			return m.quit()
		}
		return m, cmd
	}
	return m, nil
}

func (m appModel) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	if modal := m.modalView(width); modal != "" {
		return overlay(m.width, m.height, modal)
	}

	var body, help string
	switch m.route {
	case route.Home:
		body, help = m.viewHome(width)
	case route.Todo:
		body, help = m.viewTodo(width)
	case route.Admin:
		body, help = m.viewAdmin(width)
	default:
		body, help = m.viewAuth(width)
	}

	parts := []string{m.viewHeader(width), body, styleMuted().Render(help)}
	if t := m.viewToast(); t != "" {
		parts = append(parts, t)
	}
	return strings.Join(parts, "\n\n")
}

func (m appModel) modalView(width int) string {
	switch m.route {
	case route.Todo:
		if req, ok := m.todo.c.Dialog.Pending(); ok {
			return renderConfirmModal(width, req.Title, req.Message, m.todo.confirmFocus)
		}
	case route.Admin:
		if req, ok := m.admin.dialog.Pending(); ok {
			return renderConfirmModal(width, req.Title, req.Message, m.admin.confirmFocus)
		}
	}
	return ""
}

func (m appModel) viewHeader(width int) string {
	left := styleTitle().Render("iTask")
	right := ""
	if m.sess.Authenticated() {
		right = m.sess.Username()
		if right == "" {
			right = "signed in"
		}
		if m.sess.IsAdmin() {
			right += " (admin)"
		}
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + styleMuted().Render(right)
}

func (m appModel) viewToast() string {
	if m.toast == "" {
		return ""
	}
	st := lipgloss.NewStyle().Bold(true)
	switch m.toastKind {
	case toastError:
		st = st.Foreground(colorError)
	case toastSuccess:
		st = st.Foreground(colorSuccess)
	default:
		st = st.Foreground(colorWarning)
	}
	return st.Render(m.toast)
}

// Messages carrying results of remote calls back to the event loop.

type authDoneMsg struct {
	from   route.Route
	out    auth.Outcome
	err    error
	logout bool
}

func (m *appModel) applyAuth(msg authDoneMsg) tea.Cmd {
	if m.auth != nil && m.auth.route == msg.from {
		m.auth.busy = false
	}
	if msg.err != nil {
		return m.flashErr(msg.err.Error())
	}
	if msg.logout || msg.out.Route != m.route {
		m.resetUserScreens()
	}
	toast := m.flash(msg.out.Toast, toastSuccess)
	return tea.Batch(toast, m.navigate(string(msg.out.Route)))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
