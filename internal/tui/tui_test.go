package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"itask-cli/internal/admin"
	"itask-cli/internal/api"
	"itask-cli/internal/apitest"
	"itask-cli/internal/model"
	"itask-cli/internal/route"
	"itask-cli/internal/session"
	"itask-cli/internal/store"
)

type harness struct {
	t    *testing.T
	srv  *apitest.Server
	sess *session.Session
	dir  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("ITASK_TUI_THEME", "dark")
	srv := apitest.Start()
	t.Cleanup(srv.Close)
	return &harness{t: t, srv: srv, sess: session.New(nil), dir: t.TempDir()}
}

func (h *harness) signIn(id string, role model.Role, name string) {
	h.t.Helper()
	if err := h.sess.Begin(context.Background(), h.srv.TokenFor(id), role, name); err != nil {
		h.t.Fatalf("begin session: %v", err)
	}
}

func (h *harness) model(start route.Route) appModel {
	h.t.Helper()
	m := newAppModel(Options{
		Client:  api.New(h.srv.URL(), api.WithTokens(h.sess)),
		Session: h.sess,
		Store:   store.Store{Dir: h.dir},
		Start:   start,
	})
	m.toastTTL = 0
	m.width, m.height = 100, 40
	return drain(h.t, m, m.Init())
}

// drain runs cmd and everything it leads to, feeding each message back into
// the model. Timer commands (cursor blink) are dropped once they stall.
func drain(t *testing.T, m appModel, cmd tea.Cmd) appModel {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := runCmd(c)
		if msg == nil {
			continue
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		next, nc := m.Update(msg)
		m = next.(appModel)
		queue = append(queue, nc)
	}
	return m
}

func runCmd(c tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- c() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(300 * time.Millisecond):
		return nil
	}
}

func press(t *testing.T, m appModel, keys ...tea.KeyMsg) appModel {
	t.Helper()
	for _, k := range keys {
		next, cmd := m.Update(k)
		m = drain(t, next.(appModel), cmd)
	}
	return m
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyCtrlS = tea.KeyMsg{Type: tea.KeyCtrlS}
	keyCtrlO = tea.KeyMsg{Type: tea.KeyCtrlO}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
)

func TestLogin_AdminLandsOnDashboard(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("Grace Hopper", "grace@example.com", "Secret@123", "admin")

	m := h.model("")
	if m.route != route.Login {
		t.Fatalf("expected login screen, got %q", m.route)
	}

	m = press(t, m, runes("grace@example.com"), keyTab, runes("Secret@123"), keyEnter)
	if m.route != route.Admin {
		t.Fatalf("expected /admin after admin login, got %q (toast %q)", m.route, m.toast)
	}
	if !h.sess.IsAdmin() || h.sess.Username() != "Grace Hopper" {
		t.Fatalf("session not begun: admin=%v name=%q", h.sess.IsAdmin(), h.sess.Username())
	}
	if m.toast == "" {
		t.Fatalf("expected a success toast")
	}
	if !m.admin.d.Loaded() {
		t.Fatalf("expected dashboard loaded on entry")
	}
	if got := m.admin.d.Snapshot().Stats.TotalAdmins; got != 1 {
		t.Fatalf("expected 1 admin in stats, got %d", got)
	}
}

func TestLogin_InvalidFormSendsNothing(t *testing.T) {
	h := newHarness(t)
	m := h.model("")

	m = press(t, m, runes("not-an-email"), keyCtrlS)
	if n := h.srv.Count("POST", "/auth/"); n != 0 {
		t.Fatalf("expected no auth request, got %d", n)
	}
	if m.route != route.Login {
		t.Fatalf("expected to stay on login, got %q", m.route)
	}
	if m.auth.form.Error("email") == "" || m.auth.form.Error("password") == "" {
		t.Fatalf("expected field errors, got email=%q password=%q",
			m.auth.form.Error("email"), m.auth.form.Error("password"))
	}
	if !strings.Contains(m.View(), m.auth.form.Error("password")) {
		t.Fatalf("expected the password error in the view")
	}
}

func TestLogin_WrongPasswordShowsToast(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("Alan Turing", "alan@example.com", "Secret@123", "user")
	m := h.model("")

	m = press(t, m, runes("alan@example.com"), keyTab, runes("Wrong@1234"), keyCtrlS)
	if m.route != route.Login {
		t.Fatalf("expected to stay on login, got %q", m.route)
	}
	if m.toastKind != toastError || m.toast == "" {
		t.Fatalf("expected an error toast, got %q (%v)", m.toast, m.toastKind)
	}
	if m.auth.busy {
		t.Fatalf("form should be usable again after a failed login")
	}
	if h.sess.Authenticated() {
		t.Fatalf("session should stay empty")
	}
}

func TestAuth_LinksNavigateBetweenScreens(t *testing.T) {
	h := newHarness(t)
	m := h.model("")

	// email, password, button, "Forgot password?", register link
	m = press(t, m, keyTab, keyTab, keyTab, keyTab, keyEnter)
	if m.route != route.Register {
		t.Fatalf("expected /register, got %q", m.route)
	}
	m = press(t, m, keyEsc)
	if m.route != route.Login {
		t.Fatalf("expected esc to return to login, got %q", m.route)
	}
}

func TestPrivateRoute_WithoutSessionShowsLogin(t *testing.T) {
	h := newHarness(t)
	m := h.model(route.Todo)
	if m.route != route.Login || m.auth == nil {
		t.Fatalf("expected login for an anonymous /todo, got %q", m.route)
	}
}

func TestAdminRoute_NonAdminGoesHome(t *testing.T) {
	h := newHarness(t)
	id := h.srv.AddUser("Alan Turing", "alan@example.com", "Secret@123", "user")
	h.signIn(id, model.RoleUser, "Alan Turing")

	m := h.model(route.Admin)
	if m.route != route.Home {
		t.Fatalf("expected /home, got %q", m.route)
	}
	m = press(t, m, runes("a"))
	if m.route != route.Home {
		t.Fatalf("a should not open the dashboard for a user, got %q", m.route)
	}
	if n := h.srv.Count("GET", "/admin/"); n != 0 {
		t.Fatalf("expected no admin requests, got %d", n)
	}
}

func TestTodo_AddThenCompleteWithConfirmation(t *testing.T) {
	h := newHarness(t)
	id := h.srv.AddUser("Alan Turing", "alan@example.com", "Secret@123", "user")
	h.signIn(id, model.RoleUser, "Alan Turing")

	m := h.model(route.Todo)
	if !m.todo.c.Loaded() {
		t.Fatalf("expected todos loaded on entry")
	}

	m = press(t, m, runes("a"), runes("Buy milk"), keyEnter)
	if m.toast != "Todo added successfully!" {
		t.Fatalf("unexpected toast: %q", m.toast)
	}
	if got := m.todo.c.Pending(); len(got) != 1 || got[0].Text != "Buy milk" {
		t.Fatalf("expected one pending todo, got %#v", got)
	}

	m = press(t, m, keyEsc, runes("c"))
	if !m.todo.c.Dialog.Open() {
		t.Fatalf("expected confirmation dialog")
	}
	if !strings.Contains(m.View(), "Move to completed") {
		t.Fatalf("expected modal title in view")
	}
	if n := h.srv.Count("PUT", "/edit-todo/"); n != 0 {
		t.Fatalf("nothing should be sent before confirming, got %d", n)
	}

	m = press(t, m, runes("y"))
	if m.todo.c.Dialog.Open() {
		t.Fatalf("dialog should close after confirming")
	}
	if len(m.todo.c.Completed()) != 1 || len(m.todo.c.Pending()) != 0 {
		t.Fatalf("expected the todo to move to completed")
	}
	if m.toast != "Todo moved to completed!" {
		t.Fatalf("unexpected toast: %q", m.toast)
	}
	if srv := h.srv.Todos(id); len(srv) != 1 || !srv[0].IsCompleted {
		t.Fatalf("backend not updated: %#v", srv)
	}
}

func TestTodo_InvalidTextIsRejectedLocally(t *testing.T) {
	h := newHarness(t)
	id := h.srv.AddUser("Alan Turing", "alan@example.com", "Secret@123", "user")
	h.signIn(id, model.RoleUser, "Alan Turing")

	m := h.model(route.Todo)
	m = press(t, m, runes("a"), runes("123"), keyEnter)
	if m.toastKind != toastError || m.toast != "Todo must be more than 3 characters." {
		t.Fatalf("unexpected toast: %q", m.toast)
	}
	if n := h.srv.Count("POST", "/add-todo"); n != 0 {
		t.Fatalf("expected no add request, got %d", n)
	}
}

func TestTodo_BulkDeleteDeclinedThenAccepted(t *testing.T) {
	h := newHarness(t)
	id := h.srv.AddUser("Alan Turing", "alan@example.com", "Secret@123", "user")
	h.srv.SeedTodo(id, "Write report", false)
	h.srv.SeedTodo(id, "Call plumber", false)
	h.signIn(id, model.RoleUser, "Alan Turing")

	m := h.model(route.Todo)
	m = press(t, m, runes("A"))
	if !m.todo.c.AllSelected() {
		t.Fatalf("expected every pending todo selected")
	}

	m = press(t, m, runes("d"), runes("n"))
	if m.todo.c.Dialog.Open() || len(m.todo.c.Pending()) != 2 {
		t.Fatalf("declining must keep the list intact")
	}

	m = press(t, m, runes("d"), keyEnter)
	if len(m.todo.c.Pending()) != 0 {
		t.Fatalf("expected both todos deleted, got %d", len(m.todo.c.Pending()))
	}
	if m.toast != "Selected todos deleted!" {
		t.Fatalf("unexpected toast: %q", m.toast)
	}
	if n := h.srv.Count("DELETE", "/delete-todo/"); n != 2 {
		t.Fatalf("expected 2 delete requests, got %d", n)
	}
}

func TestTodo_EditKeepsPositionAndUpdates(t *testing.T) {
	h := newHarness(t)
	id := h.srv.AddUser("Alan Turing", "alan@example.com", "Secret@123", "user")
	h.srv.SeedTodo(id, "Write report", false)
	h.signIn(id, model.RoleUser, "Alan Turing")

	m := h.model(route.Todo)
	m = press(t, m, runes("e"))
	if !m.todo.typing || m.todo.input.Value() != "Write report" {
		t.Fatalf("expected edit mode with the current text, got %q", m.todo.input.Value())
	}
	m = press(t, m, runes(" today"), keyEnter)
	if m.toast != "Todo updated!" {
		t.Fatalf("unexpected toast: %q", m.toast)
	}
	if got := m.todo.c.Pending(); len(got) != 1 || got[0].Text != "Write report today" {
		t.Fatalf("unexpected todos: %#v", got)
	}
	if _, editing := m.todo.c.Editing(); editing {
		t.Fatalf("edit mode should end after saving")
	}
}

func TestTodo_EditFromCompletedTabNamesTheTodo(t *testing.T) {
	h := newHarness(t)
	id := h.srv.AddUser("Alan Turing", "alan@example.com", "Secret@123", "user")
	h.srv.SeedTodo(id, "Read paper", true)
	h.signIn(id, model.RoleUser, "Alan Turing")

	m := h.model(route.Todo)
	m = press(t, m, keyTab, runes("e"))
	if m.todo.c.Tab() != model.TabPending || !m.todo.typing {
		t.Fatalf("expected input on the todo tab, tab=%q typing=%v", m.todo.c.Tab(), m.todo.typing)
	}
	if got := m.todo.inputLabel(); got != "Update completed todo: Read paper" {
		t.Fatalf("unexpected label %q", got)
	}
	if !strings.Contains(m.View(), "Read paper") {
		t.Fatalf("edited todo not shown:\n%s", m.View())
	}

	m = press(t, m, runes(" again"), keyEnter)
	if m.toast != "Todo updated!" {
		t.Fatalf("unexpected toast: %q", m.toast)
	}
	if got := m.todo.c.Completed(); len(got) != 1 || got[0].Text != "Read paper again" {
		t.Fatalf("expected the todo to stay completed, got %#v", got)
	}
	if got := m.todo.inputLabel(); got != "New todo" {
		t.Fatalf("expected add mode after saving, got %q", got)
	}
}

func TestHome_FeedbackSubmittedOnce(t *testing.T) {
	h := newHarness(t)
	id := h.srv.AddUser("Alan Turing", "alan@example.com", "Secret@123", "user")
	h.signIn(id, model.RoleUser, "Alan Turing")

	m := h.model(route.Home)
	if !m.home.checked {
		t.Fatalf("expected the feedback status checked on entry")
	}

	m = press(t, m, runes("f"), keyEnter)
	if m.toast != "Please fill both suggestion and rating." {
		t.Fatalf("unexpected toast: %q", m.toast)
	}

	m = press(t, m, runes("More themes"), keyTab, runes("4"), keyEnter)
	if m.toast != "Thank you for your feedback!" {
		t.Fatalf("unexpected toast: %q", m.toast)
	}
	if !h.sess.FeedbackSubmitted() {
		t.Fatalf("session should record the feedback")
	}
	if !strings.Contains(m.View(), "already submitted") {
		t.Fatalf("expected the done message in the view")
	}
}

func TestAdmin_ToggleRoleAndDeleteFeedback(t *testing.T) {
	h := newHarness(t)
	adminID := h.srv.AddUser("Grace Hopper", "grace@example.com", "Secret@123", "admin")
	userID := h.srv.AddUser("Alan Turing", "alan@example.com", "Secret@123", "user")
	h.srv.SeedFeedback(userID, "Dark mode please", 5)
	h.signIn(adminID, model.RoleAdmin, "Grace Hopper")

	m := h.model(route.Admin)
	m = press(t, m, runes("2"))
	if m.admin.tab != admin.TabUsers {
		t.Fatalf("expected users tab, got %q", m.admin.tab)
	}

	users := m.admin.d.Snapshot().Users
	for i, u := range users {
		if u.ID == userID {
			m.admin.cursor = i
		}
	}
	m = press(t, m, runes("t"))
	if got := h.srv.UserRole(userID); got != "admin" {
		t.Fatalf("expected role admin on backend, got %q", got)
	}
	if m.toast != "User role updated to admin" {
		t.Fatalf("unexpected toast: %q", m.toast)
	}
	if got := m.admin.d.Snapshot().Stats.TotalAdmins; got != 2 {
		t.Fatalf("expected refetched stats with 2 admins, got %d", got)
	}

	m = press(t, m, runes("3"), runes("d"))
	if !m.admin.dialog.Open() {
		t.Fatalf("expected confirmation before deleting feedback")
	}
	m = press(t, m, runes("y"))
	if n := len(m.admin.d.Snapshot().Feedbacks); n != 0 {
		t.Fatalf("expected no feedback left, got %d", n)
	}
	if m.toast != "Feedback deleted" {
		t.Fatalf("unexpected toast: %q", m.toast)
	}
}

func TestLogout_ClearsSessionAndScreens(t *testing.T) {
	h := newHarness(t)
	id := h.srv.AddUser("Alan Turing", "alan@example.com", "Secret@123", "user")
	h.srv.SeedTodo(id, "Write report", false)
	h.signIn(id, model.RoleUser, "Alan Turing")

	m := h.model(route.Todo)
	if len(m.todo.c.Pending()) != 1 {
		t.Fatalf("expected the seeded todo")
	}
	m = press(t, m, keyCtrlO)
	if m.route != route.Login || h.sess.Authenticated() {
		t.Fatalf("expected logout to land on login, got %q", m.route)
	}
	if m.todo.c.Loaded() || len(m.todo.c.Items()) != 0 {
		t.Fatalf("todos of the previous account should be dropped")
	}
}

func TestQuit_SavesTabs(t *testing.T) {
	h := newHarness(t)
	id := h.srv.AddUser("Alan Turing", "alan@example.com", "Secret@123", "user")
	h.signIn(id, model.RoleUser, "Alan Turing")

	m := h.model(route.Todo)
	m = press(t, m, keyTab, keyDown)
	next, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	_ = next

	st, err := store.Store{Dir: h.dir}.LoadTUIState()
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if st.Tab != string(model.TabCompleted) {
		t.Fatalf("expected completed tab saved, got %q", st.Tab)
	}

	again := h.model(route.Todo)
	if again.todo.c.Tab() != model.TabCompleted {
		t.Fatalf("expected tab restored, got %q", again.todo.c.Tab())
	}
}
