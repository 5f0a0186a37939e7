package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"itask-cli/internal/admin"
	"itask-cli/internal/confirm"
	"itask-cli/internal/route"
)

type adminActionKind int

const (
	adminDeleteUser adminActionKind = iota
	adminDeleteFeedback
)

type adminAction struct {
	kind adminActionKind
	id   string
}

type adminScreen struct {
	d      *admin.Dashboard
	tab    admin.Tab
	cursor int

	loading bool
	busy    bool

	dialog       confirm.Dialog[adminAction]
	confirmFocus confirmFocus
}

func newAdminScreen(d *admin.Dashboard) *adminScreen {
	return &adminScreen{d: d, tab: admin.TabStats}
}

func (s *adminScreen) rows() int {
	snap := s.d.Snapshot()
	switch s.tab {
	case admin.TabUsers:
		return len(snap.Users)
	case admin.TabFeedbacks:
		return len(snap.Feedbacks)
	}
	return 0
}

func (s *adminScreen) setTab(t admin.Tab) {
	s.tab = t
	s.cursor = 0
}

func (s *adminScreen) clampCursor() {
	if n := s.rows(); s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

type adminLoadedMsg struct {
	snap admin.Snapshot
	err  error
}

// adminMutatedMsg carries the dashboard reread after a change; ok and fail
// are the toasts for either outcome.
type adminMutatedMsg struct {
	snap admin.Snapshot
	err  error
	ok   string
	fail string
}

func (m *appModel) enterAdmin() tea.Cmd {
	s := m.admin
	if s.d.Loaded() || s.loading {
		return nil
	}
	return m.fetchAdmin()
}

func (m *appModel) fetchAdmin() tea.Cmd {
	s := m.admin
	s.loading = true
	d := s.d
	return func() tea.Msg {
		snap, err := d.Fetch(context.Background())
		return adminLoadedMsg{snap: snap, err: err}
	}
}

func (m *appModel) applyAdminLoaded(msg adminLoadedMsg) tea.Cmd {
	s := m.admin
	s.loading = false
	if msg.err != nil {
		return m.flashErr("Failed to load dashboard")
	}
	s.d.Apply(msg.snap)
	s.clampCursor()
	return nil
}

func (m *appModel) applyAdminMutated(msg adminMutatedMsg) tea.Cmd {
	s := m.admin
	s.busy = false
	err := s.d.Commit(msg.snap, msg.err)
	var re *admin.RefreshError
	if err != nil && !errors.As(err, &re) {
		return m.flashErr(msg.fail)
	}
	if re != nil {
		m.log.Warn("admin refresh after change failed", zap.Error(re.Err))
	}
	s.clampCursor()
	return m.flash(msg.ok, toastSuccess)
}

func (m *appModel) mutateAdmin(ok, fail string, fn func(ctx context.Context) (admin.Snapshot, error)) tea.Cmd {
	m.admin.busy = true
	return func() tea.Msg {
		snap, err := fn(context.Background())
		return adminMutatedMsg{snap: snap, err: err, ok: ok, fail: fail}
	}
}

func (m *appModel) updateAdmin(msg tea.KeyMsg) (tea.Cmd, bool) {
	s := m.admin
	if s.dialog.Open() {
		return m.updateAdminConfirm(msg), false
	}

	switch k := msg.String(); k {
	case "q":
		return nil, true
	case "esc":
		return m.navigate(string(route.Home)), false
	case "tab":
		for i, t := range admin.Tabs {
			if t == s.tab {
				s.setTab(admin.Tabs[(i+1)%len(admin.Tabs)])
				break
			}
		}
	case "1", "2", "3":
		s.setTab(admin.Tabs[int(k[0]-'1')])
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < s.rows()-1 {
			s.cursor++
		}
	case "r":
		if !s.loading && !s.busy {
			return m.fetchAdmin(), false
		}
	case "t":
		if s.tab != admin.TabUsers || s.busy {
			return nil, false
		}
		users := s.d.Snapshot().Users
		if s.cursor >= len(users) {
			return nil, false
		}
		u := users[s.cursor]
		d := s.d
		ok := "User role updated to " + string(u.Role.Toggled())
		return m.mutateAdmin(ok, "Failed to update user role", func(ctx context.Context) (admin.Snapshot, error) {
			return d.ToggleRole(ctx, u)
		}), false
	case "d":
		return m.askAdminDelete(), false
	}
	return nil, false
}

func (m *appModel) askAdminDelete() tea.Cmd {
	s := m.admin
	if s.busy {
		return nil
	}
	snap := s.d.Snapshot()
	var err error
	switch s.tab {
	case admin.TabUsers:
		if s.cursor >= len(snap.Users) {
			return nil
		}
		u := snap.Users[s.cursor]
		err = s.dialog.Ask("Delete User",
			fmt.Sprintf("Are you sure you want to delete %s? Their feedback will be removed too.", u.Name),
			adminAction{kind: adminDeleteUser, id: u.ID})
	case admin.TabFeedbacks:
		if s.cursor >= len(snap.Feedbacks) {
			return nil
		}
		err = s.dialog.Ask("Delete Feedback",
			"Are you sure you want to delete this feedback?",
			adminAction{kind: adminDeleteFeedback, id: snap.Feedbacks[s.cursor].ID})
	default:
		return nil
	}
	if err != nil {
		return m.flashErr(err.Error())
	}
	s.confirmFocus = confirmFocusConfirm
	return nil
}

func (m *appModel) updateAdminConfirm(msg tea.KeyMsg) tea.Cmd {
	s := m.admin
	switch msg.String() {
	case "tab", "shift+tab", "left", "right":
		if s.confirmFocus == confirmFocusConfirm {
			s.confirmFocus = confirmFocusCancel
		} else {
			s.confirmFocus = confirmFocusConfirm
		}
		return nil
	case "n", "esc":
		s.dialog.Cancel()
		return nil
	case "enter":
		if s.confirmFocus == confirmFocusCancel {
			s.dialog.Cancel()
			return nil
		}
	case "y":
	default:
		return nil
	}

	act, ok := s.dialog.Confirm()
	if !ok {
		return nil
	}
	d := s.d
	if act.kind == adminDeleteUser {
		return m.mutateAdmin("User deleted", "Failed to delete user", func(ctx context.Context) (admin.Snapshot, error) {
			return d.DeleteUser(ctx, act.id)
		})
	}
	return m.mutateAdmin("Feedback deleted", "Failed to delete feedback", func(ctx context.Context) (admin.Snapshot, error) {
		return d.DeleteFeedback(ctx, act.id)
	})
}

func (m appModel) viewAdmin(width int) (string, string) {
	s := m.admin
	bodyW := width - 4
	if bodyW > 100 {
		bodyW = 100
	}

	var b strings.Builder
	tabs := make([]string, 0, len(admin.Tabs))
	for i, t := range admin.Tabs {
		label := fmt.Sprintf("%d %s", i+1, t.Label())
		if t == s.tab {
			tabs = append(tabs, styleTabActive().Render(label))
		} else {
			tabs = append(tabs, styleTabInactive().Render(label))
		}
		tabs = append(tabs, " ")
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")

	if !s.d.Loaded() {
		if s.loading {
			b.WriteString(styleMuted().Render("Loading..."))
		} else {
			b.WriteString(styleMuted().Render("Press r to load the dashboard."))
		}
		return b.String(), "r: reload   esc: home"
	}

	snap := s.d.Snapshot()
	help := "tab/1-3: switch   r: reload   esc: home   q: quit"
	switch s.tab {
	case admin.TabUsers:
		help = "up/down: move   t: toggle role   d: delete   " + help
		if len(snap.Users) == 0 {
			b.WriteString(styleMuted().Render("No users."))
		}
		for i, u := range snap.Users {
			line := fmt.Sprintf("%-24s %-32s %s", cut(u.Name, 24), cut(u.Email, 32), u.Role)
			b.WriteString(s.row(i, line, bodyW) + "\n")
		}
	case admin.TabFeedbacks:
		help = "up/down: move   d: delete   " + help
		if len(snap.Feedbacks) == 0 {
			b.WriteString(styleMuted().Render("No feedback yet."))
		}
		for i, f := range snap.Feedbacks {
			who := f.UserName
			if who == "" {
				who = f.UserEmail
			}
			line := fmt.Sprintf("%s  %-20s %s", stars(f.Rating), cut(who, 20), f.Suggestion)
			b.WriteString(s.row(i, line, bodyW) + "\n")
		}
	default:
		b.WriteString(statLine("Total users", fmt.Sprint(snap.Stats.TotalUsers)))
		b.WriteString(statLine("Admins", fmt.Sprint(snap.Stats.TotalAdmins)))
		b.WriteString(statLine("Feedback", fmt.Sprint(snap.Stats.TotalFeedbacks)))
		b.WriteString(statLine("Average rating", fmt.Sprintf("%.1f", snap.Stats.AvgRating)))
	}
	if s.busy {
		b.WriteString("\n" + styleMuted().Render("Working..."))
	}
	return strings.TrimRight(b.String(), "\n"), help
}

func (s *adminScreen) row(i int, line string, width int) string {
	line = cut(line, width)
	if i == s.cursor {
		return styleSelected().Render(line)
	}
	return line
}

func statLine(label, value string) string {
	return styleMuted().Render(fmt.Sprintf("%-16s", label)) + lipgloss.NewStyle().Bold(true).Render(value) + "\n"
}

func cut(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
