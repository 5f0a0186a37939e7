package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"itask-cli/internal/auth"
	"itask-cli/internal/form"
	"itask-cli/internal/route"
)

type authLink struct {
	text string
	to   route.Route
}

type authScreen struct {
	route  route.Route
	screen form.Screen
	form   *form.Form
	inputs []textinput.Model
	links  []authLink
	focus  int
	busy   bool
}

func newAuthScreen(r route.Route) *authScreen {
	screen, ok := auth.Screen(r)
	if !ok {
		screen = form.Login()
		r = route.Login
	}
	s := &authScreen{route: r, screen: screen, form: screen.NewForm()}
	for _, fd := range screen.Fields {
		in := textinput.New()
		in.Placeholder = fd.Placeholder
		in.Prompt = ""
		in.CharLimit = 256
		if fd.Kind.Masked() {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		s.inputs = append(s.inputs, in)
	}
	if r == route.Login {
		s.links = append(s.links, authLink{text: "Forgot password?", to: route.Forgot})
	}
	if screen.LinkTo != "" {
		s.links = append(s.links, authLink{text: screen.LinkText, to: route.Normalize(screen.LinkTo)})
	}
	s.setFocus(0)
	return s
}

// Focus order: fields, the submit button, then links.
func (s *authScreen) focusCount() int { return len(s.inputs) + 1 + len(s.links) }
func (s *authScreen) submitIndex() int { return len(s.inputs) }

func (s *authScreen) setFocus(i int) {
	n := s.focusCount()
	s.focus = ((i % n) + n) % n
	for j := range s.inputs {
		if j == s.focus {
			_ = s.inputs[j].Focus()
		} else {
			s.inputs[j].Blur()
		}
	}
}

func (s *authScreen) togglePassword() {
	s.form.TogglePassword()
	for i, fd := range s.screen.Fields {
		if !fd.Kind.Masked() {
			continue
		}
		if s.form.ShowPassword() {
			s.inputs[i].EchoMode = textinput.EchoNormal
		} else {
			s.inputs[i].EchoMode = textinput.EchoPassword
		}
	}
}

func (m *appModel) updateAuth(msg tea.KeyMsg) tea.Cmd {
	s := m.auth
	if s == nil {
		return nil
	}
	switch msg.String() {
	case "tab", "down":
		s.setFocus(s.focus + 1)
		return nil
	case "shift+tab", "up":
		s.setFocus(s.focus - 1)
		return nil
	case "ctrl+r":
		s.togglePassword()
		return nil
	case "ctrl+s":
		return m.submitAuth()
	case "esc":
		if s.route != route.Login {
			return m.navigate(string(route.Login))
		}
		return nil
	case "enter":
		switch {
		case s.focus < len(s.inputs)-1:
			s.setFocus(s.focus + 1)
			return nil
		case s.focus <= s.submitIndex():
			return m.submitAuth()
		default:
			return m.navigate(string(s.links[s.focus-s.submitIndex()-1].to))
		}
	}

	if s.focus >= len(s.inputs) {
		return nil
	}
	before := s.inputs[s.focus].Value()
	var cmd tea.Cmd
	s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
	if v := s.inputs[s.focus].Value(); v != before {
		s.form.Set(s.screen.Fields[s.focus].Name, v)
	}
	return cmd
}

// submitAuth validates the form and starts the screen's flow once.
func (m *appModel) submitAuth() tea.Cmd {
	s := m.auth
	submit, ok := m.flows.For(s.route)
	if !ok {
		return nil
	}
	for i, fd := range s.screen.Fields {
		s.form.Set(fd.Name, s.inputs[i].Value())
	}
	var cmd tea.Cmd
	from := s.route
	_ = s.form.Submit(s.busy, func(v form.Values) {
		s.busy = true
		cmd = func() tea.Msg {
			out, err := submit(context.Background(), v)
			return authDoneMsg{from: from, out: out, err: err}
		}
	})
	return cmd
}

func (m appModel) viewAuth(width int) (string, string) {
	s := m.auth
	if s == nil {
		return "", "ctrl+c: quit"
	}
	bodyW := width - 4
	if bodyW > 60 {
		bodyW = 60
	}

	var b strings.Builder
	b.WriteString(styleTitle().Render(s.screen.Title))
	b.WriteString("\n\n")
	for i, fd := range s.screen.Fields {
		label := fd.Label
		if i == s.focus {
			label = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render(label)
		}
		b.WriteString(label + "\n")
		b.WriteString(renderInputLine(bodyW, s.inputs[i].View()) + "\n")
		if e := s.form.Error(fd.Name); e != "" {
			b.WriteString(styleError().Render(e) + "\n")
		}
		b.WriteString("\n")
	}

	btn := s.screen.ButtonText
	if s.busy {
		btn = "Please wait..."
	}
	btnStyle := styleTabInactive()
	if s.focus == s.submitIndex() {
		btnStyle = styleTabActive()
	}
	b.WriteString(btnStyle.Render(btn))
	if fe := s.form.FormError(); fe != "" {
		b.WriteString("\n" + styleError().Render(fe))
	}
	for i, l := range s.links {
		st := styleMuted().Underline(true)
		if s.focus == s.submitIndex()+1+i {
			st = lipgloss.NewStyle().Underline(true).Bold(true).Foreground(colorAccent)
		}
		b.WriteString("\n" + st.Render(l.text))
	}

	help := "tab: next   enter: submit/follow   ctrl+r: show password   ctrl+c: quit"
	if s.route != route.Login {
		help += "   esc: back to login"
	}
	return b.String(), help
}
