package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"itask-cli/internal/api"
	"itask-cli/internal/docs"
	"itask-cli/internal/feedback"
	"itask-cli/internal/route"
)

type homeFocus int

const (
	homeFocusNone homeFocus = iota
	homeFocusSuggestion
	homeFocusRating
)

type homeScreen struct {
	checked  bool
	checking bool

	focus      homeFocus
	suggestion textinput.Model
	rating     int
	busy       bool
}

func newHomeScreen() *homeScreen {
	in := textinput.New()
	in.Placeholder = "Tell us how we can improve iTask..."
	in.Prompt = ""
	in.CharLimit = 500
	return &homeScreen{suggestion: in}
}

func (h *homeScreen) setFocus(f homeFocus) {
	h.focus = f
	if f == homeFocusSuggestion {
		_ = h.suggestion.Focus()
	} else {
		h.suggestion.Blur()
	}
}

type feedbackCheckedMsg struct {
	st  api.FeedbackStatus
	err error
}

type feedbackSentMsg struct{ err error }

func (m *appModel) enterHome() tea.Cmd {
	h := m.home
	if h.checked || h.checking {
		return nil
	}
	h.checking = true
	fb := m.fb
	return func() tea.Msg {
		st, err := fb.Check(context.Background())
		return feedbackCheckedMsg{st: st, err: err}
	}
}

func (m *appModel) applyFeedbackChecked(msg feedbackCheckedMsg) tea.Cmd {
	m.home.checking = false
	m.home.checked = true
	if msg.err != nil && errors.Is(msg.err, api.ErrUnauthorized) {
		return m.flashErr("Session expired, please log in again")
	}
	return nil
}

func (m *appModel) updateHome(msg tea.KeyMsg) (tea.Cmd, bool) {
	h := m.home
	if h.focus == homeFocusNone {
		switch msg.String() {
		case "q":
			return nil, true
		case "t":
			return m.navigate(string(route.Todo)), false
		case "a":
			if m.sess.IsAdmin() {
				return m.navigate(string(route.Admin)), false
			}
		case "f":
			if !m.sess.FeedbackSubmitted() {
				h.setFocus(homeFocusSuggestion)
			}
		}
		return nil, false
	}

	switch msg.String() {
	case "esc":
		h.setFocus(homeFocusNone)
		return nil, false
	case "tab", "shift+tab":
		if h.focus == homeFocusSuggestion {
			h.setFocus(homeFocusRating)
		} else {
			h.setFocus(homeFocusSuggestion)
		}
		return nil, false
	case "enter":
		return m.submitFeedback(), false
	}

	if h.focus == homeFocusRating {
		switch k := msg.String(); k {
		case "1", "2", "3", "4", "5":
			h.rating = int(k[0] - '0')
		case "left", "h", "-":
			if h.rating > 1 {
				h.rating--
			}
		case "right", "l", "+":
			if h.rating < 5 {
				h.rating++
			}
		}
		return nil, false
	}

	var cmd tea.Cmd
	h.suggestion, cmd = h.suggestion.Update(msg)
	return cmd, false
}

func (m *appModel) submitFeedback() tea.Cmd {
	h := m.home
	if h.busy {
		return nil
	}
	d := feedback.Draft{Suggestion: strings.TrimSpace(h.suggestion.Value()), Rating: h.rating}
	if err := d.Check(); err != nil {
		return m.flashErr(feedback.ErrorMessage(err))
	}
	if m.sess.FeedbackSubmitted() {
		return m.flashErr(feedback.DoneMessage)
	}
	h.busy = true
	fb := m.fb
	return func() tea.Msg {
		return feedbackSentMsg{err: fb.Submit(context.Background(), d)}
	}
}

func (m *appModel) applyFeedbackSent(msg feedbackSentMsg) tea.Cmd {
	h := m.home
	h.busy = false
	if msg.err != nil {
		return m.flashErr(feedback.ErrorMessage(msg.err))
	}
	h.suggestion.SetValue("")
	h.rating = 0
	h.setFocus(homeFocusNone)
	return m.flash(feedback.ThanksMessage, toastSuccess)
}

func (m appModel) viewHome(width int) (string, string) {
	h := m.home
	bodyW := width - 4
	if bodyW > 72 {
		bodyW = 72
	}

	var b strings.Builder
	b.WriteString(renderMarkdown(docs.MustGet("welcome"), bodyW))
	b.WriteString("\n\n")
	b.WriteString(styleTitle().Render("Feedback"))
	b.WriteString("\n")

	switch {
	case !h.checked:
		b.WriteString(styleMuted().Render("Checking..."))
	case m.sess.FeedbackSubmitted():
		b.WriteString(feedback.DoneMessage)
	default:
		label := "Suggestion"
		if h.focus == homeFocusSuggestion {
			label = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render(label)
		}
		b.WriteString(label + "\n")
		b.WriteString(renderInputLine(bodyW, h.suggestion.View()) + "\n")
		rl := "Rating"
		if h.focus == homeFocusRating {
			rl = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render(rl)
		}
		b.WriteString(rl + " " + stars(h.rating))
		if h.busy {
			b.WriteString("\n" + styleMuted().Render("Sending..."))
		}
	}

	help := "t: todos   f: feedback   ctrl+o: logout   q: quit"
	if m.sess.IsAdmin() {
		help = "t: todos   a: admin   f: feedback   ctrl+o: logout   q: quit"
	}
	if h.focus != homeFocusNone {
		help = "tab: suggestion/rating   1-5: rating   enter: send   esc: leave form"
	}
	return b.String(), help
}

func stars(n int) string {
	n = max(0, min(n, 5))
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}
