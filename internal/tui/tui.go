// Package tui is the interactive iTask client: auth forms, the home screen
// with feedback, the todo list and the admin dashboard.
package tui

import (
	"go.uber.org/zap"

	tea "github.com/charmbracelet/bubbletea"

	"itask-cli/internal/api"
	"itask-cli/internal/route"
	"itask-cli/internal/session"
	"itask-cli/internal/store"
)

type Options struct {
	Client  *api.Client
	Session *session.Session
	Store   store.Store
	Config  *store.Config
	Log     *zap.Logger
	// Start is the first screen; empty derives it from the session.
	Start route.Route
}

func Run(opts Options) error {
	applyColorProfilePreference(opts.Config.ColorProfilePreference())
	applyThemePreference(opts.Config.ThemePreference())

	m := newAppModel(opts)
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if fm, ok := final.(appModel); ok {
		fm.saveState()
	}
	return err
}
