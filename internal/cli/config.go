package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"itask-cli/internal/store"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change config.yaml",
	}
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigSetCmd(app))
	return cmd
}

type configView struct {
	Path         string `json:"path"`
	BaseURL      string `json:"baseUrl"`
	Timeout      string `json:"timeout"`
	LogLevel     string `json:"logLevel"`
	Theme        string `json:"theme,omitempty"`
	ColorProfile string `json:"colorProfile,omitempty"`
}

func (v configView) Table() ([]string, [][]string) {
	return []string{"Key", "Value"}, [][]string{
		{"path", v.Path},
		{"baseURL", v.BaseURL},
		{"timeout", v.Timeout},
		{"logLevel", v.LogLevel},
		{"tui.theme", v.Theme},
		{"tui.colorProfile", v.ColorProfile},
	}
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmdContext(cmd)); err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, configView{
				Path:         store.ConfigPath(app.ConfigDir),
				BaseURL:      app.client.BaseURL(),
				Timeout:      app.cfg.Timeout.String(),
				LogLevel:     app.cfg.LogLevel,
				Theme:        app.cfg.ThemePreference(),
				ColorProfile: app.cfg.ColorProfilePreference(),
			})
		},
	}
}

var configKeys = []string{"baseURL", "timeout", "logLevel", "tui.theme", "tui.colorProfile"}

func newConfigSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one config key (" + strings.Join(configKeys, "|") + ")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmdContext(cmd)); err != nil {
				return writeErr(cmd, err)
			}
			cfg := app.cfg
			if err := setConfigKey(cfg, args[0], strings.TrimSpace(args[1])); err != nil {
				return writeErr(cmd, err)
			}
			if err := store.SaveConfig(app.ConfigDir, cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, map[string]any{"key": args[0], "value": args[1], "path": store.ConfigPath(app.ConfigDir)})
		},
	}
}

func setConfigKey(cfg *store.Config, key, value string) error {
	switch key {
	case "baseURL":
		cfg.BaseURL = value
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid timeout %q (e.g. 10s, 1m)", value)
		}
		cfg.Timeout = d
	case "logLevel":
		if _, err := zapcore.ParseLevel(value); err != nil {
			return fmt.Errorf("invalid log level %q", value)
		}
		cfg.LogLevel = value
	case "tui.theme":
		switch value {
		case "auto", "light", "dark":
		default:
			return fmt.Errorf("invalid theme %q (expected auto|light|dark)", value)
		}
		tuiConfig(cfg).Theme = value
	case "tui.colorProfile":
		switch value {
		case "auto", "truecolor", "ansi256", "ansi", "ascii":
		default:
			return fmt.Errorf("invalid color profile %q (expected auto|truecolor|ansi256|ansi|ascii)", value)
		}
		tuiConfig(cfg).ColorProfile = value
	default:
		return fmt.Errorf("unknown config key %q (expected %s)", key, strings.Join(configKeys, "|"))
	}
	return nil
}

func tuiConfig(cfg *store.Config) *store.TUIConfig {
	if cfg.TUI == nil {
		cfg.TUI = &store.TUIConfig{}
	}
	return cfg.TUI
}
