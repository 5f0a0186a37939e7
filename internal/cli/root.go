package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"itask-cli/internal/api"
	"itask-cli/internal/format"
	"itask-cli/internal/logging"
	"itask-cli/internal/route"
	"itask-cli/internal/session"
	"itask-cli/internal/store"
	"itask-cli/internal/tui"
)

type App struct {
	ConfigDir  string
	BaseURL    string
	Timeout    time.Duration
	PrettyJSON bool
	Format     string

	// Set by open.
	cfg    *store.Config
	log    *zap.Logger
	kv     *store.KV
	sess   *session.Session
	client *api.Client
}

var errNotLoggedIn = errors.New("not logged in; run `itask login`")

// Execute runs the command line in args. Whatever the command opened is
// closed afterwards, on failure too: cobra skips PersistentPostRunE when RunE
// returns an error.
func Execute(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	return execute(&App{}, args, stdin, stdout, stderr)
}

func execute(app *App, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	cmd := newRootCmd(app)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	defer func() {
		if cerr := app.close(); cerr != nil && err == nil {
			fmt.Fprintln(stderr, "Error:", cerr)
			err = cerr
		}
	}()
	return cmd.Execute()
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "itask",
		Short:        "iTask terminal client (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  itask

  # Sign in and list todos
  itask login --email you@example.com
  itask todos list --format table

  # Jump straight to a screen (shortcut for: itask open /todo)
  itask /todo
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(cmd, app, "")
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.ConfigDir, "config-dir", envOr("ITASK_CONFIG_DIR", ""), "Directory for config.yaml, the session database and the log (default ~/.itask)")
	cmd.PersistentFlags().StringVar(&app.BaseURL, "base-url", envOr("ITASK_API_BASE_URL", ""), "Backend base URL (overrides baseURL in config.yaml)")
	cmd.PersistentFlags().DurationVar(&app.Timeout, "timeout", 0, "Per-request timeout (overrides timeout in config.yaml)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("ITASK_FORMAT", "json"), "Output format (json|table)")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newRegisterCmd(app))
	cmd.AddCommand(newForgotCmd(app))
	cmd.AddCommand(newResetCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newTodosCmd(app))
	cmd.AddCommand(newFeedbackCmd(app))
	cmd.AddCommand(newAdminCmd(app))
	cmd.AddCommand(newOpenCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newWebCmd(app))

	return cmd
}

// open loads config, the logger, the session and the API client once per
// process.
func (app *App) open(ctx context.Context) error {
	if app.client != nil {
		return nil
	}
	dir := strings.TrimSpace(app.ConfigDir)
	if dir == "" {
		d, err := store.ConfigDir()
		if err != nil {
			return err
		}
		dir = d
	}
	app.ConfigDir = dir

	cfg, err := store.LoadConfig(dir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	app.cfg = cfg

	log, err := logging.New(logging.Path(dir), cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	app.log = log

	kv, err := store.Store{Dir: dir}.OpenKV(ctx)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	app.kv = kv

	sess, err := session.Load(ctx, kv)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	app.sess = sess

	baseURL := strings.TrimSpace(app.BaseURL)
	if baseURL == "" {
		baseURL = cfg.BaseURL
	}
	timeout := app.Timeout
	if timeout <= 0 {
		timeout = cfg.Timeout
	}
	app.client = api.New(baseURL,
		api.WithTimeout(timeout),
		api.WithTokens(sess),
		api.WithLogger(log),
	)
	return nil
}

func (app *App) close() error {
	var errs []error
	if app.log != nil {
		_ = app.log.Sync()
	}
	if app.kv != nil {
		errs = append(errs, app.kv.Close())
		app.kv = nil
	}
	app.client = nil
	return errors.Join(errs...)
}

// requireSession opens the app and fails when nobody is signed in.
func (app *App) requireSession(ctx context.Context) error {
	if err := app.open(ctx); err != nil {
		return err
	}
	if !app.sess.Authenticated() {
		return errNotLoggedIn
	}
	if app.sess.Expired(time.Now()) {
		app.log.Info("session token expired")
		return errors.New("session expired; run `itask login`")
	}
	return nil
}

func runTUI(cmd *cobra.Command, app *App, path string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := app.open(ctx); err != nil {
		return writeErr(cmd, err)
	}
	start := route.Start(app.sess.Authenticated(), app.sess.Role())
	if path != "" {
		start = route.Resolve(path, app.sess.Authenticated())
	}
	return tui.Run(tui.Options{
		Client:  app.client,
		Session: app.sess,
		Store:   store.Store{Dir: app.ConfigDir},
		Config:  app.cfg,
		Log:     app.log,
		Start:   start,
	})
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

// writeData wraps data in the JSON envelope, or prints its table form.
func writeData(cmd *cobra.Command, app *App, data any) error {
	if app.Format == "table" {
		if _, ok := data.(format.Tabular); ok {
			return writeOut(cmd, app, data)
		}
	}
	f := app.Format
	if f == "table" {
		f = "json"
	}
	return format.Write(cmd.OutOrStdout(), map[string]any{"data": data}, f, app.PrettyJSON)
}

// nonNil keeps empty lists as [] in JSON output.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
