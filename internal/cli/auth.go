package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"itask-cli/internal/auth"
	"itask-cli/internal/form"
	"itask-cli/internal/route"
)

func (app *App) flows() *auth.Flows {
	return auth.New(app.client, app.sess, app.log)
}

// runAuthForm fills the route's form from flags or stdin, validates it and
// runs the matching flow.
func runAuthForm(cmd *cobra.Command, app *App, r route.Route, given map[string]string) error {
	ctx := cmdContext(cmd)
	if err := app.open(ctx); err != nil {
		return writeErr(cmd, err)
	}
	screen, _ := auth.Screen(r)
	submit, _ := app.flows().For(r)

	f := screen.NewForm()
	if err := fillForm(cmd, f, given); err != nil {
		return writeErr(cmd, err)
	}

	var (
		out    auth.Outcome
		runErr error
	)
	if err := submitForm(cmd, f, func(v form.Values) {
		out, runErr = submit(ctx, v)
	}); err != nil {
		return err
	}
	if runErr != nil {
		return writeErr(cmd, runErr)
	}
	return writeData(cmd, app, out)
}

func newLoginCmd(app *App) *cobra.Command {
	var email, password, googleToken string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password, or a Google ID token",
		Long: "Sign in and store the session token.\n\n" +
			"Missing --email/--password values are read from stdin. " +
			"With --google-id-token the form is skipped and the token is exchanged directly.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if googleToken != "" {
				ctx := cmdContext(cmd)
				if err := app.open(ctx); err != nil {
					return writeErr(cmd, err)
				}
				out, err := app.flows().Google(ctx, googleToken)
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeData(cmd, app, out)
			}
			return runAuthForm(cmd, app, route.Login, map[string]string{
				"email":    email,
				"password": password,
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", envOr("ITASK_PASSWORD", ""), "Account password (or ITASK_PASSWORD)")
	cmd.Flags().StringVar(&googleToken, "google-id-token", "", "Google ID token to exchange for a session")
	return cmd
}

func newRegisterCmd(app *App) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthForm(cmd, app, route.Register, map[string]string{
				"name":     name,
				"email":    email,
				"password": password,
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", envOr("ITASK_PASSWORD", ""), "Account password (or ITASK_PASSWORD)")
	return cmd
}

func newForgotCmd(app *App) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot",
		Short: "Request a password reset link",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthForm(cmd, app, route.Forgot, map[string]string{"email": email})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	return cmd
}

func newResetCmd(app *App) *cobra.Command {
	var password, confirm string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Choose a new password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthForm(cmd, app, route.Reset, map[string]string{
				"newPassword":     password,
				"confirmPassword": confirm,
			})
		},
	}

	cmd.Flags().StringVar(&password, "new-password", "", "New password")
	cmd.Flags().StringVar(&confirm, "confirm-password", "", "New password again")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			if err := app.open(ctx); err != nil {
				return writeErr(cmd, err)
			}
			out, err := app.flows().Logout(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, out)
		},
	}
}

type whoami struct {
	Authenticated     bool       `json:"authenticated"`
	Username          string     `json:"username,omitempty"`
	Role              string     `json:"role,omitempty"`
	Subject           string     `json:"subject,omitempty"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
	Expired           bool       `json:"expired"`
	FeedbackSubmitted bool       `json:"feedbackSubmitted"`
	BaseURL           string     `json:"baseUrl"`
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			if err := app.open(ctx); err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, app.whoami(ctx))
		},
	}
}

func (app *App) whoami(_ context.Context) whoami {
	w := whoami{
		Authenticated:     app.sess.Authenticated(),
		BaseURL:           app.client.BaseURL(),
		FeedbackSubmitted: app.sess.FeedbackSubmitted(),
	}
	if !w.Authenticated {
		return w
	}
	w.Username = app.sess.Username()
	w.Role = string(app.sess.Role())
	w.Expired = app.sess.Expired(time.Now())
	if c, err := app.sess.Claims(); err == nil {
		w.Subject = c.Subject
		if !c.ExpiresAt.IsZero() {
			exp := c.ExpiresAt
			w.ExpiresAt = &exp
		}
	}
	return w
}
