package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"itask-cli/internal/admin"
	"itask-cli/internal/model"
)

var errAdminOnly = errors.New("admin access required")

func newAdminCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrator dashboard commands",
	}
	cmd.AddCommand(newAdminStatsCmd(app))
	cmd.AddCommand(newAdminUsersCmd(app))
	cmd.AddCommand(newAdminRoleCmd(app))
	cmd.AddCommand(newAdminDeleteUserCmd(app))
	cmd.AddCommand(newAdminFeedbacksCmd(app))
	cmd.AddCommand(newAdminDeleteFeedbackCmd(app))
	cmd.AddCommand(newAdminExportCmd(app))
	return cmd
}

// loadDashboard requires an admin session and reads the dashboard once.
func loadDashboard(cmd *cobra.Command, app *App) (*admin.Dashboard, error) {
	ctx := cmdContext(cmd)
	if err := app.requireSession(ctx); err != nil {
		return nil, err
	}
	if !app.sess.IsAdmin() {
		return nil, errAdminOnly
	}
	d := admin.New(app.client, app.log)
	if err := d.Load(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

type statsView model.Stats

func (s statsView) Table() ([]string, [][]string) {
	return []string{"Metric", "Value"}, [][]string{
		{"Total users", strconv.Itoa(s.TotalUsers)},
		{"Admins", strconv.Itoa(s.TotalAdmins)},
		{"Feedbacks", strconv.Itoa(s.TotalFeedbacks)},
		{"Average rating", strconv.FormatFloat(s.AvgRating, 'f', 1, 64)},
	}
}

type userRows []model.User

func (r userRows) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(r))
	for _, u := range r {
		rows = append(rows, []string{u.ID, u.Name, u.Email, string(u.Role)})
	}
	return []string{"ID", "Name", "Email", "Role"}, rows
}

type feedbackRows []model.Feedback

func (r feedbackRows) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(r))
	for _, f := range r {
		rows = append(rows, []string{f.ID, f.UserName, f.UserEmail, strconv.Itoa(f.Rating), f.Suggestion})
	}
	return []string{"ID", "User", "Email", "Rating", "Suggestion"}, rows
}

func newAdminStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show user and feedback totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDashboard(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, statsView(d.Snapshot().Stats))
		},
	}
}

func newAdminUsersCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDashboard(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, userRows(nonNil(d.Snapshot().Users)))
		},
	}
}

func newAdminFeedbacksCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "feedbacks",
		Short: "List feedback from all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDashboard(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, feedbackRows(nonNil(d.Snapshot().Feedbacks)))
		},
	}
}

func newAdminRoleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "toggle-role <user-id>",
		Aliases: []string{"role"},
		Short:   "Flip a user between admin and user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDashboard(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			u, ok := d.User(args[0])
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown user: %s", args[0]))
			}
			snap, err := d.ToggleRole(cmdContext(cmd), u)
			if err := commitAdmin(cmd, d, snap, err); err != nil {
				return writeErr(cmd, err)
			}
			u, _ = d.User(args[0])
			return writeData(cmd, app, u)
		},
	}
}

func newAdminDeleteUserCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-user <user-id>",
		Short: "Delete a user along with their todos and feedback",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDashboard(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			u, ok := d.User(args[0])
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown user: %s", args[0]))
			}
			if !yes {
				ok, err := newPrompter(cmd).confirm("Delete User", fmt.Sprintf("Are you sure you want to delete %s (%s)?", u.Name, u.Email))
				if err != nil {
					return writeErr(cmd, err)
				}
				if !ok {
					return writeErr(cmd, errCancelled)
				}
			}
			snap, err := d.DeleteUser(cmdContext(cmd), u.ID)
			if err := commitAdmin(cmd, d, snap, err); err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, userRows(nonNil(d.Snapshot().Users)))
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newAdminDeleteFeedbackCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-feedback <feedback-id>",
		Short: "Delete one feedback entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDashboard(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !yes {
				ok, err := newPrompter(cmd).confirm("Delete Feedback", "Are you sure you want to delete this feedback?")
				if err != nil {
					return writeErr(cmd, err)
				}
				if !ok {
					return writeErr(cmd, errCancelled)
				}
			}
			snap, err := d.DeleteFeedback(cmdContext(cmd), args[0])
			if err := commitAdmin(cmd, d, snap, err); err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, feedbackRows(nonNil(d.Snapshot().Feedbacks)))
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// commitAdmin applies a dashboard change. When only the reread failed the
// change still went through, so it is reported as a warning.
func commitAdmin(cmd *cobra.Command, d *admin.Dashboard, snap admin.Snapshot, err error) error {
	err = d.Commit(snap, err)
	var re *admin.RefreshError
	if errors.As(err, &re) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", re)
		return nil
	}
	return err
}
