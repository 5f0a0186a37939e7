package cli

import (
	"github.com/spf13/cobra"

	"itask-cli/internal/publish"
)

func newTodosExportCmd(app *App) *cobra.Command {
	var to string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the todo list to <dir>/todos.md",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadTodos(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := publish.WriteTodos(c.Items(), to, publish.WriteOptions{
				Overwrite: overwrite,
				Render:    publish.RenderOptions{Owner: app.sess.Username()},
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, res)
		},
	}
	cmd.Flags().StringVar(&to, "to", ".", "Output directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing export")
	return cmd
}

func newAdminExportCmd(app *App) *cobra.Command {
	var to string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write totals, users and feedback to <dir>/dashboard.md",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDashboard(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := publish.WriteDashboard(d.Snapshot(), to, publish.WriteOptions{Overwrite: overwrite})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, res)
		},
	}
	cmd.Flags().StringVar(&to, "to", ".", "Output directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing export")
	return cmd
}
