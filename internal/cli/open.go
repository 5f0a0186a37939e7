package cli

import (
	"github.com/spf13/cobra"

	"itask-cli/internal/route"
)

type resolvedRoute struct {
	Requested     string      `json:"requested"`
	Route         route.Route `json:"route"`
	Authenticated bool        `json:"authenticated"`
}

func newOpenCmd(app *App) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "open <path>",
		Short: "Start the TUI on a screen (e.g. /todo, /admin)",
		Long: "Start the TUI on the screen at path.\n\n" +
			"Private screens fall back to /login when nobody is signed in, and unknown paths land on /login.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun {
				ctx := cmdContext(cmd)
				if err := app.open(ctx); err != nil {
					return writeErr(cmd, err)
				}
				authed := app.sess.Authenticated()
				return writeData(cmd, app, resolvedRoute{
					Requested:     args[0],
					Route:         route.Resolve(args[0], authed),
					Authenticated: authed,
				})
			}
			return runTUI(cmd, app, args[0])
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the screen that would open instead of starting the TUI")
	return cmd
}
