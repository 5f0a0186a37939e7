package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"itask-cli/internal/docs"
)

func newDocsCmd(app *App) *cobra.Command {
	var raw, asHTML bool

	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show built-in help topics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"topics": docs.Topics()}})
			}

			topic := args[0]
			body, ok := docs.Get(topic)
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown docs topic: %q (run `itask docs` to list topics)", topic))
			}
			if asHTML {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), docs.RenderHTML(body))
				return err
			}
			if raw {
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"topic": topic, "markdown": body}})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw markdown (no JSON envelope)")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Print the topic rendered as HTML")
	return cmd
}
