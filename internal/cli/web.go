package cli

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"itask-cli/internal/route"
	"itask-cli/internal/webtui"
)

func newWebCmd(app *App) *cobra.Command {
	var addr, start string

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Run the TUI in your browser (server-side PTY + WebSocket)",
		Long: strings.TrimSpace(`
Serve the interactive TUI to a browser terminal. Each browser tab starts its own
TUI subprocess that shares this config dir, so the session is the one the CLI
uses.

No authentication is added in front of the page; bind to localhost.
`),
		Example: strings.TrimSpace(`
# Serve on localhost
itask web --addr 127.0.0.1:3334

# Start every session on the todo list
itask web --start /todo
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			var r route.Route
			if s := strings.TrimSpace(start); s != "" {
				r = route.Normalize(s)
				if !r.Known() {
					return writeErr(cmd, fmt.Errorf("unknown route: %q", s))
				}
			}

			srv, err := webtui.NewServer(webtui.ServerConfig{
				Addr:      strings.TrimSpace(addr),
				ConfigDir: app.ConfigDir,
				BaseURL:   app.client.BaseURL(),
				Start:     r,
				Log:       app.log,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			listenAddr := srv.Addr()
			if listenAddr == "" {
				return writeErr(cmd, errors.New("web: missing --addr"))
			}

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      listenAddr,
					"baseUrl":   app.client.BaseURL(),
					"start":     string(r),
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": []string{"open http://" + listenAddr},
			})
			app.log.Info("web terminal listening", zap.String("addr", listenAddr))
			fmt.Fprintf(cmd.ErrOrStderr(), "iTask web running at http://%s\n", listenAddr)
			return http.ListenAndServe(listenAddr, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3334", "Bind address (host:port or :port)")
	cmd.Flags().StringVar(&start, "start", "", "First screen of each session, e.g. /todo")
	return cmd
}
