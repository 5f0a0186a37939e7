package cli

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"itask-cli/internal/feedback"
)

func newFeedbackCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Send or check your one-time feedback",
	}
	cmd.AddCommand(newFeedbackShowCmd(app))
	cmd.AddCommand(newFeedbackSubmitCmd(app))
	return cmd
}

func newFeedbackShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show whether you already sent feedback",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			if err := app.requireSession(ctx); err != nil {
				return writeErr(cmd, err)
			}
			st, err := feedback.New(app.client, app.sess, app.log).Check(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, st)
		},
	}
}

func newFeedbackSubmitCmd(app *App) *cobra.Command {
	var (
		suggestion string
		rating     int
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Send a rating (1-5) and a suggestion",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			if err := app.requireSession(ctx); err != nil {
				return writeErr(cmd, err)
			}
			svc := feedback.New(app.client, app.sess, app.log)
			// The local flag may be stale; ask the backend first.
			if _, err := svc.Check(ctx); err != nil {
				app.log.Debug("feedback check before submit failed", zap.Error(err))
			}

			if suggestion == "" || rating == 0 {
				p := newPrompter(cmd)
				if suggestion == "" {
					s, err := p.line("Suggestion")
					if err != nil {
						return writeErr(cmd, err)
					}
					suggestion = s
				}
				if rating == 0 {
					s, err := p.line("Rating (1-5)")
					if err != nil {
						return writeErr(cmd, err)
					}
					rating, _ = strconv.Atoi(s)
				}
			}

			err := svc.Submit(ctx, feedback.Draft{Suggestion: suggestion, Rating: rating})
			if err != nil {
				return writeErr(cmd, errors.New(feedback.ErrorMessage(err)))
			}
			return writeData(cmd, app, map[string]any{"message": feedback.ThanksMessage})
		},
	}

	cmd.Flags().StringVar(&suggestion, "suggestion", "", "What could be better")
	cmd.Flags().IntVar(&rating, "rating", 0, "Rating from 1 to 5")
	return cmd
}
