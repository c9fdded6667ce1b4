package root

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bmad/internal/ui"
)

func newLogCmd() *cobra.Command {
	var history bool

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show today's analytics log",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if history {
				logs, err := svc.Analytics().History(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconChart, "History"))
				for _, l := range logs {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s tasks, %s points, %s overloads\n",
						ui.Key.Render(l.ID),
						ui.Good.Render(fmt.Sprintf("%d", l.TasksCompleted)),
						ui.Good.Render(fmt.Sprintf("%.0f", l.TotalPoints)),
						ui.Warn.Render(fmt.Sprintf("%d", l.OverloadCount)))
				}
				return nil
			}

			cur := svc.Analytics().CurrentLog()
			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconChart, "Today"))
			if cur == nil {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("nothing logged yet"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Tasks completed", cur.TasksCompleted))
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Points", fmt.Sprintf("%.0f", cur.TotalPoints)))
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Overloads", cur.OverloadCount))
			for _, r := range cur.Records {
				at := time.UnixMilli(r.CompletedAt).Format("15:04")
				switch r.Type {
				case "overload":
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s %s\n", ui.Dim.Render(at), ui.IconWarn, ui.Warn.Render(r.Title))
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s %s %s\n", ui.Dim.Render(at), ui.IconDone, r.Title, ui.Muted.Render(fmt.Sprintf("(%.0f)", r.Points)))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&history, "history", false, "Show every day on record")
	return cmd
}
