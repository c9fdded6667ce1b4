package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bmad/internal/engine"
	"bmad/internal/ui"
)

func newListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			var tasks []engine.Task
			if all {
				tasks, err = svc.AllTasks(ctx)
			} else {
				tasks, err = svc.ActiveTasks(ctx)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconTask, "Tasks"))
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("nothing here"))
				return nil
			}
			for _, t := range tasks {
				points := ui.Muted.Render("[ ? ]")
				if t.Points > 0 {
					points = ui.Key.Render(fmt.Sprintf("[%3.0f]", t.Points))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s  %s\n",
					points, ui.StatusText(string(t.Status)), t.Title, ui.Dim.Render(t.ID))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed and archived tasks")
	return cmd
}
