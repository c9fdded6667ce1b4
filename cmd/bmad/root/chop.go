package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bmad/internal/ui"
)

func newChopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chop <id> <title>...",
		Short: "Split a task into smaller ones",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return errors.New("id and at least one subtask title are required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			tasks, err := svc.ChopTask(ctx, args[0], args[1:])
			if err != nil {
				return err
			}
			if tasks == nil {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("no such task"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconSparkle, fmt.Sprintf("Chopped into %d", len(tasks))))
			for _, t := range tasks {
				fmt.Fprintf(cmd.OutOrStdout(), "- %s %s\n", t.Title, ui.Dim.Render(t.ID))
			}
			return nil
		},
	}
	return cmd
}
