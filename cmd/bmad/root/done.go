package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bmad/internal/ui"
)

func newDoneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Complete a task",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("id is required")
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

			res, err := svc.CompleteTask(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconDone, "Completed"))
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Task", res.Task.Title))
			if res.EnergyAwarded > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Energy", fmt.Sprintf("+%.0f %s", res.EnergyAwarded, ui.IconBolt)))
			}
			for _, a := range res.Unlocked {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s — %s\n", ui.BadgeUnlock, a.Emoji, ui.Gold.Render(a.Name), ui.Muted.Render(a.Description))
			}
			return nil
		},
	}
	return cmd
}
