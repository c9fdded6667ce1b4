package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bmad/internal/ui"
)

func newAddCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("title is required")
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

			if svc.Load().IsSystemOverloaded() && !force {
				return errors.New("system overloaded: reduce your load, or pass --force to override")
			}
			if force {
				svc.Load().ActivateOverride()
			}

			task, err := svc.AddTask(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconPlus, "Added"))
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Task", task.Title))
			fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("id "+task.ID))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Add even while overloaded (activates override)")
	return cmd
}
