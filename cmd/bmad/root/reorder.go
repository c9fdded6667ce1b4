package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bmad/internal/ui"
)

func newReorderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reorder <id>...",
		Short: "Set the board order to the given ids",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("at least one id is required")
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

			if err := svc.ReorderTasks(ctx, args); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Reordered", len(args)))
			return nil
		},
	}
	return cmd
}
